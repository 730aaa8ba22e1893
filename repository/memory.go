package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anjiri1684/wellness_booking/models"
)

// MemoryStore keeps users, services and bookings in process memory with the
// same uniqueness rules as the SQL schema. It backs tests and local demos.
type MemoryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	seq      int64
	users    map[uuid.UUID]models.User
	services map[uuid.UUID]models.Service
	bookings map[uuid.UUID]memBooking
}

type memBooking struct {
	seq     int64
	booking models.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		users:    make(map[uuid.UUID]models.User),
		services: make(map[uuid.UUID]models.Service),
		bookings: make(map[uuid.UUID]memBooking),
	}
}

// SetClock overrides the timestamp source used for CreatedAt.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return ErrDuplicateKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) FindUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Email == email })
}

func (m *MemoryStore) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Username == username })
}

func (m *MemoryStore) ListUsersByRole(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) SetUserActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}

func (m *MemoryStore) UpdateProfile(_ context.Context, id uuid.UUID, fullName, phone *string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if fullName != nil {
		v := *fullName
		u.FullName = &v
	}
	if phone != nil {
		v := *phone
		u.Phone = &v
	}
	m.users[id] = u
	return &u, nil
}

func (m *MemoryStore) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateService(_ context.Context, s *models.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	m.services[s.ID] = *s
	return nil
}

func (m *MemoryStore) SaveService(_ context.Context, s *models.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.services[s.ID]
	if !ok {
		return ErrNotFound
	}
	updated := *s
	updated.CreatedAt = existing.CreatedAt
	m.services[s.ID] = updated
	return nil
}

func (m *MemoryStore) FindService(_ context.Context, id uuid.UUID) (*models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) FindActiveService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	s, err := m.FindService(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.IsActive {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) ListActiveServices(_ context.Context, category string, skip, limit int) ([]models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Service
	for _, s := range m.services {
		if s.IsActive && (category == "" || s.Category == category) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListCategories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{})
	var out []string
	for _, s := range m.services {
		if _, ok := seen[s.Category]; ok {
			continue
		}
		seen[s.Category] = struct{}{}
		out = append(out, s.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) CreateBooking(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[b.UserID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.services[b.ServiceID]; !ok {
		return ErrNotFound
	}
	if b.Status != models.BookingCancelled && m.activeConflict(b.UserID, b.ServiceID, b.BookingDate, b.TimeSlot) {
		return ErrDuplicateKey
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = m.now()
	}
	m.seq++
	stored := *b
	stored.User, stored.Service = nil, nil
	m.bookings[b.ID] = memBooking{seq: m.seq, booking: stored}
	return nil
}

func (m *MemoryStore) HasActiveBooking(_ context.Context, userID, serviceID uuid.UUID, date time.Time, slot string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeConflict(userID, serviceID, date, slot), nil
}

func (m *MemoryStore) activeConflict(userID, serviceID uuid.UUID, date time.Time, slot string) bool {
	for _, entry := range m.bookings {
		b := entry.booking
		if b.UserID == userID && b.ServiceID == serviceID && b.BookingDate.Equal(date) &&
			b.TimeSlot == slot && b.Status != models.BookingCancelled {
			return true
		}
	}
	return false
}

func (m *MemoryStore) FindUserBooking(_ context.Context, id, userID uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.bookings[id]
	if !ok || entry.booking.UserID != userID {
		return nil, ErrNotFound
	}
	return m.hydrate(entry.booking, false), nil
}

func (m *MemoryStore) SaveBookingState(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.bookings[b.ID]
	if !ok {
		return ErrNotFound
	}
	m.applyState(&entry, b)
	m.bookings[b.ID] = entry
	return nil
}

func (m *MemoryStore) UpdateUserBooking(_ context.Context, id, userID uuid.UUID, fn func(*models.Booking) error) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.bookings[id]
	if !ok || entry.booking.UserID != userID {
		return nil, ErrNotFound
	}
	working := entry.booking
	if err := fn(&working); err != nil {
		return nil, err
	}
	m.applyState(&entry, &working)
	m.bookings[id] = entry
	return m.hydrate(entry.booking, false), nil
}

func (m *MemoryStore) applyState(entry *memBooking, b *models.Booking) {
	entry.booking.Status = b.Status
	entry.booking.PaymentStatus = b.PaymentStatus
	entry.booking.PaymentID = b.PaymentID
	entry.booking.CancelledAt = b.CancelledAt
}

func (m *MemoryStore) ListUserBookings(_ context.Context, userID uuid.UUID) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []memBooking
	for _, entry := range m.bookings {
		if entry.booking.UserID == userID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].booking.CreatedAt, entries[j].booking.CreatedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return entries[i].seq > entries[j].seq
	})

	out := make([]models.Booking, 0, len(entries))
	for _, entry := range entries {
		out = append(out, *m.hydrate(entry.booking, false))
	}
	return out, nil
}

func (m *MemoryStore) ListBookingsOn(_ context.Context, date time.Time, statuses ...models.BookingStatus) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []memBooking
	for _, entry := range m.bookings {
		if !entry.booking.BookingDate.Equal(date) {
			continue
		}
		for _, status := range statuses {
			if entry.booking.Status == status {
				entries = append(entries, entry)
				break
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]models.Booking, 0, len(entries))
	for _, entry := range entries {
		out = append(out, *m.hydrate(entry.booking, true))
	}
	return out, nil
}

func (m *MemoryStore) hydrate(b models.Booking, withUser bool) *models.Booking {
	if s, ok := m.services[b.ServiceID]; ok {
		b.Service = &s
	}
	if withUser {
		if u, ok := m.users[b.UserID]; ok {
			b.User = &u
		}
	}
	return &b
}
