package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/notifications"
	"github.com/anjiri1684/wellness_booking/repository"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName, phone *string) (*models.User, error)
}

type AuthService struct {
	users    UserStore
	notifier notifications.Notifier
	log      *zap.Logger
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(users UserStore, notifier notifications.Notifier, log *zap.Logger, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		notifier: notifier,
		log:      log,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName *string
	Phone    *string
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	if taken, err := s.exists(ctx, s.users.FindUserByEmail, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := s.exists(ctx, s.users.FindUserByUsername, username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:          email,
		Username:       username,
		HashedPassword: string(hashedPassword),
		FullName:       in.FullName,
		Phone:          in.Phone,
		Role:           models.RoleUser,
		IsActive:       true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	notify(ctx, s.notifier, s.log, recipientOf(user), "Welcome to Wellness Platform!",
		fmt.Sprintf("Hi %s, welcome to our wellness community!", user.DisplayName()))
	return user, nil
}

func (s *AuthService) exists(ctx context.Context, find func(context.Context, string) (*models.User, error), value string) (bool, error) {
	_, err := find(ctx, value)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check user: %w", err)
	}
}

// Login verifies the credentials and issues a signed access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	expiresAt := s.now().Add(s.ttl)
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phone *string) (*models.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, fullName, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}
