package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/repository"
)

// Connect opens the database selected by driver ("postgres" or "sqlite").
func Connect(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.Booking{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

type AdminSeed struct {
	Email    string
	Username string
	Password string
	FullName string
}

// SeedAdmin creates the administrator account unless its email is already registered.
func SeedAdmin(ctx context.Context, users *repository.UserRepository, seed AdminSeed, log *zap.Logger) error {
	if seed.Password == "" {
		log.Warn("ADMIN_PASSWORD not set, skipping admin seeding")
		return nil
	}

	_, err := users.FindUserByEmail(ctx, seed.Email)
	if err == nil {
		log.Info("admin user already exists", zap.String("email", seed.Email))
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check for admin user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	fullName := seed.FullName
	admin := models.User{
		Email:          seed.Email,
		Username:       seed.Username,
		HashedPassword: string(hashedPassword),
		FullName:       &fullName,
		Role:           models.RoleAdmin,
		IsActive:       true,
	}
	if err := users.CreateUser(ctx, &admin); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	log.Info("admin user seeded", zap.String("email", seed.Email))
	return nil
}

// SeedServices fills an empty catalog with the starter services.
func SeedServices(ctx context.Context, services *repository.ServiceRepository, log *zap.Logger) error {
	count, err := services.CountServices(ctx)
	if err != nil {
		return fmt.Errorf("count services: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, s := range sampleServices() {
		if err := services.CreateService(ctx, &s); err != nil {
			return fmt.Errorf("seed service %q: %w", s.Title, err)
		}
	}
	log.Info("sample services created", zap.Int("count", len(sampleServices())))
	return nil
}

func sampleServices() []models.Service {
	entry := func(title, category, description string, price int64, minutes int, expert string) models.Service {
		return models.Service{
			Title:           title,
			Category:        category,
			Description:     &description,
			Price:           decimal.NewFromInt(price),
			DurationMinutes: minutes,
			ExpertName:      &expert,
			IsActive:        true,
		}
	}

	return []models.Service{
		entry("Morning Yoga Flow", "Yoga Therapy",
			"Start your day with energizing yoga poses and breathing exercises to improve flexibility and mental clarity",
			999, 60, "Dr. Sarah Johnson"),
		entry("Personalized Diet Plan", "Nutrition Consultation",
			"Get a customized nutrition plan based on your health goals, lifestyle, and dietary preferences",
			1499, 45, "Nutritionist Mike Chen"),
		entry("Stress Management Workshop", "Mental Wellness Workshop",
			"Learn evidence-based techniques to manage stress, anxiety, and improve overall mental well-being",
			799, 90, "Dr. Emily Roberts"),
		entry("Expert Wellness Consultation", "One-on-One Expert Call",
			"Private one-on-one consultation with experienced wellness experts for personalized guidance",
			599, 30, "Various Experts"),
		entry("Guided Meditation Session", "Meditation & Mindfulness",
			"Deep relaxation through guided meditation practices to reduce stress and enhance mindfulness",
			499, 45, "Master Li Wei"),
		entry("HIIT Workout Training", "Fitness Training",
			"High-intensity interval training designed for fitness enthusiasts to build strength and endurance",
			899, 60, "Coach David Martinez"),
	}
}
