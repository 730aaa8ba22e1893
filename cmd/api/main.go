package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/cache"
	config "github.com/anjiri1684/wellness_booking/configs"
	"github.com/anjiri1684/wellness_booking/database"
	"github.com/anjiri1684/wellness_booking/handlers"
	"github.com/anjiri1684/wellness_booking/jobs"
	"github.com/anjiri1684/wellness_booking/logger"
	"github.com/anjiri1684/wellness_booking/notifications"
	"github.com/anjiri1684/wellness_booking/payments"
	"github.com/anjiri1684/wellness_booking/repository"
	"github.com/anjiri1684/wellness_booking/routes"
	"github.com/anjiri1684/wellness_booking/services"
	"github.com/anjiri1684/wellness_booking/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	if err := database.SeedAdmin(ctx, userRepo, database.AdminSeed{
		Email:    cfg.AdminEmail,
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		FullName: cfg.AdminFullName,
	}, log); err != nil {
		return err
	}
	if cfg.SeedServices {
		if err := database.SeedServices(ctx, serviceRepo, log); err != nil {
			return err
		}
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	driver, closeDriver, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeDriver()
	notifier := notifications.Fanout{driver, hub}

	var catalogOpts []services.CatalogOption
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer client.Close()
		catalogOpts = append(catalogOpts, services.WithServiceCache(cache.NewServiceCache(client, cfg.CatalogCacheTTL)))
		log.Info("catalog cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	catalog := services.NewCatalogService(serviceRepo, log, catalogOpts...)
	gateway := payments.NewSimulator(nil, cfg.PaymentSuccessRate)
	bookings := services.NewBookingService(bookingRepo, userRepo, catalog, gateway, notifier, log,
		services.WithCancellationWindow(cfg.CancellationWindow))
	auth := services.NewAuthService(userRepo, notifier, log, cfg.JWTSecret, time.Duration(cfg.JWTExpireHours)*time.Hour)
	admin := services.NewAdminService(bookingRepo, userRepo)

	var uploads *handlers.UploadHandler
	if cfg.CloudinaryURL != "" {
		if uploads, err = handlers.NewUploadHandler(cfg.CloudinaryURL, cfg.UploadFolder, log); err != nil {
			return err
		}
	} else {
		log.Warn("CLOUDINARY_URL not set, image upload signatures disabled")
	}

	scheduler, err := jobs.NewScheduler(
		jobs.Schedule{Spec: cfg.ReminderSchedule, Job: jobs.NewReminderJob(bookingRepo, notifier, log)},
		jobs.Schedule{Spec: cfg.FollowUpSchedule, Job: jobs.NewPaymentFollowUpJob(bookingRepo, notifier, log)},
	)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Info("scheduled jobs started")

	app := newApp(cfg, log)
	routes.AuthRoutes(app, handlers.NewAuthHandler(auth, log), cfg.JWTSecret)
	routes.PublicRoutes(app, handlers.NewCatalogHandler(catalog, log))
	routes.BookingRoutes(app, handlers.NewBookingHandler(bookings, log), cfg.JWTSecret)
	routes.AdminRoutes(app, handlers.NewAdminHandler(admin, catalog, log), uploads, cfg.JWTSecret)
	routes.MessagingRoutes(app, handlers.NewWSHandler(hub, cfg.JWTSecret, log))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server is running", zap.String("addr", cfg.Addr()))
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newApp(cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			log.Error("request error",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to " + cfg.AppName + " API",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	return app
}

// buildNotifier returns the delivery channel selected by NOTIFY_DRIVER and a
// function releasing its connections.
func buildNotifier(cfg *config.Config, log *zap.Logger) (notifications.Notifier, func(), error) {
	noop := func() {}
	closer := func(c io.Closer, name string) func() {
		return func() {
			if err := c.Close(); err != nil {
				log.Warn("close notifier", zap.String("driver", name), zap.Error(err))
			}
		}
	}

	switch cfg.NotifyDriver {
	case "brevo":
		n, err := notifications.NewBrevoNotifier(notifications.BrevoConfig{
			APIKey:      cfg.BrevoAPIKey,
			SenderEmail: cfg.EmailSender,
			SenderName:  cfg.EmailSenderName,
		}, log)
		if err != nil {
			return nil, noop, err
		}
		return n, noop, nil
	case "rabbitmq":
		n, err := notifications.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, noop, err
		}
		return n, closer(n, "rabbitmq"), nil
	case "kafka":
		producer, err := notifications.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			return nil, noop, err
		}
		n := notifications.NewKafkaNotifier(producer, cfg.KafkaTopic)
		return n, closer(n, "kafka"), nil
	default:
		return notifications.NewLogNotifier(log), noop, nil
	}
}
