package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/corvexa/it-services-portal/internal/config"
	"github.com/corvexa/it-services-portal/internal/database"
	"github.com/corvexa/it-services-portal/internal/handler"
	"github.com/corvexa/it-services-portal/internal/jobs"
	"github.com/corvexa/it-services-portal/internal/logging"
	"github.com/corvexa/it-services-portal/internal/mail"
	"github.com/corvexa/it-services-portal/internal/metrics"
	"github.com/corvexa/it-services-portal/internal/middleware"
	"github.com/corvexa/it-services-portal/internal/notify"
	"github.com/corvexa/it-services-portal/internal/queue"
	"github.com/corvexa/it-services-portal/internal/repository"
	"github.com/corvexa/it-services-portal/internal/router"
	"github.com/corvexa/it-services-portal/internal/service"
	"github.com/corvexa/it-services-portal/internal/utils"
)

func main() {
	cfg := config.Load()
	log := logging.NewLogger(logging.Config{
		ServiceName: "it-services-portal",
		Environment: cfg.Env,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until ctx is cancelled.  Every resource
// opened here is released by a deferred close before run returns.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	schedule, err := config.LoadSchedule(cfg.ScheduleFile)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	adminEmails := schedule.AdminEmails
	if len(cfg.AdminEmails) > 0 {
		adminEmails = cfg.AdminEmails
	}
	if err := router.CheckPageDirs(cfg.StaticDir, cfg.PagesDir); err != nil {
		return err
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBMaxOpenConns)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DBHost, err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	metrics.Register(prometheus.DefaultRegisterer)

	// repositories
	users := repository.NewUserRepo(db)
	codes := repository.NewCodeRepo(db)
	resets := repository.NewResetRepo(db)
	slots := repository.NewSlotRepo(db)
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	attempts := repository.NewAttemptRepo(rdb)

	// notifications: SMTP when configured, the log otherwise; through
	// RabbitMQ when AMQP_URL is set
	var deliverer notify.Deliverer = notify.LogDeliverer{Log: log}
	if cfg.SMTPHost != "" {
		deliverer = mail.New(mail.Config{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.MailFrom,
		})
	}
	direct := notify.NewAsync(deliverer, log)
	defer direct.Wait()
	var notifier notify.Notifier = direct
	if cfg.AMQPURL != "" {
		pub := queue.NewPublisher(cfg.AMQPURL, direct, log)
		defer pub.Close()
		notifier = pub
		consumer := queue.NewConsumer(cfg.AMQPURL, deliverer, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("email consumer stopped", "error", err)
			}
		}()
	}

	// services
	auth := service.NewAuthService(users, codes, resets, attempts, notifier, service.AuthConfig{
		JWTSecret:     cfg.JWTSecret,
		AccessTTL:     time.Duration(cfg.AccessTTLMin) * time.Minute,
		CodeTTL:       time.Duration(cfg.OTPTTLMin) * time.Minute,
		ResetTTL:      time.Duration(cfg.ResetTTLMin) * time.Minute,
		MaxAttempts:   cfg.OTPMaxAttempts,
		BcryptCost:    cfg.BcryptCost,
		PublicBaseURL: cfg.PublicBaseURL,
	}, log)
	bookings := service.NewBookingService(slots, notifier, service.SeedPlan{
		Days:         schedule.SeedDays,
		Times:        schedule.Times,
		SkipWeekends: schedule.WeekendsSkipped(),
	}, adminEmails, log)
	clients := service.NewClientService(users, notifier, cfg.BcryptCost, cfg.PublicBaseURL, log)

	if _, err := bookings.Seed(ctx); err != nil {
		log.Error("seed slots", "error", err)
	}

	purge := jobs.NewPurgeJob(log,
		jobs.Target{Table: "mfa_codes", Purger: codes},
		jobs.Target{Table: "password_resets", Purger: resets},
	)
	scheduler, err := jobs.Start(cfg.PurgeSchedule, purge)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewRequestValidator()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(middleware.Metrics())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
		}))
	}
	e.Use(echomw.BodyLimit("1M"))

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(auth, cfg.Env == "prod"), cfg.JWTSecret, limiter)
	router.RegisterBooking(e, handler.NewBookingHandler(bookings), limiter)
	router.RegisterAdmin(e, handler.NewAdminHandler(bookings, clients), cfg.JWTSecret)
	router.RegisterPages(e, cfg.StaticDir, cfg.PagesDir, cfg.JWTSecret)

	serveErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	return nil
}
