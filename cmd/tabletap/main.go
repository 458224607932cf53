package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/tabletap/tabletap/internal/auth"
	"github.com/tabletap/tabletap/internal/bill"
	"github.com/tabletap/tabletap/internal/event"
	"github.com/tabletap/tabletap/internal/menu"
	"github.com/tabletap/tabletap/internal/mongo"
	"github.com/tabletap/tabletap/internal/session"
)

const (
	appNamespace = "TABLETAP"
	appName      = "tabletap"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup with error: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	lifecycle := []interface{}{}

	baseRepo := mongo.NewBaseRepo(config, logger)
	if err := baseRepo.Start(ctx); err != nil {
		log.Fatalf("%s(%s) cannot start repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		err := errors.New("cannot get base repo database")
		log.Fatalf("%s(%s) cannot initialize database: %v", appName, appVersion, err)
	}

	dbLifecycle := apt.LifecycleHooks{
		OnStop: baseRepo.Stop,
	}
	lifecycle = append(lifecycle, dbLifecycle)

	sessionRepo := mongo.NewSessionRepo(db)
	menuItemRepo := mongo.NewMenuItemRepo(db)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	publisher, err := event.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	}
	lifecycle = append(lifecycle, publisherLifecycle)

	subscriber, err := event.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	subscriberLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return subscriber.Close()
		},
	}
	lifecycle = append(lifecycle, subscriberLifecycle)

	hub := session.NewEventHub(logger)

	eventSubscriber := session.NewEventSubscriber(subscriber, hub, logger)
	subscriberHooks := apt.LifecycleHooks{
		OnStart: eventSubscriber.Start,
	}
	lifecycle = append(lifecycle, subscriberHooks)

	jwtSecret := config.GetStringOrDef("auth.jwt.secret", "change-me-in-production")
	authService := auth.NewService(jwtSecret, logger)

	sessionHandler := session.NewHandler(
		session.HandlerDeps{
			SessionRepo: sessionRepo,
			Publisher:   publisher,
			Hub:         hub,
			ChefGuard:   authService.ChefOnly,
		},
		config,
		logger,
	)
	billHandler := bill.NewHandler(sessionRepo, logger)
	menuHandler := menu.NewHandler(menuItemRepo, authService.ChefOnly, logger)
	authHandler := auth.NewHandler(authService, config, logger)

	// The menu catalog always seeds on first start; demo sessions only when
	// asked for.
	menuSeedHooks := apt.LifecycleHooks{
		OnStart: menu.SeedingFunc(seedCtx, menuItemRepo, db, logger),
	}
	lifecycle = append(lifecycle, menuSeedHooks)

	demoEnabled, _ := config.GetString("seeding.demo")
	if demoEnabled == "true" {
		logger.Info("Demo seeding enabled")
		demoSeedHooks := apt.LifecycleHooks{
			OnStart: session.DemoSeedingFunc(seedCtx, sessionRepo, db, logger),
		}
		lifecycle = append(lifecycle, demoSeedHooks)
	}

	// Diner phones and the dashboard are browser clients on other origins.
	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: false,
	})

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", sessionHandler, billHandler, menuHandler, authHandler),
		apt.WithLifecycle(lifecycle...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
