package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/hray3182/CareMind/internal/access"
	"github.com/hray3182/CareMind/internal/ai"
	"github.com/hray3182/CareMind/internal/auth"
	"github.com/hray3182/CareMind/internal/bot"
	bothandlers "github.com/hray3182/CareMind/internal/bot/handlers"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/config"
	"github.com/hray3182/CareMind/internal/database"
	"github.com/hray3182/CareMind/internal/events"
	caremindhttp "github.com/hray3182/CareMind/internal/http"
	httpH "github.com/hray3182/CareMind/internal/http/handlers"
	httpMW "github.com/hray3182/CareMind/internal/http/middleware"
	"github.com/hray3182/CareMind/internal/linkcode"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/notify"
	"github.com/hray3182/CareMind/internal/observability"
	"github.com/hray3182/CareMind/internal/repository"
	"github.com/hray3182/CareMind/internal/scheduler"
)

type notifier interface {
	care.Notifier
	notify.CompletionNotifier
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Validate required config
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}
	loc := cfg.Location()

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, log, observability.Config{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
		Environment: cfg.LogMode,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()
	log.Info("Connected to database")

	// Run migrations
	if err := db.Migrate(ctx, log); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}
	log.Info("Database migrations completed")

	medications := repository.NewMedicationRepository(db)
	routines := repository.NewRoutineRepository(db)
	profiles := repository.NewProfileRepository(db)
	family := repository.NewFamilyRepository(db)
	codes := linkcode.NewIssuer(repository.NewLinkCodeRepository(db), cfg.LinkCodeTTL, nil)

	// Redis backs the event bus and the job lock when configured
	var (
		bus    events.Bus
		locker scheduler.Locker = scheduler.NoopLocker{}
		rdb    *goredis.Client
	)
	if cfg.RedisAddr != "" {
		rdb, err = events.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("Failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer rdb.Close()
		bus, err = events.NewRedisBus(log, rdb, cfg.RedisChannel)
		if err != nil {
			log.Fatal("Failed to create event bus", "error", err)
		}
		locker = scheduler.NewRedisLocker(rdb)
		log.Info("Using redis event bus", "addr", cfg.RedisAddr, "channel", cfg.RedisChannel)
	} else {
		bus = events.NewMemoryBus()
		log.Info("Using in-process event bus")
	}
	defer bus.Close()

	// Telegram is optional; without it alerts are only logged
	var (
		tgAPI *tgbotapi.BotAPI
		alert notifier
	)
	if cfg.TelegramToken != "" {
		tgAPI, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Fatal("Failed to create Telegram API", "error", err)
		}
		alert = notify.NewTelegram(tgAPI, log, loc)
	} else {
		log.Info("Telegram not configured, notifications will only be logged")
		alert = notify.NewLogOnly(log)
	}

	if err := notify.NewForwarder(alert, profiles, family, log).Start(ctx, bus); err != nil {
		log.Fatal("Failed to subscribe to events", "error", err)
	}

	svc := care.NewService(care.Deps{
		Medications: medications,
		Routines:    routines,
		Profiles:    profiles,
		Family:      family,
		Events:      bus,
		Notifier:    alert,
		Logger:      log,
		Location:    loc,
		Grace:       cfg.MissedGrace,
	})

	// Initialize AI client (optional)
	var drafter httpH.Drafter
	var botDrafter bothandlers.Drafter
	if cfg.AIAPIKey != "" {
		aiClient := ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		drafter, botDrafter = aiClient, aiClient
		log.Info("AI client initialized", "model", cfg.AIModel)
	} else {
		log.Info("AI client not configured, medication drafts disabled")
	}

	// Create and start scheduler
	sched, err := scheduler.New(svc, locker, log, scheduler.Config{
		ResetSpec:   cfg.ResetCron,
		MonitorSpec: cfg.MonitorCron,
		Location:    loc,
	})
	if err != nil {
		log.Fatal("Failed to create scheduler", "error", err)
	}
	go sched.Start(ctx)

	// SIGHUP runs both jobs immediately
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				sched.Notify()
			}
		}
	}()

	// Create and start bot
	if tgAPI != nil {
		b := bot.New(tgAPI, bothandlers.New(tgAPI, profiles, codes, svc, botDrafter, log), log)
		go func() {
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Bot stopped", "error", err)
			}
		}()
	}

	checker := access.NewChecker(family)
	server := caremindhttp.NewServer(caremindhttp.RouterConfig{
		Logger:         log,
		CORSOrigins:    cfg.CORSOrigins,
		CronSecret:     cfg.CronSecret,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth.NewVerifier(cfg.JWTSecret)),
		ItemHandler:    httpH.NewItemHandler(log, svc, checker),
		AgendaHandler:  httpH.NewAgendaHandler(log, svc, checker),
		FamilyHandler:  httpH.NewFamilyHandler(log, family, profiles, codes),
		CodeHandler:    httpH.NewLinkCodeHandler(log, codes, profiles, checker),
		VoiceHandler:   httpH.NewVoiceHandler(log, svc, checker),
		ParseHandler:   httpH.NewParseHandler(log, drafter, checker),
		CronHandler:    httpH.NewCronHandler(log, svc),
		HealthHandler:  httpH.NewHealthHandler(),
	})

	log.Info("Starting HTTP server", "addr", cfg.HTTPAddr)
	if err := server.Run(ctx, cfg.HTTPAddr); err != nil {
		log.Error("HTTP server error", "error", err)
	}
	log.Info("Shutting down...")
}
