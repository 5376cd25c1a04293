package main // Entry point package

import (
	"context" // Request-scoped cancellation for startup and background work
	"log"     // Logging library

	"github.com/joho/godotenv"    // Loads .env files in local development
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/planning-poker/internal/config"
	"github.com/iliyamo/planning-poker/internal/database"
	"github.com/iliyamo/planning-poker/internal/handler"
	"github.com/iliyamo/planning-poker/internal/jira"
	"github.com/iliyamo/planning-poker/internal/queue"
	"github.com/iliyamo/planning-poker/internal/realtime"
	"github.com/iliyamo/planning-poker/internal/repository"
	"github.com/iliyamo/planning-poker/internal/router"
	"github.com/iliyamo/planning-poker/internal/service"
)

func main() {
	// .env is a local development convenience; in production the
	// variables come from the environment and the file is absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient() // nil when Redis is unavailable

	// Cross-instance fan-out needs Redis; without it the notifier is
	// in-process only, which is still correct for a single instance.
	var notifier realtime.Notifier
	if rdb != nil {
		notifier = realtime.NewRedisNotifier(rdb)
	} else {
		notifier = realtime.NewMemoryNotifier()
	}

	store := repository.NewStore(db)
	svc := service.NewRoomService(store, notifier, queue.PublishEstimateRecorded, cfg.Scale, cfg.ConsensusThreshold)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.StartEstimateConsumer()
	go svc.RunSweeper(ctx, cfg.SweepInterval, cfg.RoomTTL)

	rooms := handler.NewRoomHandler(svc, cfg.JWTSecret, cfg.SessionTTLMin)
	events := handler.NewEventsHandler(svc, notifier, cfg.Debounce)
	jiraH := handler.NewJiraHandler(jira.NewClient(cfg.JiraTimeout), cfg.JiraPointFields, cfg.JiraCommentTemplate)

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e, rooms)
	router.RegisterRoom(e, rooms, events, store, rdb, cfg.JWTSecret, config.LoadRateLimitConfig(), config.LoadCacheConfig())
	router.RegisterJira(e, jiraH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
