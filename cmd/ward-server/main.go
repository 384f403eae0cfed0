// Package main is the entry point for the Pabellón Nocturno ward server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/engine"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/infra/storage"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/network"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/metrics"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "YAML config overriding the embedded defaults")
	headless := flag.Bool("headless", false, "let a noise-driven player wander instead of waiting for MOVE actions")
	flag.Parse()

	appLogger := logger.NewLogger()
	appLogger.Info("Initializing 'Pabellón Nocturno' Authoritative Server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Tick.Seed == 0 {
		cfg.Tick.Seed = time.Now().UnixNano()
	}
	sessionID := uuid.NewString()
	collector := metrics.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session journal
	var (
		journal  *storage.Journal
		recapper *storage.Recapper
		sessions *storage.SQLiteSessionRepository
	)
	if cfg.Storage.Enabled {
		appLogger.Info("Initializing SQLite journal", "path", cfg.Storage.Path)
		db, err := storage.InitSQLite(cfg.Storage.Path)
		if err != nil {
			appLogger.Error("Failed to initialize SQLite", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		sessions = storage.NewSQLiteSessionRepository(db)
		err = sessions.Create(ctx, storage.Session{
			ID:        sessionID,
			StartedAt: time.Now().UnixNano(),
			Seed:      cfg.Tick.Seed,
			Detection: cfg.Antagonist.Detection,
		})
		if err != nil {
			appLogger.Error("Failed to record session", "error", err)
			os.Exit(1)
		}

		eventRepo := storage.NewSQLiteEventRepository(db)
		journal = storage.NewJournal(eventRepo, sessionID, appLogger.With("journal"))
		journal.OnWrite(func(n int) {
			collector.RecordJournalWrite(n)
			collector.SetJournalDropped(journal.Dropped())
		})
		recapper = storage.NewRecapper(eventRepo)
	}

	appLogger.Info("Bootstrapping EventLog...", "session", sessionID)
	var persister events.EventPersister
	if journal != nil {
		persister = journal
	}
	eventLog := events.NewEventLog(persister)
	bus := events.NewBus(eventLog)

	appLogger.Info("Bootstrapping ward floor...")
	floor := sim.NewFloor(60, 60, cfg.Tick.Seed)
	floor.AddWall(sim.Rect{Min: r3.Vec{X: 20, Y: 0}, Max: r3.Vec{X: 22, Y: 25}})
	floor.AddWall(sim.Rect{Min: r3.Vec{X: 38, Y: 35}, Max: r3.Vec{X: 40, Y: 60}})
	world := sim.NewWorld(floor)

	monster := sim.NewMover(r3.Vec{X: 10, Y: 10}, cfg.Antagonist.PatrolSpeed, floor)
	world.Add(monster)

	var player *sim.Player
	if *headless {
		scripted := sim.NewScriptedPlayer(r3.Vec{X: 50, Y: 50}, 1.5, floor, cfg.Tick.Seed)
		world.Add(scripted)
		player = scripted.Player
	} else {
		player = sim.NewPlayer(r3.Vec{X: 50, Y: 50})
	}
	effects := sim.NewEffects(appLogger.With("effects"))

	appLogger.Info("Bootstrapping Engine Subsystems...")
	gameEngine := engine.NewEngine(cfg, bus, engine.Collaborators{
		AntagonistMover: monster,
		Nav:             floor,
		Player:          player,
		Sight:           floor,
		Sequence:        effects,
		Animator:        effects,
	}, appLogger.With("engine"))
	gameEngine.AddStepper(world)

	for i := 0; i < cfg.Patients.Count; i++ {
		home, ok := floor.SampleNavigablePointNear(r3.Vec{X: 30, Y: 30}, 20)
		if !ok {
			continue
		}
		m := sim.NewMover(home, cfg.Patients.Speed, floor)
		world.Add(m)
		gameEngine.SpawnPatient(fmt.Sprintf("PATIENT_%02d", i+1), m)
	}

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(gameEngine, player, cfg.Network, collector, appLogger.With("hub"))
	bus.SubscribeAll(hub.Tap)
	bus.SubscribeAll(collector.Tap)
	gameEngine.OnTick(collector.RecordTick)

	go hub.Run(ctx)
	gameEngine.Start(ctx)

	// Setup API Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	network.NewDebugBridge(gameEngine, appLogger.With("debug")).RegisterRoutes(mux)
	network.NewReplayHandler(eventLog, recapper, sessionID, appLogger.With("replay")).RegisterRoutes(mux)
	if cfg.Server.Metrics {
		mux.HandleFunc("/metrics", collector.Handler())
		mux.HandleFunc("/metrics/prometheus", collector.PrometheusHandler())
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	go func() {
		appLogger.Info("HTTP API & WS Server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server failed", "error", err)
			cancel()
		}
	}()

	appLogger.Info("Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down...")
	gameEngine.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	cancel()

	for _, note := range metrics.Analyze(collector.Snapshot(), cfg.Tick.Interval).Notes {
		appLogger.Warn("tuning advice", "note", note)
	}

	if journal == nil {
		return
	}
	journal.Close()
	collector.SetJournalDropped(journal.Dropped())
	if err := sessions.End(shutdownCtx, sessionID, time.Now()); err != nil {
		appLogger.Warn("Failed to close session record", "error", err)
	}
	summary, err := recapper.Summarize(shutdownCtx, sessionID)
	if err != nil {
		appLogger.Warn("Failed to build session recap", "error", err)
		return
	}
	appLogger.Info("Session recap",
		"events", summary.Events,
		"depletions", summary.SanityDepletions,
		"generator", summary.GeneratorActivations,
		"chases", summary.Chases,
		"longest_blackout", summary.LongestBlackout.String(),
		"journal_dropped", journal.Dropped(),
	)
}
