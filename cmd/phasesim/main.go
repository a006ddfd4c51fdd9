package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/phasesim/internal/config"
	"github.com/l1jgo/phasesim/internal/core/event"
	coresys "github.com/l1jgo/phasesim/internal/core/system"
	"github.com/l1jgo/phasesim/internal/data"
	"github.com/l1jgo/phasesim/internal/handler"
	"github.com/l1jgo/phasesim/internal/monitor"
	gonet "github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"github.com/l1jgo/phasesim/internal/persist"
	"github.com/l1jgo/phasesim/internal/scripting"
	"github.com/l1jgo/phasesim/internal/system"
	"github.com/l1jgo/phasesim/internal/world"
	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("PHASESIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if p := startProfile(cfg.Profile); p != nil {
		defer p.Stop()
	}

	fmt.Printf("\n  \033[36;1mphasesim\033[0m \033[90m%s (id %d)\033[0m\n\n", cfg.Server.Name, cfg.Server.ID)

	if err := packet.SetCharset(cfg.Network.Charset); err != nil {
		return fmt.Errorf("network: %w", err)
	}

	// 3. Optional removal audit database
	var removals *persist.RemovalLog
	if cfg.Database.DSN != "" {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(ctx, db)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("schema at version %d", version))
		removals = persist.NewRemovalLog(db, log.Named("audit"))
		fmt.Println()
	}

	// 4. Load data tables
	printSection("data")
	maps, err := data.LoadMapList(cfg.Data.MapList)
	if err != nil {
		return fmt.Errorf("map list: %w", err)
	}
	printStat("maps", maps.Count())
	spawns, err := data.LoadSpawnList(cfg.Data.SpawnList)
	if err != nil {
		return fmt.Errorf("spawn list: %w", err)
	}
	printStat("spawns", spawns.Count())

	// 5. Movement rules
	seed := cfg.World.WanderSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	var engine *scripting.Engine
	var resolver world.RespawnResolver
	if cfg.Data.ScriptsDir != "" {
		engine, err = scripting.NewEngine(cfg.Data.ScriptsDir, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		resolver = scripting.NewRespawnResolver(engine)
		printOK("Lua scripts loaded")
	}
	fmt.Println()

	// 6. Build the world
	printSection("world")
	bus := event.NewBus()
	mgr := world.NewManager(bus, log.Named("world"))
	base := world.Settings{
		ActivationRange: cfg.World.ActivationRange,
		VisibilityRange: cfg.World.VisibilityRange,
		TreeRebalance:   cfg.World.TreeRebalance,
		GridUnloadDelay: cfg.World.GridUnloadDelay,
	}
	err = buildMaps(mgr, maps, spawns, worldSetup{
		Base:     base,
		Movers:   wanderMovers(seed, engine),
		Resolver: resolver,
		Bus:      bus,
	}, log)
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	for _, m := range mgr.Maps() {
		printStat(m.Name(), m.ObjectCount())
	}
	if _, ok := maps.StartPoint(); !ok {
		return errors.New("world: no map declares a start point")
	}
	fmt.Println()

	// 7. Packet handlers and gateway
	reg := packet.NewRegistry(log)
	handler.RegisterAll(reg, &handler.Deps{
		World:       mgr,
		Log:         log.Named("handler"),
		MaxMoveStep: cfg.World.MaxMoveStep,
	})
	gw := gonet.NewGateway(reg, gonet.SessionOptions{
		InSize:      cfg.Network.InQueueSize,
		OutSize:     cfg.Network.OutQueueSize,
		MaxPerTick:  cfg.Network.MaxPacketsPerTick,
		IdleTimeout: cfg.Network.IdleTimeout,
	}, cfg.Network.AcceptBacklog, log.Named("gateway"))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	gameMux := http.NewServeMux()
	gameMux.Handle("/ws", gw)
	gameSrv := &http.Server{Addr: cfg.Network.BindAddress, Handler: gameMux}
	go serve(gameSrv, log)

	// 8. Systems
	runner := coresys.NewRunner(cfg.World.TickRate, log)
	runner.Register(system.NewInputSystem(gw.Accepted(), mgr))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewMapUpdateSystem(mgr, cfg.World.Workers, log))
	runner.Register(system.NewOutputSystem(mgr))

	var audit *system.RemovalAuditSystem
	if removals != nil {
		audit = system.NewRemovalAuditSystem(bus, removals, cfg.Database.FlushInterval, log)
		runner.Register(audit)
	}

	var monSrv *http.Server
	if cfg.Monitor.Enabled {
		hub := monitor.NewHub(log.Named("monitor"))
		go hub.Run(ctx)
		monMux := http.NewServeMux()
		monMux.Handle("/monitor", hub)
		monSrv = &http.Server{Addr: cfg.Monitor.BindAddress, Handler: monMux}
		go serve(monSrv, log)
		runner.Register(system.NewMonitorSystem(mgr, hub, cfg.Monitor.Every))
	}

	// 9. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.World.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("game gateway ws://%s/ws", cfg.Network.BindAddress))
	if monSrv != nil {
		printReady(fmt.Sprintf("monitor ws://%s/monitor", cfg.Monitor.BindAddress))
	}
	printReady(fmt.Sprintf("tick %s", cfg.World.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.World.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			stop()
			shutdown(gameSrv, monSrv)
			if audit != nil {
				audit.Flush()
			}
			log.Info("server stopped")
			return nil
		}
	}
}

func serve(srv *http.Server, log *zap.Logger) {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server stopped", zap.String("addr", srv.Addr), zap.Error(err))
	}
}

func shutdown(servers ...*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if srv != nil {
			srv.Shutdown(ctx)
		}
	}
}

// startProfile starts pkg/profile for the configured mode. Returns nil when
// profiling is off.
func startProfile(cfg config.ProfileConfig) interface{ Stop() } {
	opts := []func(*profile.Profile){profile.ProfilePath(cfg.Path), profile.NoShutdownHook}
	switch cfg.Mode {
	case "cpu":
		opts = append(opts, profile.CPUProfile)
	case "mem":
		opts = append(opts, profile.MemProfileAllocs)
	case "mutex":
		opts = append(opts, profile.MutexProfile)
	case "block":
		opts = append(opts, profile.BlockProfile)
	default:
		return nil
	}
	return profile.Start(opts...)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
