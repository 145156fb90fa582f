// Package main provides the battle simulator binary that runs one or
// more deterministic battles for a single encounter and reports the
// outcomes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tgoodington/Ancient-Order-sub001/internal/config"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/decision"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/encounter"
	"github.com/tgoodington/Ancient-Order-sub001/internal/observability"
	"github.com/tgoodington/Ancient-Order-sub001/internal/scripting"
	"github.com/tgoodington/Ancient-Order-sub001/internal/sim"
	"github.com/tgoodington/Ancient-Order-sub001/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	encounterPath := flag.String("encounter", "", "path to encounter YAML file")
	profilesDir := flag.String("profiles-dir", "", "directory of archetype profile YAML files")
	scriptsDir := flag.String("scripts-dir", "", "directory of Lua battle hook scripts; empty = hooks disabled")
	seed := flag.Int64("seed", 0, "base seed for the roll streams; 0 = derive from the clock")
	battles := flag.Int("battles", 0, "number of battles to simulate")
	workers := flag.Int("workers", 0, "batch worker pool size")
	maxRounds := flag.Int("max-rounds", 0, "round cap per battle")
	storeReports := flag.Bool("store-reports", true, "persist battle reports to PostgreSQL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "encounter":
			cfg.Simulator.Encounter = *encounterPath
		case "profiles-dir":
			cfg.Decision.ProfilesDir = *profilesDir
		case "scripts-dir":
			cfg.Simulator.ScriptsDir = *scriptsDir
		case "seed":
			cfg.Simulator.Seed = *seed
		case "battles":
			cfg.Simulator.Battles = *battles
		case "workers":
			cfg.Simulator.Workers = *workers
		case "max-rounds":
			cfg.Simulator.MaxRounds = *maxRounds
		case "store-reports":
			cfg.Simulator.StoreReports = *storeReports
		}
	})
	if cfg.Simulator.Encounter == "" {
		log.Fatalf("no encounter file: pass -encounter or set simulator.encounter in %s", *configPath)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting battle simulator",
		zap.String("encounter", cfg.Simulator.Encounter),
		zap.Int("battles", cfg.Simulator.Battles),
		zap.Int("workers", cfg.Simulator.Workers),
	)

	// Load the encounter.
	encStart := time.Now()
	enc, err := encounter.LoadFile(cfg.Simulator.Encounter)
	if err != nil {
		logger.Fatal("loading encounter", zap.Error(err))
	}
	logger.Info("encounter loaded",
		zap.String("id", enc.ID),
		zap.String("name", enc.Name),
		zap.Int("players", len(enc.Players)),
		zap.Int("enemies", len(enc.Enemies)),
		zap.Duration("elapsed", time.Since(encStart)),
	)

	// Build the archetype registry and chooser.
	registry := decision.NewRegistry()
	if dir := cfg.Decision.ProfilesDir; dir != "" {
		profStart := time.Now()
		if err := registry.LoadProfiles(dir); err != nil {
			logger.Fatal("loading archetype profiles", zap.String("dir", dir), zap.Error(err))
		}
		logger.Info("archetype profiles loaded",
			zap.String("dir", dir),
			zap.Duration("elapsed", time.Since(profStart)),
		)
	}
	chooser := decision.NewChooser(registry, cfg.Decision.EnableGroup)

	// Initialise battle hook scripting.
	var hooks *scripting.Manager
	if dir := cfg.Simulator.ScriptsDir; dir != "" {
		hooks = scripting.NewManager(dir, scripting.DefaultInstructionLimit, logger)
		defer hooks.Close()
		logger.Info("battle scripting enabled", zap.String("dir", dir))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to PostgreSQL when report storage is on.
	var sink sim.ReportSink
	if cfg.Simulator.StoreReports {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		sink = &reportSink{repo: postgres.NewReportRepository(pool.DB())}
	}

	baseSeed := cfg.Simulator.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
		logger.Info("derived base seed from clock", zap.Int64("seed", baseSeed))
	}

	deps := sim.Deps{
		Rules:     combat.Rules{GroupSynergy: cfg.Engine.GroupSynergyMultiplier},
		Chooser:   chooser,
		Hooks:     hooks,
		Sink:      sink,
		Logger:    logger,
		MaxRounds: cfg.Simulator.MaxRounds,
	}
	// A single battle narrates round by round; batches stay quiet and
	// report totals at the end.
	if cfg.Simulator.Battles == 1 {
		deps.Observer = sim.NewConsoleObserver(os.Stdout)
	}

	// Stop cleanly between rounds on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, stopping", zap.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("simulator initialized", zap.Duration("startup", time.Since(start)))

	stats, err := sim.RunBatch(ctx, enc, sim.BatchConfig{
		Battles:  cfg.Simulator.Battles,
		Workers:  cfg.Simulator.Workers,
		BaseSeed: baseSeed,
	}, deps)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("batch interrupted", zap.Int("completed", stats.Battles))
		} else {
			logger.Fatal("running batch", zap.Error(err))
		}
	}

	printStats(os.Stdout, enc.Name, baseSeed, stats)
}

// printStats writes the human-readable batch summary.
func printStats(w io.Writer, name string, baseSeed int64, stats sim.Stats) {
	fmt.Fprintf(w, "\n%s: %d battle(s) in %s (base seed %d)\n",
		name, stats.Battles, stats.Elapsed.Round(time.Millisecond), baseSeed)
	fmt.Fprintf(w, "  victories:  %d\n", stats.Victories)
	fmt.Fprintf(w, "  defeats:    %d\n", stats.Defeats)
	fmt.Fprintf(w, "  unresolved: %d\n", stats.Unresolved)
	if stats.Failed > 0 {
		fmt.Fprintf(w, "  failed:     %d\n", stats.Failed)
	}
	if stats.Battles > 0 {
		fmt.Fprintf(w, "  rounds:     avg %.1f, min %d, max %d\n",
			stats.AvgRounds(), stats.MinRounds, stats.MaxRounds)
	}
}

// reportSink adapts ReportRepository to the error-only sink the
// simulator wants; the battle header it returns is not needed here.
type reportSink struct {
	repo *postgres.ReportRepository
}

func (s *reportSink) InsertBattle(ctx context.Context, battleID, encounterID string, seed int64) error {
	_, err := s.repo.InsertBattle(ctx, battleID, encounterID, seed)
	return err
}

func (s *reportSink) InsertRound(ctx context.Context, battleID string, round int, report any) error {
	return s.repo.InsertRound(ctx, battleID, round, report)
}

func (s *reportSink) FinishBattle(ctx context.Context, battleID, status string, rounds int) error {
	return s.repo.FinishBattle(ctx, battleID, status, rounds)
}
