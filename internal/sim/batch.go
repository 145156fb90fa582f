package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/encounter"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/roll"
	"github.com/tgoodington/Ancient-Order-sub001/internal/scripting"
)

// BatchConfig sizes one batch run.
type BatchConfig struct {
	Battles  int
	Workers  int
	BaseSeed int64
}

// Stats aggregates the outcomes of a batch. Failed counts battles that
// returned an error; cancelled battles are counted nowhere.
type Stats struct {
	Battles     int
	Victories   int
	Defeats     int
	Unresolved  int
	Failed      int
	TotalRounds int
	MinRounds   int
	MaxRounds   int
	Elapsed     time.Duration
}

// AvgRounds returns the mean round count across completed battles.
func (s Stats) AvgRounds() float64 {
	if s.Battles == 0 {
		return 0
	}
	return float64(s.TotalRounds) / float64(s.Battles)
}

func (s *Stats) record(r Result) {
	s.Battles++
	switch r.Status {
	case combat.StatusVictory:
		s.Victories++
	case combat.StatusDefeat:
		s.Defeats++
	default:
		s.Unresolved++
	}
	s.TotalRounds += r.Rounds
	if s.Battles == 1 || r.Rounds < s.MinRounds {
		s.MinRounds = r.Rounds
	}
	if r.Rounds > s.MaxRounds {
		s.MaxRounds = r.Rounds
	}
}

type outcome struct {
	result Result
	err    error
}

// battleIndex routes arena.fighter lookups to the battle that asked.
// The map is guarded; the state read happens on the asking battle's own
// goroutine, which is the only goroutine that touches it.
type battleIndex struct {
	mu      sync.RWMutex
	battles map[string]*Battle
}

func newBattleIndex() *battleIndex {
	return &battleIndex{battles: make(map[string]*Battle)}
}

func (x *battleIndex) add(b *Battle) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.battles[b.id] = b
}

func (x *battleIndex) remove(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.battles, id)
}

func (x *battleIndex) lookup(battleID, fighterID string) *scripting.FighterInfo {
	x.mu.RLock()
	b := x.battles[battleID]
	x.mu.RUnlock()
	if b == nil {
		return nil
	}
	return b.lookupFighter(fighterID)
}

// RunBatch plays cfg.Battles instances of one encounter across
// cfg.Workers goroutines. Battle i rolls from a source seeded with
// BaseSeed+i, so one base seed pins the entire batch; Deps.Source is
// ignored. When hooks are wired, RunBatch owns the manager's fighter
// lookup for the duration of the run.
//
// Cancelling ctx stops feeding work; battles already running finish
// their current round and abort. The statistics gathered so far are
// returned together with the context error.
func RunBatch(ctx context.Context, enc *encounter.Encounter, cfg BatchConfig, deps Deps) (Stats, error) {
	if enc == nil {
		return Stats{}, fmt.Errorf("sim: an encounter is required")
	}
	if cfg.Battles < 1 {
		return Stats{}, fmt.Errorf("sim: battle count must be at least 1, got %d", cfg.Battles)
	}
	if cfg.Workers < 1 {
		return Stats{}, fmt.Errorf("sim: worker count must be at least 1, got %d", cfg.Workers)
	}
	if err := deps.validateCommon(); err != nil {
		return Stats{}, err
	}
	if err := enc.Validate(); err != nil {
		return Stats{}, fmt.Errorf("sim: %w", err)
	}

	start := time.Now()
	deps.Logger.Info("batch starting",
		zap.String("encounter", enc.ID),
		zap.Int("battles", cfg.Battles),
		zap.Int("workers", cfg.Workers),
		zap.Int64("base_seed", cfg.BaseSeed),
	)

	idx := newBattleIndex()
	if deps.Hooks != nil {
		deps.Hooks.LookupFighter = idx.lookup
	}

	jobs := make(chan int)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results <- runOne(ctx, enc, cfg.BaseSeed+int64(i), deps, idx)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Battles; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var stats Stats
	for out := range results {
		if out.err != nil {
			if errors.Is(out.err, context.Canceled) || errors.Is(out.err, context.DeadlineExceeded) {
				continue
			}
			deps.Logger.Error("battle failed", zap.Error(out.err))
			stats.Failed++
			continue
		}
		stats.record(out.result)
	}
	stats.Elapsed = time.Since(start)

	deps.Logger.Info("batch complete",
		zap.Int("battles", stats.Battles),
		zap.Int("victories", stats.Victories),
		zap.Int("defeats", stats.Defeats),
		zap.Int("unresolved", stats.Unresolved),
		zap.Int("failed", stats.Failed),
		zap.Float64("avg_rounds", stats.AvgRounds()),
		zap.Duration("elapsed", stats.Elapsed),
	)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

func runOne(ctx context.Context, enc *encounter.Encounter, seed int64, deps Deps, idx *battleIndex) outcome {
	d := deps
	d.Source = roll.NewSeededSource(seed)
	b, err := NewBattle(enc, seed, d)
	if err != nil {
		return outcome{err: err}
	}
	idx.add(b)
	defer idx.remove(b.id)
	res, err := b.RunToCompletion(ctx)
	return outcome{result: res, err: err}
}
