// Package roll provides the randomness abstraction for the Ancient Order
// combat engine. Every probabilistic check in the engine draws from an
// injected Source, so supplying the same source sequence reproduces a
// resolution exactly.
package roll

import "github.com/tgoodington/Ancient-Order-sub001/internal/game/formula"

// Max is the inclusive upper bound of a draw.
const Max = formula.RollMax

// Source is the randomness provider for combat rolls.
//
// Implementations MUST be safe for concurrent use; the engine calls its
// source from a single goroutine per battle, but batch simulation may share
// a source across battles.
type Source interface {
	// Roll returns a uniform random int in [0, Max].
	Roll() int
}
