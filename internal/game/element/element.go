// Package element defines the six elemental paths of the Ancient Order,
// the reaction types they govern, the stacked success-rate shift machinery
// behind path buffs and debuffs, and the energy/ascension progression
// meter. Everything here is value-semantic: applying a shift or awarding
// energy returns a new value and never mutates the receiver.
package element

import "fmt"

// Path identifies one of the six elemental paths. The zero value is
// invalid; roster validation rejects it.
type Path int

const (
	PathUnknown Path = iota
	PathStone
	PathGale
	PathFlow
	PathEmber
	PathThunder
	PathVoid
)

// Style splits the paths into their two play styles: Reaction paths buff
// the user's own matching defense, Action paths debuff the target's.
type Style int

const (
	StyleUnknown Style = iota
	StyleReaction
	StyleAction
)

// Reaction identifies a defensive reaction type. The zero value is invalid
// at dispatch sites.
type Reaction int

const (
	ReactionUnknown Reaction = iota
	ReactionBlock
	ReactionDodge
	ReactionParry
	ReactionDefenseless
)

// Paths lists the six valid paths in declaration order.
func Paths() []Path {
	return []Path{PathStone, PathGale, PathFlow, PathEmber, PathThunder, PathVoid}
}

// Valid reports whether p is one of the six defined paths.
func (p Path) Valid() bool {
	return p >= PathStone && p <= PathVoid
}

// Style returns the play style of the path.
func (p Path) Style() Style {
	switch p {
	case PathStone, PathGale, PathFlow:
		return StyleReaction
	case PathEmber, PathThunder, PathVoid:
		return StyleAction
	}
	return StyleUnknown
}

// Matching returns the defense a path's style machinery operates on:
// Reaction paths buff the user's matching defense after a successful use,
// Action paths debuff the target's matching defense when an attack lands.
func (p Path) Matching() Reaction {
	switch p {
	case PathStone, PathEmber:
		return ReactionBlock
	case PathGale, PathThunder:
		return ReactionDodge
	case PathFlow, PathVoid:
		return ReactionParry
	}
	return ReactionUnknown
}

// Forced returns the reaction type a path forces on defenders against its
// special attacks. The attacker's path chooses the defender's reaction.
func (p Path) Forced() Reaction {
	switch p {
	case PathStone, PathEmber:
		return ReactionBlock
	case PathGale, PathThunder:
		return ReactionDodge
	case PathFlow:
		return ReactionParry
	case PathVoid:
		return ReactionDefenseless
	}
	return ReactionUnknown
}

// String returns the lowercase path name used in content files.
func (p Path) String() string {
	switch p {
	case PathStone:
		return "stone"
	case PathGale:
		return "gale"
	case PathFlow:
		return "flow"
	case PathEmber:
		return "ember"
	case PathThunder:
		return "thunder"
	case PathVoid:
		return "void"
	}
	return "unknown"
}

// ParsePath resolves a content-file path name to its Path.
//
// Postcondition: Returns a valid Path, or an error naming the bad value.
func ParsePath(s string) (Path, error) {
	for _, p := range Paths() {
		if p.String() == s {
			return p, nil
		}
	}
	return PathUnknown, fmt.Errorf("unknown elemental path %q", s)
}

// String returns the lowercase reaction name.
func (r Reaction) String() string {
	switch r {
	case ReactionBlock:
		return "block"
	case ReactionDodge:
		return "dodge"
	case ReactionParry:
		return "parry"
	case ReactionDefenseless:
		return "defenseless"
	}
	return "unknown"
}

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StyleReaction:
		return "reaction"
	case StyleAction:
		return "action"
	}
	return "unknown"
}
