package eval

import "github.com/freeeve/chessreview/internal/game"

// MateScore anchors mate scores above any centipawn value. Shorter mates
// map further from zero than longer ones.
const MateScore = 100000

// Score is a raw engine score relative to the side to move. At most one of
// CP and Mate is set; both nil means the engine gave nothing usable.
type Score struct {
	CP   *int
	Mate *int // moves to mate, positive when the side to move mates
}

// CP returns a centipawn score.
func CP(v int) Score { return Score{CP: &v} }

// Mate returns a mate-in-n score.
func Mate(n int) Score { return Score{Mate: &n} }

// IsZero reports whether the score carries no value.
func (s Score) IsZero() bool { return s.CP == nil && s.Mate == nil }

// Normalize maps a raw score to one signed integer from pov's side.
// It returns false when the score is unusable.
func Normalize(s Score, sideToMove, pov game.Color) (int, bool) {
	var v int
	switch {
	case s.Mate != nil:
		n := *s.Mate
		switch {
		case n > 0:
			v = MateScore - (2*n - 1)
		case n < 0:
			v = -(MateScore - 2*(-n))
		default:
			// side to move is already mated
			v = -MateScore
		}
	case s.CP != nil:
		v = *s.CP
	default:
		return 0, false
	}

	if sideToMove != pov {
		v = -v
	}
	return v, true
}
