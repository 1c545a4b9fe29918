package eval

import (
	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/game"
)

// Point is the normalized result of evaluating one position.
type Point struct {
	BestMove  string   // engine's preferred move, "" when none
	BestMoves []string // first move of each returned line
	Score     *int     // from the requested perspective, nil when unscored
	Err       error    // set when the query itself failed
}

// Failed reports whether the engine query failed outright.
func (p Point) Failed() bool { return p.Err != nil }

// Querier is the part of Session the evaluator needs.
type Querier interface {
	Query(fen string, limit Limit, lines int) ([]Line, error)
}

// Evaluator turns engine lines into Points.
type Evaluator struct {
	q     Querier
	limit Limit
	log   zerolog.Logger
}

// NewEvaluator returns an evaluator issuing queries under limit.
func NewEvaluator(q Querier, limit Limit, log zerolog.Logger) *Evaluator {
	return &Evaluator{q: q, limit: limit, log: log}
}

// Evaluate queries fen for the given number of lines and scores the
// primary line from pov's side. It never returns an error; failures are
// carried in Point.Err.
func (e *Evaluator) Evaluate(fen string, pov game.Color, lines int) Point {
	result, err := e.q.Query(fen, e.limit, lines)
	if err != nil {
		e.log.Warn().Err(err).Str("fen", fen).Msg("engine query failed")
		return Point{Err: err}
	}
	if len(result) == 0 {
		e.log.Debug().Str("fen", fen).Msg("engine returned no lines")
		return Point{}
	}

	var p Point
	primary := result[0]
	p.BestMove = primary.FirstMove()

	for _, line := range result {
		if mv := line.FirstMove(); mv != "" {
			p.BestMoves = append(p.BestMoves, mv)
		}
	}
	if len(p.BestMoves) == 0 && p.BestMove != "" {
		p.BestMoves = []string{p.BestMove}
	}

	if v, ok := Normalize(primary.Score, game.SideToMove(fen), pov); ok {
		p.Score = &v
	}
	return p
}
