// Package analysis runs a game through the engine ply by ply and builds the
// review report.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/classify"
	"github.com/freeeve/chessreview/internal/eco"
	"github.com/freeeve/chessreview/internal/eval"
	"github.com/freeeve/chessreview/internal/game"
)

// Options configures an Analyzer.
type Options struct {
	Engine     eval.EngineConfig
	Resolver   eval.PathResolver
	Launch     eval.Launcher        // nil uses the UCI launcher
	Classifier *classify.Classifier // nil uses default thresholds
	Openings   *eco.Database        // optional
	Workers    int                  // AnalyzeBatch concurrency, default 1
	Logger     zerolog.Logger
}

// Request is one game to analyze.
type Request struct {
	PGN string
	ID  string // echoed as game_id
	URL string // echoed as game_url
}

// Analyzer produces reports. It holds no per-run state and may be shared.
type Analyzer struct {
	opts     Options
	engine   eval.EngineConfig
	classify *classify.Classifier
	log      zerolog.Logger
}

// New returns an Analyzer with a normalized engine configuration.
func New(opts Options) *Analyzer {
	log := opts.Logger.With().Str("component", "analyzer").Logger()

	cfg, changed := opts.Engine.Normalized()
	for _, field := range changed {
		log.Warn().Str("field", field).Msg("engine setting out of range, adjusted")
	}

	c := opts.Classifier
	if c == nil {
		c = classify.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Analyzer{opts: opts, engine: cfg, classify: c, log: log}
}

// EngineConfig returns the normalized engine configuration.
func (a *Analyzer) EngineConfig() eval.EngineConfig {
	return a.engine
}

// Analyze parses req.PGN and evaluates every ply. A ply whose evaluation
// fails is left out of moves_meta but its position is still recorded. The
// returned error is always an *Error.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Envelope, error) {
	g, err := game.Parse(req.PGN)
	if err != nil {
		return nil, &Error{Kind: KindInvalidGame, Message: "could not parse game", Err: err}
	}
	return a.AnalyzeGame(ctx, g, req)
}

// AnalyzeGame evaluates an already parsed game; req.PGN is ignored. Moves
// that are not legal in their position are applied without evaluation and
// get no record.
func (a *Analyzer) AnalyzeGame(ctx context.Context, g *game.Game, req Request) (*Envelope, error) {
	runID := uuid.NewString()
	log := a.log.With().Str("run_id", runID).Logger()

	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindCanceled, Message: "analysis canceled", Err: err}
	}

	var (
		report  *Report
		started bool
	)
	sessionCfg := eval.SessionConfig{
		Engine:   a.engine,
		Resolver: a.opts.Resolver,
		Launch:   a.opts.Launch,
		Logger:   log,
	}
	err := eval.WithSession(sessionCfg, func(s *eval.Session) error {
		started = true
		var runErr error
		report, runErr = a.run(ctx, s, g, log)
		return runErr
	})
	if err != nil {
		if !started {
			return nil, &Error{Kind: KindEngineUnavailable, Message: "engine could not be started", Err: err}
		}
		var ae *Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, &Error{Kind: KindInvalidGame, Message: "analysis failed", Err: err}
	}

	log.Info().
		Int("plies", len(g.Moves)).
		Int("records", len(report.MovesMeta)).
		Msg("analysis complete")

	return &Envelope{
		RunID:     runID,
		WhiteName: g.Header("White"),
		BlackName: g.Header("Black"),
		GameID:    req.ID,
		GameURL:   req.URL,
		Report:    report,
	}, nil
}

func (a *Analyzer) run(ctx context.Context, s *eval.Session, g *game.Game, log zerolog.Logger) (*Report, error) {
	pos, err := g.InitialPosition()
	if err != nil {
		return nil, &Error{Kind: KindInvalidGame, Message: "bad start position", Err: err}
	}

	cfg := a.engine
	cfg.EnginePath = s.EnginePath()
	report := newReport(pos.FEN(), Params{EngineConfig: cfg, Thresholds: a.classify.Thresholds()})

	ev := eval.NewEvaluator(s, cfg.Limit(), log)
	openings := a.opts.Openings.NewTracker()

	for i, mv := range g.Moves {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Kind: KindCanceled, Message: fmt.Sprintf("analysis canceled at ply %d", i+1), Err: err}
		}

		mover := pos.SideToMove()
		moveNumber := pos.MoveNumber()
		plyIndex := len(report.FENHistory) - 1
		fenBefore := pos.FEN()

		if !pos.IsLegal(mv) {
			log.Warn().Int("ply", i+1).Str("move", mv.UCI).Str("fen", fenBefore).Msg("illegal move, applying without evaluation")
			if err := a.advance(pos, mv, report, openings); err != nil {
				return nil, err
			}
			continue
		}

		before := ev.Evaluate(fenBefore, mover, cfg.MultiPV)
		if err := a.advance(pos, mv, report, openings); err != nil {
			return nil, err
		}
		after := ev.Evaluate(pos.FEN(), mover, 1)

		if before.Failed() || after.Failed() {
			log.Warn().Int("ply", i+1).Str("move", mv.UCI).Msg("evaluation failed, ply skipped")
			continue
		}

		cpLoss := 0
		if before.Score != nil && after.Score != nil {
			cpLoss = max(0, *before.Score-*after.Score)
		}
		isTop := before.BestMove != "" && before.BestMove == mv.UCI
		category := a.classify.Classify(cpLoss, isTop)

		rec := MoveRecord{
			PlyIndex:    plyIndex,
			MoveNumber:  moveNumber,
			Side:        mover.String(),
			PlayedUCI:   mv.UCI,
			PlayedSAN:   mv.SAN,
			BestUCIList: before.BestMoves,
			CPLoss:      cpLoss,
			ScoreBefore: before.Score,
			ScoreAfter:  after.Score,
			Category:    category,
			Reason:      classify.Reason(category),
		}
		if before.BestMove != "" {
			best := before.BestMove
			rec.BestUCI = &best
		}
		if rec.BestUCIList == nil {
			rec.BestUCIList = []string{}
		}
		report.record(rec)

		log.Debug().
			Int("ply", i+1).
			Str("move", mv.UCI).
			Int("cp_loss", cpLoss).
			Str("category", string(category)).
			Msg("ply classified")
	}

	report.White.finish()
	report.Black.finish()
	report.Opening = openings.Opening()
	return report, nil
}

// advance applies mv and appends the resulting snapshot.
func (a *Analyzer) advance(pos *game.Position, mv game.Move, report *Report, openings *eco.Tracker) error {
	if err := pos.Apply(mv); err != nil {
		return &Error{Kind: KindInvalidGame, Message: "move could not be applied", Err: err}
	}
	report.FENHistory = append(report.FENHistory, pos.FEN())
	openings.Observe(pos)
	return nil
}
