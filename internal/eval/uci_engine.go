package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/freeeve/uci"
)

// UCIEngine drives a UCI engine process (Stockfish or compatible).
type UCIEngine struct {
	engine *uci.Engine
	opts   uci.Options
	closed bool
}

// NewUCIEngine starts the binary at path and applies baseline options.
func NewUCIEngine(path string) (*UCIEngine, error) {
	engine, err := uci.NewEngine(path)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	opts := uci.Options{
		Hash:    DefaultHashMB,
		Threads: DefaultThreads,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}
	if err := engine.SetOptions(opts); err != nil {
		engine.Close()
		return nil, fmt.Errorf("set options: %w", err)
	}

	return &UCIEngine{engine: engine, opts: opts}, nil
}

// LaunchUCI is the default Launcher.
func LaunchUCI(path string) (Engine, error) {
	e, err := NewUCIEngine(path)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// SetOption implements Engine. Threads and Hash go through the option
// block; anything else is sent verbatim.
func (e *UCIEngine) SetOption(name string, value any) error {
	switch strings.ToLower(name) {
	case "threads", "hash":
		n, ok := value.(int)
		if !ok || n < 1 {
			return &OptionError{Name: name, Err: fmt.Errorf("invalid value %v", value)}
		}
		opts := e.opts
		if strings.EqualFold(name, "threads") {
			opts.Threads = n
		} else {
			opts.Hash = n
		}
		if err := e.engine.SetOptions(opts); err != nil {
			return &OptionError{Name: name, Err: err}
		}
		e.opts = opts
		return nil
	case "multipv":
		n, ok := value.(int)
		if !ok || n < 1 {
			return &OptionError{Name: name, Err: fmt.Errorf("invalid value %v", value)}
		}
		if err := e.engine.SendOption("MultiPV", n); err != nil {
			return &OptionError{Name: name, Err: err}
		}
		e.opts.MultiPV = n
		return nil
	default:
		if err := e.engine.SendOption(name, value); err != nil {
			return &OptionError{Name: name, Err: err}
		}
		return nil
	}
}

// Analyze implements Engine. UCI has no per-search line count, so a
// request for more lines than MultiPV is set to is refused. Mated and
// stalemated positions are scored without a search: engines answer them
// with "bestmove (none)" and no scored line.
func (e *UCIEngine) Analyze(fen string, limit Limit, lines int) (Response, error) {
	if lines > 1 && lines != e.opts.MultiPV {
		return Response{}, ErrLinesUnsupported
	}
	if line, ok := TerminalLine(fen); ok {
		return SingleLine(line), nil
	}

	if err := e.engine.SetFEN(fen); err != nil {
		return Response{}, fmt.Errorf("set FEN: %w", err)
	}

	var (
		results *uci.Results
		err     error
	)
	if limit.Depth > 0 {
		results, err = e.engine.GoDepth(limit.Depth, uci.HighestDepthOnly)
	} else {
		// HighestDepthOnly matches against the depth argument, which is 0 here.
		results, err = e.engine.Go(0, "", limit.MoveTime.Milliseconds())
	}
	if err != nil {
		return Response{}, fmt.Errorf("engine search: %w", err)
	}

	return toResponse(results), nil
}

// Close implements Engine. The process is killed and reaped; later calls
// do nothing.
func (e *UCIEngine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.engine.Close()
	return nil
}

// toResponse keeps the deepest result per line, ranked by multipv index.
func toResponse(results *uci.Results) Response {
	if results == nil || len(results.Results) == 0 {
		if results != nil && results.BestMove != "" && results.BestMove != "(none)" {
			return SingleLine(Line{Moves: []string{results.BestMove}})
		}
		return Response{}
	}

	maxDepth := results.Results[0].Depth
	for _, r := range results.Results {
		if r.Depth > maxDepth {
			maxDepth = r.Depth
		}
	}

	byRank := make(map[int]uci.ScoreResult)
	for _, r := range results.Results {
		if r.Depth != maxDepth {
			continue
		}
		rank := r.MultiPV
		if rank < 1 {
			rank = 1
		}
		byRank[rank] = r
	}

	ranks := make([]int, 0, len(byRank))
	for rank := range byRank {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)

	lines := make([]Line, 0, len(ranks))
	for _, rank := range ranks {
		r := byRank[rank]
		line := Line{Moves: append([]string(nil), r.BestMoves...)}
		score := r.Score
		if r.Mate {
			line.Score = Mate(score)
		} else {
			line.Score = CP(score)
		}
		lines = append(lines, line)
	}

	if len(lines[0].Moves) == 0 && results.BestMove != "" && results.BestMove != "(none)" {
		lines[0].Moves = []string{results.BestMove}
	}

	if len(lines) == 1 {
		return SingleLine(lines[0])
	}
	return MultiLine(lines...)
}
