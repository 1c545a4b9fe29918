// Package evaltest provides a scriptable in-memory Engine for tests.
package evaltest

import (
	"errors"
	"strings"
	"sync"

	"github.com/freeeve/chessreview/internal/eval"
)

// Call records one Analyze invocation.
type Call struct {
	FEN   string
	Limit eval.Limit
	Lines int
}

// Engine is a fake eval.Engine. Eval decides every answer; the flags
// control how multi-line requests are honored.
type Engine struct {
	// Eval answers a search. A nil Eval returns an empty response.
	Eval func(fen string, lines int) (eval.Response, error)
	// InlineLines accepts lines > 1 directly in Analyze.
	InlineLines bool
	// RejectMultiPV makes SetOption("MultiPV", ...) fail.
	RejectMultiPV bool
	// OptionErrs fails SetOption for the named options.
	OptionErrs map[string]error

	mu      sync.Mutex
	options map[string]any
	calls   []Call
	closed  int
}

// Launcher returns a launcher that hands out e and records the path.
func (e *Engine) Launcher(paths *[]string) eval.Launcher {
	return func(path string) (eval.Engine, error) {
		if paths != nil {
			*paths = append(*paths, path)
		}
		return e, nil
	}
}

// SetOption implements eval.Engine.
func (e *Engine) SetOption(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.OptionErrs[name]; err != nil {
		return err
	}
	if strings.EqualFold(name, "MultiPV") && e.RejectMultiPV {
		return errors.New("no such option: MultiPV")
	}
	if e.options == nil {
		e.options = make(map[string]any)
	}
	e.options[name] = value
	return nil
}

// Analyze implements eval.Engine.
func (e *Engine) Analyze(fen string, limit eval.Limit, lines int) (eval.Response, error) {
	e.mu.Lock()
	e.calls = append(e.calls, Call{FEN: fen, Limit: limit, Lines: lines})
	configured, _ := e.options["MultiPV"].(int)
	e.mu.Unlock()

	if lines > 1 && !e.InlineLines && configured != lines {
		return eval.Response{}, eval.ErrLinesUnsupported
	}
	if e.Eval == nil {
		return eval.Response{}, nil
	}
	return e.Eval(fen, lines)
}

// Close implements eval.Engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed++
	return nil
}

// Option returns the last value set for name.
func (e *Engine) Option(name string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.options[name]
	return v, ok
}

// Calls returns a copy of the recorded searches.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Closed returns how many times Close was called.
func (e *Engine) Closed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
