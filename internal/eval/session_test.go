package eval_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/freeeve/chessreview/internal/eval"
	"github.com/freeeve/chessreview/internal/eval/evaltest"
	"github.com/freeeve/chessreview/internal/game"
)

func threeLines(fen string, lines int) (eval.Response, error) {
	all := []eval.Line{
		{Moves: []string{"e2e4", "e7e5"}, Score: eval.CP(30)},
		{Moves: []string{"d2d4"}, Score: eval.CP(25)},
		{Moves: []string{"c2c4"}, Score: eval.CP(20)},
	}
	if lines <= 1 {
		return eval.SingleLine(all[0]), nil
	}
	return eval.MultiLine(all[:lines]...), nil
}

func sessionConfig(fake *evaltest.Engine, paths *[]string) eval.SessionConfig {
	syzygy := "/tb/syzygy"
	cfg := eval.DefaultEngineConfig()
	cfg.Threads = 2
	cfg.HashMB = 64
	cfg.SyzygyPath = &syzygy
	return eval.SessionConfig{
		Engine:   cfg,
		Resolver: eval.StaticPath("/usr/bin/stockfish"),
		Launch:   fake.Launcher(paths),
		Logger:   zerolog.Nop(),
	}
}

func TestSessionStartConfigures(t *testing.T) {
	fake := &evaltest.Engine{
		OptionErrs: map[string]error{"SyzygyPath": errors.New("no such option")},
	}
	var paths []string

	s, err := eval.Open(sessionConfig(fake, &paths))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if len(paths) != 1 || paths[0] != "/usr/bin/stockfish" {
		t.Errorf("launched paths = %v", paths)
	}
	if s.EnginePath() != "/usr/bin/stockfish" {
		t.Errorf("EnginePath = %q", s.EnginePath())
	}
	if v, _ := fake.Option("Threads"); v != 2 {
		t.Errorf("Threads = %v, want 2", v)
	}
	if v, _ := fake.Option("Hash"); v != 64 {
		t.Errorf("Hash = %v, want 64", v)
	}
	if _, ok := fake.Option("SyzygyPath"); ok {
		t.Error("rejected option should not be recorded")
	}
}

func TestSessionStartFailures(t *testing.T) {
	t.Run("no resolver", func(t *testing.T) {
		_, err := eval.Open(eval.SessionConfig{Logger: zerolog.Nop()})
		if !errors.Is(err, eval.ErrEngineNotFound) {
			t.Errorf("err = %v, want ErrEngineNotFound", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := eval.Open(eval.SessionConfig{Resolver: eval.StaticPath(""), Logger: zerolog.Nop()})
		if !errors.Is(err, eval.ErrEngineNotFound) {
			t.Errorf("err = %v, want ErrEngineNotFound", err)
		}
	})

	t.Run("launch error", func(t *testing.T) {
		boom := errors.New("exec: no such file")
		_, err := eval.Open(eval.SessionConfig{
			Resolver: eval.StaticPath("/missing"),
			Launch:   func(string) (eval.Engine, error) { return nil, boom },
			Logger:   zerolog.Nop(),
		})
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want wrapped launch error", err)
		}
	})

	t.Run("double start", func(t *testing.T) {
		fake := &evaltest.Engine{}
		s := eval.NewSession(sessionConfig(fake, nil))
		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		defer s.Close()
		if err := s.Start(); err == nil {
			t.Error("second Start should fail")
		}
	})
}

func TestSessionQueryInline(t *testing.T) {
	fake := &evaltest.Engine{Eval: threeLines, InlineLines: true}
	s, err := eval.Open(sessionConfig(fake, nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	lines, err := s.Query(game.StartFEN, eval.Limit{Depth: 10}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if _, ok := fake.Option("MultiPV"); ok {
		t.Error("MultiPV should not be configured when inline works")
	}
	if got := len(fake.Calls()); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestSessionQueryTerminal(t *testing.T) {
	fake := &evaltest.Engine{Eval: threeLines, InlineLines: true}
	s, err := eval.Open(sessionConfig(fake, nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	tests := []struct {
		name string
		fen  string
		mate bool
	}{
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false},
		{"checkmate", "5Q1k/8/6K1/8/8/8/8/8 b - - 1 1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := s.Query(tt.fen, eval.Limit{Depth: 10}, 3)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(lines) != 1 || lines[0].FirstMove() != "" {
				t.Fatalf("lines = %+v, want one line without moves", lines)
			}
			score := lines[0].Score
			if tt.mate && (score.Mate == nil || *score.Mate != 0) {
				t.Errorf("score = %+v, want mate 0", score)
			}
			if !tt.mate && (score.CP == nil || *score.CP != 0) {
				t.Errorf("score = %+v, want 0 cp", score)
			}
		})
	}
	if got := len(fake.Calls()); got != 0 {
		t.Errorf("engine calls = %d, want 0", got)
	}
}

func TestSessionQueryConfigFallback(t *testing.T) {
	fake := &evaltest.Engine{Eval: threeLines}
	s, err := eval.Open(sessionConfig(fake, nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	lines, err := s.Query(game.StartFEN, eval.Limit{Depth: 10}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if v, _ := fake.Option("MultiPV"); v != 2 {
		t.Errorf("MultiPV = %v, want 2", v)
	}
	// inline attempt, then retry after configuring
	if got := len(fake.Calls()); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}

	// configured now, so the next query succeeds on the first attempt
	if _, err := s.Query(game.StartFEN, eval.Limit{Depth: 10}, 2); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got := len(fake.Calls()); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestSessionQueryDegrades(t *testing.T) {
	fake := &evaltest.Engine{Eval: threeLines, RejectMultiPV: true}
	s, err := eval.Open(sessionConfig(fake, nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	lines, err := s.Query(game.StartFEN, eval.Limit{Depth: 10}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(lines) != 1 || lines[0].FirstMove() != "e2e4" {
		t.Fatalf("lines = %+v, want single e2e4 line", lines)
	}

	// degraded: later queries go straight to a single line
	before := len(fake.Calls())
	if _, err := s.Query(game.StartFEN, eval.Limit{Depth: 10}, 3); err != nil {
		t.Fatalf("Query: %v", err)
	}
	calls := fake.Calls()
	if len(calls) != before+1 || calls[len(calls)-1].Lines != 1 {
		t.Errorf("expected one single-line call, got %+v", calls[before:])
	}
	if s.Queries() != 2 {
		t.Errorf("Queries = %d, want 2", s.Queries())
	}
}

func TestSessionQueryError(t *testing.T) {
	boom := errors.New("engine crashed")
	fake := &evaltest.Engine{Eval: func(string, int) (eval.Response, error) { return eval.Response{}, boom }}
	s, err := eval.Open(sessionConfig(fake, nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.Query(game.StartFEN, eval.Limit{Depth: 10}, 1); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestSessionClose(t *testing.T) {
	fake := &evaltest.Engine{Eval: threeLines}
	s, err := eval.Open(sessionConfig(fake, nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if fake.Closed() != 1 {
		t.Errorf("engine closed %d times, want 1", fake.Closed())
	}
	if _, err := s.Query(game.StartFEN, eval.Limit{Depth: 10}, 1); !errors.Is(err, eval.ErrSessionClosed) {
		t.Errorf("query after close err = %v, want ErrSessionClosed", err)
	}
}

func TestWithSessionReleases(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		fake := &evaltest.Engine{}
		boom := errors.New("mid-loop failure")
		err := eval.WithSession(sessionConfig(fake, nil), func(*eval.Session) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
		if fake.Closed() != 1 {
			t.Errorf("closed = %d, want 1", fake.Closed())
		}
	})

	t.Run("panic", func(t *testing.T) {
		fake := &evaltest.Engine{}
		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected panic to propagate")
				}
			}()
			_ = eval.WithSession(sessionConfig(fake, nil), func(*eval.Session) error { panic("boom") })
		}()
		if fake.Closed() != 1 {
			t.Errorf("closed = %d, want 1", fake.Closed())
		}
	})
}
