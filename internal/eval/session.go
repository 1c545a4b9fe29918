package eval

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// SessionConfig configures one engine session.
type SessionConfig struct {
	Engine   EngineConfig
	Resolver PathResolver // locates the binary
	Launch   Launcher     // defaults to LaunchUCI
	Logger   zerolog.Logger
}

type sessionState int

const (
	stateUnstarted sessionState = iota
	stateRunning
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateRunning:
		return "running"
	case stateClosed:
		return "closed"
	default:
		return "unstarted"
	}
}

// Session owns one engine process for the length of one game analysis.
// It is not safe for concurrent use; plies are evaluated in sequence.
type Session struct {
	cfg     SessionConfig
	log     zerolog.Logger
	engine  Engine
	path    string
	state   sessionState
	single  bool // multi-line requests degraded for the rest of the run
	queries int
}

// NewSession returns an unstarted session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Launch == nil {
		cfg.Launch = LaunchUCI
	}
	return &Session{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "engine-session").Logger(),
	}
}

// Open creates and starts a session. On error nothing needs closing.
func Open(cfg SessionConfig) (*Session, error) {
	s := NewSession(cfg)
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

// WithSession opens a session, runs fn and closes the session on every
// exit path, including a panic inside fn.
func WithSession(cfg SessionConfig, fn func(*Session) error) error {
	s, err := Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			s.log.Warn().Err(err).Msg("engine close")
		}
	}()
	return fn(s)
}

// Start launches the engine and applies the configuration best-effort.
func (s *Session) Start() error {
	if s.state != stateUnstarted {
		return fmt.Errorf("start session: already %s", s.state)
	}
	if s.cfg.Resolver == nil {
		return ErrEngineNotFound
	}

	path, err := s.cfg.Resolver.Resolve()
	if err != nil {
		return fmt.Errorf("resolve engine: %w", err)
	}

	engine, err := s.cfg.Launch(path)
	if err != nil {
		return fmt.Errorf("launch engine %s: %w", path, err)
	}

	s.engine = engine
	s.path = path
	s.state = stateRunning
	s.configure()

	s.log.Info().
		Str("engine", path).
		Int("threads", s.cfg.Engine.Threads).
		Int("hash_mb", s.cfg.Engine.HashMB).
		Msg("engine session started")
	return nil
}

// configure applies options one by one; a rejected option is logged and
// skipped.
func (s *Session) configure() {
	type option struct {
		name  string
		value any
	}
	opts := []option{
		{"Threads", s.cfg.Engine.Threads},
		{"Hash", s.cfg.Engine.HashMB},
	}
	if p := s.cfg.Engine.SyzygyPath; p != nil && *p != "" {
		opts = append(opts, option{"SyzygyPath", *p})
	}

	for _, o := range opts {
		if err := s.engine.SetOption(o.name, o.value); err != nil {
			s.log.Warn().Err(err).Str("option", o.name).Msg("engine option ignored")
		}
	}
}

// EnginePath returns the resolved binary path, empty before Start.
func (s *Session) EnginePath() string {
	return s.path
}

// Queries returns the number of successful engine queries.
func (s *Session) Queries() int {
	return s.queries
}

// Query runs one search and returns the ranked lines. A request for
// several lines falls back to the MultiPV option once, then to a single
// line for the rest of the session.
func (s *Session) Query(fen string, limit Limit, lines int) ([]Line, error) {
	if s.state != stateRunning {
		return nil, ErrSessionClosed
	}
	if line, ok := TerminalLine(fen); ok {
		return []Line{line}, nil
	}
	if lines <= 1 || s.single {
		return s.analyze(fen, limit, 1)
	}

	resp, err := s.engine.Analyze(fen, limit, lines)
	if err == nil {
		s.queries++
		return resp.Lines(), nil
	}
	if !errors.Is(err, ErrLinesUnsupported) {
		return nil, err
	}

	if optErr := s.engine.SetOption("MultiPV", lines); optErr != nil {
		s.log.Warn().Err(optErr).Int("lines", lines).Msg("MultiPV option rejected")
	} else {
		resp, err = s.engine.Analyze(fen, limit, lines)
		if err == nil {
			s.queries++
			return resp.Lines(), nil
		}
		if !errors.Is(err, ErrLinesUnsupported) {
			return nil, err
		}
	}

	s.log.Warn().Int("lines", lines).Msg("multi-line analysis unavailable, using single line")
	s.single = true
	return s.analyze(fen, limit, 1)
}

func (s *Session) analyze(fen string, limit Limit, lines int) ([]Line, error) {
	resp, err := s.engine.Analyze(fen, limit, lines)
	if err != nil {
		return nil, err
	}
	s.queries++
	return resp.Lines(), nil
}

// Close releases the engine process. Only the first call does work.
func (s *Session) Close() error {
	if s.state != stateRunning {
		s.state = stateClosed
		return nil
	}
	s.state = stateClosed

	err := s.engine.Close()
	s.log.Info().
		Str("engine", s.path).
		Int("queries", s.queries).
		Msg("engine session closed")
	return err
}
