package eval

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/freeeve/chessreview/internal/game"
)

var (
	// ErrLinesUnsupported is returned by an Engine that cannot honor an
	// inline request for several lines.
	ErrLinesUnsupported = errors.New("inline multi-line request not supported")
	// ErrSessionClosed is returned when querying a closed session.
	ErrSessionClosed = errors.New("engine session closed")
	// ErrEngineNotFound is returned when no engine binary can be located.
	ErrEngineNotFound = errors.New("engine binary not found")
)

// Engine is the subprocess protocol the session drives.
type Engine interface {
	// SetOption sets one engine option. Callers treat failures as non-fatal.
	SetOption(name string, value any) error
	// Analyze searches fen under limit. lines > 1 asks for that many
	// principal variations inline.
	Analyze(fen string, limit Limit, lines int) (Response, error)
	Close() error
}

// Launcher starts an engine process from a binary path.
type Launcher func(path string) (Engine, error)

// PathResolver locates the engine binary.
type PathResolver interface {
	Resolve() (string, error)
}

// StaticPath resolves to a fixed path.
type StaticPath string

// Resolve implements PathResolver.
func (p StaticPath) Resolve() (string, error) {
	if p == "" {
		return "", ErrEngineNotFound
	}
	return string(p), nil
}

// Limit bounds one search. Depth wins when both are set.
type Limit struct {
	Depth    int
	MoveTime time.Duration
}

// String renders the limit for logs.
func (l Limit) String() string {
	if l.Depth > 0 {
		return "depth " + strconv.Itoa(l.Depth)
	}
	return "movetime " + l.MoveTime.String()
}

// Line is one principal variation.
type Line struct {
	Moves []string // UCI moves, first is the recommended move
	Score Score
}

// FirstMove returns the first move of the line or "".
func (l Line) FirstMove() string {
	if len(l.Moves) == 0 {
		return ""
	}
	return l.Moves[0]
}

// TerminalLine scores a position whose side to move has no legal moves:
// mate in 0 when in check, 0 cp for stalemate. ok is false for any other
// position or an unparsable FEN.
func TerminalLine(fen string) (Line, bool) {
	pos, err := game.NewPosition(fen)
	if err != nil {
		return Line{}, false
	}
	over, mated := pos.Terminal()
	if !over {
		return Line{}, false
	}
	if mated {
		return Line{Score: Mate(0)}, true
	}
	return Line{Score: CP(0)}, true
}

// Response is what one Analyze call returned: either a single line or a
// ranked set of lines.
type Response struct {
	Single *Line
	Multi  []Line
}

// Lines returns the response as a uniform, ranked slice.
func (r Response) Lines() []Line {
	switch {
	case len(r.Multi) > 0:
		return r.Multi
	case r.Single != nil:
		return []Line{*r.Single}
	default:
		return nil
	}
}

// SingleLine wraps one line.
func SingleLine(l Line) Response { return Response{Single: &l} }

// MultiLine wraps several ranked lines.
func MultiLine(lines ...Line) Response { return Response{Multi: lines} }

// OptionError records a rejected engine option.
type OptionError struct {
	Name string
	Err  error
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("engine option %s: %v", e.Name, e.Err)
}

func (e *OptionError) Unwrap() error {
	return e.Err
}
