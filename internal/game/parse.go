package game

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyGame is returned when the text holds neither tags nor moves.
var ErrEmptyGame = errors.New("no game found in input")

// Game is a parsed game: header tags plus the mainline moves.
type Game struct {
	Headers  map[string]string
	StartFEN string // empty for the standard start
	Moves    []Move
}

// Header returns a tag value or "".
func (g *Game) Header(name string) string {
	if g.Headers == nil {
		return ""
	}
	return g.Headers[name]
}

// InitialPosition returns a fresh position the moves can be replayed on.
func (g *Game) InitialPosition() (*Position, error) {
	return NewPosition(g.StartFEN)
}

var (
	tagRegex        = regexp.MustCompile(`^\[\s*([A-Za-z0-9_]+)\s+"((?:[^"\\]|\\.)*)"\s*\]`)
	moveNumberRegex = regexp.MustCompile(`^\d+\.+`)
)

var resultTokens = map[string]bool{
	"1-0":     true,
	"0-1":     true,
	"1/2-1/2": true,
	"*":       true,
}

// Parse reads a single game. SAN moves are resolved by replaying them from
// the start position, so an unresolvable move fails the whole parse.
func Parse(text string) (*Game, error) {
	g := &Game{Headers: make(map[string]string)}

	var movetext strings.Builder
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			if m := tagRegex.FindStringSubmatch(trimmed); m != nil {
				g.Headers[m[1]] = strings.ReplaceAll(m[2], `\"`, `"`)
				continue
			}
		}
		if strings.HasPrefix(trimmed, "%") {
			continue
		}
		movetext.WriteString(line)
		movetext.WriteByte('\n')
	}

	tokens := tokenize(movetext.String())
	if len(g.Headers) == 0 && len(tokens) == 0 {
		return nil, ErrEmptyGame
	}

	if fen := g.Headers["FEN"]; fen != "" && g.Headers["SetUp"] != "0" {
		g.StartFEN = fen
	}

	pos, err := g.InitialPosition()
	if err != nil {
		return nil, err
	}

	for i, san := range tokens {
		mv, err := pos.ParseSAN(san)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		if err := pos.Apply(mv); err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		g.Moves = append(g.Moves, mv)
	}

	return g, nil
}

// tokenize strips comments, variations, NAGs, move numbers and result
// markers from movetext and returns the SAN tokens in order.
func tokenize(movetext string) []string {
	var cleaned strings.Builder
	depth := 0
	inBrace := false
	inLineComment := false

	for _, r := range movetext {
		switch {
		case inLineComment:
			if r == '\n' {
				inLineComment = false
				cleaned.WriteRune(' ')
			}
		case inBrace:
			if r == '}' {
				inBrace = false
				cleaned.WriteRune(' ')
			}
		case r == '{':
			inBrace = true
		case r == ';':
			inLineComment = true
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
			cleaned.WriteRune(' ')
		case depth > 0:
			// inside a variation
		default:
			cleaned.WriteRune(r)
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(cleaned.String()) {
		tok = moveNumberRegex.ReplaceAllString(tok, "")
		if tok == "" || tok[0] == '$' || resultTokens[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// SplitGames splits a multi-game file into per-game texts. A tag line that
// follows movetext starts a new game.
func SplitGames(text string) []string {
	var (
		games   []string
		current strings.Builder
		inMoves bool
	)

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			games = append(games, s)
		}
		current.Reset()
		inMoves = false
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && inMoves {
			flush()
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "[") {
			inMoves = true
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()

	return games
}
