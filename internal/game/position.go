// Package game adapts github.com/freeeve/pgn to the operations the review
// pipeline needs: parsing game text, replaying moves and rendering positions.
package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

// String returns "white" or "black".
func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// Move is one half-move, carrying both notations.
type Move struct {
	SAN string // as written in the game text (without check marks)
	UCI string // e2e4, e7e8q
	mv  pgn.Mv
}

// Position is a mutable board state. Apply advances it in place.
type Position struct {
	state *pgn.GameState
}

// NewPosition builds a position from FEN. An empty string yields the
// standard starting position.
func NewPosition(fen string) (*Position, error) {
	if strings.TrimSpace(fen) == "" {
		return &Position{state: pgn.NewStartingPosition()}, nil
	}
	gs, err := pgn.NewGame(fen)
	if err != nil {
		return nil, fmt.Errorf("parse FEN %q: %w", fen, err)
	}
	return &Position{state: gs}, nil
}

// FEN renders the position.
func (p *Position) FEN() string {
	return p.state.ToFEN()
}

// Key returns the packed board, usable as a map key. Move counters are
// not part of it.
func (p *Position) Key() pgn.PackedPosition {
	return p.state.Pack()
}

// SideToMove reads the active color from the FEN.
func (p *Position) SideToMove() Color {
	return SideToMove(p.FEN())
}

// MoveNumber reads the fullmove counter from the FEN, defaulting to 1.
func (p *Position) MoveNumber() int {
	fields := strings.Fields(p.FEN())
	if len(fields) < 6 {
		return 1
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// IsLegal reports whether m is among the legal moves of the position.
func (p *Position) IsLegal(m Move) bool {
	for _, lm := range pgn.GenerateLegalMoves(p.state) {
		if lm.From == m.mv.From && lm.To == m.mv.To && lm.Promo == m.mv.Promo {
			return true
		}
	}
	return false
}

// Terminal reports whether the side to move has no legal moves, and if so
// whether it is in check (mated) rather than stalemated.
func (p *Position) Terminal() (over, mated bool) {
	if len(pgn.GenerateLegalMoves(p.state)) > 0 {
		return false, false
	}
	return true, p.state.IsInCheck()
}

// Apply plays m on the position without a legality check.
func (p *Position) Apply(m Move) error {
	if err := pgn.ApplyMove(p.state, m.mv); err != nil {
		return fmt.Errorf("apply %s: %w", m.UCI, err)
	}
	return nil
}

// ParseSAN resolves a SAN token against the position.
func (p *Position) ParseSAN(san string) (Move, error) {
	clean := normalizeSAN(san)
	mv, err := pgn.ParseSAN(p.state, clean)
	if err != nil {
		return Move{}, fmt.Errorf("parse %q: %w", san, err)
	}
	return Move{SAN: clean, UCI: mv.String(), mv: mv}, nil
}

// MoveFromUCI finds the legal move matching a UCI string.
func (p *Position) MoveFromUCI(uci string) (Move, error) {
	uci = strings.ToLower(strings.TrimSpace(uci))
	for _, lm := range pgn.GenerateLegalMoves(p.state) {
		if lm.String() == uci {
			return Move{UCI: uci, mv: lm}, nil
		}
	}
	return Move{}, fmt.Errorf("no legal move %q in %s", uci, p.FEN())
}

// SideToMove reads the active color field of a FEN string.
func SideToMove(fen string) Color {
	fields := strings.Fields(fen)
	if len(fields) > 1 && fields[1] == "b" {
		return Black
	}
	return White
}

// normalizeSAN strips check marks and annotation glyphs.
func normalizeSAN(san string) string {
	san = strings.TrimRight(san, "+#!?")
	switch san {
	case "0-0":
		return "O-O"
	case "0-0-0":
		return "O-O-O"
	}
	return san
}
