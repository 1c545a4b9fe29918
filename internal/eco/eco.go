// Package eco provides ECO (Encyclopedia of Chess Openings) lookup.
package eco

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/freeeve/pgn/v3"

	"github.com/freeeve/chessreview/internal/game"
)

// Opening represents an ECO opening classification.
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
	Ply  int    `json:"ply"` // depth of the matching line
}

// Database holds ECO opening data indexed by position.
type Database struct {
	byPosition map[pgn.PackedPosition]Opening
	count      int
}

// NewDatabase creates an empty ECO database.
func NewDatabase() *Database {
	return &Database{
		byPosition: make(map[pgn.PackedPosition]Opening),
	}
}

// LoadDir loads all .tsv files from a directory.
func (db *Database) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .tsv files found in %s", dir)
	}

	for _, file := range files {
		if err := db.LoadFile(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// LoadFile loads a single TSV file.
func (db *Database) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return db.Load(f)
}

// Load reads "eco\tname\tpgn" rows. Rows whose moves do not replay are
// skipped.
func (db *Database) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip header
		if lineNum == 1 && strings.HasPrefix(line, "eco\t") {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		key, plies, err := replay(parts[2])
		if err != nil {
			continue
		}

		if _, dup := db.byPosition[key]; !dup {
			db.count++
		}
		db.byPosition[key] = Opening{ECO: parts[0], Name: parts[1], Ply: plies}
	}

	return scanner.Err()
}

// replay plays a line like "1. e4 e5 2. Nf3 Nc6" from the start.
func replay(movetext string) (pgn.PackedPosition, int, error) {
	g, err := game.Parse(movetext)
	if err != nil {
		return pgn.PackedPosition{}, 0, err
	}
	pos, err := g.InitialPosition()
	if err != nil {
		return pgn.PackedPosition{}, 0, err
	}
	for _, mv := range g.Moves {
		if err := pos.Apply(mv); err != nil {
			return pgn.PackedPosition{}, 0, err
		}
	}
	return pos.Key(), len(g.Moves), nil
}

// Lookup returns the ECO opening for a position, or nil if not found.
func (db *Database) Lookup(pos *game.Position) *Opening {
	if db == nil {
		return nil
	}
	if o, ok := db.byPosition[pos.Key()]; ok {
		return &o
	}
	return nil
}

// Count returns the number of openings loaded.
func (db *Database) Count() int {
	return db.count
}

// Tracker follows a game and remembers the deepest named position reached.
type Tracker struct {
	db      *Database
	current *Opening
}

// NewTracker returns a tracker over db. A nil db never matches.
func (db *Database) NewTracker() *Tracker {
	return &Tracker{db: db}
}

// Observe records pos if it is a known opening position at least as deep
// as the current match.
func (t *Tracker) Observe(pos *game.Position) {
	o := t.db.Lookup(pos)
	if o == nil {
		return
	}
	if t.current == nil || o.Ply >= t.current.Ply {
		t.current = o
	}
}

// Opening returns the deepest opening seen so far, or nil.
func (t *Tracker) Opening() *Opening {
	return t.current
}
