package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/freeeve/chessreview/internal/analysis"
)

func TestRoundTripZstd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json.zst")

	want := map[string]any{"run_id": "abc", "fen_history": []any{"x"}}
	if err := writeOutput(path, want); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if json.Valid(raw) {
		t.Error("output should be compressed")
	}

	text, err := readInput(path)
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["run_id"] != "abc" {
		t.Errorf("got %v", got)
	}
}

func TestReadPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.pgn")
	if err := os.WriteFile(path, []byte("1. e4 e5"), 0o644); err != nil {
		t.Fatal(err)
	}
	text, err := readInput(path)
	if err != nil || text != "1. e4 e5" {
		t.Errorf("readInput = %q, %v", text, err)
	}
	if _, err := readInput(filepath.Join(t.TempDir(), "missing.pgn")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestToDocument(t *testing.T) {
	env := &analysis.Envelope{RunID: "r1"}
	if got := toDocument(analysis.Result{Envelope: env}); got != env {
		t.Errorf("got %v, want envelope", got)
	}

	doc := toDocument(analysis.Result{Err: &analysis.Error{Kind: analysis.KindEngineUnavailable, Message: "no engine"}})
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"error":{"kind":"engine_unavailable","message":"no engine"}}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	doc = toDocument(analysis.Result{Err: errors.New("boom")})
	data, _ = json.Marshal(doc)
	if string(data) != `{"error":{"kind":"invalid_game","message":"boom"}}` {
		t.Errorf("json = %s", data)
	}
}
