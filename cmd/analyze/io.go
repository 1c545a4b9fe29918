package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/chessreview/internal/analysis"
)

// readInput returns the whole input. "" or "-" reads stdin; a .zst suffix
// is decompressed.
func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}

	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return "", fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// writeOutput writes v as indented JSON. "" or "-" writes stdout; a .zst
// suffix compresses the file.
func writeOutput(path string, v any) (err error) {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if strings.HasSuffix(path, ".zst") {
		enc, zerr := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zerr != nil {
			return fmt.Errorf("zstd writer: %w", zerr)
		}
		defer func() {
			if cerr := enc.Close(); err == nil {
				err = cerr
			}
		}()
		w = enc
	}

	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	e.SetEscapeHTML(false)
	return e.Encode(v)
}

type errorDoc struct {
	Error *analysis.Error `json:"error"`
}

// toDocument picks what to print for one result: the envelope, or an error
// object when no report was produced.
func toDocument(r analysis.Result) any {
	if r.Err == nil {
		return r.Envelope
	}
	ae, ok := r.Err.(*analysis.Error)
	if !ok {
		ae = &analysis.Error{Kind: analysis.KindInvalidGame, Message: r.Err.Error()}
	}
	return errorDoc{Error: ae}
}
