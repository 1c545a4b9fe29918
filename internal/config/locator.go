package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/freeeve/chessreview/internal/eval"
)

// EngineLocator finds the engine binary: the configured path if any, then
// a bundled <BaseDir>/stockfish/stockfish, then the PATH.
type EngineLocator struct {
	Path     string // configured path (flag, STOCKFISH_PATH or config file)
	BaseDir  string // directory holding a bundled engine, usually the executable's
	GOOS     string // defaults to runtime.GOOS
	LookPath func(file string) (string, error)
}

// NewEngineLocator returns a locator rooted at the running executable.
func NewEngineLocator(path string) EngineLocator {
	base := ""
	if exe, err := os.Executable(); err == nil {
		base = filepath.Dir(exe)
	}
	return EngineLocator{Path: path, BaseDir: base}
}

// Resolve implements eval.PathResolver. A configured path that does not
// exist is an error, not a reason to keep searching.
func (l EngineLocator) Resolve() (string, error) {
	if l.Path != "" {
		if err := checkExecutable(l.Path); err != nil {
			return "", fmt.Errorf("%w: %v", eval.ErrEngineNotFound, err)
		}
		return l.Path, nil
	}

	name := "stockfish"
	goos := l.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos == "windows" {
		name += ".exe"
	}

	if l.BaseDir != "" {
		bundled := filepath.Join(l.BaseDir, "stockfish", name)
		if checkExecutable(bundled) == nil {
			return bundled, nil
		}
	}

	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if p, err := lookPath(name); err == nil {
		return p, nil
	}
	return "", eval.ErrEngineNotFound
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.New(path + " is a directory")
	}
	return nil
}
