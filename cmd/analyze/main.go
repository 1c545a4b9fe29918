package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/freeeve/chessreview/internal/analysis"
	"github.com/freeeve/chessreview/internal/classify"
	"github.com/freeeve/chessreview/internal/config"
	"github.com/freeeve/chessreview/internal/eco"
	"github.com/freeeve/chessreview/internal/game"
	"github.com/freeeve/chessreview/internal/logx"
)

// flagKeys maps command-line flags to config keys. Only flags that were
// set on the command line override other sources.
var flagKeys = map[string]string{
	"engine":     "engine_path",
	"depth":      "depth",
	"multipv":    "multipv",
	"use-time":   "use_time",
	"time-limit": "time_limit",
	"threads":    "threads",
	"hash":       "hash_mb",
	"syzygy":     "syzygy_path",
	"thresholds": "thresholds_file",
	"workers":    "workers",
	"eco-dir":    "eco_dir",
	"log-level":  "log_level",
	"log-json":   "log_json",
}

func main() {
	var (
		configFile = flag.String("config", "", "config file (yaml, json or toml)")
		outPath    = flag.String("o", "", "output file, .zst compresses (default stdout)")
		gameID     = flag.String("game-id", "", "identifier echoed in the report")
		gameURL    = flag.String("game-url", "", "URL echoed in the report")

		_ = flag.String("engine", "", "path to a UCI engine (also STOCKFISH_PATH)")
		_ = flag.Int("depth", 15, "search depth, clamped to 5..25")
		_ = flag.Int("multipv", 1, "candidate lines per position")
		_ = flag.Bool("use-time", false, "search by time instead of depth")
		_ = flag.Float64("time-limit", 0.08, "seconds per position with -use-time")
		_ = flag.Int("threads", 1, "engine threads")
		_ = flag.Int("hash", 16, "engine hash MB")
		_ = flag.String("syzygy", "", "Syzygy tablebase directory")
		_ = flag.String("thresholds", "", "classification thresholds JSON")
		_ = flag.Int("workers", 1, "games analyzed concurrently")
		_ = flag.String("eco-dir", "", "directory containing ECO .tsv files")
		_ = flag.String("log-level", "info", "log level")
		_ = flag.Bool("log-json", false, "JSON logs")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: analyze [options] [game.pgn[.zst] | -]")
		flag.PrintDefaults()
	}
	flag.Parse()

	overrides := make(map[string]any)
	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.(flag.Getter).Get()
		}
	})

	bootLog := logx.NewLogger(logx.Options{})
	cfg, err := config.Load(*configFile, overrides, bootLog)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("load config")
	}

	logger := logx.NewLogger(logx.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	thresholds, err := cfg.Thresholds()
	if err != nil {
		logger.Fatal().Err(err).Msg("load thresholds")
	}
	classifier, err := classify.New(thresholds)
	if err != nil {
		logger.Fatal().Err(err).Msg("thresholds")
	}

	var ecoDB *eco.Database
	if cfg.ECODir != "" {
		ecoDB = eco.NewDatabase()
		if err := ecoDB.LoadDir(cfg.ECODir); err != nil {
			logger.Warn().Err(err).Str("dir", cfg.ECODir).Msg("failed to load ECO database")
			ecoDB = nil
		} else {
			logger.Info().Int("openings", ecoDB.Count()).Msg("ECO database loaded")
		}
	}

	input := flag.Arg(0)
	text, err := readInput(input)
	if err != nil {
		logger.Fatal().Err(err).Str("input", input).Msg("read input")
	}

	texts := game.SplitGames(text)
	if len(texts) == 0 {
		texts = []string{text}
	}
	reqs := make([]analysis.Request, len(texts))
	for i, t := range texts {
		reqs[i] = analysis.Request{PGN: t, ID: *gameID, URL: *gameURL}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer := analysis.New(analysis.Options{
		Engine:     cfg.EngineConfig(),
		Resolver:   config.NewEngineLocator(cfg.EnginePath),
		Classifier: classifier,
		Openings:   ecoDB,
		Workers:    cfg.Workers,
		Logger:     logger,
	})

	logger.Info().
		Int("games", len(reqs)).
		Int("depth", analyzer.EngineConfig().Depth).
		Int("multipv", analyzer.EngineConfig().MultiPV).
		Int("workers", cfg.Workers).
		Msg("starting analysis")

	results := analyzer.AnalyzeBatch(ctx, reqs)

	ok := 0
	docs := make([]any, len(results))
	for i, r := range results {
		docs[i] = toDocument(r)
		if r.Err == nil {
			ok++
		}
	}

	var out any = docs
	if len(docs) == 1 {
		out = docs[0]
	}
	if err := writeOutput(*outPath, out); err != nil {
		logger.Fatal().Err(err).Msg("write report")
	}

	if ok == 0 {
		os.Exit(1)
	}
}
