package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/highscore"
	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/store"
)

var (
	log = logrus.New()

	height    int
	width     int
	mineCount int
	preset    string
	seed      string
	layout    string
	rng       uint64
	dbPath    string
	logPath   string
	scores    bool
)

func init() {
	flag.IntVar(&height, "height", 9, "board height")
	flag.IntVar(&width, "width", 9, "board width")
	flag.IntVar(&mineCount, "mines", 10, "number of mines")
	flag.StringVar(&preset, "preset", "", "beginner, intermediate or expert")
	flag.StringVar(&seed, "seed", "", "board as HEIGHT:WIDTH:MINES")
	flag.StringVar(&layout, "layout", "", "fixed board, rows of '*' and '.' separated by '/'")
	flag.Uint64Var(&rng, "rng", 0, "random seed, 0 picks one")
	flag.StringVar(&dbPath, "db", config.SQLitePath(), "sqlite file for best times")
	flag.StringVar(&logPath, "log", "", "log file, rotated; empty disables logging")
	flag.BoolVar(&scores, "scores", false, "print the recorded best times and exit")
}

func printScores(ctx context.Context, s *store.Store) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Println("no best times yet")
		return nil
	}
	best := store.Scores{Store: s}
	for _, key := range keys {
		seconds, err := best.Get(ctx, key)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %5ds\n", key, seconds)
	}
	return nil
}

func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	log.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	if logPath == "" {
		return
	}

	level := logrus.InfoLevel
	if config.Development() {
		level = logrus.DebugLevel
	}
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   logPath,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
		Level:      level,
		Formatter:  &logrus.JSONFormatter{TimestampFormat: time.RFC3339},
	})
	if err != nil {
		log.Fatal("unable to open log file: ", err)
	}
	log.SetLevel(level)
	log.AddHook(hook)
}

// gameOptions picks the board from the flags: layout wins over seed, seed
// over preset, preset over explicit dimensions.
func gameOptions() (mines.GameParams, []mines.Option, error) {
	r := mines.NewRand()
	if rng != 0 {
		r = mines.NewSeededRand(rng)
	}
	opts := []mines.Option{mines.WithRand(r)}

	switch {
	case layout != "":
		params, gen, err := mines.ParseLayout(layout)
		if err != nil {
			return params, nil, err
		}
		return params, append(opts, mines.WithGenerator(gen)), nil
	case seed != "":
		params, err := mines.ParseSeed(seed)
		if err != nil {
			return mines.GameParams{}, nil, err
		}
		return *params, opts, nil
	case preset != "":
		params, err := mines.Preset(preset)
		return params, opts, err
	default:
		return mines.GameParams{Height: height, Width: width, MineCount: mineCount}, opts, nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flag.Parse()
	setupLogging()

	// engine and highscore logs go through logrus as well
	slogWriter := log.WriterLevel(logrus.DebugLevel)
	defer slogWriter.Close()
	logger := slog.New(slog.NewTextHandler(slogWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mines.Log = logger

	s, err := store.Open(ctx, dbPath, "best_times")
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	if scores {
		if err := printScores(ctx, s); err != nil {
			log.Fatal(err)
		}
		return
	}

	params, opts, err := gameOptions()
	if err != nil {
		log.Fatal(err)
	}
	game, err := mines.NewGame(params, opts...)
	if err != nil {
		log.Fatal(err)
	}

	log.WithFields(logrus.Fields{
		"seed": params.Seed(),
		"db":   dbPath,
	}).Info("starting game")

	t := newTerminal(os.Stdin, os.Stdout, game, highscore.NewBoard(store.Scores{Store: s}, logger))
	t.practice = layout != ""
	if err := t.run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
