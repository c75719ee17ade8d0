package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lox/settlersforbots/cmd/settlersforbots/shared"
	"github.com/lox/settlersforbots/internal/display"
	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/randutil"
	"github.com/lox/settlersforbots/internal/simulator"
)

// SimulateCmd plays bot-only games locally
type SimulateCmd struct {
	Games     int           `default:"100" help:"Number of games to play"`
	Variant   string        `default:"base" enum:"base,expansion" help:"Rule set: base or expansion"`
	Bots      int           `default:"4" help:"Bots per game"`
	Seed      int64         `default:"0" help:"RNG seed (0 for random)"`
	MaxRounds int           `default:"0" help:"End games after this many rounds (0 plays to the target score)"`
	Workers   int           `default:"0" help:"Concurrent games (0 for one per CPU)"`
	Timeout   time.Duration `default:"1m" help:"Give up on a single game after this long"`
	Show      bool          `help:"Render the final board of every game"`
	Verbose   bool          `short:"V" help:"Verbose logging"`
}

func (c *SimulateCmd) Run() error {
	level := "warn"
	if c.Verbose {
		level = "debug"
	}
	logger, err := shared.SetupLogger(os.Stderr, level)
	if err != nil {
		return err
	}
	ctx := shared.SetupSignalHandler(logger)

	seed := randutil.Seed(c.Seed)
	logger.Info("Running simulation", "games", c.Games, "variant", c.Variant, "bots", c.Bots, "seed", seed)

	cfg := simulator.Config{
		Games:     c.Games,
		Variant:   c.Variant,
		Bots:      c.Bots,
		Seed:      seed,
		MaxRounds: c.MaxRounds,
		Workers:   c.Workers,
		Timeout:   c.Timeout,
		Logger:    logger,
	}
	if c.Show {
		var mu sync.Mutex
		renderer := display.NewRenderer()
		cfg.OnGame = func(n int, e *game.Engine) {
			out := renderer.State(e.State)
			mu.Lock()
			defer mu.Unlock()
			fmt.Printf("\n--- game %d ---\n%s\n", n, out)
		}
	}

	start := time.Now()
	stats, err := simulator.New(cfg).Run(ctx)
	if stats != nil {
		simulator.PrintSummary(os.Stdout, stats, c.Variant)
		fmt.Printf("\nSeed: %d, elapsed: %s\n", seed, time.Since(start).Round(time.Millisecond))
	}
	return err
}
