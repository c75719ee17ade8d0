package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/settlersforbots/internal/bot"
	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/randutil"
	"github.com/lox/settlersforbots/internal/statistics"
)

// ErrStalled is returned when no seat has a legal move left.
var ErrStalled = errors.New("game stalled")

// Config holds configuration for running simulations
type Config struct {
	Games     int
	Variant   string
	Bots      int
	Seed      int64
	MaxRounds int           // 0 plays to the target score
	MaxSteps  int           // safety cap on actions per game
	Workers   int           // concurrent games, 0 for GOMAXPROCS
	Timeout   time.Duration // per game
	Logger    *log.Logger

	// OnGame, when set, receives every finished engine before it is dropped.
	OnGame func(n int, e *game.Engine)
}

const defaultMaxSteps = 50000

// Simulator runs bot-only games
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = defaultMaxSteps
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	return &Simulator{config: config}
}

// Run plays every game and returns the aggregated results. Game n draws from
// stream n of the seed, so a batch replays exactly for the same seed.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	v, err := game.VariantByName(s.config.Variant)
	if err != nil {
		return nil, err
	}
	if s.config.Bots < 2 || s.config.Bots > v.MaxClients {
		return nil, fmt.Errorf("bots must be between 2 and %d, got %d", v.MaxClients, s.config.Bots)
	}

	var (
		mu    sync.Mutex
		stats = &statistics.Statistics{}
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for n := 0; n < s.config.Games; n++ {
		g.Go(func() error {
			result, err := s.playWithTimeout(ctx, v, n)
			if err != nil && !errors.Is(err, ErrStalled) {
				return fmt.Errorf("game %d: %w", n, err)
			}
			mu.Lock()
			stats.Add(result, s.config.Bots)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := stats.Validate(); err != nil {
		return stats, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

func (s *Simulator) playWithTimeout(ctx context.Context, v game.Variant, n int) (statistics.GameResult, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	return s.PlayGame(ctx, v, n, randutil.Derive(s.config.Seed, n))
}

// PlayGame runs one game between bots to completion, the round cap or the
// step cap, whichever comes first.
func (s *Simulator) PlayGame(ctx context.Context, v game.Variant, n int, rng *rand.Rand) (statistics.GameResult, error) {
	logger := s.config.Logger.With("game", n)
	result := statistics.GameResult{Seed: s.config.Seed, Game: n, WinnerSeat: -1}

	e, err := game.NewEngine(v, rng,
		game.WithLogger(logger),
		game.WithSettings(game.Settings{MaxRounds: s.config.MaxRounds}))
	if err != nil {
		return result, err
	}
	for i := 1; i <= s.config.Bots; i++ {
		if _, err := e.AddPlayer(fmt.Sprintf("bot-%d", i), fmt.Sprintf("Bot %d", i), true); err != nil {
			return result, err
		}
	}

	agent := bot.NewAgent(logger)
	state := e.State
	for state.Phase != game.PhaseFinished {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if result.Steps >= s.config.MaxSteps {
			return s.collect(e, result), fmt.Errorf("%w: step cap of %d reached", ErrStalled, s.config.MaxSteps)
		}
		if e.AllReady() {
			if err := e.StartGame(); err != nil {
				return result, err
			}
		}

		sessionID, action, ok := nextMove(agent, state)
		if !ok {
			return s.collect(e, result), fmt.Errorf("%w in phase %s", ErrStalled, state.Phase)
		}
		result.Steps++
		if err := e.Apply(sessionID, action); err != nil {
			// same recovery as a room: end the turn, or give up
			p, _ := state.Player(sessionID)
			if p == nil || p.TurnIndex != state.CurrentTurn ||
				e.Apply(sessionID, game.Action{Type: game.ActionFinishTurn}) != nil {
				logger.Warn("Bot action rejected", "session", sessionID, "type", action.Type, "error", err)
				return s.collect(e, result), fmt.Errorf("%w: %v", ErrStalled, err)
			}
		}
	}

	result = s.collect(e, result)
	if s.config.OnGame != nil {
		s.config.OnGame(n, e)
	}
	return result, nil
}

func (s *Simulator) collect(e *game.Engine, result statistics.GameResult) statistics.GameResult {
	state := e.State
	result.Finished = state.Phase == game.PhaseFinished
	result.Rounds = state.CurrentRound
	result.Turns = state.TurnNumber
	result.Conservation = state.CheckConservation()
	if winner, ok := state.Player(state.WinnerID); ok {
		result.WinnerSeat = winner.TurnIndex
		result.WinnerPoints = winner.VictoryPoints
		result.RoundLimited = winner.VictoryPoints < state.Variant.TargetPoints
	}
	return result
}

// nextMove finds the first seat with something to do.
func nextMove(agent *bot.Agent, s *game.State) (string, game.Action, bool) {
	for _, p := range s.Players {
		if a, ok := agent.NextAction(s, p.SessionID); ok {
			return p.SessionID, a, true
		}
	}
	return "", game.Action{}, false
}

// PrintSummary writes a summary of simulation results
func PrintSummary(w io.Writer, stats *statistics.Statistics, variant string) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== RESULTS (%s) ===\n", variant)
	fmt.Fprintf(w, "Games played: %d\n", stats.Games)
	fmt.Fprintf(w, "Finished: %d (%d by round cap), stalled: %d\n", stats.Finished, stats.RoundLimited, stats.Stalled)
	if stats.Games > 0 {
		fmt.Fprintf(w, "Actions per game: %.1f\n", float64(stats.TotalSteps)/float64(stats.Games))
	}

	fmt.Fprintf(w, "\n=== GAME LENGTH ===\n")
	fmt.Fprintf(w, "Mean: %.2f rounds\n", stats.MeanRounds())
	fmt.Fprintf(w, "Median: %.2f rounds\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.2f rounds\n", stats.StdDev())
	fmt.Fprintf(w, "95%% CI: [%.2f, %.2f] rounds\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Fprintf(w, "\n=== SEAT ANALYSIS ===\n")
	for seat := 0; seat < statistics.MaxSeats; seat++ {
		ss := stats.SeatResults[seat]
		if ss.Games > 0 {
			fmt.Fprintf(w, "Seat %d: %d wins in %d games (%.1f%%)\n", seat, ss.Wins, ss.Games, stats.SeatWinRate(seat)*100)
		}
	}
}
