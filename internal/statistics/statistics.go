package statistics

import (
	"fmt"
	"math"
	"sort"
)

// MaxSeats bounds the seat indices tracked per seat.
const MaxSeats = 6

// GameResult represents the outcome of a single simulated game
type GameResult struct {
	Seed         int64 // Batch seed; replay with randutil.Derive(Seed, Game)
	Game         int   // Index of the game within its batch
	Finished     bool  // Did the game reach the finished phase?
	RoundLimited bool  // Finished by the round cap rather than the target score
	Rounds       int   // Rounds played
	Turns        int   // Turns played
	Steps        int   // Actions applied
	WinnerSeat   int   // Turn index of the winner, -1 without one
	WinnerPoints int
	Conservation error // Non-nil when the bank and hands do not add up
}

// SeatStats tracks statistics for a specific turn index
type SeatStats struct {
	Games int
	Wins  int
}

// Statistics tracks the results of a batch of simulated games
type Statistics struct {
	Games      int
	SumRounds  float64
	SumRounds2 float64   // Sum of squares for variance calculation
	Rounds     []float64 // Store all values for median/percentile calculation

	Finished     int // Games that reached the finished phase
	RoundLimited int // Finished games decided by the round cap
	Stalled      int // Games where no seat could act
	Violations   int // Games that broke resource conservation
	TotalSteps   int

	SeatResults [MaxSeats]SeatStats
}

// Add incorporates a new game result into the statistics. seats is the
// number of players that took part.
func (s *Statistics) Add(result GameResult, seats int) {
	rounds := float64(result.Rounds)
	s.Games++
	s.SumRounds += rounds
	s.SumRounds2 += rounds * rounds
	s.Rounds = append(s.Rounds, rounds)
	s.TotalSteps += result.Steps

	switch {
	case result.Finished && result.RoundLimited:
		s.Finished++
		s.RoundLimited++
	case result.Finished:
		s.Finished++
	default:
		s.Stalled++
	}
	if result.Conservation != nil {
		s.Violations++
	}

	for seat := 0; seat < seats && seat < MaxSeats; seat++ {
		s.SeatResults[seat].Games++
	}
	if result.WinnerSeat >= 0 && result.WinnerSeat < MaxSeats {
		s.SeatResults[result.WinnerSeat].Wins++
	}
}

// MeanRounds returns the arithmetic mean of rounds per game
func (s *Statistics) MeanRounds() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumRounds / float64(s.Games)
}

// Variance returns the sample variance of rounds per game
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.MeanRounds()
	return (s.SumRounds2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation of rounds per game
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.MeanRounds()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median rounds per game
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the rounds at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Rounds) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Rounds))
	copy(sorted, s.Rounds)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// SeatWinRate returns the share of games the seat won, 0 to 1
func (s *Statistics) SeatWinRate(seat int) float64 {
	if seat < 0 || seat >= MaxSeats {
		return 0
	}
	ss := s.SeatResults[seat]
	if ss.Games == 0 {
		return 0
	}
	return float64(ss.Wins) / float64(ss.Games)
}

// Validate performs consistency checks on the collected data
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}
	if len(s.Rounds) != s.Games {
		return fmt.Errorf("rounds array length (%d) does not match games count (%d)", len(s.Rounds), s.Games)
	}
	if s.Finished+s.Stalled != s.Games {
		return fmt.Errorf("finished (%d) plus stalled (%d) does not match games count (%d)", s.Finished, s.Stalled, s.Games)
	}

	wins := 0
	for _, ss := range s.SeatResults {
		if ss.Wins > ss.Games {
			return fmt.Errorf("seat wins (%d) exceed seat games (%d)", ss.Wins, ss.Games)
		}
		wins += ss.Wins
	}
	if wins > s.Finished {
		return fmt.Errorf("total wins (%d) exceeds finished games (%d)", wins, s.Finished)
	}
	if s.Violations > 0 {
		return fmt.Errorf("%d games broke resource conservation", s.Violations)
	}
	return nil
}
