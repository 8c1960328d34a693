// Package statistics aggregates match outcomes: scalar summaries for
// the simulator's chip-delta reports and per-seat counters the runner
// logs at match end.
package statistics

import (
	"math"
	"sort"
)

// Summary accumulates scalar samples in constant memory.
type Summary struct {
	Count int
	Sum   float64
	SumSq float64
	Min   float64
	Max   float64
}

// Add incorporates one sample.
func (s *Summary) Add(x float64) {
	if s.Count == 0 || x < s.Min {
		s.Min = x
	}
	if s.Count == 0 || x > s.Max {
		s.Max = x
	}
	s.Count++
	s.Sum += x
	s.SumSq += x * x
}

// Merge folds another summary into s. Merging is commutative, which
// lets parallel workers accumulate locally and combine at the end.
func (s *Summary) Merge(o Summary) {
	if o.Count == 0 {
		return
	}
	if s.Count == 0 || o.Min < s.Min {
		s.Min = o.Min
	}
	if s.Count == 0 || o.Max > s.Max {
		s.Max = o.Max
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.SumSq += o.SumSq
}

// Mean returns the arithmetic mean, zero when empty.
func (s *Summary) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Variance returns the sample variance, zero below two samples.
func (s *Summary) Variance() float64 {
	if s.Count < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumSq - float64(s.Count)*mean*mean) / float64(s.Count-1)
}

// StdDev returns the sample standard deviation.
func (s *Summary) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean.
func (s *Summary) StdError() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Count))
}

// ConfidenceInterval95 returns the 95% confidence interval for the
// mean.
func (s *Summary) ConfidenceInterval95() (lo, hi float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// SeatStats counts one seat's match activity.
type SeatStats struct {
	Seat      int
	Name      string
	Hands     int
	Wins      int
	Showdowns int
	Timeouts  int
	Coerced   int
	NetChips  int
}

// Tracker keeps SeatStats per seat id.
type Tracker struct {
	bySeat map[int]*SeatStats
}

func NewTracker() *Tracker {
	return &Tracker{bySeat: make(map[int]*SeatStats)}
}

// Seat returns the stats row for id, creating it on first use.
func (t *Tracker) Seat(id int, name string) *SeatStats {
	s, ok := t.bySeat[id]
	if !ok {
		s = &SeatStats{Seat: id, Name: name}
		t.bySeat[id] = s
	}
	if s.Name == "" {
		s.Name = name
	}
	return s
}

// All returns every row ordered by seat id.
func (t *Tracker) All() []*SeatStats {
	out := make([]*SeatStats, 0, len(t.bySeat))
	for _, s := range t.bySeat {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out
}
