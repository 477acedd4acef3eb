package report

import (
	"fmt"
	"sync"

	"github.com/peter-kozarec/hedgeflow/pkg/models/kkt"
	"go.uber.org/zap"
)

// Summary aggregates the decisions of one run. It is safe for concurrent use.
type Summary struct {
	mu sync.Mutex

	scale    int
	regimes  map[kkt.Regime]int
	failures int
	degraded int
	holdBack Volume
	delta    Volume
}

func NewSummary(scale int) *Summary {
	return &Summary{
		scale:    scale,
		regimes:  make(map[kkt.Regime]int, len(kkt.Regimes)),
		holdBack: MustVolume(0, scale),
		delta:    MustVolume(0, scale),
	}
}

func (s *Summary) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	holdBack, err := s.holdBack.Add(r.HoldBack)
	if err != nil {
		return fmt.Errorf("total hold back: %w", err)
	}
	delta, err := s.delta.Add(r.Delta)
	if err != nil {
		return fmt.Errorf("total delta: %w", err)
	}

	s.holdBack, s.delta = holdBack, delta
	s.regimes[r.Regime]++
	if r.Degraded {
		s.degraded++
	}
	return nil
}

// Fail counts a cycle that produced no decision.
func (s *Summary) Fail() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

func (s *Summary) Decisions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, c := range s.regimes {
		n += c
	}
	return n
}

func (s *Summary) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

func (s *Summary) TotalHoldBack() Volume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holdBack
}

func (s *Summary) Print(logger *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := []zap.Field{
		zap.Int("failures", s.failures),
		zap.Int("degraded", s.degraded),
		zap.Stringer("total_hold_back", s.holdBack),
		zap.Stringer("total_delta", s.delta),
	}
	for _, regime := range kkt.Regimes {
		if n := s.regimes[regime]; n > 0 {
			fields = append(fields, zap.Int("regime_"+regime.String(), n))
		}
	}
	logger.Info("run summary", fields...)
}
