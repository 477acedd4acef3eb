package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/peter-kozarec/hedgeflow/pkg/models/kkt"
	"github.com/peter-kozarec/hedgeflow/pkg/utility"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Record is the persisted form of one hedging decision.
type Record struct {
	ID            uuid.UUID
	RunID         utility.RunID
	Reservoir     string
	Day           time.Time
	Regime        kkt.Regime
	Expected      Volume
	DeltaMin      Volume
	Q995          Volume
	HoldBack      Volume
	Delta         Volume
	Degraded      bool
	DegenerateFit bool
}

func NewRecord(run utility.RunID, reservoir string, day time.Time, res kkt.Result, scale int) (Record, error) {
	rec := Record{
		ID:            utility.DecisionID(run, reservoir, day),
		RunID:         run,
		Reservoir:     reservoir,
		Day:           day.UTC().Truncate(24 * time.Hour),
		Regime:        res.Regime,
		Degraded:      res.Distribution.Degraded,
		DegenerateFit: res.Fit.Degenerate,
	}

	fields := []struct {
		name string
		dst  *Volume
		x    float64
	}{
		{"expected", &rec.Expected, res.Expected()},
		{"delta_min", &rec.DeltaMin, res.DeltaMin()},
		{"q995", &rec.Q995, res.Distribution.Q995},
		{"hold_back", &rec.HoldBack, res.HoldBack},
		{"delta", &rec.Delta, res.Delta},
	}
	for _, f := range fields {
		v, err := NewVolume(f.x, scale)
		if err != nil {
			return Record{}, fmt.Errorf("record %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return rec, nil
}

func (r Record) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", r.ID.String())
	enc.AddString("reservoir", r.Reservoir)
	enc.AddString("day", r.Day.Format(time.DateOnly))
	enc.AddString("regime", r.Regime.String())
	enc.AddString("expected", r.Expected.String())
	enc.AddString("delta_min", r.DeltaMin.String())
	enc.AddString("hold_back", r.HoldBack.String())
	enc.AddString("delta", r.Delta.String())
	enc.AddBool("degraded", r.Degraded)
	return nil
}

func (r Record) Field() zap.Field {
	return zap.Object("decision", r)
}
