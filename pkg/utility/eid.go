package utility

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunID identifies one invocation of the decision pipeline.
type RunID = uuid.UUID

var (
	runID     RunID
	runIDOnce sync.Once
	runIDMu   sync.RWMutex
)

func CurrentRun() RunID {
	runIDOnce.Do(func() {
		runID = uuid.Must(uuid.NewV7())
	})

	runIDMu.RLock()
	defer runIDMu.RUnlock()
	return runID
}

func NewRun() RunID {
	runIDOnce.Do(func() {})

	runIDMu.Lock()
	defer runIDMu.Unlock()

	runID = uuid.Must(uuid.NewV7())
	return runID
}

// RunStarted recovers the creation time embedded in a v7 run id.
func RunStarted(id RunID) time.Time {
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec).UTC()
}

// DecisionID is stable for a run, reservoir and day, so re-storing a decision
// of the same run replaces it.
func DecisionID(run RunID, reservoir string, day time.Time) uuid.UUID {
	return uuid.NewSHA1(run, []byte(reservoir+"/"+day.UTC().Format(time.DateOnly)))
}
