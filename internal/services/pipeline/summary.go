package pipeline

import (
	"sync/atomic"
	"time"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageBulletins   Stage = "bulletins"
	StagePredictions Stage = "predictions"
	StageLastPrices  Stage = "last_prices"
)

// Summary reports the outcome of one stage run.
type Summary struct {
	RunID      string        `json:"run_id"`
	Stage      Stage         `json:"stage"`
	Processed  int           `json:"processed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Inserted   int           `json:"inserted"`
	Duplicates int           `json:"duplicates"`
	Duration   time.Duration `json:"duration"`
}

// counters are shared by the workers of one stage.
type counters struct {
	processed  atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
	inserted   atomic.Int64
	duplicates atomic.Int64
}

func (c *counters) summary(runID string, stage Stage, started time.Time) *Summary {
	return &Summary{
		RunID:      runID,
		Stage:      stage,
		Processed:  int(c.processed.Load()),
		Skipped:    int(c.skipped.Load()),
		Failed:     int(c.failed.Load()),
		Inserted:   int(c.inserted.Load()),
		Duplicates: int(c.duplicates.Load()),
		Duration:   time.Since(started),
	}
}
