package streamer

import (
	"context"
	"time"
)

// Clock is the loop's source of time and of pauses.
type Clock interface {
	Now() time.Time
	// Sleep pauses for d and returns ctx.Err() when cancelled first.
	Sleep(ctx context.Context, d time.Duration) error
}

type wallClock struct{}

// WallClock returns the real-time Clock.
func WallClock() Clock {
	return wallClock{}
}

func (wallClock) Now() time.Time {
	return time.Now()
}

func (wallClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
