package streamer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"camstreamer/internal/client"
	"camstreamer/internal/dto"
)

var testStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// fakeClock advances only when the loop sleeps and cancels the run once
// the configured duration has passed.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	until  time.Time
	cancel context.CancelFunc
	sleeps []time.Duration
}

func newFakeClock(t *testing.T, runFor time.Duration) (*fakeClock, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &fakeClock{now: testStart, until: testStart.Add(runFor), cancel: cancel}, ctx
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	if !c.now.Before(c.until) {
		c.cancel()
	}
	c.mu.Unlock()
	return ctx.Err()
}

// since returns the fake time elapsed from the start of the test.
func (c *fakeClock) since() time.Duration {
	return c.Now().Sub(testStart)
}

func (c *fakeClock) countSleeps(d time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

type fakeCamera struct {
	clock    *fakeClock
	frame    []byte
	failAt   int // capture number that fails, 0 never
	captures []time.Duration
}

func (c *fakeCamera) Capture() ([]byte, error) {
	c.captures = append(c.captures, c.clock.since())
	if c.failAt > 0 && len(c.captures) == c.failAt {
		return nil, errors.New("camera unplugged")
	}
	return c.frame, nil
}

// fakeServer answers polls and uploads from scripted functions of fake time.
type fakeServer struct {
	clock    *fakeClock
	source   func(at time.Duration) (*string, error)
	ack      func(seq int) (*dto.FrameAck, error)
	polls    []time.Duration
	uploads  []time.Duration
	payloads []*dto.FramePayload
}

func (s *fakeServer) FetchStatus(ctx context.Context) (*dto.StatusResponse, error) {
	at := s.clock.since()
	s.polls = append(s.polls, at)
	source, err := s.source(at)
	if err != nil {
		return nil, err
	}
	return &dto.StatusResponse{CurrentSource: source}, nil
}

func (s *fakeServer) UploadFrame(ctx context.Context, payload *dto.FramePayload) (*dto.FrameAck, error) {
	s.uploads = append(s.uploads, s.clock.since())
	s.payloads = append(s.payloads, payload)
	if s.ack == nil {
		return &dto.FrameAck{}, nil
	}
	return s.ack(len(s.uploads))
}

func source(id string) func(time.Duration) (*string, error) {
	return func(time.Duration) (*string, error) { return &id, nil }
}

func switchSource(first string, at time.Duration, second string) func(time.Duration) (*string, error) {
	return func(now time.Duration) (*string, error) {
		if now < at {
			return &first, nil
		}
		return &second, nil
	}
}

var (
	errRefused = errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")
	errStatus  = &client.StatusError{Method: "POST", URL: "http://server/receive_camera_frame", Code: 503}
)

func boolPtr(b bool) *bool { return &b }

type recordingObserver struct {
	NopObserver
	transitions []string
	captured    int
	uploaded    []int
	failures    int
}

func (r *recordingObserver) ActivationChanged(active bool, cause Cause) {
	state := "inactive"
	if active {
		state = "active"
	}
	r.transitions = append(r.transitions, state+":"+string(cause))
}

func (r *recordingObserver) FrameCaptured([]byte) { r.captured++ }
func (r *recordingObserver) FrameUploaded(seq int) { r.uploaded = append(r.uploaded, seq) }
func (r *recordingObserver) UploadFailed(error)    { r.failures++ }
