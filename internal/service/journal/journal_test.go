package journal

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"camstreamer/internal/logger"
	"camstreamer/internal/model"
	"camstreamer/internal/repository/sqlite"
	"camstreamer/internal/streamer"
)

func newRecorder(t *testing.T) (*Recorder, *sqlite.SessionRepository, *sqlite.EventRepository) {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sessions := sqlite.NewSessionRepository(db)
	events := sqlite.NewEventRepository(db)
	r := NewRecorder(sessions, events, logger.NewNop())

	clock := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return r, sessions, events
}

func kinds(events []model.Event) []model.EventKind {
	out := make([]model.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestRecorder_SessionLifecycle(t *testing.T) {
	r, sessions, _ := newRecorder(t)

	id, err := r.Start("camera_0", "http://server:5000")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("Session id %q is not a uuid: %v", id, err)
	}
	if _, err := r.Start("camera_0", "http://server:5000"); err == nil {
		t.Error("Second Start should fail while a session is open")
	}

	r.FrameUploaded(1)
	r.FrameUploaded(2)
	if err := r.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if err := r.Finish(); err != nil {
		t.Errorf("Finish without a session should be a no-op, got %v", err)
	}

	s, err := sessions.GetByID(id)
	if err != nil || s == nil {
		t.Fatalf("Session not stored: %v, %v", s, err)
	}
	if s.FramesSent != 2 || s.EndedAt == nil {
		t.Errorf("Unexpected finished session: %+v", s)
	}
}

func TestRecorder_ActivationEvents(t *testing.T) {
	r, _, events := newRecorder(t)
	id, err := r.Start("camera_0", "http://server:5000")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	r.ActivationChanged(true, streamer.CausePoll)
	r.ActivationChanged(false, streamer.CauseRevoked)
	r.ActivationChanged(true, streamer.CausePoll)
	r.ActivationChanged(false, streamer.CausePoll)

	list, err := events.GetBySessionID(id)
	if err != nil {
		t.Fatalf("GetBySessionID failed: %v", err)
	}
	want := []model.EventKind{model.EventActivated, model.EventRevoked, model.EventActivated, model.EventDeactivated}
	got := kinds(list)
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRecorder_UploadFailuresOncePerActivation(t *testing.T) {
	r, _, events := newRecorder(t)
	id, err := r.Start("camera_0", "http://server:5000")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	r.ActivationChanged(true, streamer.CausePoll)
	for i := 0; i < 5; i++ {
		r.UploadFailed(errors.New("connection refused"))
	}
	r.ActivationChanged(false, streamer.CausePoll)
	r.ActivationChanged(true, streamer.CausePoll)
	r.UploadFailed(errors.New("server returned 503"))
	r.UploadFailed(errors.New("server returned 503"))

	count, err := events.CountByKind(id, model.EventUploadFailed)
	if err != nil {
		t.Fatalf("CountByKind failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected one failure per activation period (2), got %d", count)
	}

	list, _ := events.GetBySessionID(id)
	if list[1].Detail != "connection refused" {
		t.Errorf("Expected failure detail, got %q", list[1].Detail)
	}
}

func TestRecorder_IgnoresEventsWithoutSession(t *testing.T) {
	r, sessions, _ := newRecorder(t)

	r.ActivationChanged(true, streamer.CausePoll)
	r.UploadFailed(errors.New("boom"))

	list, err := sessions.GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no sessions, got %d", len(list))
	}
}

func TestWriteReport(t *testing.T) {
	r, sessions, events := newRecorder(t)

	var buf bytes.Buffer
	if err := WriteReport(&buf, sessions, events, 10); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}
	if !strings.Contains(buf.String(), "no sessions recorded") {
		t.Errorf("Unexpected empty report: %q", buf.String())
	}

	id, err := r.Start("camera_0", "http://server:5000")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.ActivationChanged(true, streamer.CausePoll)

	buf.Reset()
	if err := WriteReport(&buf, sessions, events, 10); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"SESSION " + id, "camera=camera_0", "ended=running", "activated"} {
		if !strings.Contains(out, want) {
			t.Errorf("Report is missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSession(t *testing.T) {
	r, sessions, events := newRecorder(t)
	id, err := r.Start("camera_0", "http://server:5000")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.ActivationChanged(true, streamer.CausePoll)
	r.UploadFailed(errors.New("connection refused"))
	r.UploadFailed(errors.New("connection refused"))

	var buf bytes.Buffer
	if err := WriteSession(&buf, sessions, events, id); err != nil {
		t.Fatalf("WriteSession failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"SESSION " + id, "failure_periods=1", "upload_failed", "connection refused"} {
		if !strings.Contains(out, want) {
			t.Errorf("Report is missing %q:\n%s", want, out)
		}
	}

	if err := WriteSession(&buf, sessions, events, "missing"); err == nil {
		t.Error("Unknown session should be an error")
	}
}
