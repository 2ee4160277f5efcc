package journal

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"camstreamer/internal/model"
	"camstreamer/internal/repository"
)

// WriteReport prints the most recent sessions, each followed by its events.
func WriteReport(w io.Writer, sessions repository.SessionRepository, events repository.EventRepository, limit int) error {
	list, err := sessions.GetRecent(limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no sessions recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i := range list {
		if err := writeSession(tw, &list[i], events); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteSession prints one session and its events.
func WriteSession(w io.Writer, sessions repository.SessionRepository, events repository.EventRepository, id string) error {
	s, err := sessions.GetByID(id)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("session not found: %s", id)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeSession(tw, s, events); err != nil {
		return err
	}
	return tw.Flush()
}

func writeSession(tw *tabwriter.Writer, s *model.Session, events repository.EventRepository) error {
	ended := "running"
	if s.EndedAt != nil {
		ended = s.EndedAt.Local().Format(time.DateTime)
	}

	failures, err := events.CountByKind(s.ID, model.EventUploadFailed)
	if err != nil {
		return err
	}

	fmt.Fprintf(tw, "SESSION %s\tcamera=%s\tserver=%s\tstarted=%s\tended=%s\tframes=%d\tfailure_periods=%d\n",
		s.ID, s.CameraID, s.ServerURL, s.StartedAt.Local().Format(time.DateTime), ended, s.FramesSent, failures)

	evs, err := events.GetBySessionID(s.ID)
	if err != nil {
		return err
	}
	for _, e := range evs {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.CreatedAt.Local().Format(time.DateTime), e.Kind, e.Detail)
	}
	return nil
}
