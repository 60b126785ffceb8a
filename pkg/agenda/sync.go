package agenda

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/sonrisas/pkg/index"
	"github.com/harrisonrobin/sonrisas/pkg/model"
)

// Syncer keeps one calendar in line with helpers' assignments.
type Syncer struct {
	srv        *calendar.Service
	calendarID string
	index      *index.Index
	log        logrus.FieldLogger
}

// Result counts what a sync did to the calendar.
type Result struct {
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
}

func NewSyncer(srv *calendar.Service, calendarID string, idx *index.Index, log logrus.FieldLogger) *Syncer {
	return &Syncer{srv: srv, calendarID: calendarID, index: idx, log: log}
}

// FindCalendar returns the id of the calendar whose summary is name.
func FindCalendar(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	for _, item := range list.Items {
		if item.Summary == name {
			return item.Id, nil
		}
	}
	return "", fmt.Errorf("calendar %q not found", name)
}

// Sync lays out h's assignments from start and creates, patches or deletes
// events so the calendar matches. Finished assignments and assignments that
// were removed since the last export lose their events.
func (s *Syncer) Sync(ctx context.Context, h model.Helper, start time.Time) (Result, error) {
	var res Result
	planned := make(map[string]bool)

	for _, b := range Plan(h, start) {
		planned[b.Key()] = true
		created, updated, err := s.SyncEvent(ctx, b)
		if err != nil {
			return res, fmt.Errorf("sync %s: %w", b.Key(), err)
		}
		switch {
		case created:
			res.Created++
		case updated:
			res.Updated++
		default:
			res.Unchanged++
		}
	}

	stale := make(map[string]bool)
	for _, a := range h.TareasAsignadas {
		if k := Key(h.ID, a.TaskID()); !planned[k] {
			stale[k] = true
		}
	}
	if s.index != nil {
		for _, k := range s.index.Keys(h.ID + ":") {
			if !planned[k] {
				stale[k] = true
			}
		}
	}
	for k := range stale {
		deleted, err := s.DeleteEvent(ctx, k)
		if err != nil {
			return res, fmt.Errorf("delete %s: %w", k, err)
		}
		if deleted {
			res.Deleted++
		}
	}

	if s.index != nil {
		if err := s.index.Save(); err != nil {
			s.log.WithError(err).Warn("could not save event index")
		}
	}
	return res, nil
}

// SyncEvent creates the block's event or patches the existing one.
func (s *Syncer) SyncEvent(ctx context.Context, b Block) (created, updated bool, err error) {
	target := Event(b)
	key := b.Key()

	existing, err := s.find(ctx, key)
	if err != nil {
		return false, false, err
	}

	if existing == nil {
		ev, err := s.srv.Events.Insert(s.calendarID, target).Context(ctx).Do()
		if err != nil {
			return false, false, err
		}
		s.remember(key, ev.Id)
		s.log.WithFields(logrus.Fields{"key": key, "event": ev.Id}).Debug("created event")
		return true, false, nil
	}

	patch, err := EventNeedsUpdate(existing, target)
	if err != nil {
		return false, false, fmt.Errorf("could not compare assignment with its calendar event: %w", err)
	}
	s.remember(key, existing.Id)
	if patch == nil {
		return false, false, nil
	}
	if _, err := s.srv.Events.Patch(s.calendarID, existing.Id, patch).Context(ctx).Do(); err != nil {
		return false, false, err
	}
	s.log.WithFields(logrus.Fields{"key": key, "event": existing.Id}).Debug("patched event")
	return false, true, nil
}

// DeleteEvent removes the event for an assignment key, if there is one.
func (s *Syncer) DeleteEvent(ctx context.Context, key string) (bool, error) {
	existing, err := s.find(ctx, key)
	if err != nil {
		return false, err
	}
	if s.index != nil {
		s.index.Remove(key)
	}
	if existing == nil {
		return false, nil
	}
	if err := s.srv.Events.Delete(s.calendarID, existing.Id).Context(ctx).Do(); err != nil && !gone(err) {
		return false, err
	}
	s.log.WithFields(logrus.Fields{"key": key, "event": existing.Id}).Debug("deleted event")
	return true, nil
}

// find looks the event up through the index first, then by extended
// property.
func (s *Syncer) find(ctx context.Context, key string) (*calendar.Event, error) {
	if s.index != nil {
		if id := s.index.Get(key); id != "" {
			ev, err := s.srv.Events.Get(s.calendarID, id).Context(ctx).Do()
			switch {
			case err == nil && ev.Status != "cancelled":
				return ev, nil
			case err != nil && !gone(err):
				s.log.WithError(err).WithField("key", key).Debug("indexed event lookup failed, searching")
			}
			s.index.Remove(key)
		}
	}

	events, err := s.srv.Events.List(s.calendarID).
		PrivateExtendedProperty(PropertyKey + "=" + key).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error searching for event: %w", err)
	}
	for _, ev := range events.Items {
		if ev.Status != "cancelled" {
			return ev, nil
		}
	}
	return nil, nil
}

func (s *Syncer) remember(key, eventID string) {
	if s.index != nil {
		s.index.Set(key, eventID)
	}
}

func gone(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}
