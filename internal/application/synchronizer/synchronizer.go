// Package synchronizer projects write-side changes into the read model.
//
// Every event is handled the same way regardless of payload: re-fetch the current aggregate from the
// write side and upsert its projection by id. Redelivered or reordered events therefore converge on
// the latest re-fetched state. Sync runs after the user-visible write has already succeeded, so
// failures are logged and never reach the writer.
package synchronizer

import (
	"context"
	"errors"
	"expvar"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/readmodel"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

// Outcome is the terminal state of one sync.
type Outcome string

const (
	Upserted     Outcome = "upserted"
	Deduplicated Outcome = "deduplicated"
	Removed      Outcome = "removed"
	Dropped      Outcome = "dropped"
	Failed       Outcome = "failed"
)

// ErrRetryable marks a sync the transport may redeliver.
var ErrRetryable = errors.New("sync failed, retryable")

var metrics = expvar.NewMap("user_sync")

// Source loads the current aggregate from the write side.
type Source interface {
	GetByID(ctx context.Context, id string, includeDeleted bool) (*entity.User, error)
}

// Deduplicator claims event ids so a redelivered event is handled once.
type Deduplicator interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type Synchronizer struct {
	Source         Source
	Target         repository.UserReadRepository
	Dedup          Deduplicator
	Logger         *logrus.Logger
	Now            func() time.Time
	RefetchTimeout time.Duration
}

func New(source Source, target repository.UserReadRepository, logger *logrus.Logger) *Synchronizer {
	return &Synchronizer{
		Source:         source,
		Target:         target,
		Logger:         logger,
		Now:            time.Now,
		RefetchTimeout: 5 * time.Second,
	}
}

// WithDeduplicator enables event-id deduplication.
func (s *Synchronizer) WithDeduplicator(d Deduplicator) *Synchronizer {
	s.Dedup = d
	return s
}

// Sync runs one event through the state machine. The error is non-nil only for Failed.
func (s *Synchronizer) Sync(ctx context.Context, evt event.Event) (Outcome, error) {
	outcome, err := s.sync(ctx, evt)
	metrics.Add(string(outcome), 1)
	s.log(evt, outcome, err)
	return outcome, err
}

func (s *Synchronizer) sync(ctx context.Context, evt event.Event) (Outcome, error) {
	category := event.CategoryOf(evt.EventType())
	if category == event.CategoryUnknown {
		return Dropped, nil
	}

	claimed := false
	if s.Dedup != nil {
		ok, err := s.Dedup.Claim(ctx, evt.EventID())
		switch {
		case err != nil:
			// continue without dedup
			s.entry(evt).WithError(err).Warn("dedup claim failed")
		case !ok:
			return Deduplicated, nil
		default:
			claimed = true
		}
	}

	outcome, err := s.materialize(ctx, evt, category)
	if outcome == Failed && claimed {
		if rErr := s.Dedup.Release(context.WithoutCancel(ctx), evt.EventID()); rErr != nil {
			s.entry(evt).WithError(rErr).Warn("dedup release failed")
		}
	}
	return outcome, err
}

func (s *Synchronizer) materialize(ctx context.Context, evt event.Event, category event.Category) (Outcome, error) {
	u, err := s.refetch(ctx, evt.AggregateID())
	switch {
	case apperror.Is(err, apperror.KindNotFound):
		if category != event.CategoryDeletion {
			return Dropped, nil
		}
		if err := s.Target.Remove(ctx, evt.AggregateID()); err != nil {
			return Failed, errors.Join(ErrRetryable, err)
		}
		return Removed, nil
	case err != nil:
		return Failed, errors.Join(ErrRetryable, err)
	}

	doc := readmodel.FromUser(u, s.Now())
	err = s.Target.Upsert(ctx, doc)
	switch {
	case err == nil:
		return Upserted, nil
	case apperror.Is(err, apperror.KindConflict):
		// the store already holds this or a newer version
		s.entry(evt).WithField("source_version", doc.SourceVersion).Info("projection conflict treated as success")
		return Upserted, nil
	default:
		return Failed, errors.Join(ErrRetryable, err)
	}
}

// refetch bounds the write-side read; retries belong to the transport.
func (s *Synchronizer) refetch(ctx context.Context, id string) (*entity.User, error) {
	if s.RefetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RefetchTimeout)
		defer cancel()
	}
	return s.Source.GetByID(ctx, id, true)
}

// HandleDomainEvent is the in-process handler. It never returns an error.
func (s *Synchronizer) HandleDomainEvent(ctx context.Context, evt event.Event) error {
	_, _ = s.Sync(ctx, evt)
	return nil
}

// HandleIntegrationMessage decodes and syncs an integration event. It returns ErrRetryable when a
// redelivery could succeed and event.ErrMalformedEnvelope when no redelivery can.
func (s *Synchronizer) HandleIntegrationMessage(ctx context.Context, body []byte) error {
	env, err := event.DecodeEnvelope(body)
	if err != nil {
		metrics.Add(string(Dropped), 1)
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("undecodable integration event")
		}
		return err
	}
	if _, err := s.Sync(ctx, env); err != nil {
		return err
	}
	return nil
}

func (s *Synchronizer) entry(evt event.Event) *logrus.Entry {
	logger := s.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithFields(logrus.Fields{
		"event_id":     evt.EventID(),
		"event_type":   evt.EventType(),
		"aggregate_id": evt.AggregateID(),
	})
}

func (s *Synchronizer) log(evt event.Event, outcome Outcome, err error) {
	if s.Logger == nil {
		return
	}
	e := s.entry(evt).WithField("outcome", outcome)
	switch outcome {
	case Failed:
		e.WithError(err).Error("user sync failed")
	case Dropped:
		e.Warn("user sync dropped")
	default:
		e.Debug("user synced")
	}
}
