package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/observability"
	"github.com/aretw0/arcade/pkg/ports"
)

type instrumented struct {
	next    ports.SessionStore
	metrics *observability.Metrics
}

// Instrument returns a middleware that counts and times every store call
// into m.StoreOps and m.StoreDuration.
func Instrument(m *observability.Metrics) Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &instrumented{next: next, metrics: m}
	}
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	s.metrics.StoreOps.WithLabelValues(op, outcome).Inc()
	s.metrics.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumented) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	start := time.Now()
	err := s.next.Save(ctx, sessionID, session)
	s.observe("save", start, err)
	return err
}

func (s *instrumented) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	start := time.Now()
	session, err := s.next.Load(ctx, sessionID)
	s.observe("load", start, err)
	return session, err
}

func (s *instrumented) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := s.next.Delete(ctx, sessionID)
	s.observe("delete", start, err)
	return err
}

func (s *instrumented) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := s.next.List(ctx)
	s.observe("list", start, err)
	return ids, err
}
