package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Subscriber statuses. A subscriber is pending until they click the
// confirmation link, and unsubscribed rows are kept so the address can be
// reactivated without losing its sent log.
const (
	StatusPending      = "pending"
	StatusActive       = "active"
	StatusUnsubscribed = "unsubscribed"
)

// Subscriber is a digest recipient.
type Subscriber struct {
	ID        int64     `db:"id"`
	Email     string    `db:"email"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// SubscribeOutcome reports what CreateOrReactivateSubscriber did.
type SubscribeOutcome string

const (
	OutcomeCreated       SubscribeOutcome = "created"
	OutcomeAlreadyActive SubscribeOutcome = "already_active"
	OutcomePending       SubscribeOutcome = "pending"
	OutcomeReactivated   SubscribeOutcome = "reactivated"
)

// NeedsConfirmation reports whether the outcome calls for a confirmation
// email. Only an already-active subscriber needs nothing sent.
func (o SubscribeOutcome) NeedsConfirmation() bool {
	return o != OutcomeAlreadyActive
}

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// SubscriberByEmail returns the subscriber with the given email, or
// ErrNotFound.
func (s *Store) SubscriberByEmail(ctx context.Context, email string) (Subscriber, error) {
	var sub Subscriber
	err := s.db.GetContext(ctx, &sub,
		`SELECT id, email, status, created_at FROM subscribers WHERE email = $1`,
		normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return Subscriber{}, ErrNotFound
	}
	if err != nil {
		return Subscriber{}, fmt.Errorf("looking up subscriber: %w", err)
	}
	return sub, nil
}

// ActiveSubscribers returns all active subscribers.
func (s *Store) ActiveSubscribers(ctx context.Context) ([]Subscriber, error) {
	var subs []Subscriber
	err := s.db.SelectContext(ctx, &subs,
		`SELECT id, email, status, created_at FROM subscribers WHERE status = $1 ORDER BY id`,
		StatusActive)
	if err != nil {
		return nil, fmt.Errorf("querying active subscribers: %w", err)
	}
	return subs, nil
}

// CreateOrReactivateSubscriber registers an email address, normalizing it to
// lowercase. An unsubscribed address goes back to pending so the double
// opt-in runs again.
func (s *Store) CreateOrReactivateSubscriber(ctx context.Context, email string) (SubscribeOutcome, error) {
	email = normalizeEmail(email)

	var status string
	err := s.db.GetContext(ctx, &status,
		`SELECT status FROM subscribers WHERE email = $1`, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO subscribers (email, status) VALUES ($1, $2)`, email, StatusPending)
		if err != nil {
			return "", fmt.Errorf("creating subscriber: %w", err)
		}
		s.log.Info("created subscriber", zap.String("email", email))
		return OutcomeCreated, nil
	case err != nil:
		return "", fmt.Errorf("looking up subscriber: %w", err)
	}

	switch status {
	case StatusActive:
		return OutcomeAlreadyActive, nil
	case StatusPending:
		return OutcomePending, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE subscribers SET status = $1 WHERE email = $2`, StatusPending, email)
	if err != nil {
		return "", fmt.Errorf("reactivating subscriber: %w", err)
	}
	s.log.Info("reactivated subscriber", zap.String("email", email))
	return OutcomeReactivated, nil
}

// ActivateSubscriber marks an email active. Returns false when no such
// subscriber exists.
func (s *Store) ActivateSubscriber(ctx context.Context, email string) (bool, error) {
	return s.setStatus(ctx, email, StatusActive)
}

// DeactivateSubscriber marks an email unsubscribed. Returns false when no
// such subscriber exists.
func (s *Store) DeactivateSubscriber(ctx context.Context, email string) (bool, error) {
	return s.setStatus(ctx, email, StatusUnsubscribed)
}

func (s *Store) setStatus(ctx context.Context, email, status string) (bool, error) {
	email = normalizeEmail(email)
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscribers SET status = $1 WHERE email = $2`, status, email)
	if err != nil {
		return false, fmt.Errorf("updating subscriber status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	if n > 0 {
		s.log.Info("subscriber status changed",
			zap.String("email", email), zap.String("status", status))
	}
	return n > 0, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
