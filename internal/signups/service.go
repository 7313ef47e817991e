// Package signups implements the signup ledger: volunteers apply to and cancel
// signups, organisers move them through the status lifecycle, and marking a
// signup ATTENDED credits the volunteer's hours.
//
// Every mutation runs in one store transaction that first locks the event row,
// so the event's signup count always equals its number of signup rows and never
// exceeds its capacity.
package signups

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/apperr"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/database"
)

var (
	ErrOnlyVolunteers        = apperr.Forbidden("Only volunteers can apply")
	ErrEventNotFound         = apperr.NotFound("Event not found")
	ErrEventFull             = apperr.Conflict("Event is full")
	ErrAlreadyApplied        = apperr.Conflict("Already applied")
	ErrSignupNotFound        = apperr.NotFound("Signup not found")
	ErrInvalidStatus         = apperr.Validation("Invalid status")
	ErrNotEventOrganiser     = apperr.Forbidden("Not authorized to manage signups for this event")
	ErrNotAllowedToView      = apperr.Forbidden("Not authorized to view signups")
	ErrNotSignupOwner        = apperr.Forbidden("Not authorized to cancel this signup")
	ErrAttendedNotCancelable = apperr.Conflict("Attended signups cannot be cancelled")
)

// Tx is the view of the store inside a ledger transaction.
type Tx interface {
	// LockEvent returns the event and holds its row lock until the transaction ends.
	LockEvent(ctx context.Context, eventID int64) (*models.Event, error)
	// LockSignup returns the signup and holds its row lock until the transaction ends.
	LockSignup(ctx context.Context, signupID int64) (*models.Signup, error)
	SignupExists(ctx context.Context, eventID, volunteerID int64) (bool, error)
	InsertSignup(ctx context.Context, s *models.Signup) error
	DeleteSignup(ctx context.Context, signupID int64) error
	// AdjustVolunteerCount adds delta to the event's current_vol_count.
	AdjustVolunteerCount(ctx context.Context, eventID int64, delta int) error
	// SetStatus writes the status; a nil hoursLogged leaves hours_logged unchanged.
	SetStatus(ctx context.Context, signupID int64, status models.SignupStatus, hoursLogged *float64) (*models.Signup, error)
	AddVolunteerHours(ctx context.Context, volunteerID int64, hours float64) error
}

// Store is the persistence the ledger needs.
type Store interface {
	// InTx runs fn in a transaction that commits only when fn returns nil.
	InTx(ctx context.Context, fn func(Tx) error) error
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
	GetSignup(ctx context.Context, signupID int64) (*models.Signup, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.EventSignup, error)
	ListByVolunteer(ctx context.Context, volunteerID int64) ([]models.VolunteerSignup, error)
}

// Metrics receives ledger outcomes.
type Metrics interface {
	LedgerOperation(op string, err error)
	HoursAccrued(hours float64)
}

type nopMetrics struct{}

func (nopMetrics) LedgerOperation(string, error) {}
func (nopMetrics) HoursAccrued(float64)          {}

// Service applies the ledger rules.
type Service struct {
	store   Store
	metrics Metrics
	logger  *zap.Logger
}

// NewService creates a signup service. metrics and logger may be nil.
func NewService(store Store, metrics Metrics, logger *zap.Logger) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, metrics: metrics, logger: logger}
}

// Apply registers the volunteer for the event.
func (s *Service) Apply(ctx context.Context, actor models.Actor, eventID int64) (signup *models.Signup, err error) {
	defer func() { s.metrics.LedgerOperation("apply", err) }()

	if !actor.IsVolunteer() {
		return nil, ErrOnlyVolunteers
	}
	err = s.store.InTx(ctx, func(tx Tx) error {
		event, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return notFoundAs(err, ErrEventNotFound, "lock event")
		}
		if event.IsFull() {
			return ErrEventFull
		}
		exists, err := tx.SignupExists(ctx, eventID, actor.ID)
		if err != nil {
			return apperr.Internal("check existing signup", err)
		}
		if exists {
			return ErrAlreadyApplied
		}
		signup = &models.Signup{
			EventID:     eventID,
			VolunteerID: actor.ID,
			Status:      models.StatusRegistered,
		}
		if err := tx.InsertSignup(ctx, signup); err != nil {
			return classify(err, "insert signup")
		}
		if err := tx.AdjustVolunteerCount(ctx, eventID, 1); err != nil {
			return classify(err, "increment volunteer count")
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "apply")
	}
	s.logger.Info("signup created",
		zap.Int64("signup_id", signup.ID), zap.Int64("event_id", eventID), zap.Int64("volunteer_id", actor.ID))
	return signup, nil
}

// UpdateStatus moves a signup to status. Only the organiser who posted the
// event may do this. Entering ATTENDED logs the event's duration on the signup
// and adds it to the volunteer's total hours, once.
func (s *Service) UpdateStatus(ctx context.Context, actor models.Actor, signupID int64, status models.SignupStatus) (updated *models.Signup, err error) {
	defer func() { s.metrics.LedgerOperation("update_status", err) }()

	if _, perr := models.ParseSignupStatus(string(status)); perr != nil {
		return nil, ErrInvalidStatus
	}
	current, err := s.store.GetSignup(ctx, signupID)
	if err != nil {
		return nil, notFoundAs(err, ErrSignupNotFound, "get signup")
	}

	var credited float64
	err = s.store.InTx(ctx, func(tx Tx) error {
		event, err := tx.LockEvent(ctx, current.EventID)
		if err != nil {
			return notFoundAs(err, ErrSignupNotFound, "lock event")
		}
		if !event.IsPostedBy(actor.ID) {
			return ErrNotEventOrganiser
		}
		prior, err := tx.LockSignup(ctx, signupID)
		if err != nil {
			return notFoundAs(err, ErrSignupNotFound, "lock signup")
		}
		if !prior.Status.CanTransitionTo(status) {
			return apperr.Conflict(fmt.Sprintf("Cannot change status from %s to %s", prior.Status, status))
		}
		if prior.Status == status {
			updated = prior
			return nil
		}

		var hours *float64
		if status == models.StatusAttended {
			h := event.DurationHours
			hours = &h
		}
		updated, err = tx.SetStatus(ctx, signupID, status, hours)
		if err != nil {
			return classify(err, "set signup status")
		}
		if hours != nil {
			if err := tx.AddVolunteerHours(ctx, prior.VolunteerID, *hours); err != nil {
				return classify(err, "credit volunteer hours")
			}
			credited = *hours
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "update signup status")
	}
	if credited > 0 {
		s.metrics.HoursAccrued(credited)
		s.logger.Info("attendance recorded",
			zap.Int64("signup_id", signupID), zap.Int64("volunteer_id", updated.VolunteerID), zap.Float64("hours", credited))
	}
	return updated, nil
}

// Cancel removes the volunteer's own signup and frees its place.
func (s *Service) Cancel(ctx context.Context, actor models.Actor, signupID int64) (err error) {
	defer func() { s.metrics.LedgerOperation("cancel", err) }()

	current, err := s.store.GetSignup(ctx, signupID)
	if err != nil {
		return notFoundAs(err, ErrSignupNotFound, "get signup")
	}
	if current.VolunteerID != actor.ID {
		return ErrNotSignupOwner
	}
	err = s.store.InTx(ctx, func(tx Tx) error {
		event, err := tx.LockEvent(ctx, current.EventID)
		if err != nil {
			return notFoundAs(err, ErrSignupNotFound, "lock event")
		}
		signup, err := tx.LockSignup(ctx, signupID)
		if err != nil {
			return notFoundAs(err, ErrSignupNotFound, "lock signup")
		}
		if signup.Status == models.StatusAttended {
			return ErrAttendedNotCancelable
		}
		if event.CurrentVolCount <= 0 {
			s.logger.Error("signup count invariant violated",
				zap.Int64("event_id", event.ID), zap.Int64("signup_id", signupID),
				zap.Int("current_vol_count", event.CurrentVolCount))
			return apperr.Internal("cancel signup",
				fmt.Errorf("event %d holds signup %d but current_vol_count is %d", event.ID, signupID, event.CurrentVolCount))
		}
		if err := tx.DeleteSignup(ctx, signupID); err != nil {
			return notFoundAs(err, ErrSignupNotFound, "delete signup")
		}
		if err := tx.AdjustVolunteerCount(ctx, event.ID, -1); err != nil {
			return classify(err, "decrement volunteer count")
		}
		return nil
	})
	if err != nil {
		return classify(err, "cancel signup")
	}
	s.logger.Info("signup cancelled",
		zap.Int64("signup_id", signupID), zap.Int64("event_id", current.EventID), zap.Int64("volunteer_id", actor.ID))
	return nil
}

// ListForEvent returns the event's signups with volunteer contact details,
// newest first. Only the organiser who posted the event may list them.
func (s *Service) ListForEvent(ctx context.Context, actor models.Actor, eventID int64) ([]models.EventSignup, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFoundAs(err, ErrEventNotFound, "get event")
	}
	if !event.IsPostedBy(actor.ID) {
		return nil, ErrNotAllowedToView
	}
	list, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("list event signups", err)
	}
	return list, nil
}

// ListForVolunteer returns the actor's signups with their events, newest first.
func (s *Service) ListForVolunteer(ctx context.Context, actor models.Actor) ([]models.VolunteerSignup, error) {
	list, err := s.store.ListByVolunteer(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Internal("list volunteer signups", err)
	}
	return list, nil
}

// notFoundAs maps database.ErrNotFound to notFound and anything else to an internal error.
func notFoundAs(err, notFound error, op string) error {
	if errors.Is(err, database.ErrNotFound) {
		return notFound
	}
	return classify(err, op)
}

// classify keeps classified errors and wraps the rest as internal.
func classify(err error, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(op, err)
}
