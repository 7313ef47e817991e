package signups

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteer-connect/backend/internal/apperr"
	"github.com/volunteer-connect/backend/internal/dashboard"
	"github.com/volunteer-connect/backend/internal/events"
	"github.com/volunteer-connect/backend/internal/models"
)

type fakeMetrics struct {
	mu    sync.Mutex
	ops   map[string]int
	hours float64
}

func (f *fakeMetrics) LedgerOperation(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ops == nil {
		f.ops = map[string]int{}
	}
	f.ops[op+":"+outcome(err)]++
}

func (f *fakeMetrics) HoursAccrued(h float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hours += h
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.KindOf(err).String()
}

type fixture struct {
	store     *memStore
	svc       *Service
	metrics   *fakeMetrics
	organiser models.Actor
	volunteer models.Actor
	event     *models.Event
}

func newFixture(t *testing.T, maxVolunteers int) *fixture {
	t.Helper()
	store := newMemStore()
	metrics := &fakeMetrics{}
	org := store.addUser(models.RoleOrganiser)
	vol := store.addUser(models.RoleVolunteer)
	return &fixture{
		store:     store,
		svc:       NewService(store, metrics, nil),
		metrics:   metrics,
		organiser: models.Actor{ID: org.ID, Role: org.Role},
		volunteer: models.Actor{ID: vol.ID, Role: vol.Role},
		event:     store.addEvent(org.ID, maxVolunteers, 4),
	}
}

func (f *fixture) newVolunteer() models.Actor {
	u := f.store.addUser(models.RoleVolunteer)
	return models.Actor{ID: u.ID, Role: u.Role}
}

func TestApply(t *testing.T) {
	f := newFixture(t, 10)

	s, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRegistered, s.Status)
	assert.Equal(t, f.volunteer.ID, s.VolunteerID)
	assert.Nil(t, s.HoursLogged)
	assert.Equal(t, 1, f.store.event(f.event.ID).CurrentVolCount)
	assert.Equal(t, 1, f.metrics.ops["apply:ok"])
}

func TestApply_OnlyVolunteers(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.svc.Apply(context.Background(), f.organiser, f.event.ID)
	assert.ErrorIs(t, err, ErrOnlyVolunteers)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, 0, f.store.event(f.event.ID).CurrentVolCount)
}

func TestApply_EventNotFound(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.svc.Apply(context.Background(), f.volunteer, 9999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestApply_FullEvent(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)

	_, err = f.svc.Apply(context.Background(), f.newVolunteer(), f.event.ID)
	assert.ErrorIs(t, err, ErrEventFull)
	assert.Equal(t, "Event is full", apperr.MessageOf(err))
	assert.Equal(t, 1, f.store.event(f.event.ID).CurrentVolCount)
	assert.Equal(t, 1, f.store.countSignups(f.event.ID))
}

func TestApply_Duplicate(t *testing.T) {
	f := newFixture(t, 10)
	_, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)

	_, err = f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, 1, f.store.event(f.event.ID).CurrentVolCount)
	assert.Equal(t, 1, f.store.countSignups(f.event.ID))
}

func TestApply_ConcurrentNeverExceedsCapacity(t *testing.T) {
	const capacity, applicants = 5, 40
	f := newFixture(t, capacity)
	volunteers := make([]models.Actor, applicants)
	for i := range volunteers {
		volunteers[i] = f.newVolunteer()
	}

	var (
		wg              sync.WaitGroup
		mu              sync.Mutex
		succeeded, full int
	)
	for _, v := range volunteers {
		wg.Add(1)
		go func(v models.Actor) {
			defer wg.Done()
			_, err := f.svc.Apply(context.Background(), v, f.event.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrEventFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(v)
	}
	wg.Wait()

	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, applicants-capacity, full)
	assert.Equal(t, capacity, f.store.event(f.event.ID).CurrentVolCount)
	assert.Equal(t, capacity, f.store.countSignups(f.event.ID))
}

func TestApply_InsertFailureRollsBack(t *testing.T) {
	f := newFixture(t, 10)
	f.store.failOn["InsertSignup"] = errors.New("connection reset")

	_, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, 0, f.store.event(f.event.ID).CurrentVolCount)
	assert.Equal(t, 0, f.store.countSignups(f.event.ID))
}

func TestApplyThenCancelRestoresCount(t *testing.T) {
	f := newFixture(t, 3)
	other := f.newVolunteer()
	_, err := f.svc.Apply(context.Background(), other, f.event.ID)
	require.NoError(t, err)
	before := f.store.event(f.event.ID).CurrentVolCount

	s, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(context.Background(), f.volunteer, s.ID))

	assert.Equal(t, before, f.store.event(f.event.ID).CurrentVolCount)
	_, exists := f.store.signup(s.ID)
	assert.False(t, exists)

	// The freed place can be taken again.
	_, err = f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	assert.NoError(t, err)
}

func TestCancel_Errors(t *testing.T) {
	f := newFixture(t, 3)
	s, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)

	err = f.svc.Cancel(context.Background(), f.volunteer, 9999)
	assert.ErrorIs(t, err, ErrSignupNotFound)

	err = f.svc.Cancel(context.Background(), f.newVolunteer(), s.ID)
	assert.ErrorIs(t, err, ErrNotSignupOwner)
	assert.Equal(t, 1, f.store.event(f.event.ID).CurrentVolCount)

	_, err = f.svc.UpdateStatus(context.Background(), f.organiser, s.ID, models.StatusAttended)
	require.NoError(t, err)
	err = f.svc.Cancel(context.Background(), f.volunteer, s.ID)
	assert.ErrorIs(t, err, ErrAttendedNotCancelable)
	assert.Equal(t, 1, f.store.event(f.event.ID).CurrentVolCount)
}

func TestCancel_CounterAtZeroFailsLoudly(t *testing.T) {
	f := newFixture(t, 3)
	s, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)
	f.store.setCount(f.event.ID, 0)

	err = f.svc.Cancel(context.Background(), f.volunteer, s.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	_, exists := f.store.signup(s.ID)
	assert.True(t, exists, "signup must survive an aborted cancel")
	assert.Equal(t, 0, f.store.event(f.event.ID).CurrentVolCount)
	assert.Equal(t, 1, f.metrics.ops["cancel:internal"])
}

func TestUpdateStatus_AttendedCreditsHoursOnce(t *testing.T) {
	f := newFixture(t, 3)
	s, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), f.organiser, s.ID, models.StatusAttended)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAttended, updated.Status)
	require.NotNil(t, updated.HoursLogged)
	assert.Equal(t, 4.0, *updated.HoursLogged)
	assert.Equal(t, 4.0, f.store.user(f.volunteer.ID).TotalHours)

	again, err := f.svc.UpdateStatus(context.Background(), f.organiser, s.ID, models.StatusAttended)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAttended, again.Status)
	assert.Equal(t, 4.0, f.store.user(f.volunteer.ID).TotalHours)
	assert.Equal(t, 4.0, f.metrics.hours)
}

func TestUpdateStatus_AccrualFailureRollsBack(t *testing.T) {
	f := newFixture(t, 3)
	s, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)
	f.store.failOn["AddVolunteerHours"] = errors.New("deadlock detected")

	_, err = f.svc.UpdateStatus(context.Background(), f.organiser, s.ID, models.StatusAttended)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	got, _ := f.store.signup(s.ID)
	assert.Equal(t, models.StatusRegistered, got.Status)
	assert.Nil(t, got.HoursLogged)
	assert.Zero(t, f.store.user(f.volunteer.ID).TotalHours)
}

func TestUpdateStatus_NonOwnerForbidden(t *testing.T) {
	f := newFixture(t, 3)
	s, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)
	otherOrganiser := f.store.addUser(models.RoleOrganiser)

	for _, actor := range []models.Actor{
		{ID: otherOrganiser.ID, Role: models.RoleOrganiser},
		f.volunteer,
	} {
		_, err = f.svc.UpdateStatus(context.Background(), actor, s.ID, models.StatusAttended)
		assert.ErrorIs(t, err, ErrNotEventOrganiser)
	}

	got, _ := f.store.signup(s.ID)
	assert.Equal(t, models.StatusRegistered, got.Status)
	assert.Nil(t, got.HoursLogged)
	assert.Zero(t, f.store.user(f.volunteer.ID).TotalHours)
}

func TestUpdateStatus_Validation(t *testing.T) {
	f := newFixture(t, 3)
	s, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), f.organiser, s.ID, models.SignupStatus("DONE"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.UpdateStatus(context.Background(), f.organiser, 9999, models.StatusRejected)
	assert.ErrorIs(t, err, ErrSignupNotFound)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []models.SignupStatus
		wantErr bool
	}{
		{"reject and restore", []models.SignupStatus{models.StatusRejected, models.StatusRegistered}, false},
		{"waitlist and promote", []models.SignupStatus{models.StatusWaitlist, models.StatusRegistered}, false},
		{"waitlist and reject", []models.SignupStatus{models.StatusWaitlist, models.StatusRejected}, false},
		{"same status", []models.SignupStatus{models.StatusRegistered}, false},
		{"attended is terminal", []models.SignupStatus{models.StatusAttended, models.StatusRegistered}, true},
		{"rejected cannot attend", []models.SignupStatus{models.StatusRejected, models.StatusAttended}, true},
		{"waitlist cannot attend", []models.SignupStatus{models.StatusWaitlist, models.StatusAttended}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 3)
			s, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
			require.NoError(t, err)

			for i, status := range tt.path {
				_, err = f.svc.UpdateStatus(context.Background(), f.organiser, s.ID, status)
				if i < len(tt.path)-1 {
					require.NoError(t, err)
				}
			}
			if tt.wantErr {
				assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			got, _ := f.store.signup(s.ID)
			assert.Equal(t, tt.path[len(tt.path)-1], got.Status)
			assert.Equal(t, 1, f.store.event(f.event.ID).CurrentVolCount)
		})
	}
}

func TestListForEvent(t *testing.T) {
	f := newFixture(t, 5)
	first, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)
	second, err := f.svc.Apply(context.Background(), f.newVolunteer(), f.event.ID)
	require.NoError(t, err)

	list, err := f.svc.ListForEvent(context.Background(), f.organiser, f.event.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, f.volunteer.ID, list[1].Volunteer.ID)

	_, err = f.svc.ListForEvent(context.Background(), f.volunteer, f.event.ID)
	assert.ErrorIs(t, err, ErrNotAllowedToView)

	_, err = f.svc.ListForEvent(context.Background(), f.organiser, 9999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestListForVolunteer(t *testing.T) {
	f := newFixture(t, 5)
	other := f.store.addEvent(f.organiser.ID, 5, 2)
	_, err := f.svc.Apply(context.Background(), f.volunteer, f.event.ID)
	require.NoError(t, err)
	_, err = f.svc.Apply(context.Background(), f.volunteer, other.ID)
	require.NoError(t, err)

	list, err := f.svc.ListForVolunteer(context.Background(), f.volunteer)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, other.ID, list[0].Event.ID)
	assert.Equal(t, f.event.ID, list[1].Event.ID)
}

func TestGreenEarthScenario(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	organiser := store.addUser(models.RoleOrganiser)
	store.organisations[organiser.ID] = &models.Organisation{ID: 100, Name: "Green Earth", OrganiserID: organiser.ID}
	orgActor := models.Actor{ID: organiser.ID, Role: models.RoleOrganiser}

	registry := events.NewService(store, nil, nil)
	ledger := NewService(store, nil, nil)

	event, err := registry.Create(ctx, orgActor, models.EventFields{
		Title:         "Tree Planting",
		Description:   "Plant saplings along the river bank",
		Category:      "Environment",
		Date:          time.Date(2026, 12, 5, 8, 0, 0, 0, time.UTC),
		DurationHours: 3.5,
		LocationText:  "Riverside Park",
		MaxVolunteers: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), event.OrganisationID)
	assert.Equal(t, 0, event.CurrentVolCount)

	a := store.addUser(models.RoleVolunteer)
	b := store.addUser(models.RoleVolunteer)
	c := store.addUser(models.RoleVolunteer)

	signupA, err := ledger.Apply(ctx, models.Actor{ID: a.ID, Role: a.Role}, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRegistered, signupA.Status)
	assert.Equal(t, 1, store.event(event.ID).CurrentVolCount)

	_, err = ledger.Apply(ctx, models.Actor{ID: b.ID, Role: b.Role}, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, store.event(event.ID).CurrentVolCount)

	_, err = ledger.Apply(ctx, models.Actor{ID: c.ID, Role: c.Role}, event.ID)
	assert.ErrorIs(t, err, ErrEventFull)
	assert.Equal(t, 2, store.event(event.ID).CurrentVolCount)

	detail, err := registry.Get(ctx, event.ID, &models.Actor{ID: a.ID, Role: a.Role})
	require.NoError(t, err)
	assert.True(t, detail.HasApplied)

	_, err = ledger.UpdateStatus(ctx, orgActor, signupA.ID, models.StatusAttended)
	require.NoError(t, err)
	assert.Equal(t, 3.5, store.user(a.ID).TotalHours)

	_, err = ledger.UpdateStatus(ctx, orgActor, signupA.ID, models.StatusAttended)
	require.NoError(t, err)
	assert.Equal(t, 3.5, store.user(a.ID).TotalHours)
	assert.Zero(t, store.user(b.ID).TotalHours)
}

func TestDashboardTotalVolunteersMatchesSignupLists(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	organiser := store.addUser(models.RoleOrganiser)
	store.organisations[organiser.ID] = &models.Organisation{ID: 7, Name: "Green Earth", OrganiserID: organiser.ID}
	orgActor := models.Actor{ID: organiser.ID, Role: models.RoleOrganiser}
	registry := events.NewService(store, nil, nil)
	ledger := NewService(store, nil, nil)

	var eventIDs []int64
	for i, capacity := range []int{3, 2, 4} {
		f := models.EventFields{
			Title: "Shift", Description: "Shift", Category: "Community", LocationText: "Hall",
			Date: time.Date(2026, 11, 1+i, 9, 0, 0, 0, time.UTC), DurationHours: 2, MaxVolunteers: capacity,
		}
		e, err := registry.Create(ctx, orgActor, f)
		require.NoError(t, err)
		eventIDs = append(eventIDs, e.ID)
	}
	// The same volunteer on two events counts twice.
	shared := store.addUser(models.RoleVolunteer)
	for _, id := range eventIDs[:2] {
		_, err := ledger.Apply(ctx, models.Actor{ID: shared.ID, Role: shared.Role}, id)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		v := store.addUser(models.RoleVolunteer)
		_, err := ledger.Apply(ctx, models.Actor{ID: v.ID, Role: v.Role}, eventIDs[2])
		require.NoError(t, err)
	}

	want := 0
	for _, id := range eventIDs {
		list, err := ledger.ListForEvent(ctx, orgActor, id)
		require.NoError(t, err)
		want += len(list)
	}
	stats, err := dashboard.NewService(store).Stats(ctx, orgActor)
	require.NoError(t, err)
	assert.Equal(t, 5, want)
	assert.Equal(t, want, stats.TotalVolunteers)
	assert.Equal(t, 3, stats.TotalEvents)
}
