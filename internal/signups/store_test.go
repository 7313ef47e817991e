package signups

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/database"
)

// memStore is an in-memory Store. A transaction holds the store mutex for its
// whole duration, which serialises ledger mutations the way the event row lock
// does, and restores a snapshot when fn fails. It also implements events.Store
// so the registry and the ledger can share state in scenario tests.
type memStore struct {
	mu            sync.Mutex
	events        map[int64]*models.Event
	signups       map[int64]*models.Signup
	users         map[int64]*models.User
	organisations map[int64]*models.Organisation // keyed by organiser ID
	nextID        int64
	failOn        map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		events:        map[int64]*models.Event{},
		signups:       map[int64]*models.Signup{},
		users:         map[int64]*models.User{},
		organisations: map[int64]*models.Organisation{},
		failOn:        map[string]error{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addUser(role models.Role) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), Role: role, Name: "user", Email: "user@example.com"}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addEvent(postedBy int64, maxVolunteers int, hours float64) *models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &models.Event{ID: m.id(), Title: "Beach Cleanup", PostedByID: postedBy, MaxVolunteers: maxVolunteers, DurationHours: hours}
	m.events[e.ID] = e
	return e
}

func (m *memStore) event(id int64) models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.events[id]
}

func (m *memStore) signup(id int64) (models.Signup, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.signups[id]
	if !ok {
		return models.Signup{}, false
	}
	return *s, true
}

func (m *memStore) user(id int64) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

func (m *memStore) countSignups(eventID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.signups {
		if s.EventID == eventID {
			n++
		}
	}
	return n
}

func (m *memStore) setCount(eventID int64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventID].CurrentVolCount = n
}

type snapshot struct {
	events  map[int64]models.Event
	signups map[int64]models.Signup
	users   map[int64]models.User
}

func (m *memStore) snapshot() snapshot {
	s := snapshot{events: map[int64]models.Event{}, signups: map[int64]models.Signup{}, users: map[int64]models.User{}}
	for k, v := range m.events {
		s.events[k] = *v
	}
	for k, v := range m.signups {
		s.signups[k] = *v
	}
	for k, v := range m.users {
		s.users[k] = *v
	}
	return s
}

func (m *memStore) restore(s snapshot) {
	m.events, m.signups, m.users = map[int64]*models.Event{}, map[int64]*models.Signup{}, map[int64]*models.User{}
	for k, v := range s.events {
		v := v
		m.events[k] = &v
	}
	for k, v := range s.signups {
		v := v
		m.signups[k] = &v
	}
	for k, v := range s.users {
		v := v
		m.users[k] = &v
	}
}

func (m *memStore) InTx(_ context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(memTx{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) GetEvent(_ context.Context, id int64) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) GetSignup(_ context.Context, id int64) (*models.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.signups[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListByEvent(_ context.Context, eventID int64) ([]models.EventSignup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.EventSignup{}
	for _, s := range m.signups {
		if s.EventID == eventID {
			u := m.users[s.VolunteerID]
			list = append(list, models.EventSignup{
				Signup:    *s,
				Volunteer: models.VolunteerContact{ID: u.ID, Name: u.Name, Email: u.Email},
			})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (m *memStore) ListByVolunteer(_ context.Context, volunteerID int64) ([]models.VolunteerSignup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.VolunteerSignup{}
	for _, s := range m.signups {
		if s.VolunteerID == volunteerID {
			list = append(list, models.VolunteerSignup{
				Signup: *s,
				Event:  models.EventListItem{Event: *m.events[s.EventID]},
			})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

// memTx runs with memStore.mu held.
type memTx struct{ m *memStore }

func (t memTx) fail(op string) error { return t.m.failOn[op] }

func (t memTx) LockEvent(_ context.Context, id int64) (*models.Event, error) {
	e, ok := t.m.events[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (t memTx) LockSignup(_ context.Context, id int64) (*models.Signup, error) {
	s, ok := t.m.signups[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (t memTx) SignupExists(_ context.Context, eventID, volunteerID int64) (bool, error) {
	for _, s := range t.m.signups {
		if s.EventID == eventID && s.VolunteerID == volunteerID {
			return true, nil
		}
	}
	return false, nil
}

func (t memTx) InsertSignup(ctx context.Context, s *models.Signup) error {
	if err := t.fail("InsertSignup"); err != nil {
		return err
	}
	if ok, _ := t.SignupExists(ctx, s.EventID, s.VolunteerID); ok {
		return ErrAlreadyApplied
	}
	s.ID = t.m.id()
	cp := *s
	t.m.signups[s.ID] = &cp
	return nil
}

func (t memTx) DeleteSignup(_ context.Context, id int64) error {
	if _, ok := t.m.signups[id]; !ok {
		return database.ErrNotFound
	}
	delete(t.m.signups, id)
	return nil
}

var errCheckViolation = errors.New("events_capacity_check violated")

func (t memTx) AdjustVolunteerCount(_ context.Context, eventID int64, delta int) error {
	e, ok := t.m.events[eventID]
	if !ok {
		return database.ErrNotFound
	}
	n := e.CurrentVolCount + delta
	if n < 0 || n > e.MaxVolunteers {
		if delta > 0 {
			return ErrEventFull
		}
		return errCheckViolation
	}
	e.CurrentVolCount = n
	return nil
}

func (t memTx) SetStatus(_ context.Context, id int64, status models.SignupStatus, hoursLogged *float64) (*models.Signup, error) {
	s, ok := t.m.signups[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	s.Status = status
	if hoursLogged != nil {
		h := *hoursLogged
		s.HoursLogged = &h
	}
	cp := *s
	return &cp, nil
}

func (t memTx) AddVolunteerHours(_ context.Context, volunteerID int64, hours float64) error {
	if err := t.fail("AddVolunteerHours"); err != nil {
		return err
	}
	u, ok := t.m.users[volunteerID]
	if !ok {
		return database.ErrNotFound
	}
	u.TotalHours += hours
	return nil
}

// events.Store

func (m *memStore) OrganisationByOrganiser(_ context.Context, organiserID int64) (*models.Organisation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.organisations[organiserID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) Create(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	e.CurrentVolCount = 0
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m *memStore) List(context.Context, models.EventFilter) ([]models.EventListItem, error) {
	return nil, errors.New("not used")
}

func (m *memStore) Get(ctx context.Context, id int64) (*models.Event, error) {
	return m.GetEvent(ctx, id)
}

func (m *memStore) GetDetail(ctx context.Context, id int64) (*models.EventDetail, error) {
	e, err := m.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.EventDetail{Event: *e}, nil
}

func (m *memStore) HasSignup(ctx context.Context, eventID, volunteerID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memTx{m}.SignupExists(ctx, eventID, volunteerID)
}

func (m *memStore) Update(context.Context, int64, models.EventFields) (*models.Event, error) {
	return nil, errors.New("not used")
}

func (m *memStore) Delete(context.Context, int64) error { return errors.New("not used") }

func (m *memStore) ListByPoster(context.Context, int64) ([]models.Event, error) {
	return nil, errors.New("not used")
}

// dashboard.Store

func (m *memStore) EventSummaries(_ context.Context, organisationID int64) ([]models.RecentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.RecentEvent{}
	for _, e := range m.events {
		if e.OrganisationID != organisationID {
			continue
		}
		n := 0
		for _, s := range m.signups {
			if s.EventID == e.ID {
				n++
			}
		}
		list = append(list, models.RecentEvent{Event: *e, SignupCount: n})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return list, nil
}
