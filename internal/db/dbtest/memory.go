// Package dbtest provides Store implementations for tests: an in-memory store
// mirroring the postgres semantics, and a bootstrap for a real test database.
package dbtest

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

// MemoryStore is a goroutine-safe in-memory db.Store.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[int]model.User
	devices   map[int]model.Device
	content   map[int]model.Content
	schedules map[int]model.Schedule
	nextID    int

	// Error injection for failure-path tests.
	HighestIdentifierErr error
	CreateDeviceErr      error
	UpdateContentDataErr error

	// Clock used for created/approved timestamps.
	Now func() time.Time
}

var _ db.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[int]model.User),
		devices:   make(map[int]model.Device),
		content:   make(map[int]model.Content),
		schedules: make(map[int]model.Schedule),
		Now:       time.Now,
	}
}

func (m *MemoryStore) id() int {
	m.nextID++
	return m.nextID
}

// AddUser seeds a principal and returns it with its id assigned.
func (m *MemoryStore) AddUser(email, role string) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := model.User{ID: m.id(), Email: email, Role: role, CreatedAt: m.Now(), UpdatedAt: m.Now()}
	m.users[u.ID] = u
	return u
}

// PutContent stores c verbatim, keeping LastFetched and Data. Tests use it to
// seed refresh state that the API cannot set.
func (m *MemoryStore) PutContent(c model.Content) model.Content {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.id()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.Now()
	}
	m.content[c.ID] = c
	return c
}

func (m *MemoryStore) GetUserByID(_ context.Context, id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) CreateDevice(_ context.Context, d *model.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateDeviceErr != nil {
		return m.CreateDeviceErr
	}
	for _, existing := range m.devices {
		if existing.Identifier == d.Identifier {
			return db.ErrConflict
		}
	}
	d.ID = m.id()
	d.CreatedAt = m.Now()
	m.devices[d.ID] = *d
	return nil
}

func (m *MemoryStore) GetDeviceByID(_ context.Context, id int) (*model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &d, nil
}

func (m *MemoryStore) GetDeviceByIdentifier(_ context.Context, identifier string) (*model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		if d.Identifier == identifier {
			out := d
			return &out, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MemoryStore) ListDevices(_ context.Context, approved *bool) ([]model.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Device{}
	for _, d := range m.devices {
		if approved != nil && d.Approved != *approved {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) HighestDeviceIdentifier(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HighestIdentifierErr != nil {
		return "", m.HighestIdentifierErr
	}
	best, bestN := "", int64(-1)
	for _, d := range m.devices {
		if !db.AllocatableIdentifier.MatchString(d.Identifier) {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimPrefix(d.Identifier, "Display"), 10, 64)
		if err != nil {
			continue
		}
		if n > bestN {
			best, bestN = d.Identifier, n
		}
	}
	return best, nil
}

func (m *MemoryStore) CountApprovedDevices(_ context.Context, clientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.devices {
		if d.Approved && d.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ApproveDevice(_ context.Context, d *model.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.devices[d.ID]
	if !ok || cur.Approved {
		return db.ErrConflict
	}
	now := m.Now()
	cur.Approved = true
	cur.CodeHash = nil
	cur.ApprovedAt = &now
	cur.Name = d.Name
	cur.ClientID = d.ClientID
	cur.LocationID = d.LocationID
	cur.Metadata = d.Metadata
	m.devices[d.ID] = cur
	*d = cur
	return nil
}

func (m *MemoryStore) UpdateDeviceDetails(_ context.Context, d *model.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.devices[d.ID]
	if !ok {
		return db.ErrNotFound
	}
	cur.Name = d.Name
	cur.LocationID = d.LocationID
	cur.Metadata = d.Metadata
	m.devices[d.ID] = cur
	*d = cur
	return nil
}

func (m *MemoryStore) DeleteDevice(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.devices, id)
	return nil
}

func (m *MemoryStore) CreateContent(_ context.Context, c *model.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	c.CreatedAt = m.Now()
	c.LastFetched = nil
	c.Data = nil
	m.content[c.ID] = *c
	return nil
}

func (m *MemoryStore) GetContentByID(_ context.Context, id int) (*model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.content[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) GetContentsByIDs(_ context.Context, ids []int64) ([]model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Content, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.content[int(id)]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListContent(_ context.Context, filter db.ContentFilter) ([]model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Content{}
	for _, c := range m.content {
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		if filter.UserID != 0 && c.UserID != filter.UserID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdateContent(_ context.Context, c *model.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.content[c.ID]
	if !ok {
		return db.ErrNotFound
	}
	next := *c
	next.UserID = cur.UserID
	next.CreatedAt = cur.CreatedAt
	if next.Type == model.ContentDynamic {
		next.LastFetched = cur.LastFetched
		next.Data = cur.Data
	} else {
		next.LastFetched = nil
		next.Data = nil
	}
	m.content[c.ID] = next
	*c = next
	return nil
}

func (m *MemoryStore) UpdateContentData(_ context.Context, id int, data json.RawMessage, fetchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateContentDataErr != nil {
		return m.UpdateContentDataErr
	}
	cur, ok := m.content[id]
	if !ok || cur.Type != model.ContentDynamic {
		return db.ErrNotFound
	}
	cur.Data = types.JSONText(append([]byte(nil), data...))
	cur.LastFetched = &fetchedAt
	m.content[id] = cur
	return nil
}

func (m *MemoryStore) DeleteContent(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.content[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.content, id)
	return nil
}

func (m *MemoryStore) DeleteContents(_ context.Context, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.content[int(id)]; ok {
			delete(m.content, int(id))
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateSchedule(_ context.Context, s *model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.id()
	s.CreatedAt = m.Now()
	s.Contents = nil
	m.schedules[s.ID] = *s
	return nil
}

func (m *MemoryStore) GetScheduleByID(_ context.Context, id int) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) ListSchedules(_ context.Context) ([]model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Schedule{}
	for _, s := range m.schedules {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdateSchedule(_ context.Context, s *model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.schedules[s.ID]
	if !ok {
		return db.ErrNotFound
	}
	cur.Name = s.Name
	cur.ContentIDs = s.ContentIDs
	cur.Rule = s.Rule
	m.schedules[s.ID] = cur
	*s = cur
	return nil
}

func (m *MemoryStore) DeleteSchedule(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.schedules, id)
	return nil
}
