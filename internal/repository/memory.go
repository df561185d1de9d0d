package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/telecombase/internal/models"
)

// MemoryStore keeps users and inventory in process memory. It enforces the
// same unique and foreign key rules as the PostgreSQL schema and is used
// when the server runs without a database.
type MemoryStore struct {
	mu sync.RWMutex

	seq       map[string]int64
	users     map[int64]models.User
	vendors   map[int64]models.Vendor
	models    map[int64]models.Model
	locations map[int64]models.Location
	devices   map[int64]models.Device

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seq:       make(map[string]int64),
		users:     make(map[int64]models.User),
		vendors:   make(map[int64]models.Vendor),
		models:    make(map[int64]models.Model),
		locations: make(map[int64]models.Location),
		devices:   make(map[int64]models.Device),
		now:       time.Now,
	}
}

// id returns the next value of table's sequence.
func (s *MemoryStore) id(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// CreateUser mirrors PostgresUserRepository.CreateUser.
func (s *MemoryStore) CreateUser(_ context.Context, username string, passwordHash []byte) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return nil, ErrConflict
		}
	}
	first := len(s.users) == 0
	u := models.User{
		ID:           s.id("users"),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		Approved:     first,
		CreatedAt:    s.now().UTC(),
	}
	if first {
		u.Role = models.RoleAdmin
	}
	s.users[u.ID] = u
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) ListUsers(context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.users, func(models.User) bool { return true }), nil
}

func (s *MemoryStore) ListPendingUsers(context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.users, func(u models.User) bool { return !u.Active() }), nil
}

func (s *MemoryStore) SetUserApproved(_ context.Context, id int64, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Approved = approved
	s.users[id] = u
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) DeletePendingBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, u := range s.users {
		if !u.Active() && u.CreatedAt.Before(cutoff) {
			delete(s.users, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListVendors(context.Context) ([]models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.vendors)
	slices.SortFunc(out, func(a, b models.Vendor) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) CreateVendor(_ context.Context, v models.Vendor) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.id("vendors")
	s.vendors[v.ID] = v
	return v.ID, nil
}

func (s *MemoryStore) UpdateVendor(_ context.Context, v models.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vendors[v.ID]; !ok {
		return ErrNotFound
	}
	s.vendors[v.ID] = v
	return nil
}

func (s *MemoryStore) DeleteVendor(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vendors[id]; !ok {
		return ErrNotFound
	}
	for _, m := range s.models {
		if m.VendorID == id {
			return ErrInUse
		}
	}
	delete(s.vendors, id)
	return nil
}

func (s *MemoryStore) ListModels(context.Context) ([]models.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Model, 0, len(s.models))
	for _, m := range s.models {
		m.VendorName = s.vendors[m.VendorID].Name
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b models.Model) int {
		return cmp.Or(cmp.Compare(a.VendorName, b.VendorName), cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) CreateModel(_ context.Context, m models.Model) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vendors[m.VendorID]; !ok {
		return 0, ErrMissingReference
	}
	m.ID = s.id("models")
	m.VendorName = ""
	s.models[m.ID] = m
	return m.ID, nil
}

func (s *MemoryStore) UpdateModel(_ context.Context, m models.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[m.ID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.vendors[m.VendorID]; !ok {
		return ErrMissingReference
	}
	m.VendorName = ""
	s.models[m.ID] = m
	return nil
}

func (s *MemoryStore) DeleteModel(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[id]; !ok {
		return ErrNotFound
	}
	for _, d := range s.devices {
		if d.ModelID == id {
			return ErrInUse
		}
	}
	delete(s.models, id)
	return nil
}

func (s *MemoryStore) ListLocations(context.Context) ([]models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.locations)
	slices.SortFunc(out, func(a, b models.Location) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) CreateLocation(_ context.Context, l models.Location) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.id("locations")
	s.locations[l.ID] = l
	return l.ID, nil
}

func (s *MemoryStore) UpdateLocation(_ context.Context, l models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[l.ID]; !ok {
		return ErrNotFound
	}
	s.locations[l.ID] = l
	return nil
}

func (s *MemoryStore) DeleteLocation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[id]; !ok {
		return ErrNotFound
	}
	for _, d := range s.devices {
		if d.LocationID != nil && *d.LocationID == id {
			return ErrInUse
		}
	}
	delete(s.locations, id)
	return nil
}

func (s *MemoryStore) ListDevices(_ context.Context, query string) ([]models.DeviceListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	out := []models.DeviceListItem{}
	for _, d := range sortedByID(s.devices, func(models.Device) bool { return true }) {
		m := s.models[d.ModelID]
		item := models.DeviceListItem{
			ID:              d.ID,
			VendorName:      s.vendors[m.VendorID].Name,
			ModelName:       m.Name,
			SerialNumber:    d.SerialNumber,
			InventoryNumber: d.InventoryNumber,
			Status:          d.Status,
			InstalledAt:     d.InstalledAt,
		}
		if d.LocationID != nil {
			item.LocationName = s.locations[*d.LocationID].Name
		}
		if needle == "" || matchesAny(needle, item.SerialNumber, item.InventoryNumber, item.Status,
			item.ModelName, item.VendorName, item.LocationName) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetDevice(_ context.Context, id int64) (*models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *MemoryStore) CreateDevice(_ context.Context, d models.Device) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.deviceRefsExist(d) {
		return 0, ErrMissingReference
	}
	d.ID = s.id("devices")
	s.devices[d.ID] = copyDevice(d)
	return d.ID, nil
}

func (s *MemoryStore) UpdateDevice(_ context.Context, d models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[d.ID]; !ok {
		return ErrNotFound
	}
	if !s.deviceRefsExist(d) {
		return ErrMissingReference
	}
	s.devices[d.ID] = copyDevice(d)
	return nil
}

func (s *MemoryStore) DeleteDevice(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[id]; !ok {
		return ErrNotFound
	}
	delete(s.devices, id)
	return nil
}

func (s *MemoryStore) deviceRefsExist(d models.Device) bool {
	if _, ok := s.models[d.ModelID]; !ok {
		return false
	}
	if d.LocationID != nil {
		if _, ok := s.locations[*d.LocationID]; !ok {
			return false
		}
	}
	return true
}

// copyDevice detaches LocationID from the caller's pointer.
func copyDevice(d models.Device) models.Device {
	if d.LocationID != nil {
		id := *d.LocationID
		d.LocationID = &id
	}
	return d
}

func matchesAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func values[T any](m map[int64]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func sortedByID[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
