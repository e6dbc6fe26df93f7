// Package testutil holds in-memory fakes of the store and registrar
// interfaces for handler and service tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/AnshRaj112/profilefarm-backend/internal/config"
	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	"github.com/AnshRaj112/profilefarm-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func cloneProfile(p *models.Profile) *models.Profile {
	c := *p
	if p.Family != nil {
		f := *p.Family
		f.Children = append([]models.Account{}, p.Family.Children...)
		c.Family = &f
	}
	return &c
}

// MemoryProfileStore implements services.ProfileStore.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles []*models.Profile

	InsertErr error
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{}
}

func (s *MemoryProfileStore) Insert(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return s.InsertErr
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Status == "" {
		p.Status = models.ProfileStatusPending
	}
	s.profiles = append(s.profiles, cloneProfile(p))
	return nil
}

func (s *MemoryProfileStore) MarkRegistered(_ context.Context, id primitive.ObjectID, uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.ID == id {
			p.UUID = uuid
			p.Status = models.ProfileStatusRegistered
			return nil
		}
	}
	return services.ErrNotFound
}

func (s *MemoryProfileStore) byUUID(uuid string) *models.Profile {
	if uuid == "" {
		return nil
	}
	for _, p := range s.profiles {
		if p.UUID == uuid {
			return p
		}
	}
	return nil
}

func (s *MemoryProfileStore) GetByUUID(_ context.Context, uuid string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.byUUID(uuid)
	if p == nil {
		return nil, services.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *MemoryProfileStore) ListAll(_ context.Context) ([]models.Profile, error) {
	return s.filter(func(*models.Profile) bool { return true }), nil
}

func (s *MemoryProfileStore) UsedPorts(_ context.Context) (map[int]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	used := make(map[int]struct{})
	for _, p := range s.profiles {
		if port, err := strconv.Atoi(p.Network.Proxy.Port); err == nil {
			used[port] = struct{}{}
		}
	}
	return used, nil
}

func (s *MemoryProfileStore) AttachFamily(_ context.Context, uuid string, family models.Family) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.byUUID(uuid)
	if p == nil {
		return nil, services.ErrNotFound
	}
	if p.Family != nil {
		return nil, services.ErrFamilyExists
	}
	if family.Children == nil {
		family.Children = []models.Account{}
	}
	p.Family = &family
	return cloneProfile(p), nil
}

func (s *MemoryProfileStore) AppendChild(_ context.Context, uuid string, child models.Account) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.byUUID(uuid)
	if p == nil {
		return nil, services.ErrNotFound
	}
	if p.Family == nil {
		return nil, services.ErrNoFamily
	}
	p.Family.Children = append(p.Family.Children, child)
	return cloneProfile(p), nil
}

func (s *MemoryProfileStore) ListWithoutFamily(_ context.Context) ([]models.Profile, error) {
	return s.filter(func(p *models.Profile) bool { return p.Family == nil }), nil
}

func (s *MemoryProfileStore) ListParentWithoutChildren(_ context.Context) ([]models.Profile, error) {
	return s.filter(func(p *models.Profile) bool {
		return p.Family != nil && len(p.Family.Children) == 0
	}), nil
}

func (s *MemoryProfileStore) filter(keep func(*models.Profile) bool) []models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Profile{}
	for _, p := range s.profiles {
		if keep(p) {
			out = append(out, *cloneProfile(p))
		}
	}
	return out
}

// Seed stores p as is and returns the stored copy's id.
func (s *MemoryProfileStore) Seed(p models.Profile) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.profiles = append(s.profiles, cloneProfile(&p))
	return p.ID
}

// MemoryProxyStore implements services.ProxyStore.
type MemoryProxyStore struct {
	mu      sync.Mutex
	proxies []models.Proxy
	ports   config.PortRange

	Released []primitive.ObjectID
}

func NewMemoryProxyStore(ports config.PortRange) *MemoryProxyStore {
	return &MemoryProxyStore{ports: ports}
}

// Seed adds proxies directly, bypassing port sequencing.
func (s *MemoryProxyStore) Seed(proxies ...models.Proxy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range proxies {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		s.proxies = append(s.proxies, p)
	}
}

func (s *MemoryProxyStore) Generate(_ context.Context, count int, creds config.ProxyConfig) ([]models.Proxy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	highest, found := 0, false
	for _, p := range s.proxies {
		if !found || p.Port > highest {
			highest, found = p.Port, true
		}
	}
	start, err := services.NextPortBlock(highest, found, count, s.ports)
	if err != nil {
		return nil, err
	}
	out := make([]models.Proxy, 0, count)
	for i := 0; i < count; i++ {
		p := models.Proxy{
			ID:       primitive.NewObjectID(),
			Host:     creds.Host,
			Port:     start + i,
			Username: creds.Username,
			Password: creds.Password,
		}
		s.proxies = append(s.proxies, p)
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryProxyStore) ListAll(_ context.Context) ([]models.Proxy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Proxy{}, s.proxies...)
	sort.Slice(out, func(i, j int) bool { return out[i].Port < out[j].Port })
	return out, nil
}

func (s *MemoryProxyStore) FindByHostPort(_ context.Context, host string, port int) (*models.Proxy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.proxies {
		if p.Host == host && p.Port == port {
			c := p
			return &c, nil
		}
	}
	return nil, services.ErrNotFound
}

func (s *MemoryProxyStore) firstUnused() int {
	idx := -1
	for i, p := range s.proxies {
		if !p.IsUsed && (idx < 0 || p.Port < s.proxies[idx].Port) {
			idx = i
		}
	}
	return idx
}

func (s *MemoryProxyStore) FindFirstUnused(_ context.Context) (*models.Proxy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.firstUnused()
	if i < 0 {
		return nil, services.ErrNotFound
	}
	c := s.proxies[i]
	return &c, nil
}

func (s *MemoryProxyStore) ClaimUnused(_ context.Context) (*models.Proxy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.firstUnused()
	if i < 0 {
		return nil, services.ErrNotFound
	}
	s.proxies[i].IsUsed = true
	c := s.proxies[i]
	return &c, nil
}

func (s *MemoryProxyStore) ClaimByHostPort(_ context.Context, host string, port int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.proxies {
		if p.Host == host && p.Port == port && !p.IsUsed {
			s.proxies[i].IsUsed = true
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryProxyStore) Release(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Released = append(s.Released, id)
	for i, p := range s.proxies {
		if p.ID == id {
			s.proxies[i].IsUsed = false
		}
	}
	return nil
}

// MemoryFamilyStore implements services.FamilyStore.
type MemoryFamilyStore struct {
	mu       sync.Mutex
	families map[primitive.ObjectID]*models.Family
}

func NewMemoryFamilyStore() *MemoryFamilyStore {
	return &MemoryFamilyStore{families: make(map[primitive.ObjectID]*models.Family)}
}

func (s *MemoryFamilyStore) Create(_ context.Context, f *models.Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	c := *f
	c.Children = append([]models.Account{}, f.Children...)
	s.families[f.ID] = &c
	return nil
}

func (s *MemoryFamilyStore) AppendChild(_ context.Context, id primitive.ObjectID, child models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.families[id]
	if !ok {
		return services.ErrNotFound
	}
	f.Children = append(f.Children, child)
	return nil
}

func (s *MemoryFamilyStore) Get(_ context.Context, id primitive.ObjectID) (*models.Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.families[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	c := *f
	c.Children = append([]models.Account{}, f.Children...)
	return &c, nil
}

// FakeRegistrar implements services.ProfileRegistrar. It hands out
// "ext-1", "ext-2", ... unless Err is set.
type FakeRegistrar struct {
	mu    sync.Mutex
	Err   error
	Calls int
}

func (r *FakeRegistrar) CreateProfile(_ context.Context, _ *models.Profile) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.Err != nil {
		return "", r.Err
	}
	return fmt.Sprintf("ext-%d", r.Calls), nil
}
