package services

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/profilefarm-backend/internal/metrics"
	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PortAllocator picks a free port for a port-based profile. Both profile
// flows reserve ports through it so they never bind the same port.
type PortAllocator interface {
	FindAvailablePort(ctx context.Context) (int, error)
	ReservePort(ctx context.Context, port int) (bool, error)
}

// ProfileService composes allocation, generation, registration and
// persistence of profiles, plus the family mutations on them.
type ProfileService struct {
	profiles  ProfileStore
	proxies   ProxyStore
	allocator PortAllocator
	generator *Generator
	registrar ProfileRegistrar
	cache     Cache
	cacheTTL  time.Duration
	metrics   metrics.Recorder
}

type ProfileServiceDeps struct {
	Profiles  ProfileStore
	Proxies   ProxyStore
	Allocator PortAllocator
	Generator *Generator
	Registrar ProfileRegistrar
	Cache     Cache
	CacheTTL  time.Duration
	Metrics   metrics.Recorder
}

func NewProfileService(d ProfileServiceDeps) *ProfileService {
	if d.Metrics == nil {
		d.Metrics = metrics.Noop{}
	}
	return &ProfileService{
		profiles:  d.Profiles,
		proxies:   d.Proxies,
		allocator: d.Allocator,
		generator: d.Generator,
		registrar: d.Registrar,
		cache:     d.Cache,
		cacheTTL:  d.CacheTTL,
		metrics:   d.Metrics,
	}
}

// GenerateResult reports a bulk generation run. Exhausted is set when the
// pool ran out of unused proxies before Requested profiles were made.
type GenerateResult struct {
	Requested int
	Profiles  []models.Profile
	Exhausted bool
}

// Create allocates a port, builds a profile for it, stores it as pending and
// registers it with the profile service.
func (s *ProfileService) Create(ctx context.Context) (*models.Profile, error) {
	if err := s.generator.Ready(); err != nil {
		return nil, err
	}
	port, err := s.allocator.FindAvailablePort(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.generator.GenerateProfile(port)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Insert(ctx, profile); err != nil {
		return nil, err
	}

	// keep the pool in step when the port is also a pool record
	host := profile.Network.Proxy.Host
	if _, err := s.proxies.ClaimByHostPort(ctx, host, port); err != nil {
		log.Warn().Err(err).Str("host", host).Int("port", port).Msg("failed to mark pool proxy used")
	}

	s.register(ctx, profile)
	return profile, nil
}

// Generate claims up to count unused proxies and builds one profile per proxy.
// It stops early, without error, when the pool is exhausted.
func (s *ProfileService) Generate(ctx context.Context, count int) (*GenerateResult, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}

	res := &GenerateResult{Requested: count, Profiles: []models.Profile{}}
	for len(res.Profiles) < count {
		proxy, err := s.proxies.ClaimUnused(ctx)
		if errors.Is(err, ErrNotFound) {
			s.metrics.IncProxyClaims("exhausted")
			res.Exhausted = true
			break
		}
		if err != nil {
			return res, err
		}
		s.metrics.IncProxyClaims("claimed")

		// a concurrent Create holding this port will bind it; the claim stays
		// with that profile and the next proxy is tried
		ok, err := s.allocator.ReservePort(ctx, proxy.Port)
		if err != nil {
			s.release(ctx, proxy.ID)
			return res, err
		}
		if !ok {
			log.Warn().Int("port", proxy.Port).Msg("port reserved by another request, skipping proxy")
			continue
		}

		profile := s.generator.GenerateProfileForProxy(*proxy)
		if err := s.profiles.Insert(ctx, profile); err != nil {
			s.release(ctx, proxy.ID)
			return res, err
		}

		s.register(ctx, profile)
		res.Profiles = append(res.Profiles, *profile)
	}
	return res, nil
}

func (s *ProfileService) release(ctx context.Context, id primitive.ObjectID) {
	if err := s.proxies.Release(ctx, id); err != nil {
		log.Error().Err(err).Str("proxy", id.Hex()).Msg("failed to release proxy")
	}
}

// register is best effort: a failure leaves the profile pending.
func (s *ProfileService) register(ctx context.Context, profile *models.Profile) {
	externalID, err := s.registrar.CreateProfile(ctx, profile)
	if err != nil {
		s.metrics.IncExternalCalls("error")
		s.metrics.IncProfilesCreated(string(models.ProfileStatusPending))
		log.Error().Err(err).Str("profile", profile.ID.Hex()).Msg("failed to register profile")
		return
	}
	s.metrics.IncExternalCalls("ok")

	if err := s.profiles.MarkRegistered(ctx, profile.ID, externalID); err != nil {
		s.metrics.IncProfilesCreated(string(models.ProfileStatusPending))
		log.Error().Err(err).Str("profile", profile.ID.Hex()).Str("uuid", externalID).Msg("failed to store external uuid")
		return
	}
	profile.UUID = externalID
	profile.Status = models.ProfileStatusRegistered
	s.metrics.IncProfilesCreated(string(models.ProfileStatusRegistered))
	log.Info().Str("uuid", externalID).Str("port", profile.Network.Proxy.Port).Msg("profile registered")
}

// Get returns the profile with external id uuid, served from cache when possible.
func (s *ProfileService) Get(ctx context.Context, uuid string) (*models.Profile, error) {
	key := CacheKey("profile", uuid)
	var cached models.Profile
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if ok {
		return &cached, nil
	}

	profile, err := s.profiles.GetByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, profile, s.cacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return profile, nil
}

func (s *ProfileService) List(ctx context.Context) ([]models.Profile, error) {
	return s.profiles.ListAll(ctx)
}

// AttachParent gives a profile without a family a parent-only family.
func (s *ProfileService) AttachParent(ctx context.Context, uuid string, parent models.Account) (*models.Profile, error) {
	family := models.Family{
		CreatedAt: time.Now().UTC(),
		Parent:    models.NewAccount(parent),
		Children:  []models.Account{},
	}
	profile, err := s.profiles.AttachFamily(ctx, uuid, family)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, uuid)
	return profile, nil
}

// AddChild appends a child to the profile's family. The parent id in the
// route is not checked against the stored parent.
func (s *ProfileService) AddChild(ctx context.Context, uuid string, child models.Account) (*models.Profile, error) {
	profile, err := s.profiles.AppendChild(ctx, uuid, models.NewAccount(child))
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, uuid)
	return profile, nil
}

func (s *ProfileService) ListWithoutFamily(ctx context.Context) ([]models.Profile, error) {
	return s.profiles.ListWithoutFamily(ctx)
}

func (s *ProfileService) ListParentWithoutChildren(ctx context.Context) ([]models.Profile, error) {
	return s.profiles.ListParentWithoutChildren(ctx)
}

func (s *ProfileService) invalidate(ctx context.Context, uuid string) {
	if err := s.cache.Delete(ctx, CacheKey("profile", uuid)); err != nil {
		log.Warn().Err(err).Str("uuid", uuid).Msg("cache invalidation failed")
	}
}
