package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AnshRaj112/profilefarm-backend/internal/config"
)

// PortSource lists the ports already bound to profiles.
type PortSource interface {
	UsedPorts(ctx context.Context) (map[int]struct{}, error)
}

// Allocator picks a free rotation proxy port for a new profile.
type Allocator struct {
	source   PortSource
	reserver Reserver
	ports    config.PortRange
	ttl      time.Duration
}

func NewAllocator(source PortSource, reserver Reserver, ports config.PortRange, ttl time.Duration) *Allocator {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Allocator{source: source, reserver: reserver, ports: ports, ttl: ttl}
}

// FindAvailablePort scans the range in order and returns the first port no
// profile uses and no concurrent caller has reserved.
func (a *Allocator) FindAvailablePort(ctx context.Context) (int, error) {
	used, err := a.source.UsedPorts(ctx)
	if err != nil {
		return 0, fmt.Errorf("load used ports: %w", err)
	}

	for port := a.ports.Min; port <= a.ports.Max; port++ {
		if _, taken := used[port]; taken {
			continue
		}
		ok, err := a.ReservePort(ctx, port)
		if err != nil {
			return 0, err
		}
		if ok {
			return port, nil
		}
	}
	return 0, ErrNoAvailablePort
}

// ReservePort takes the short-lived claim on port that FindAvailablePort
// also takes. It reports false when another caller holds it.
func (a *Allocator) ReservePort(ctx context.Context, port int) (bool, error) {
	ok, err := a.reserver.Reserve(ctx, "port:"+strconv.Itoa(port), a.ttl)
	if err != nil {
		return false, fmt.Errorf("reserve port %d: %w", port, err)
	}
	return ok, nil
}
