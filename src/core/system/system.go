package system

import (
	"context"
	"sync"
	"time"
)

// ComponentStatus represents the status of system components
type ComponentStatus string

const (
	StatusUp   ComponentStatus = "up"
	StatusDown ComponentStatus = "down"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

const defaultCheckTimeout = 3 * time.Second

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthStatus represents system health status
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
}

type Service struct {
	components map[string]Pinger
	timeout    time.Duration
}

func NewService() *Service {
	return &Service{
		components: map[string]Pinger{},
		timeout:    defaultCheckTimeout,
	}
}

// Register adds a component to the health report. A nil pinger is reported as down.
func (s *Service) Register(name string, p Pinger) *Service {
	s.components[name] = p
	return s
}

// CheckHealth pings every component concurrently. The system is healthy only when all are up.
func (s *Service) CheckHealth(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status := &HealthStatus{
		Status:     StatusHealthy,
		Components: make(map[string]ComponentStatus, len(s.components)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, p := range s.components {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			result := StatusDown
			if p != nil && p.Ping(ctx) == nil {
				result = StatusUp
			}
			mu.Lock()
			status.Components[name] = result
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	for _, c := range status.Components {
		if c == StatusDown {
			status.Status = StatusUnhealthy
			break
		}
	}

	return status
}
