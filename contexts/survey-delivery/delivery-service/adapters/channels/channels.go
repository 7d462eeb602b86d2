package channels

import (
	"context"
	"fmt"
	"sync"
	"time"

	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/delivery-service/domain/errors"
	"samiksha/contexts/survey-delivery/delivery-service/ports"
)

// Registry holds the wired channel adapters, keyed by transport kind.
type Registry struct {
	mu       sync.RWMutex
	adapters map[entities.ChannelKind]ports.ChannelAdapter
}

func NewRegistry(adapters ...ports.ChannelAdapter) *Registry {
	registry := &Registry{adapters: make(map[entities.ChannelKind]ports.ChannelAdapter, len(adapters))}
	for _, adapter := range adapters {
		registry.adapters[adapter.Kind()] = adapter
	}
	return registry
}

func (r *Registry) Register(adapter ports.ChannelAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Kind()] = adapter
}

func (r *Registry) Adapter(kind entities.ChannelKind) (ports.ChannelAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[kind]
	return adapter, ok
}

var _ ports.AdapterRegistry = (*Registry)(nil)

// SendScript lets callers decide per-dispatch behavior; returning nil means
// delivered. Used by the simulated transports until the real chat gateway,
// telephony IVR, web form server and voice-avatar engine are plugged in.
type SendScript func(ctx context.Context, dispatch ports.Dispatch) error

// Simulated is a stand-in transport honoring the adapter contract: it always
// reports an outcome within the caller's deadline, distinguishing rejection
// from timeout.
type Simulated struct {
	kind entities.ChannelKind

	mu      sync.Mutex
	health  entities.ChannelHealth
	latency time.Duration
	script  SendScript
}

func NewSimulated(kind entities.ChannelKind) *Simulated {
	return &Simulated{
		kind:   kind,
		health: entities.ChannelHealthActive,
	}
}

// NewDefaultRegistry wires one simulated adapter per supported transport.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		NewSimulated(entities.ChannelKindChat),
		NewSimulated(entities.ChannelKindIVR),
		NewSimulated(entities.ChannelKindWeb),
		NewSimulated(entities.ChannelKindVoiceAvatar),
	)
}

func (s *Simulated) Kind() entities.ChannelKind {
	return s.kind
}

func (s *Simulated) Send(ctx context.Context, dispatch ports.Dispatch) error {
	s.mu.Lock()
	latency := s.latency
	script := s.script
	s.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("%s send: %w", s.kind, domainerrors.ErrTransportTimeout)
			}
			return ctx.Err()
		case <-timer.C:
		}
	}
	if script != nil {
		return script(ctx, dispatch)
	}
	return nil
}

func (s *Simulated) CheckHealth(_ context.Context) entities.ChannelHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

// SetHealth overrides the reported health; operators flip this while a
// transport integration is drained for maintenance.
func (s *Simulated) SetHealth(health entities.ChannelHealth) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = health
}

// SetLatency makes every send wait before reporting its outcome.
func (s *Simulated) SetLatency(latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = latency
}

// SetScript installs per-dispatch behavior.
func (s *Simulated) SetScript(script SendScript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = script
}

var _ ports.ChannelAdapter = (*Simulated)(nil)
