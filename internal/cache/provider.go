package cache

import (
	"context"
	"errors"
	"sync"
)

// ErrNoProvider is returned when a binding is requested from a context that
// carries no Provider. It signals a wiring bug, not a runtime condition.
var ErrNoProvider = errors.New("cache: no provider in context")

type providerKey struct{}

// Provider owns the single Manager shared by one application scope and
// guarantees it is destroyed exactly once.
type Provider struct {
	manager   *Manager
	closeOnce sync.Once
}

// NewProvider creates the Provider and its Manager.
func NewProvider(cfg Config, opts ...Option) *Provider {
	return &Provider{manager: NewManager(cfg, opts...)}
}

// Manager returns the shared Manager.
func (p *Provider) Manager() *Manager {
	return p.manager
}

// Close destroys the Manager. Only the first call has an effect.
func (p *Provider) Close() {
	p.closeOnce.Do(p.manager.Destroy)
}

// WithProvider returns a copy of ctx carrying p.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// FromContext returns the Manager of the Provider carried by ctx.
func FromContext(ctx context.Context) (*Manager, error) {
	p, ok := ctx.Value(providerKey{}).(*Provider)
	if !ok || p == nil {
		return nil, ErrNoProvider
	}
	return p.manager, nil
}

// MustFromContext is FromContext that panics with ErrNoProvider.
func MustFromContext(ctx context.Context) *Manager {
	m, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return m
}
