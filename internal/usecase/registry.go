package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var errEmptyResponse = errors.New("empty response")

// Registry holds the generation providers available to every session.
// Providers are registered at startup and looked up by normalized name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]port.Provider
}

func NewRegistry(providers ...port.Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]port.Provider)}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(p port.Provider) error {
	if p == nil {
		return errors.New("provider cannot be nil")
	}
	name := string(domain.NormalizeBackendName(p.Name()))
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.providers[name] = p
	return nil
}

// Names returns registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Has(name string) bool {
	_, err := r.Provider(name)
	return err == nil
}

func (r *Registry) Provider(name string) (port.Provider, error) {
	key := string(domain.NormalizeBackendName(name))

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", domain.ErrUnknownBackend, name, strings.Join(r.namesLocked(), ", "))
	}
	return p, nil
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Selection is one session's choice of generation backend. It starts
// unselected; only a successful Select changes it.
type Selection struct {
	mu       sync.RWMutex
	registry *Registry
	current  string
}

func NewSelection(registry *Registry) *Selection {
	return &Selection{registry: registry}
}

// Select makes name the active backend. An unknown name leaves the
// current selection untouched.
func (s *Selection) Select(name string) error {
	p, err := s.registry.Provider(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = string(domain.NormalizeBackendName(p.Name()))
	s.mu.Unlock()
	return nil
}

func (s *Selection) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != ""
}

// Generate sends prompt to the selected provider only. Any provider error
// comes back as *domain.BackendFailure; if ctx expires first the failure
// wraps domain.ErrTimeout. A provider that ignores ctx is abandoned once
// ctx is done.
func (s *Selection) Generate(ctx context.Context, prompt string) (string, error) {
	name, ok := s.Current()
	if !ok {
		return "", domain.ErrNoBackendSelected
	}
	p, err := s.registry.Provider(name)
	if err != nil {
		return "", err
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		text, err := p.Generate(ctx, prompt)
		done <- result{text: text, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}

	if res.err != nil {
		cause := res.err
		if errors.Is(cause, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			cause = fmt.Errorf("%w: %v", domain.ErrTimeout, cause)
		}
		return "", &domain.BackendFailure{Provider: name, Cause: cause}
	}
	if strings.TrimSpace(res.text) == "" {
		return "", &domain.BackendFailure{Provider: name, Cause: errEmptyResponse}
	}
	return res.text, nil
}
