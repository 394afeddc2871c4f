package packagemanager

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds the configured managers in a stable order.
type Registry struct {
	order   []string
	configs map[string]Config
}

func NewRegistry(configs ...Config) (*Registry, error) {
	r := &Registry{configs: make(map[string]Config, len(configs))}
	for _, c := range configs {
		if c.Key == "" {
			return nil, fmt.Errorf("package manager without a key")
		}
		if _, dup := r.configs[c.Key]; dup {
			return nil, fmt.Errorf("duplicate package manager %q", c.Key)
		}
		r.order = append(r.order, c.Key)
		r.configs[c.Key] = c
	}
	return r, nil
}

func (r *Registry) Get(key string) (Config, bool) {
	c, ok := r.configs[key]
	return c, ok
}

func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) All() []Config {
	out := make([]Config, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.configs[k])
	}
	return out
}

// Build returns the command for a configured key, or ErrUnknownManager.
func (r *Registry) Build(key string, op Operation) (Command, error) {
	c, ok := r.configs[key]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownManager, key)
	}
	return Build(c, op)
}

// Select returns the configs for keys, in registry order. No keys selects
// everything. Any unknown key fails the whole selection.
func (r *Registry) Select(keys ...string) ([]Config, error) {
	if len(keys) == 0 {
		return r.All(), nil
	}
	want := make(map[string]bool, len(keys))
	var unknown []string
	for _, k := range keys {
		if _, ok := r.configs[k]; !ok {
			unknown = append(unknown, k)
		}
		want[k] = true
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s (choose from: %s)", ErrUnknownManager,
			strings.Join(unknown, ", "), strings.Join(r.order, ", "))
	}

	var out []Config
	for _, k := range r.order {
		if want[k] {
			out = append(out, r.configs[k])
		}
	}
	return out, nil
}
