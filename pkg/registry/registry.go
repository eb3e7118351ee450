package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/turing/pkg/definition"
)

// Registry manages the machines a server can run by name.
type Registry struct {
	mu       sync.RWMutex
	machines map[string]definition.Definition
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		machines: make(map[string]definition.Definition),
	}
}

// NewWithBuiltins creates a registry holding the embedded sample machines.
func NewWithBuiltins() (*Registry, error) {
	r := NewRegistry()
	for _, name := range definition.Builtins() {
		def, err := definition.Builtin(name)
		if err != nil {
			return nil, err
		}
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a machine under its name.
// If a machine with the same name exists, it is overwritten.
func (r *Registry) Register(def *definition.Definition) error {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("machine must have a name")
	}
	if err := def.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machines[def.Name] = *def
	return nil
}

// Get returns a copy of the named machine.
func (r *Registry) Get(name string) (*definition.Definition, error) {
	r.mu.RLock()
	def, ok := r.machines[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", definition.ErrUnknownMachine, name)
	}
	return &def, nil
}

// Names lists the registered machines, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.machines))
	for name := range r.machines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir registers every .yaml, .yml and .json machine file in dir and
// returns how many were loaded. Files that fail to load abort the scan.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read machines directory: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		def, err := definition.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, err
		}
		if err := r.Register(def); err != nil {
			return loaded, fmt.Errorf("%s: %w", e.Name(), err)
		}
		loaded++
	}
	return loaded, nil
}
