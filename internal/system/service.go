package system

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/redfield-bmc/redfield/internal/redfish"
)

// Registry holds the managed systems. In-process state under one mutex; the
// management plane for real hardware would sit behind the same interface.
type Registry struct {
	mu      sync.RWMutex
	systems map[uint32]System
	nextID  uint32
}

// NewRegistry seeds a registry with the given systems.
func NewRegistry(seed ...System) *Registry {
	r := &Registry{systems: make(map[uint32]System, len(seed)), nextID: 1}
	for _, sys := range seed {
		r.systems[sys.ID] = sys
		if sys.ID >= r.nextID {
			r.nextID = sys.ID + 1
		}
	}
	return r
}

// List returns all systems ordered by ID.
func (r *Registry) List(ctx context.Context) ([]System, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	systems := make([]System, 0, len(r.systems))
	for _, sys := range r.systems {
		systems = append(systems, sys)
	}
	sort.Slice(systems, func(i, j int) bool { return systems[i].ID < systems[j].ID })
	return systems, nil
}

// Get fetches one system.
func (r *Registry) Get(ctx context.Context, id uint32) (System, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sys, ok := r.systems[id]
	if !ok {
		return System{}, redfish.NotFound("ComputerSystem", fmt.Sprint(id))
	}
	return sys, nil
}

// Exists reports whether the system is registered.
func (r *Registry) Exists(ctx context.Context, id uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.systems[id]
	return ok
}

// Create registers a new system and assigns its ID.
func (r *Registry) Create(ctx context.Context, name string) (System, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sys := System{ID: r.nextID, Name: name, PowerState: PowerOff}
	r.nextID++
	r.systems[sys.ID] = sys
	return sys, nil
}

// Replace overwrites the stored representation of an existing system.
func (r *Registry) Replace(ctx context.Context, id uint32, sys System) (System, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.systems[id]; !ok {
		return System{}, redfish.NotFound("ComputerSystem", fmt.Sprint(id))
	}
	sys.ID = id
	r.systems[id] = sys
	return sys, nil
}

// Delete removes a system.
func (r *Registry) Delete(ctx context.Context, id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.systems[id]; !ok {
		return redfish.NotFound("ComputerSystem", fmt.Sprint(id))
	}
	delete(r.systems, id)
	return nil
}

// Reset applies a reset action to the system's power state.
func (r *Registry) Reset(ctx context.Context, id uint32, reset ResetType) (System, error) {
	target, ok := resetTarget(reset)
	if !ok {
		return System{}, redfish.BadRequest(redfish.CodePropertyValueError,
			fmt.Sprintf("The reset type %q is not supported.", reset))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sys, found := r.systems[id]
	if !found {
		return System{}, redfish.NotFound("ComputerSystem", fmt.Sprint(id))
	}
	sys.PowerState = target
	r.systems[id] = sys
	return sys, nil
}

func resetTarget(reset ResetType) (PowerState, bool) {
	switch reset {
	case ResetOn:
		return PowerOn, true
	case ResetForceOff, ResetGracefulShutdown:
		return PowerOff, true
	case ResetForceRestart, ResetGracefulRestart:
		return PowerOn, true
	default:
		return "", false
	}
}
