package certificate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/redfield-bmc/redfield/internal/redfish"
)

// Registry holds certificates per managed system.
type Registry struct {
	mu       sync.RWMutex
	bySystem map[uint32]map[string]Certificate
	nextID   int
}

// NewRegistry seeds a registry with the given certificates.
func NewRegistry(seed ...Certificate) *Registry {
	r := &Registry{bySystem: make(map[uint32]map[string]Certificate), nextID: 1}
	for _, cert := range seed {
		r.put(cert)
	}
	return r
}

func (r *Registry) put(cert Certificate) {
	certs, ok := r.bySystem[cert.SystemID]
	if !ok {
		certs = make(map[string]Certificate)
		r.bySystem[cert.SystemID] = certs
	}
	certs[cert.ID] = cert
}

// List returns the certificates installed on a system, ordered by ID.
func (r *Registry) List(ctx context.Context, systemID uint32) ([]Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	certs := make([]Certificate, 0, len(r.bySystem[systemID]))
	for _, cert := range r.bySystem[systemID] {
		certs = append(certs, cert)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].ID < certs[j].ID })
	return certs, nil
}

// Get fetches one certificate on the given system.
func (r *Registry) Get(ctx context.Context, systemID uint32, id string) (Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cert, ok := r.bySystem[systemID][id]
	if !ok {
		return Certificate{}, redfish.NotFound("Certificate", id)
	}
	return cert, nil
}

// Exists reports whether the certificate is installed on the system.
func (r *Registry) Exists(ctx context.Context, systemID uint32, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySystem[systemID][id]
	return ok
}

// Add installs a certificate on the system and assigns its ID.
func (r *Registry) Add(ctx context.Context, systemID uint32, subject, pem string) (Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cert := Certificate{
		ID:       fmt.Sprintf("cert-%d", r.nextID),
		SystemID: systemID,
		Subject:  subject,
		PEM:      pem,
	}
	r.nextID++
	r.put(cert)
	return cert, nil
}

// Delete removes a certificate from the system.
func (r *Registry) Delete(ctx context.Context, systemID uint32, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySystem[systemID][id]; !ok {
		return redfish.NotFound("Certificate", id)
	}
	delete(r.bySystem[systemID], id)
	return nil
}
