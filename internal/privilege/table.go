package privilege

import (
	"fmt"
	"net/http"
	"sort"
)

// ResourceClass identifies a class of resources for privilege lookups.
type ResourceClass string

// Resource classes served by the management tree.
const (
	ClassServiceRoot              ResourceClass = "ServiceRoot"
	ClassComputerSystemCollection ResourceClass = "ComputerSystemCollection"
	ClassComputerSystem           ResourceClass = "ComputerSystem"
	ClassCertificateCollection    ResourceClass = "CertificateCollection"
	ClassCertificate              ResourceClass = "Certificate"
	ClassSessionService           ResourceClass = "SessionService"
	ClassSessionCollection        ResourceClass = "SessionCollection"
	ClassSession                  ResourceClass = "Session"
)

var tableVerbs = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// Table maps (resource class, HTTP verb) to the minimum role required.
// It is populated at startup, validated once, and read-only afterwards, so
// lookups need no locking.
type Table struct {
	entries map[ResourceClass]map[string]Role
}

// NewTable returns an empty privilege table.
func NewTable() *Table {
	return &Table{entries: make(map[ResourceClass]map[string]Role)}
}

// Set records the minimum role for the given class and verbs.
func (t *Table) Set(class ResourceClass, role Role, verbs ...string) *Table {
	byVerb, ok := t.entries[class]
	if !ok {
		byVerb = make(map[string]Role, len(tableVerbs))
		t.entries[class] = byVerb
	}
	for _, verb := range verbs {
		byVerb[verb] = role
	}
	return t
}

// SetAll records one minimum role for every verb on the class.
func (t *Table) SetAll(class ResourceClass, role Role) *Table {
	return t.Set(class, role, tableVerbs...)
}

// Required returns the minimum role for the class and verb. Pairs absent from
// the table require Administrator: an unconfigured operation must never be
// more permissive than a configured one.
func (t *Table) Required(class ResourceClass, verb string) Role {
	if byVerb, ok := t.entries[class]; ok {
		if role, ok := byVerb[verb]; ok {
			return role
		}
	}
	return Administrator
}

// Validate confirms that every listed class has an entry for every verb and
// that all entries name valid roles. Called once at startup so configuration
// gaps surface before the server accepts traffic.
func (t *Table) Validate(classes ...ResourceClass) error {
	for _, class := range classes {
		byVerb, ok := t.entries[class]
		if !ok {
			return fmt.Errorf("privilege: no table entries for resource class %s", class)
		}
		var missing []string
		for _, verb := range tableVerbs {
			role, ok := byVerb[verb]
			if !ok {
				missing = append(missing, verb)
				continue
			}
			if !role.Valid() {
				return fmt.Errorf("privilege: invalid role for %s %s", verb, class)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("privilege: resource class %s missing verbs %v", class, missing)
		}
	}
	return nil
}

// DefaultTable builds the stock privilege table for the management tree:
// reads are open to any authenticated caller, mutations follow the base
// privilege register for each resource class.
func DefaultTable() *Table {
	t := NewTable()

	t.Set(ClassServiceRoot, ReadOnly, tableVerbs...)

	t.Set(ClassComputerSystemCollection, ReadOnly, http.MethodGet, http.MethodHead)
	t.Set(ClassComputerSystemCollection, ConfigureComponents,
		http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)

	t.Set(ClassComputerSystem, ReadOnly, http.MethodGet, http.MethodHead)
	t.Set(ClassComputerSystem, ConfigureComponents,
		http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)

	t.SetAll(ClassCertificateCollection, ConfigureComponents)
	t.SetAll(ClassCertificate, ConfigureComponents)

	t.Set(ClassSessionService, ReadOnly, http.MethodGet, http.MethodHead)
	t.Set(ClassSessionService, ConfigureManager,
		http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)

	t.Set(ClassSessionCollection, ReadOnly, http.MethodGet, http.MethodHead)
	// Session creation is the login endpoint and is mounted without a guard;
	// the table entry covers direct hits on guarded mounts.
	t.Set(ClassSessionCollection, ReadOnly, http.MethodPost)
	t.Set(ClassSessionCollection, ConfigureManager,
		http.MethodPut, http.MethodPatch, http.MethodDelete)

	t.Set(ClassSession, ReadOnly, http.MethodGet, http.MethodHead, http.MethodDelete)
	t.Set(ClassSession, ConfigureManager,
		http.MethodPost, http.MethodPut, http.MethodPatch)

	return t
}

// Classes returns every class the default table covers, for validation.
func Classes() []ResourceClass {
	return []ResourceClass{
		ClassServiceRoot,
		ClassComputerSystemCollection,
		ClassComputerSystem,
		ClassCertificateCollection,
		ClassCertificate,
		ClassSessionService,
		ClassSessionCollection,
		ClassSession,
	}
}
