package certificate

// ID is the typed path binding for a certificate, injected by the
// certificate locator.
type ID string

// Certificate is a certificate installed on a managed system.
type Certificate struct {
	ID       string
	SystemID uint32
	Subject  string
	PEM      string
}
