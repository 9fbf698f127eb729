package system

// ID is the typed path binding for a computer system, injected by the
// system locator and consumed by nested resolvers.
type ID uint32

// PowerState reports the last known power state of a system.
type PowerState string

// Power states.
const (
	PowerOn  PowerState = "On"
	PowerOff PowerState = "Off"
)

// ResetType names a reset action a caller may request.
type ResetType string

// Reset types accepted by the reset action.
const (
	ResetOn               ResetType = "On"
	ResetForceOff         ResetType = "ForceOff"
	ResetForceRestart     ResetType = "ForceRestart"
	ResetGracefulRestart  ResetType = "GracefulRestart"
	ResetGracefulShutdown ResetType = "GracefulShutdown"
)

// System is a managed computer system.
type System struct {
	ID         uint32
	Name       string
	PowerState PowerState
}
