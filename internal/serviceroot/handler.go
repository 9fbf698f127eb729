package serviceroot

import (
	"net/http"

	"github.com/redfield-bmc/redfield/internal/redfish"
)

// Handler serves the protocol version index and the service root document.
// Both are reachable without authentication so clients can discover the
// session service.
type Handler struct {
	name string
	id   string
}

// NewHandler constructs a Handler with the service's display name and id.
func NewHandler(name, id string) *Handler {
	return &Handler{name: name, id: id}
}

type rootResource struct {
	ODataID        string        `json:"@odata.id"`
	ID             string        `json:"Id"`
	Name           string        `json:"Name"`
	Systems        redfish.IDRef `json:"Systems"`
	SessionService redfish.IDRef `json:"SessionService"`
	Links          rootLinks     `json:"Links"`
}

type rootLinks struct {
	Sessions redfish.IDRef `json:"Sessions"`
}

// Versions serves GET /redfish: the protocol version index.
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	redfish.WriteJSON(w, http.StatusOK, map[string]string{"v1": "/redfish/v1"})
}

// Root serves GET /redfish/v1: the service root document.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	redfish.WriteJSON(w, http.StatusOK, rootResource{
		ODataID:        "/redfish/v1",
		ID:             h.id,
		Name:           h.name,
		Systems:        redfish.IDRef{ODataID: "/redfish/v1/Systems"},
		SessionService: redfish.IDRef{ODataID: "/redfish/v1/SessionService"},
		Links: rootLinks{
			Sessions: redfish.IDRef{ODataID: "/redfish/v1/SessionService/Sessions"},
		},
	})
}
