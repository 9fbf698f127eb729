package system

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/redfield-bmc/redfield/internal/locator"
	"github.com/redfield-bmc/redfield/internal/redfish"
)

const collectionPath = "/redfish/v1/Systems"

// Handler serves the computer system collection and its members. The route
// composition in internal/app decides where it is mounted and which guards
// and locators enclose it.
type Handler struct {
	logger   *slog.Logger
	registry *Registry
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, registry *Registry) *Handler {
	return &Handler{logger: logger, registry: registry, validate: validator.New()}
}

// Locator binds the computer_system_id path parameter to a verified system
// ID. Unparsable ids are caller errors; unknown ids are 404s.
func (h *Handler) Locator() *locator.Locator[ID] {
	return locator.New("computer_system_id", func(ctx context.Context, raw string) (ID, error) {
		id, err := locator.ParseUint32("computer_system_id", raw)
		if err != nil {
			return 0, err
		}
		if !h.registry.Exists(ctx, id) {
			return 0, redfish.NotFound("ComputerSystem", raw)
		}
		return ID(id), nil
	}).WithLogger(h.logger)
}

// MountCollection registers the collection endpoints on r.
func (h *Handler) MountCollection(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
}

// MountMember registers the member endpoints on r. The system locator must
// already be installed on the surrounding router.
func (h *Handler) MountMember(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.replace)
	r.Delete("/", h.delete)
	r.Post("/Actions/ComputerSystem.Reset", h.reset)
}

type systemResource struct {
	ODataID      string        `json:"@odata.id"`
	ID           string        `json:"Id"`
	Name         string        `json:"Name"`
	PowerState   PowerState    `json:"PowerState"`
	Actions      systemActions `json:"Actions"`
	Certificates redfish.IDRef `json:"Certificates"`
}

type systemActions struct {
	Reset resetAction `json:"#ComputerSystem.Reset"`
}

type resetAction struct {
	Target string `json:"target"`
}

type createRequest struct {
	Name string `json:"Name" validate:"required,min=1,max=255"`
}

type replaceRequest struct {
	Name       string     `json:"Name" validate:"required,min=1,max=255"`
	PowerState PowerState `json:"PowerState" validate:"omitempty,oneof=On Off"`
}

type resetRequest struct {
	ResetType ResetType `json:"ResetType" validate:"required"`
}

func memberPath(id uint32) string {
	return fmt.Sprintf("%s/%d", collectionPath, id)
}

func toResource(sys System) systemResource {
	path := memberPath(sys.ID)
	return systemResource{
		ODataID:    path,
		ID:         fmt.Sprint(sys.ID),
		Name:       sys.Name,
		PowerState: sys.PowerState,
		Actions: systemActions{
			Reset: resetAction{Target: path + "/Actions/ComputerSystem.Reset"},
		},
		Certificates: redfish.IDRef{ODataID: path + "/Certificates"},
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	systems, err := h.registry.List(r.Context())
	if err != nil {
		h.internal(w, r, "list systems", err)
		return
	}
	members := make([]redfish.IDRef, 0, len(systems))
	for _, sys := range systems {
		members = append(members, redfish.IDRef{ODataID: memberPath(sys.ID)})
	}
	redfish.WriteJSON(w, http.StatusOK,
		redfish.NewCollection(collectionPath, "Computer System Collection", members))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		redfish.WriteError(w, http.StatusBadRequest, redfish.CodeMalformedJSON,
			"The request body could not be parsed as JSON.")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		redfish.WriteError(w, http.StatusBadRequest, redfish.CodePropertyValueError,
			"The property Name is missing or invalid.")
		return
	}
	sys, err := h.registry.Create(r.Context(), req.Name)
	if err != nil {
		h.internal(w, r, "create system", err)
		return
	}
	w.Header().Set("Location", memberPath(sys.ID))
	redfish.WriteJSON(w, http.StatusCreated, toResource(sys))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := locator.FromContext[ID](r.Context())
	if !ok {
		h.internal(w, r, "get system", errMissingBinding)
		return
	}
	sys, err := h.registry.Get(r.Context(), uint32(id))
	if err != nil {
		h.writeErr(w, r, "get system", err)
		return
	}
	redfish.WriteJSON(w, http.StatusOK, toResource(sys))
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	id, ok := locator.FromContext[ID](r.Context())
	if !ok {
		h.internal(w, r, "replace system", errMissingBinding)
		return
	}
	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		redfish.WriteError(w, http.StatusBadRequest, redfish.CodeMalformedJSON,
			"The request body could not be parsed as JSON.")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		redfish.WriteError(w, http.StatusBadRequest, redfish.CodePropertyValueError,
			"The system representation is missing required properties.")
		return
	}
	state := req.PowerState
	if state == "" {
		state = PowerOff
	}
	sys, err := h.registry.Replace(r.Context(), uint32(id), System{Name: req.Name, PowerState: state})
	if err != nil {
		h.writeErr(w, r, "replace system", err)
		return
	}
	redfish.WriteJSON(w, http.StatusOK, toResource(sys))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := locator.FromContext[ID](r.Context())
	if !ok {
		h.internal(w, r, "delete system", errMissingBinding)
		return
	}
	if err := h.registry.Delete(r.Context(), uint32(id)); err != nil {
		h.writeErr(w, r, "delete system", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	id, ok := locator.FromContext[ID](r.Context())
	if !ok {
		h.internal(w, r, "reset system", errMissingBinding)
		return
	}
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		redfish.WriteError(w, http.StatusBadRequest, redfish.CodeMalformedJSON,
			"The request body could not be parsed as JSON.")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		redfish.WriteError(w, http.StatusBadRequest, redfish.CodePropertyValueError,
			"The action parameter ResetType is missing.")
		return
	}
	sys, err := h.registry.Reset(r.Context(), uint32(id), req.ResetType)
	if err != nil {
		h.writeErr(w, r, "reset system", err)
		return
	}
	redfish.WriteJSON(w, http.StatusOK, toResource(sys))
}

var errMissingBinding = fmt.Errorf("system: path binding missing from context")

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	if status, ok := err.(*redfish.StatusError); ok {
		redfish.WriteStatusError(w, status)
		return
	}
	h.internal(w, r, op, err)
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	redfish.WriteError(w, http.StatusInternalServerError, redfish.CodeGeneralError,
		"An internal error occurred while processing the request.")
}
