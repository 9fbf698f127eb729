package certificate

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
	"github.com/redfield-bmc/redfield/internal/system"
)

// Handler serves the certificate collection nested under a computer system.
type Handler struct {
	logger   *slog.Logger
	registry *Registry
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, registry *Registry) *Handler {
	return &Handler{logger: logger, registry: registry, validate: validator.New()}
}

// Locator binds the certificate_id path parameter. The resolver depends on
// the system binding installed by the enclosing locator, so a certificate is
// only resolved within the system actually named in the path.
func (h *Handler) Locator() *locator.Locator[ID] {
	return locator.New("certificate_id", func(ctx context.Context, raw string) (ID, error) {
		systemID, ok := locator.FromContext[system.ID](ctx)
		if !ok {
			return "", fmt.Errorf("certificate: system binding missing from context")
		}
		if !h.registry.Exists(ctx, uint32(systemID), raw) {
			return "", redfish.NotFound("Certificate", raw)
		}
		return ID(raw), nil
	}).WithLogger(h.logger)
}

// MountCollection registers the collection endpoints on r.
func (h *Handler) MountCollection(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
}

// MountMember registers the member endpoints on r. Both the system locator
// and the certificate locator must already be installed.
func (h *Handler) MountMember(r chi.Router) {
	r.Get("/", h.get)
	r.Delete("/", h.delete)
}

type certificateResource struct {
	ODataID string `json:"@odata.id"`
	ID      string `json:"Id"`
	Subject string `json:"Subject"`
	PEM     string `json:"CertificateString"`
}

type createRequest struct {
	Subject string `json:"Subject" validate:"required"`
	PEM     string `json:"CertificateString" validate:"required"`
}

func collectionPath(systemID uint32) string {
	return fmt.Sprintf("/redfish/v1/Systems/%d/Certificates", systemID)
}

func toResource(cert Certificate) certificateResource {
	return certificateResource{
		ODataID: fmt.Sprintf("%s/%s", collectionPath(cert.SystemID), cert.ID),
		ID:      cert.ID,
		Subject: cert.Subject,
		PEM:     cert.PEM,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	systemID, ok := locator.FromContext[system.ID](r.Context())
	if !ok {
		h.internal(w, r, "list certificates", fmt.Errorf("certificate: system binding missing"))
		return
	}
	certs, err := h.registry.List(r.Context(), uint32(systemID))
	if err != nil {
		h.internal(w, r, "list certificates", err)
		return
	}
	members := make([]redfish.IDRef, 0, len(certs))
	for _, cert := range certs {
		members = append(members, redfish.IDRef{ODataID: fmt.Sprintf("%s/%s", collectionPath(cert.SystemID), cert.ID)})
	}
	redfish.WriteJSON(w, http.StatusOK,
		redfish.NewCollection(collectionPath(uint32(systemID)), "Certificate Collection", members))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	systemID, ok := locator.FromContext[system.ID](r.Context())
	if !ok {
		h.internal(w, r, "create certificate", fmt.Errorf("certificate: system binding missing"))
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		redfish.WriteError(w, http.StatusBadRequest, redfish.CodeMalformedJSON,
			"The request body could not be parsed as JSON.")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		redfish.WriteError(w, http.StatusBadRequest, redfish.CodePropertyValueError,
			"Subject and CertificateString are required.")
		return
	}
	cert, err := h.registry.Add(r.Context(), uint32(systemID), req.Subject, req.PEM)
	if err != nil {
		h.internal(w, r, "create certificate", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("%s/%s", collectionPath(cert.SystemID), cert.ID))
	redfish.WriteJSON(w, http.StatusCreated, toResource(cert))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	systemID, sysOK := locator.FromContext[system.ID](r.Context())
	certID, certOK := locator.FromContext[ID](r.Context())
	if !sysOK || !certOK {
		h.internal(w, r, "get certificate", fmt.Errorf("certificate: path bindings missing"))
		return
	}
	cert, err := h.registry.Get(r.Context(), uint32(systemID), string(certID))
	if err != nil {
		h.writeErr(w, r, "get certificate", err)
		return
	}
	redfish.WriteJSON(w, http.StatusOK, toResource(cert))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	systemID, sysOK := locator.FromContext[system.ID](r.Context())
	certID, certOK := locator.FromContext[ID](r.Context())
	if !sysOK || !certOK {
		h.internal(w, r, "delete certificate", fmt.Errorf("certificate: path bindings missing"))
		return
	}
	if err := h.registry.Delete(r.Context(), uint32(systemID), string(certID)); err != nil {
		h.writeErr(w, r, "delete certificate", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

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
