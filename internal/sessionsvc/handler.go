package sessionsvc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/redfield-bmc/redfield/internal/authn"
	"github.com/redfield-bmc/redfield/internal/locator"
	"github.com/redfield-bmc/redfield/internal/privilege"
	"github.com/redfield-bmc/redfield/internal/redfish"
	"github.com/redfield-bmc/redfield/internal/session"
)

const (
	servicePath    = "/redfish/v1/SessionService"
	collectionPath = servicePath + "/Sessions"
)

// TokenHeader is the response header carrying a freshly issued session token.
const TokenHeader = "X-Auth-Token"

// Handler serves the session service: the login endpoint that issues
// session tokens, the session collection, and per-session revocation.
type Handler struct {
	logger        *slog.Logger
	store         session.Store
	authenticator authn.Authenticator
	validate      *validator.Validate
	ttl           time.Duration
	// MaxSessions caps concurrent live sessions when positive.
	MaxSessions int
	// OnSessionCount, when set, receives the live session count after every
	// create or revoke.
	OnSessionCount func(n int)
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, store session.Store, authenticator authn.Authenticator, ttl time.Duration) *Handler {
	return &Handler{
		logger:        logger,
		store:         store,
		authenticator: authenticator,
		validate:      validator.New(),
		ttl:           ttl,
	}
}

// Locator binds the session_id path parameter to the live session record.
// Unknown and expired tokens are 404s: the resource no longer exists.
func (h *Handler) Locator() *locator.Locator[session.Session] {
	return locator.New("session_id", func(ctx context.Context, raw string) (session.Session, error) {
		sess, err := h.store.Get(ctx, raw)
		if err != nil {
			return session.Session{}, err
		}
		if sess == nil {
			return session.Session{}, redfish.NotFound("Session", raw)
		}
		return *sess, nil
	}).WithLogger(h.logger)
}

// MountService registers the session service document endpoint on r.
func (h *Handler) MountService(r chi.Router) {
	r.Get("/", h.serviceInfo)
}

// MountCollection registers the session collection endpoints on r. The POST
// (login) endpoint must be mounted without a guard: it is how callers obtain
// credentials in the first place.
func (h *Handler) MountCollection(r chi.Router) {
	r.Get("/", h.list)
}

// MountLogin registers the session-creating endpoint on r.
func (h *Handler) MountLogin(r chi.Router) {
	r.Post("/", h.create)
}

// MountMember registers per-session endpoints on r. The session locator must
// already be installed.
func (h *Handler) MountMember(r chi.Router) {
	r.Get("/", h.get)
	r.Delete("/", h.delete)
}

type serviceResource struct {
	ODataID        string        `json:"@odata.id"`
	ID             string        `json:"Id"`
	Name           string        `json:"Name"`
	ServiceEnabled bool          `json:"ServiceEnabled"`
	SessionTimeout int           `json:"SessionTimeout"`
	Sessions       redfish.IDRef `json:"Sessions"`
}

type sessionResource struct {
	ODataID     string    `json:"@odata.id"`
	ID          string    `json:"Id"`
	UserName    string    `json:"UserName"`
	CreatedTime time.Time `json:"CreatedTime"`
}

type createRequest struct {
	UserName string `json:"UserName" validate:"required"`
	Password string `json:"Password" validate:"required"`
}

func memberPath(token string) string {
	return collectionPath + "/" + token
}

func toResource(sess session.Session) sessionResource {
	return sessionResource{
		ODataID:     memberPath(sess.Token),
		ID:          sess.Token,
		UserName:    sess.Principal.Username,
		CreatedTime: sess.CreatedAt,
	}
}

func (h *Handler) serviceInfo(w http.ResponseWriter, r *http.Request) {
	redfish.WriteJSON(w, http.StatusOK, serviceResource{
		ODataID:        servicePath,
		ID:             "SessionService",
		Name:           "Session Service",
		ServiceEnabled: true,
		SessionTimeout: int(h.ttl.Seconds()),
		Sessions:       redfish.IDRef{ODataID: collectionPath},
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.List(r.Context())
	if err != nil {
		h.internal(w, r, "list sessions", err)
		return
	}
	members := make([]redfish.IDRef, 0, len(sessions))
	for _, sess := range sessions {
		members = append(members, redfish.IDRef{ODataID: memberPath(sess.Token)})
	}
	redfish.WriteJSON(w, http.StatusOK,
		redfish.NewCollection(collectionPath, "Session Collection", members))
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
			"UserName and Password are required.")
		return
	}
	principal, err := h.authenticator.Verify(r.Context(), req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, authn.ErrInvalidCredentials) {
			redfish.WriteError(w, http.StatusUnauthorized, redfish.CodeNoValidSession,
				"Authentication failed.")
			return
		}
		h.internal(w, r, "verify credentials", err)
		return
	}
	// The cap is best effort: the count and the create are separate store
	// calls, so concurrent logins racing at the limit can briefly overshoot.
	if h.MaxSessions > 0 {
		live, err := h.store.List(r.Context())
		if err != nil {
			h.internal(w, r, "count sessions", err)
			return
		}
		if len(live) >= h.MaxSessions {
			redfish.WriteError(w, http.StatusServiceUnavailable, redfish.CodeSessionLimitExceeded,
				"The session establishment limit has been reached.")
			return
		}
	}
	sess, err := h.store.Create(r.Context(), principal)
	if err != nil {
		h.internal(w, r, "create session", err)
		return
	}
	h.reportSessionCount(r.Context())
	w.Header().Set(TokenHeader, sess.Token)
	w.Header().Set("Location", memberPath(sess.Token))
	redfish.WriteJSON(w, http.StatusCreated, toResource(sess))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess, ok := locator.FromContext[session.Session](r.Context())
	if !ok {
		h.internal(w, r, "get session", errors.New("sessionsvc: session binding missing"))
		return
	}
	principal, ok := authn.PrincipalFromContext(r.Context())
	if !ok {
		h.internal(w, r, "get session", errors.New("sessionsvc: principal missing"))
		return
	}
	if rej := h.requireOwnerOrManager(principal, sess); rej != nil {
		rej.Write(w)
		return
	}
	redfish.WriteJSON(w, http.StatusOK, toResource(sess))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := locator.FromContext[session.Session](r.Context())
	if !ok {
		h.internal(w, r, "delete session", errors.New("sessionsvc: session binding missing"))
		return
	}
	principal, ok := authn.PrincipalFromContext(r.Context())
	if !ok {
		h.internal(w, r, "delete session", errors.New("sessionsvc: principal missing"))
		return
	}
	if rej := h.requireOwnerOrManager(principal, sess); rej != nil {
		rej.Write(w)
		return
	}
	if err := h.store.Revoke(r.Context(), sess.Token); err != nil {
		h.internal(w, r, "revoke session", err)
		return
	}
	h.reportSessionCount(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// requireOwnerOrManager allows a caller to inspect or revoke its own session;
// anyone else needs ConfigureManager.
func (h *Handler) requireOwnerOrManager(principal authn.Principal, sess session.Session) *authn.Rejection {
	if principal.Username == sess.Principal.Username {
		return nil
	}
	if principal.Role.Satisfies(privilege.ConfigureManager) {
		return nil
	}
	return &authn.Rejection{
		Status:  http.StatusForbidden,
		Code:    redfish.CodeInsufficientPrivilege,
		Message: "The operation requires the ConfigureManager privilege.",
	}
}

func (h *Handler) reportSessionCount(ctx context.Context) {
	if h.OnSessionCount == nil {
		return
	}
	sessions, err := h.store.List(ctx)
	if err != nil {
		return
	}
	h.OnSessionCount(len(sessions))
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	redfish.WriteError(w, http.StatusInternalServerError, redfish.CodeGeneralError,
		"An internal error occurred while processing the request.")
}
