package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/redfield-bmc/redfield/internal/authz"
	"github.com/redfield-bmc/redfield/internal/certificate"
	"github.com/redfield-bmc/redfield/internal/observability"
	"github.com/redfield-bmc/redfield/internal/privilege"
	"github.com/redfield-bmc/redfield/internal/serviceroot"
	"github.com/redfield-bmc/redfield/internal/sessionsvc"
	"github.com/redfield-bmc/redfield/internal/system"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	Guard        authz.Guard
	ServiceRoot  *serviceroot.Handler
	Systems      *system.Handler
	Certificates *certificate.Handler
	Sessions     *sessionsvc.Handler
	Metrics      *observability.Metrics
}

// NewRouter wires guards, locators and handlers into the management route
// tree. Locators are installed on the subrouter owning their path segment,
// so bindings resolve in mount order: a certificate resolver always sees the
// system binding made by the enclosing segment.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/redfish", func(r chi.Router) {
		// The version index and service root are reachable anonymously so
		// clients can discover the session service.
		r.With(params.Guard.Anonymous()).Get("/", params.ServiceRoot.Versions)
		r.Route("/v1", func(r chi.Router) {
			r.With(params.Guard.Anonymous()).Get("/", params.ServiceRoot.Root)

			r.Route("/Systems", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(params.Guard.Require(privilege.ClassComputerSystemCollection))
					params.Systems.MountCollection(r)
				})
				r.Route("/{computer_system_id}", func(r chi.Router) {
					r.Use(params.Systems.Locator().Middleware())
					r.Group(func(r chi.Router) {
						r.Use(params.Guard.Require(privilege.ClassComputerSystem))
						params.Systems.MountMember(r)
					})
					r.Route("/Certificates", func(r chi.Router) {
						r.Group(func(r chi.Router) {
							r.Use(params.Guard.Require(privilege.ClassCertificateCollection))
							params.Certificates.MountCollection(r)
						})
						r.Route("/{certificate_id}", func(r chi.Router) {
							r.Use(params.Guard.Require(privilege.ClassCertificate))
							r.Use(params.Certificates.Locator().Middleware())
							params.Certificates.MountMember(r)
						})
					})
				})
			})

			r.Route("/SessionService", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(params.Guard.Require(privilege.ClassSessionService))
					params.Sessions.MountService(r)
				})
				r.Route("/Sessions", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(params.Guard.Require(privilege.ClassSessionCollection))
						params.Sessions.MountCollection(r)
					})
					r.Group(func(r chi.Router) {
						// Session creation is the login endpoint: anonymous,
						// but rate limited per client IP.
						r.Use(params.Guard.Anonymous())
						if params.Config != nil && params.Config.LoginRateLimit > 0 {
							r.Use(httprate.LimitByIP(params.Config.LoginRateLimit, time.Minute))
						}
						params.Sessions.MountLogin(r)
					})
					r.Route("/{session_id}", func(r chi.Router) {
						r.Use(params.Guard.Require(privilege.ClassSession))
						r.Use(params.Sessions.Locator().Middleware())
						params.Sessions.MountMember(r)
					})
				})
			})
		})
	})

	return r
}
