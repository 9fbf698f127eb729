package authz

import (
	"log/slog"
	"net/http"

	"github.com/redfield-bmc/redfield/internal/authn"
	"github.com/redfield-bmc/redfield/internal/privilege"
)

// Outcome labels for auth instrumentation.
const (
	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
	OutcomeForbidden    = "forbidden"
	OutcomeRejected     = "rejected"
	OutcomeError        = "error"
)

// Guard wires the authentication strategy and the gate into route
// middleware. One Guard serves the whole route tree; the resource class is
// bound per mount.
type Guard struct {
	Strategy authn.Strategy
	Table    *privilege.Table
	Gate     Gate
	Logger   *slog.Logger
	// OnOutcome, when set, receives one label per guarded request.
	OnOutcome func(outcome string)
}

// Require returns middleware enforcing the privilege table for the resource
// class: authenticate, look up the minimum role for the request verb, gate,
// and inject the principal into the request context for handlers.
func (g Guard) Require(class privilege.ResourceClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := g.Strategy.Authenticate(r)
			if err != nil {
				rejection, ok := err.(*authn.Rejection)
				if !ok {
					g.logError("authenticate", r, err)
					rejection = authn.Internal()
				}
				g.observe(outcomeForRejection(rejection))
				rejection.Write(w)
				return
			}
			required := g.Table.Required(class, r.Method)
			verified, rejection := g.Gate.Authorize(principal, required)
			if rejection != nil {
				g.observe(outcomeForRejection(rejection))
				rejection.Write(w)
				return
			}
			g.observe(OutcomeSuccess)
			ctx := authn.ContextWithPrincipal(r.Context(), verified)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Anonymous returns a pass-through stage for routes that deliberately take no
// authentication, such as the discovery documents and the login endpoint.
// Mounting it keeps the route tree explicit about which surfaces are open.
func (g Guard) Anonymous() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

func (g Guard) observe(outcome string) {
	if g.OnOutcome != nil {
		g.OnOutcome(outcome)
	}
}

func (g Guard) logError(op string, r *http.Request, err error) {
	if g.Logger != nil {
		g.Logger.Error("authorization pipeline failure",
			slog.String("op", op),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}

func outcomeForRejection(rejection *authn.Rejection) string {
	switch rejection.Status {
	case http.StatusUnauthorized:
		return OutcomeUnauthorized
	case http.StatusForbidden:
		return OutcomeForbidden
	case http.StatusInternalServerError:
		return OutcomeError
	default:
		return OutcomeRejected
	}
}
