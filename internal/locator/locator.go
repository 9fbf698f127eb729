// Package locator provides the resource-binding middleware: each Locator
// extracts one named path parameter, resolves it into a typed domain value,
// and injects that value into the request context before inner middleware
// and handlers run.
//
// Locators compose: a locator mounted on an inner subrouter sees, through
// FromContext, every value bound by locators on enclosing subrouters.
// Bindings are keyed by the resolved Go type, so resource identifiers should
// be distinct named types (e.g. system.ID, certificate.ID), not bare strings.
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/redfield-bmc/redfield/internal/redfish"
)

// Resolver turns the raw path segment into a typed value. It may read values
// bound by enclosing locators from ctx. Returning a *redfish.StatusError
// picks the exact client response (404 for unknown ids, 400 for unparsable
// ones); any other error is reported as an opaque 500.
type Resolver[T any] func(ctx context.Context, raw string) (T, error)

// Locator is a pipeline stage binding one path parameter.
type Locator[T any] struct {
	param   string
	resolve Resolver[T]
	logger  *slog.Logger
}

// New constructs a locator for the named path parameter.
func New[T any](param string, resolve Resolver[T]) *Locator[T] {
	return &Locator[T]{param: param, resolve: resolve}
}

// WithLogger attaches a logger for internal resolver failures.
func (l *Locator[T]) WithLogger(logger *slog.Logger) *Locator[T] {
	l.logger = logger
	return l
}

type slot[T any] struct{}

// Middleware returns the chi middleware running this locator. A request whose
// route does not actually carry the parameter fails closed with 400.
func (l *Locator[T]) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := chi.URLParam(r, l.param)
			if raw == "" {
				redfish.WriteError(w, http.StatusBadRequest, redfish.CodeResourceMissingParam,
					fmt.Sprintf("The path parameter %q is missing from the request.", l.param))
				return
			}
			value, err := l.resolve(r.Context(), raw)
			if err != nil {
				var status *redfish.StatusError
				if errors.As(err, &status) {
					redfish.WriteStatusError(w, status)
					return
				}
				if l.logger != nil {
					l.logger.Error("resource resolution failed",
						slog.String("param", l.param),
						slog.Any("error", err),
					)
				}
				redfish.WriteError(w, http.StatusInternalServerError, redfish.CodeGeneralError,
					"An internal error occurred while processing the request.")
				return
			}
			ctx := context.WithValue(r.Context(), slot[T]{}, value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext reads the value bound for type T by an enclosing locator.
func FromContext[T any](ctx context.Context) (T, bool) {
	value, ok := ctx.Value(slot[T]{}).(T)
	return value, ok
}

// ParseUint32 converts a raw path segment to uint32, reporting failures as
// caller errors (400), never server errors.
func ParseUint32(param, raw string) (uint32, error) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, redfish.BadRequest(redfish.CodePropertyValueError,
			fmt.Sprintf("The value %q for parameter %q is not a valid identifier.", raw, param))
	}
	return uint32(value), nil
}
