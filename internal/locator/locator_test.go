package locator_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/redfield-bmc/redfield/internal/locator"
	"github.com/redfield-bmc/redfield/internal/redfish"
)

// Distinct binding types, as real resources use.
type outerID uint32

type innerID string

func outerLocator(t *testing.T) *locator.Locator[outerID] {
	t.Helper()
	return locator.New("outer_id", func(ctx context.Context, raw string) (outerID, error) {
		id, err := locator.ParseUint32("outer_id", raw)
		if err != nil {
			return 0, err
		}
		if id == 404 {
			return 0, redfish.NotFound("Outer", raw)
		}
		return outerID(id), nil
	})
}

func TestLocatorBindsTypedValue(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/outer/{outer_id}", func(r chi.Router) {
		r.Use(outerLocator(t).Middleware())
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			id, ok := locator.FromContext[outerID](req.Context())
			if !ok {
				t.Fatal("outer binding missing")
			}
			fmt.Fprintf(w, "%d", id)
		})
	})

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/outer/42", nil))
	if res.Code != http.StatusOK || res.Body.String() != "42" {
		t.Fatalf("expected 200/42, got %d/%q", res.Code, res.Body.String())
	}
}

func TestInnerResolverSeesOuterBinding(t *testing.T) {
	innerRan := false
	inner := locator.New("inner_id", func(ctx context.Context, raw string) (innerID, error) {
		innerRan = true
		outer, ok := locator.FromContext[outerID](ctx)
		if !ok {
			return "", fmt.Errorf("outer binding not visible to inner resolver")
		}
		return innerID(fmt.Sprintf("%d/%s", outer, raw)), nil
	})

	r := chi.NewRouter()
	r.Route("/outer/{outer_id}", func(r chi.Router) {
		r.Use(outerLocator(t).Middleware())
		r.Route("/inner/{inner_id}", func(r chi.Router) {
			r.Use(inner.Middleware())
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				id, _ := locator.FromContext[innerID](req.Context())
				fmt.Fprint(w, string(id))
			})
		})
	})

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/outer/42/inner/abc", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if res.Body.String() != "42/abc" {
		t.Fatalf("inner resolver saw wrong bindings: %q", res.Body.String())
	}
	if !innerRan {
		t.Fatal("inner resolver never ran")
	}
}

func TestUnparsableOuterIDRejectedBeforeInnerRuns(t *testing.T) {
	innerRan := false
	inner := locator.New("inner_id", func(ctx context.Context, raw string) (innerID, error) {
		innerRan = true
		return innerID(raw), nil
	})

	r := chi.NewRouter()
	r.Route("/outer/{outer_id}", func(r chi.Router) {
		r.Use(outerLocator(t).Middleware())
		r.Route("/inner/{inner_id}", func(r chi.Router) {
			r.Use(inner.Middleware())
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		})
	})

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/outer/not-a-number/inner/abc", nil))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unparsable id, got %d", res.Code)
	}
	if innerRan {
		t.Fatal("inner resolver must not run after outer rejection")
	}
}

func TestResolverStatusErrorPassedThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/outer/{outer_id}", func(r chi.Router) {
		r.Use(outerLocator(t).Middleware())
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/outer/404", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected resolver's 404, got %d", res.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != redfish.CodeResourceNotFound {
		t.Fatalf("expected %s, got %s", redfish.CodeResourceNotFound, body.Error.Code)
	}
}

func TestMissingParameterFailsClosed(t *testing.T) {
	resolverRan := false
	misconfigured := locator.New("absent_param", func(ctx context.Context, raw string) (innerID, error) {
		resolverRan = true
		return innerID(raw), nil
	})

	// The route pattern carries no {absent_param}.
	r := chi.NewRouter()
	r.Route("/plain", func(r chi.Router) {
		r.Use(misconfigured.Middleware())
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/plain", nil))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing parameter, got %d", res.Code)
	}
	if resolverRan {
		t.Fatal("resolver must not run without its parameter")
	}
}

func TestResolverInternalErrorIs500WithoutDetail(t *testing.T) {
	failing := locator.New("outer_id", func(ctx context.Context, raw string) (outerID, error) {
		return 0, fmt.Errorf("store corruption: secret detail")
	})

	r := chi.NewRouter()
	r.Route("/outer/{outer_id}", func(r chi.Router) {
		r.Use(failing.Middleware())
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/outer/1", nil))
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Message == "" || body.Error.Message != "An internal error occurred while processing the request." {
		t.Fatalf("500 body must not leak internal detail: %q", body.Error.Message)
	}
}
