package certificate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/redfield-bmc/redfield/internal/certificate"
	"github.com/redfield-bmc/redfield/internal/system"
)

// The router mirrors the production nesting: the system locator runs before
// the certificate routes, so the certificate resolver sees the system binding.
func newRouter(t *testing.T) (http.Handler, *certificate.Registry) {
	t.Helper()
	systems := system.NewHandler(nil, system.NewRegistry(
		system.System{ID: 1, Name: "node-1", PowerState: system.PowerOn},
		system.System{ID: 2, Name: "node-2", PowerState: system.PowerOff},
	))
	registry := certificate.NewRegistry()
	handler := certificate.NewHandler(nil, registry)

	r := chi.NewRouter()
	r.Route("/redfish/v1/Systems/{computer_system_id}", func(r chi.Router) {
		r.Use(systems.Locator().Middleware())
		r.Route("/Certificates", func(r chi.Router) {
			handler.MountCollection(r)
			r.Route("/{certificate_id}", func(r chi.Router) {
				r.Use(handler.Locator().Middleware())
				handler.MountMember(r)
			})
		})
	})
	return r, registry
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestEmptyCollection(t *testing.T) {
	router, _ := newRouter(t)
	res := do(t, router, http.MethodGet, "/redfish/v1/Systems/1/Certificates", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var collection struct {
		MembersCount int `json:"Members@odata.count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&collection); err != nil {
		t.Fatalf("decode collection: %v", err)
	}
	if collection.MembersCount != 0 {
		t.Fatalf("expected empty collection, got %d members", collection.MembersCount)
	}
}

func TestCreateThenGet(t *testing.T) {
	router, _ := newRouter(t)

	res := do(t, router, http.MethodPost, "/redfish/v1/Systems/1/Certificates",
		`{"Subject":"CN=bmc.example.com","CertificateString":"-----BEGIN CERTIFICATE-----..."}`)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	location := res.Header().Get("Location")
	if !strings.HasPrefix(location, "/redfish/v1/Systems/1/Certificates/") {
		t.Fatalf("unexpected Location: %q", location)
	}

	res = do(t, router, http.MethodGet, location, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resource struct {
		Subject string `json:"Subject"`
		PEM     string `json:"CertificateString"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resource); err != nil {
		t.Fatalf("decode certificate: %v", err)
	}
	if resource.Subject != "CN=bmc.example.com" || resource.PEM == "" {
		t.Fatalf("unexpected resource: %+v", resource)
	}
}

func TestCreateRejectsIncompleteBody(t *testing.T) {
	router, _ := newRouter(t)
	res := do(t, router, http.MethodPost, "/redfish/v1/Systems/1/Certificates",
		`{"Subject":"CN=only-subject"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestCertificateScopedToItsSystem(t *testing.T) {
	router, registry := newRouter(t)
	cert, err := registry.Add(context.Background(), 1, "CN=node-1", "PEM")
	if err != nil {
		t.Fatalf("seed certificate: %v", err)
	}

	res := do(t, router, http.MethodGet, "/redfish/v1/Systems/1/Certificates/"+cert.ID, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 under owning system, got %d", res.Code)
	}

	// The same certificate id does not exist under another system.
	res = do(t, router, http.MethodGet, "/redfish/v1/Systems/2/Certificates/"+cert.ID, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 under foreign system, got %d", res.Code)
	}
}

func TestUnknownCertificateIs404(t *testing.T) {
	router, _ := newRouter(t)
	res := do(t, router, http.MethodGet, "/redfish/v1/Systems/1/Certificates/no-such-cert", "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestDeleteCertificate(t *testing.T) {
	router, registry := newRouter(t)
	cert, err := registry.Add(context.Background(), 1, "CN=node-1", "PEM")
	if err != nil {
		t.Fatalf("seed certificate: %v", err)
	}
	path := "/redfish/v1/Systems/1/Certificates/" + cert.ID

	res := do(t, router, http.MethodDelete, path, "")
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	res = do(t, router, http.MethodGet, path, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", res.Code)
	}
}

func TestUnknownSystemRejectedBeforeCertificateResolver(t *testing.T) {
	router, _ := newRouter(t)
	res := do(t, router, http.MethodGet, "/redfish/v1/Systems/99/Certificates/anything", "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from the system locator, got %d", res.Code)
	}
}
