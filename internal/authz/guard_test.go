package authz_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/redfield-bmc/redfield/internal/authn"
	"github.com/redfield-bmc/redfield/internal/authz"
	"github.com/redfield-bmc/redfield/internal/privilege"
)

type fixedStrategy struct {
	principal *authn.Principal
	err       error
}

func (s fixedStrategy) Authenticate(r *http.Request) (*authn.Principal, error) {
	return s.principal, s.err
}

func testTable() *privilege.Table {
	t := privilege.NewTable()
	t.Set(privilege.ClassComputerSystemCollection, privilege.ReadOnly, http.MethodGet)
	t.Set(privilege.ClassComputerSystemCollection, privilege.ConfigureComponents, http.MethodPost)
	return t
}

func newGuard(strategy authn.Strategy) authz.Guard {
	return authz.Guard{
		Strategy: strategy,
		Table:    testTable(),
		Gate:     authz.Gate{Challenges: []string{`Basic realm="test"`}},
	}
}

func serveGuarded(guard authz.Guard, class privilege.ResourceClass, r *http.Request) (*httptest.ResponseRecorder, bool) {
	invoked := false
	handler := guard.Require(class)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invoked = true
		w.WriteHeader(http.StatusOK)
	}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, r)
	return res, invoked
}

func decodeErrorBody(t *testing.T, res *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code, body.Error.Message
}

func TestGuardAnonymousGets401WithChallenge(t *testing.T) {
	guard := newGuard(fixedStrategy{})
	req := httptest.NewRequest(http.MethodGet, "/redfish/v1/Systems", nil)

	res, invoked := serveGuarded(guard, privilege.ClassComputerSystemCollection, req)
	if invoked {
		t.Fatal("handler must not run for anonymous request")
	}
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if got := res.Header().Get("WWW-Authenticate"); got != `Basic realm="test"` {
		t.Fatalf("expected Basic challenge, got %q", got)
	}
}

func TestGuardInsufficientRoleGets403NamingPrivilege(t *testing.T) {
	operator := &authn.Principal{Username: "op", Role: privilege.Operator}
	guard := newGuard(fixedStrategy{principal: operator})
	req := httptest.NewRequest(http.MethodPost, "/redfish/v1/Systems", nil)

	res, invoked := serveGuarded(guard, privilege.ClassComputerSystemCollection, req)
	if invoked {
		t.Fatal("handler must not run for underprivileged request")
	}
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	_, message := decodeErrorBody(t, res)
	if !strings.Contains(message, "ConfigureComponents") {
		t.Fatalf("403 body must name the required privilege, got %q", message)
	}
}

func TestGuardSufficientRoleRunsHandlerWithPrincipal(t *testing.T) {
	admin := &authn.Principal{Username: "root", Role: privilege.Administrator}
	guard := newGuard(fixedStrategy{principal: admin})

	var seen *authn.Principal
	handler := guard.Require(privilege.ClassComputerSystemCollection)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := authn.PrincipalFromContext(r.Context()); ok {
				seen = &p
			}
			w.WriteHeader(http.StatusOK)
		}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/redfish/v1/Systems", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if seen == nil || seen.Username != "root" {
		t.Fatalf("principal not injected into handler context: %+v", seen)
	}
}

func TestGuardUnconfiguredPairRequiresAdministrator(t *testing.T) {
	manager := &authn.Principal{Username: "mgr", Role: privilege.ConfigureManager}
	guard := newGuard(fixedStrategy{principal: manager})
	// DELETE has no entry in the test table.
	req := httptest.NewRequest(http.MethodDelete, "/redfish/v1/Systems", nil)

	res, invoked := serveGuarded(guard, privilege.ClassComputerSystemCollection, req)
	if invoked {
		t.Fatal("handler must not run for unconfigured verb")
	}
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestGuardStrategyRejectionReturnedVerbatim(t *testing.T) {
	guard := newGuard(fixedStrategy{err: authn.Malformed("bad authorization header")})
	req := httptest.NewRequest(http.MethodGet, "/redfish/v1/Systems", nil)

	res, invoked := serveGuarded(guard, privilege.ClassComputerSystemCollection, req)
	if invoked {
		t.Fatal("handler must not run after rejection")
	}
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	_, message := decodeErrorBody(t, res)
	if message != "bad authorization header" {
		t.Fatalf("rejection body altered: %q", message)
	}
}

func TestGuardOutcomeHook(t *testing.T) {
	var outcomes []string
	admin := &authn.Principal{Username: "root", Role: privilege.Administrator}
	guard := newGuard(fixedStrategy{principal: admin})
	guard.OnOutcome = func(outcome string) { outcomes = append(outcomes, outcome) }

	serveGuarded(guard, privilege.ClassComputerSystemCollection,
		httptest.NewRequest(http.MethodGet, "/redfish/v1/Systems", nil))

	if len(outcomes) != 1 || outcomes[0] != authz.OutcomeSuccess {
		t.Fatalf("expected [success], got %v", outcomes)
	}
}
