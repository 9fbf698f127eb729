package authz

import (
	"fmt"
	"net/http"

	"github.com/redfield-bmc/redfield/internal/authn"
	"github.com/redfield-bmc/redfield/internal/privilege"
	"github.com/redfield-bmc/redfield/internal/redfish"
)

// Gate decides whether a principal may perform an operation requiring a given
// role. Read-only after construction.
type Gate struct {
	// Challenges advertises every enabled authentication scheme on 401s.
	Challenges []string
}

// Authorize returns the principal when it satisfies the requirement, or the
// rejection to send: 401 with challenges when no principal is present, 403
// naming the required privilege when the role is insufficient.
func (g Gate) Authorize(principal *authn.Principal, required privilege.Role) (authn.Principal, *authn.Rejection) {
	if principal == nil {
		return authn.Principal{}, authn.Unauthorized(
			"No valid authentication credentials were provided.",
			g.Challenges...,
		)
	}
	if !principal.Role.Satisfies(required) {
		return authn.Principal{}, &authn.Rejection{
			Status:  http.StatusForbidden,
			Code:    redfish.CodeInsufficientPrivilege,
			Message: fmt.Sprintf("The operation requires the %s privilege.", required),
		}
	}
	return *principal, nil
}
