package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/redfield-bmc/redfield/internal/authn"
	"github.com/redfield-bmc/redfield/internal/authz"
	"github.com/redfield-bmc/redfield/internal/observability"
	"github.com/redfield-bmc/redfield/internal/privilege"
	"github.com/redfield-bmc/redfield/internal/session"
)

// NewStrategy builds the authentication strategy from the configured method
// order, along with the challenge values the gate advertises on 401s.
func NewStrategy(cfg *Config, store session.Store, authenticator authn.Authenticator) (authn.Strategy, []string, error) {
	var (
		strategies []authn.Strategy
		challenges []string
	)
	for _, method := range cfg.AuthMethods {
		switch strings.TrimSpace(method) {
		case MethodBasic:
			basic := authn.BasicStrategy{Authenticator: authenticator, Realm: cfg.BasicRealm}
			strategies = append(strategies, basic)
			challenges = append(challenges, basic.Challenge())
		case MethodSession:
			strategies = append(strategies, authn.SessionStrategy{
				Sessions:   store,
				HeaderName: cfg.SessionTokenHeader,
				CookieName: cfg.SessionCookieName,
			})
		default:
			return nil, nil, fmt.Errorf("unknown authentication method: %s", method)
		}
	}
	if len(strategies) == 1 {
		return strategies[0], challenges, nil
	}
	return authn.CombinedStrategy{Strategies: strategies}, challenges, nil
}

// NewGuard assembles the authorization guard shared by the route tree. The
// privilege table is validated here so configuration gaps fail startup.
func NewGuard(logger *slog.Logger, table *privilege.Table, strategy authn.Strategy, challenges []string, metrics *observability.Metrics) (authz.Guard, error) {
	if err := table.Validate(privilege.Classes()...); err != nil {
		return authz.Guard{}, err
	}
	guard := authz.Guard{
		Strategy: strategy,
		Table:    table,
		Gate:     authz.Gate{Challenges: challenges},
		Logger:   logger,
	}
	if metrics != nil {
		guard.OnOutcome = metrics.ObserveAuthOutcome
	}
	return guard, nil
}
