package access

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/terra-clan/academy-console/internal/models"
	"github.com/terra-clan/academy-console/internal/notify"
)

// Redirect targets
const (
	LoginPath = "/login"
	HomePath  = "/home"
)

// Reason identifies which check denied a navigation
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonNoToken           Reason = "no_token"
	ReasonIncompleteProfile Reason = "incomplete_profile"
	ReasonRoleDenied        Reason = "role_denied"
)

// SessionSource yields the session of the current navigation
type SessionSource interface {
	Get(ctx context.Context) (*models.Session, error)
}

// Requirement is what a screen asks of the current user.
// Empty Roles admits any authenticated user. ProfileOptional skips the
// profile-completeness check, for the screens where the profile is completed.
type Requirement struct {
	Roles           []models.Role
	ProfileOptional bool
}

// AnyOf is a Requirement admitting the given roles
func AnyOf(roles ...models.Role) Requirement {
	return Requirement{Roles: roles}
}

// Decision is the outcome of a gate check
type Decision struct {
	Allowed       bool            `json:"allowed"`
	Reason        Reason          `json:"reason,omitempty"`
	Redirect      string          `json:"redirect,omitempty"`
	MissingFields []string        `json:"missingFields,omitempty"`
	Notice        *models.Notice  `json:"notice,omitempty"`
	Session       *models.Session `json:"-"`
}

// Gate decides whether the current user may view a screen.
// Decisions are never cached; every navigation re-runs the checks.
type Gate struct {
	notifier notify.Notifier
}

// NewGate creates a gate. notifier may be nil.
func NewGate(notifier notify.Notifier) *Gate {
	return &Gate{notifier: notifier}
}

// Check evaluates the gate for the session behind src
func (g *Gate) Check(ctx context.Context, key string, src SessionSource, req Requirement) Decision {
	sess, err := src.Get(ctx)
	if err != nil {
		slog.Error("failed to read session", "error", err)
		sess = nil
	}
	d := Evaluate(sess, req)
	if !d.Allowed && d.Notice != nil && g.notifier != nil && key != "" {
		g.notifier.Push(key, *d.Notice)
	}
	return d
}

// Evaluate runs the ordered checks, stopping at the first failure:
// a token is required; non-admin users need a complete profile; a non-empty
// role list must contain the user's role.
func Evaluate(sess *models.Session, req Requirement) Decision {
	if !sess.IsAuthenticated() {
		n := notify.Warning("Please log in to continue")
		return Decision{
			Reason:   ReasonNoToken,
			Redirect: LoginPath,
			Notice:   &n,
		}
	}

	role := sess.Role
	if !role.BypassesProfileCheck() && !req.ProfileOptional {
		if missing := sess.User.MissingProfileFields(); len(missing) > 0 {
			n := notify.Warning(
				fmt.Sprintf("Please complete your profile: %s", strings.Join(missing, ", ")),
				missing...,
			)
			return Decision{
				Reason:        ReasonIncompleteProfile,
				Redirect:      HomePath,
				MissingFields: missing,
				Notice:        &n,
			}
		}
	}

	if len(req.Roles) > 0 && !role.In(req.Roles) {
		n := notify.Warning("You do not have access to this page")
		return Decision{
			Reason:   ReasonRoleDenied,
			Redirect: HomePath,
			Notice:   &n,
		}
	}

	return Decision{Allowed: true, Session: sess}
}
