// Package gate decides, per request, whether a path may be served to the
// holder of a session token. The decision itself is a pure function of the
// path and the verified claims; the HTTP middleware in middleware.go is the
// only place a decision turns into a response.
package gate

import (
	"strings"

	"refhub/ref-edge/internal/token"
)

type RouteClass string

const (
	RoutePublic   RouteClass = "public"
	RouteAdmin    RouteClass = "admin"
	RouteUser     RouteClass = "user"
	RouteResource RouteClass = "resource"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Action string

const (
	ActionContinue Action = "continue"
	ActionRedirect Action = "redirect"
)

type Decision struct {
	Action Action
	// Target is the redirect location; empty when Action is ActionContinue.
	Target string
}

func cont() Decision { return Decision{Action: ActionContinue} }

func redirect(target string) Decision {
	return Decision{Action: ActionRedirect, Target: target}
}

// Routes holds the literal paths and prefixes the policy is built from.
type Routes struct {
	AdminPrefix      string
	UserPrefix       string
	ResourcePrefixes []string
	LoginPath        string
	AdminHome        string
	UserHome         string
}

// Policy is the decision table for one gateway instance. EnforceUserRoutes
// turns on role checking for user-protected paths; it defaults to off to
// match the platform's observed behavior, where only admin paths are
// role-checked.
type Policy struct {
	Routes            Routes
	EnforceUserRoutes bool
}

func NewPolicy(routes Routes, enforceUserRoutes bool) Policy {
	return Policy{Routes: routes, EnforceUserRoutes: enforceUserRoutes}
}

// Classify maps every path to exactly one route class.
func (p Policy) Classify(path string) RouteClass {
	if hasPathPrefix(path, p.Routes.AdminPrefix) {
		return RouteAdmin
	}
	if hasPathPrefix(path, p.Routes.UserPrefix) {
		return RouteUser
	}
	for _, prefix := range p.Routes.ResourcePrefixes {
		if hasPathPrefix(path, prefix) {
			return RouteResource
		}
	}
	return RoutePublic
}

// Decide evaluates the authorization policy for a path and the claims that
// survived verification (nil when verification failed for any reason). It is
// pure: same inputs, same decision, no side effects.
func (p Policy) Decide(path string, claims *token.Claims) Decision {
	class := p.Classify(path)
	protected := class == RouteAdmin || class == RouteUser || class == RouteResource

	if protected && claims == nil {
		return redirect(p.Routes.LoginPath)
	}

	if claims != nil {
		if class == RouteAdmin && claims.Role != RoleAdmin {
			return redirect(p.Routes.UserHome)
		}
		if class == RouteUser && p.EnforceUserRoutes && claims.Role != RoleUser {
			if claims.Role == RoleAdmin {
				return redirect(p.Routes.AdminHome)
			}
			return redirect(p.Routes.LoginPath)
		}
		if path == p.Routes.LoginPath {
			switch claims.Role {
			case RoleAdmin:
				return redirect(p.Routes.AdminHome)
			case RoleUser:
				return redirect(p.Routes.UserHome)
			}
		}
	}

	return cont()
}

func hasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
