package gate

import (
	"log/slog"
	"net/http"

	"refhub/ref-edge/internal/token"
)

// Recorder receives one record per decided request. Implementations must not
// block the request path; recording failures are logged and dropped.
type Recorder interface {
	Record(path string, class RouteClass, subject, role string, decision Decision) error
}

type Middleware struct {
	policy     Policy
	verifier   *token.Verifier
	cookieName string
	recorder   Recorder
	log        *slog.Logger
}

func NewMiddleware(policy Policy, verifier *token.Verifier, cookieName string, recorder Recorder, log *slog.Logger) *Middleware {
	if log == nil {
		log = slog.Default()
	}
	return &Middleware{
		policy:     policy,
		verifier:   verifier,
		cookieName: cookieName,
		recorder:   recorder,
		log:        log,
	}
}

// Wrap applies the authorization policy before next is allowed to serve the
// request. Verification always runs and completes before any branch on the
// claims; every verification failure is treated as an absent principal.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var claims *token.Claims
		if c, err := r.Cookie(m.cookieName); err == nil {
			verified, err := m.verifier.Verify(c.Value)
			if err == nil {
				claims = verified
			}
		}

		decision := m.policy.Decide(r.URL.Path, claims)
		m.record(r.URL.Path, claims, decision)

		if decision.Action == ActionRedirect {
			http.Redirect(w, r, decision.Target, http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) record(path string, claims *token.Claims, decision Decision) {
	if m.recorder == nil {
		return
	}
	subject, role := "", ""
	if claims != nil {
		subject, role = claims.Subject, claims.Role
	}
	if err := m.recorder.Record(path, m.policy.Classify(path), subject, role, decision); err != nil {
		m.log.Warn("record gate decision failed", "path", path, "error", err)
	}
}
