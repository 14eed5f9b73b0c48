// Package session owns the client-side view of the signed-in principal. The
// store is an explicit, injectable container: consumers read snapshots and
// every mutation goes through one of the operations below, each of which is a
// single request/response cycle against the platform backend.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"refhub/ref-edge/internal/backend"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrNotAuthenticated   = errors.New("not authenticated")
	// ErrSessionCleared is returned by an in-flight operation that lost to a
	// logout; its result is discarded rather than resurrecting the principal.
	ErrSessionCleared = errors.New("session cleared")
)

const defaultOpTimeout = 10 * time.Second

// API is the slice of the backend contract the store depends on.
type API interface {
	Login(ctx context.Context, creds backend.Credentials) (backend.Principal, error)
	CurrentUser(ctx context.Context) (backend.Principal, error)
	UpdateProfile(ctx context.Context, update backend.ProfileUpdate) (backend.Principal, error)
	ClearSession()
}

var _ API = (*backend.Client)(nil)

// ProfileUpdate is the profile form as submitted; the confirm field is
// checked locally and never sent to the backend.
type ProfileUpdate struct {
	Name            string
	Phone           string
	Address         string
	Password        string
	ConfirmPassword string
}

// State is a point-in-time snapshot for consumers. Principal is a copy; the
// store's own record is never handed out.
type State struct {
	Principal     *backend.Principal
	Authenticated bool
	Loading       bool
	Err           string
}

type Store struct {
	api     API
	timeout time.Duration

	mu         sync.Mutex
	principal  *backend.Principal
	loading    int
	errMsg     string
	fetchSeq   uint64
	appliedSeq uint64
	generation uint64
	inflight   map[uint64]context.CancelFunc
}

func NewStore(api API, opTimeout time.Duration) (*Store, error) {
	if api == nil {
		return nil, fmt.Errorf("backend API is required")
	}
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &Store{
		api:      api,
		timeout:  opTimeout,
		inflight: make(map[uint64]context.CancelFunc),
	}, nil
}

// Snapshot returns the current state. The principal is either fully absent or
// fully populated; partial updates are never visible.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Authenticated: s.principal != nil,
		Loading:       s.loading > 0,
		Err:           s.errMsg,
	}
	if s.principal != nil {
		cp := *s.principal
		st.Principal = &cp
	}
	return st
}

// Login authenticates against the backend and, on success, installs the
// returned principal. Credential rejection is reported as
// ErrInvalidCredentials so callers can tell it apart from network failure.
func (s *Store) Login(ctx context.Context, email, password string, remember bool) (*backend.Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, s.failLocal(fmt.Errorf("%w: email and password are required", ErrValidation))
	}

	gen := s.beginOp()
	octx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.api.Login(octx, backend.Credentials{Email: email, Password: password, Remember: remember})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endOpLocked(gen)

	if err != nil {
		err = mapLoginErr(err)
		s.errMsg = userMessage(err)
		return nil, err
	}
	if s.generation != gen {
		return nil, ErrSessionCleared
	}

	cp := p
	s.principal = &cp
	// Any fetch issued before this point is now stale.
	s.appliedSeq = s.fetchSeq
	out := cp
	return &out, nil
}

// FetchCurrentPrincipal hydrates the principal from the backend. It is safe
// to call repeatedly and concurrently: responses apply in issue order, so a
// slow early fetch can never overwrite the result of a later one.
func (s *Store) FetchCurrentPrincipal(ctx context.Context) (*backend.Principal, error) {
	s.mu.Lock()
	if s.principal != nil {
		cp := *s.principal
		s.mu.Unlock()
		return &cp, nil
	}
	s.fetchSeq++
	seq := s.fetchSeq
	gen := s.generation
	s.loading++
	octx, cancel := context.WithTimeout(ctx, s.timeout)
	s.inflight[seq] = cancel
	s.mu.Unlock()

	p, err := s.api.CurrentUser(octx)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, seq)
	s.endOpLocked(gen)

	if s.generation != gen {
		return nil, ErrSessionCleared
	}
	if err != nil {
		if seq > s.appliedSeq {
			s.errMsg = userMessage(err)
		}
		return nil, err
	}
	if seq > s.appliedSeq {
		s.appliedSeq = seq
		cp := p
		s.principal = &cp
	}
	if s.principal == nil {
		return nil, ErrNotAuthenticated
	}
	out := *s.principal
	return &out, nil
}

// UpdateProfile merges accepted fields into the held principal only after
// the backend confirms them. A failed update leaves the prior principal
// untouched.
func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) (*backend.Principal, error) {
	if update.Password != update.ConfirmPassword {
		return nil, s.failLocal(fmt.Errorf("%w: passwords do not match", ErrValidation))
	}
	s.mu.Lock()
	if s.principal == nil {
		s.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	s.mu.Unlock()

	gen := s.beginOp()
	octx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.api.UpdateProfile(octx, backend.ProfileUpdate{
		Name:     update.Name,
		Phone:    update.Phone,
		Address:  update.Address,
		Password: update.Password,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endOpLocked(gen)

	if err != nil {
		s.errMsg = userMessage(err)
		return nil, err
	}
	if s.generation != gen {
		return nil, ErrSessionCleared
	}

	cp := p
	s.principal = &cp
	out := cp
	return &out, nil
}

// Logout clears the session synchronously and always wins over in-flight
// hydration: pending fetches are cancelled and their results discarded.
// No-op safe when no principal is held.
func (s *Store) Logout() {
	s.mu.Lock()
	for seq, cancel := range s.inflight {
		cancel()
		delete(s.inflight, seq)
	}
	s.generation++
	s.principal = nil
	s.loading = 0
	s.errMsg = ""
	s.mu.Unlock()

	s.api.ClearSession()
}

// SetError assigns the error channel. It is not cleared by unrelated state
// changes; only ClearError, Logout, or a later operation's own failure
// touches it.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Store) beginOp() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading++
	return s.generation
}

// endOpLocked resets the loading flag for an operation started in gen. A
// logout in between already forced loading to zero; stale decrements must
// not drive it negative.
func (s *Store) endOpLocked(gen uint64) {
	if s.generation == gen && s.loading > 0 {
		s.loading--
	}
}

func (s *Store) failLocal(err error) error {
	s.mu.Lock()
	s.errMsg = userMessage(err)
	s.mu.Unlock()
	return err
}

func mapLoginErr(err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Message)
	}
	return err
}

func userMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid credentials"
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
