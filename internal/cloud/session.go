package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"heating_bridge/internal/logger"
)

// ErrAuth means every candidate cluster endpoint rejected the credentials.
// Partial failures on individual endpoints are not surfaced; they only
// advance the iteration.
var ErrAuth = errors.New("authentication failed on all cluster endpoints")

// Session is one authenticated cloud session, pinned to the endpoint that
// accepted the login. It is owned by the Authenticator that produced it,
// discarded (never revoked) on expiry, and cheap enough to acquire per
// operation.
type Session struct {
	Endpoint   string
	AcquiredAt time.Time

	jar *cookiejar.Jar
}

// Authenticator performs the vendor's two-step handshake against an ordered
// list of candidate cluster endpoints and returns the first session that
// sticks.
type Authenticator struct {
	endpoints []string
	user      string
	password  string
	timeout   time.Duration
	log       *logger.Logger
}

func NewAuthenticator(endpoints []string, user, password string, timeout time.Duration, log *logger.Logger) *Authenticator {
	return &Authenticator{
		endpoints: endpoints,
		user:      user,
		password:  password,
		timeout:   timeout,
		log:       log,
	}
}

// Acquire walks the candidate endpoints in order. For each: an initiating
// GET /login establishes the server-side session context, then a
// form-encoded POST /login submits the credentials. The first endpoint
// answering 200 wins and the session is pinned there; every other failure
// mode (timeout, non-200, transport error) just moves on to the next
// candidate. ErrAuth is returned only once the whole list is exhausted.
func (a *Authenticator) Acquire(ctx context.Context) (*Session, error) {
	var lastErr error
	for _, ep := range a.endpoints {
		s, err := a.tryEndpoint(ctx, ep)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if a.log != nil {
				a.log.Infow("cloud_endpoint_failed", "endpoint", ep, "err", err)
			}
			lastErr = err
			continue
		}
		if a.log != nil {
			a.log.Infow("cloud_session_acquired", "endpoint", ep)
		}
		return s, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, lastErr)
	}
	return nil, ErrAuth
}

func (a *Authenticator) tryEndpoint(ctx context.Context, endpoint string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	cli := &http.Client{Timeout: a.timeout, Jar: jar}

	loginURL := strings.TrimRight(endpoint, "/") + "/login"

	// Step 1: initiating request, establishes the server-side context.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login handshake: %w", err)
	}
	drainAndClose(res)

	// Step 2: credentials submission.
	form := url.Values{}
	form.Set("userId", a.user)
	form.Set("userPassword", a.password)
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	res, err = cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer drainAndClose(res)

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login rejected with status %d", res.StatusCode)
	}

	return &Session{
		Endpoint:   endpoint,
		AcquiredAt: time.Now().UTC(),
		jar:        jar,
	}, nil
}
