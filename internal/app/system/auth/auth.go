// Package auth resolves the signed-in user for a request.
//
// Identity is owned by an external provider. This service only reads it,
// either from a gorilla session cookie the provider writes with the shared
// session key, or from X-User-ID / X-User-Name headers set by a trusted
// authenticating proxy.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	DefaultSessionName = "brewcircles-session"

	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"

	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
)

// SessionUser is the identity injected into r.Context().
type SessionUser struct {
	ID   string
	Name string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// SessionManager reads identity from the session cookie and, when enabled,
// from trusted proxy headers.
type SessionManager struct {
	store        *sessions.CookieStore
	name         string
	trustHeaders bool
	log          *zap.Logger
}

// NewSessionManager builds the cookie store. An empty key generates a random
// one, which only suits local development: sessions do not survive a
// restart and the identity provider cannot share them.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	key := []byte(sessionKey)
	if sessionKey == "" {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, fmt.Errorf("session key is empty and a random key could not be generated")
		}
		logger.Warn("session key not set; using a random key for this process")
	} else if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore(key)
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.String("name", name))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// TrustIdentityHeaders makes LoadSessionUser accept X-User-ID and
// X-User-Name. Enable only behind a proxy that strips them from clients.
func (sm *SessionManager) TrustIdentityHeaders(on bool) {
	sm.trustHeaders = on
}

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil && u.ID != ""
}

// LoadSessionUser injects the user into context if one is signed in.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.trustHeaders {
			if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
				name := strings.TrimSpace(r.Header.Get(HeaderUserName))
				next.ServeHTTP(w, withUser(r, &SessionUser{ID: id, Name: name}))
				return
			}
		}

		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			// A cookie signed with another key decodes as a new session.
			sm.log.Debug("session decode failed", zap.Error(err))
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:   getString(sess, userIDKey),
				Name: getString(sess, userName),
			}
			if u.ID != "" {
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 with a JSON error when no user is in context.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "unauthorized",
			"message": "Sign in to continue.",
		})
	})
}

// SignIn writes the session cookie for u. The identity provider performs
// the same write; this service uses it only in development and tests.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// WithTestUser puts u in the request context, bypassing session loading.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
