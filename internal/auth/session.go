package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const SessionCookie = "browsetrace_session"

// Session is the state carried in the signed cookie.
type Session struct {
	Authenticated bool `json:"authenticated"`
	Attempts      int  `json:"attempts"`
	jwt.RegisteredClaims
}

type SessionManager struct {
	secret      []byte
	ttl         time.Duration
	maxAttempts int
	secure      bool
}

// NewSessionManager signs cookies with secret, or with a random key when
// secret is empty, which invalidates sessions on restart.
func NewSessionManager(secret string, ttl time.Duration, maxAttempts int, secure bool) (*SessionManager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
	}
	return &SessionManager{secret: key, ttl: ttl, maxAttempts: maxAttempts, secure: secure}, nil
}

// Load returns the request's session. A missing, expired or tampered cookie
// yields a fresh anonymous session.
func (m *SessionManager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return m.fresh()
	}
	session := &Session{}
	_, err = jwt.ParseWithClaims(cookie.Value, session, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return m.fresh()
	}
	return session
}

// Save signs the session and sets it on the response.
func (m *SessionManager) Save(w http.ResponseWriter, session *Session) error {
	now := time.Now()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.IssuedAt = jwt.NewNumericDate(now)
	session.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (m *SessionManager) LockedOut(session *Session) bool {
	return session.Attempts >= m.maxAttempts
}

var ErrLockedOut = errors.New("too many failed attempts you have been locked out")

var ErrIncorrectPassword = errors.New("incorrect password")

// Login checks a submitted digest against expected and updates the session:
// success authenticates and clears attempts, failure counts an attempt.
// Once locked out the digest is no longer checked.
func (m *SessionManager) Login(session *Session, expected, submitted string) error {
	if m.LockedOut(session) {
		return ErrLockedOut
	}
	if !VerifyDigest(expected, submitted) {
		session.Attempts++
		return ErrIncorrectPassword
	}
	session.Authenticated = true
	session.Attempts = 0
	return nil
}

func (m *SessionManager) fresh() *Session {
	return &Session{}
}
