package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"snipbin/svc/util"
)

const CookieName = "snipbin_sid"

// Backend persists session records server-side, keyed by session id.
type Backend interface {
	SaveSession(ctx context.Context, sid, creatorID string, ttl time.Duration) error
	GetSession(ctx context.Context, sid string) (string, error)
}

// Manager issues and resolves the anonymous creator identity. The cookie
// carries an HMAC-signed session id; the creator id itself lives only in
// the backend. A nil backend means sessions never resolve, which degrades
// to a fresh creator id per create (dev mode without Redis).
type Manager struct {
	backend Backend
	secret  []byte
	ttl     time.Duration
	secure  bool
}

func NewManager(backend Backend, secret []byte, ttl time.Duration, secure bool) *Manager {
	if len(secret) == 0 {
		panic("session manager: empty secret")
	}
	return &Manager{
		backend: backend,
		secret:  append([]byte(nil), secret...),
		ttl:     ttl,
		secure:  secure,
	}
}

// Resolve reads the creator id for the request's session cookie. Every
// failure mode (no cookie, bad signature, unknown record, backend error)
// reads as "no session"; the caller establishes one lazily if it needs to.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	sid, ok := m.verify(c.Value)
	if !ok {
		util.Debug().Msg("session cookie failed signature check")
		return "", false
	}
	if m.backend == nil {
		return "", false
	}
	creatorID, err := m.backend.GetSession(ctx, sid)
	if err != nil {
		util.Warn().Err(err).Msg("session lookup failed")
		return "", false
	}
	if creatorID == "" {
		return "", false
	}
	return creatorID, true
}

// Establish mints a new session with a fresh creator id and sets the signed
// cookie on w. The cookie keeps the original deployment's attributes:
// cross-site usable, readable by the frontend, 24h default lifetime.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter) (string, error) {
	sid := uuid.NewString()
	creatorID := util.GenCreatorID(8)
	if m.backend != nil {
		if err := m.backend.SaveSession(ctx, sid, creatorID, m.ttl); err != nil {
			return "", errors.Wrap(err, "save session")
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.sign(sid),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: false,
		SameSite: http.SameSiteNoneMode,
		Secure:   m.secure,
	})
	return creatorID, nil
}

func (m *Manager) sign(sid string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(sid))
	return sid + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *Manager) verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", false
	}
	sid, sig := value[:i], value[i+1:]
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(sid))
	if subtle.ConstantTimeCompare(got, mac.Sum(nil)) != 1 {
		return "", false
	}
	return sid, true
}
