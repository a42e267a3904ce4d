package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	previewCookieName = "SKLINET_PREVIEW"
	defaultPreviewTTL = time.Hour
)

// PreviewData is the payload of the signed preview cookie.
type PreviewData struct {
	Slug      string    `json:"slug,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PreviewCookies signs and verifies the preview mode cookie.
type PreviewCookies struct {
	key    []byte
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

// NewPreviewCookies builds a signer. Without a key a process-ephemeral one
// is generated, which invalidates preview sessions on restart.
func NewPreviewCookies(key string, secure bool, logger *zap.Logger) *PreviewCookies {
	p := &PreviewCookies{secure: secure, ttl: defaultPreviewTTL, now: time.Now}
	if key != "" {
		p.key = []byte(key)
		return p
	}
	p.key = make([]byte, 32)
	if _, err := rand.Read(p.key); err != nil {
		p.key = []byte("insecure-dev-key-please-set-WEB_PREVIEW_SIGNING_KEY")
	}
	if logger != nil {
		logger.Warn("preview: using ephemeral signing key; set WEB_PREVIEW_SIGNING_KEY for production")
	}
	return p
}

// Enable writes a fresh preview cookie.
func (p *PreviewCookies) Enable(w http.ResponseWriter, slug string) {
	now := p.now().UTC()
	data := PreviewData{Slug: slug, CreatedAt: now, ExpiresAt: now.Add(p.ttl)}
	b, _ := json.Marshal(data)
	payload := base64.RawURLEncoding.EncodeToString(b)
	sig := base64.RawURLEncoding.EncodeToString(p.sign(b))
	// httpOnly to prevent JS access
	http.SetCookie(w, &http.Cookie{
		Name:     previewCookieName,
		Value:    payload + "." + sig,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  data.ExpiresAt,
	})
}

// Clear removes the preview cookie.
func (p *PreviewCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     previewCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// Read parses and verifies the preview cookie.
func (p *PreviewCookies) Read(r *http.Request) (*PreviewData, bool) {
	c, err := r.Cookie(previewCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	payloadPart, sigPart, ok := strings.Cut(c.Value, ".")
	if !ok {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(sig, p.sign(payload)) {
		return nil, false
	}
	var data PreviewData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, false
	}
	if !data.ExpiresAt.IsZero() && p.now().After(data.ExpiresAt) {
		return nil, false
	}
	return &data, true
}

func (p *PreviewCookies) sign(b []byte) []byte {
	mac := hmac.New(sha256.New, p.key)
	mac.Write(b)
	return mac.Sum(nil)
}

// Preview marks requests carrying a valid preview cookie. Preview responses
// are never cached by intermediaries.
func Preview(cookies *PreviewCookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, ok := cookies.Read(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Cache-Control", "private, no-store")
			next.ServeHTTP(w, r.WithContext(WithPreview(r.Context(), data)))
		})
	}
}
