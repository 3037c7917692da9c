package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finwell/finwell/internal/auth"
	"github.com/finwell/finwell/internal/i18n"
)

// Session cookie names.
const (
	SessionCookie = "finwell_session"
	LangCookie    = "finwell_lang"
)

// SessionTTL is how long an anonymous session cookie lives. Every
// request refreshes it.
const SessionTTL = 30 * 24 * time.Hour

// Session assigns every visitor a session: a UUID cookie that becomes
// the owner key for all their records, plus a resolved language.
// Switching languages is a ?lang= query parameter, persisted in its
// own cookie.
func Session(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					sessionID = cookie.Value
				}
			}
			if sessionID == "" {
				sessionID = uuid.New().String()
			}
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(SessionTTL.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			lang := resolveLang(r)
			if r.URL.Query().Get("lang") != "" {
				http.SetCookie(w, &http.Cookie{
					Name:     LangCookie,
					Value:    lang,
					Path:     "/",
					MaxAge:   int(SessionTTL.Seconds()),
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := auth.ContextWithSession(r.Context(), &auth.Session{
				SessionID: sessionID,
				Lang:      lang,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveLang picks the display language: explicit query parameter,
// then the language cookie, then the Accept-Language header.
func resolveLang(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return i18n.Normalize(lang)
	}
	if cookie, err := r.Cookie(LangCookie); err == nil && cookie.Value != "" {
		return i18n.Normalize(cookie.Value)
	}
	header := r.Header.Get("Accept-Language")
	if header != "" {
		primary, _, _ := strings.Cut(header, ",")
		primary, _, _ = strings.Cut(strings.TrimSpace(primary), "-")
		return i18n.Normalize(primary)
	}
	return i18n.LangEnglish
}
