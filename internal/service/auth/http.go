package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avkuzmin/gymcore/internal/models"
)

const (
	accessHeaderName  = "Authorization"
	accessAuthScheme  = "Bearer"
	rotatedHeaderName = "X-Access-Token"
	refreshCookieName = "refreshToken"
)

// SetTokenPairToResponse attaches the pair to the response:
// access in the Authorization header, refresh in an HttpOnly cookie
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(accessHeaderName, accessAuthScheme+" "+pair.Access.Value)
	http.SetCookie(w, s.refreshCookie(pair.Refresh))
}

// SetRotatedPairToResponse surfaces a silently rotated pair:
// same refresh cookie, access in a dedicated header so clients can
// pick it up without re-reading Authorization
func (s *AuthService) SetRotatedPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(rotatedHeaderName, pair.Access.Value)
	http.SetCookie(w, s.refreshCookie(pair.Refresh))
}

// ClearRefreshCookie drops the refresh cookie on logout
func (s *AuthService) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.insecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetAccessString extracts the bearer access token from the request
// Empty string when absent or malformed
func (s *AuthService) GetAccessString(r *http.Request) string {
	header := r.Header.Get(accessHeaderName)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, accessAuthScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetRefreshString extracts the refresh token from the cookie
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return "", fmt.Errorf("refresh cookie not found. Err: %w", err)
	}
	return cookie.Value, nil
}

func (s *AuthService) refreshCookie(refresh models.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   !s.insecureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
