package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/transport"
	"github.com/frahmantamala/iyzipay-checkout/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service      ServiceAPI
	SecureCookie bool
}

func NewHandler(svc ServiceAPI, secureCookie bool) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler:  transport.NewBaseHandler(lg),
		Service:      svc,
		SecureCookie: secureCookie,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto, transport.ClientIP(r))
	if err != nil {
		h.Logger.Warn("authentication failed", "email", dto.Email, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.setAccessCookie(w, tokens)
	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Warn("token refresh failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.setAccessCookie(w, tokens)
	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
	})
	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware rejects requests without a valid access token.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.requestToken(r)
		if token == "" {
			h.HandleError(w, errors.NewUnauthorizedError("missing authorization token", errors.ErrCodeInvalidToken))
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		p := claims.Principal()
		ctx := ContextWithPrincipal(r.Context(), p)
		ctx = logger.With(ctx, "customer_id", p.CustomerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the principal when a valid token is present and
// otherwise lets the request through anonymously. The gateway callback
// lands here without an Authorization header.
func (h *Handler) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.requestToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Debug("ignoring invalid token on optional auth route", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		ctx := ContextWithPrincipal(r.Context(), claims.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after AuthMiddleware.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
			return
		}
		if !p.IsAdmin {
			h.Logger.Warn("access denied: admin required", "customer_id", p.CustomerID)
			h.HandleError(w, errors.NewForbiddenError("admin access required", errors.ErrCodeUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) requestToken(r *http.Request) string {
	if token := h.ExtractTokenFromHeader(r); token != "" {
		return token
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func (h *Handler) setAccessCookie(w http.ResponseWriter, tokens AuthTokens) {
	cookie := &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if h.SecureCookie {
		// the gateway posts back cross-site
		cookie.SameSite = http.SameSiteNoneMode
	}
	if !tokens.ExpiresAt.IsZero() {
		cookie.Expires = tokens.ExpiresAt
	}
	http.SetCookie(w, cookie)
}
