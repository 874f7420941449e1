package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/cart"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	// AccessTokenCookie carries the access token across the gateway redirect,
	// where no Authorization header is sent.
	AccessTokenCookie = "access_token"
)

// Principal is the authenticated customer attached to a request.
type Principal struct {
	CustomerID int64  `json:"customer_id"`
	StoreID    int64  `json:"store_id"`
	Email      string `json:"email"`
	IsAdmin    bool   `json:"is_admin"`
}

// CustomerRepository is what the auth service needs from customer storage.
type CustomerRepository interface {
	FindCustomerByEmail(ctx context.Context, email string) (*cart.Customer, error)
	FindCustomerByID(ctx context.Context, id int64) (*cart.Customer, error)
	RecordLogin(ctx context.Context, customerID int64, ip string, at time.Time) error
}

type TokenGenerator interface {
	GenerateAccessToken(p Principal) (string, error)
	GenerateRefreshToken(p Principal) (string, error)
	ValidateToken(tokenString, tokenType string) (*Claims, error)
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO, ip string) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Claims represents JWT token claims
type Claims struct {
	CustomerID int64  `json:"customer_id"`
	StoreID    int64  `json:"store_id"`
	Email      string `json:"email"`
	Admin      bool   `json:"admin,omitempty"`
	TokenType  string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() Principal {
	return Principal{
		CustomerID: c.CustomerID,
		StoreID:    c.StoreID,
		Email:      c.Email,
		IsAdmin:    c.Admin,
	}
}

func PrincipalFromCustomer(c *cart.Customer) Principal {
	return Principal{
		CustomerID: c.ID,
		StoreID:    c.StoreID,
		Email:      c.Email,
		IsAdmin:    c.IsAdmin,
	}
}

type principalKey struct{}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
