package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	errors "github.com/frahmantamala/iyzipay-checkout/internal"
)

// Service is the main auth service with dependencies
type Service struct {
	customers      CustomerRepository
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
	now            func() time.Time
}

// NewService creates a new auth service
func NewService(customers CustomerRepository, tokenGen TokenGenerator, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		customers:      customers,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         slog.Default(),
		now:            time.Now,
	}
}

func (s *Service) WithLogger(lg *slog.Logger) *Service {
	if lg != nil {
		s.logger = lg
	}
	return s
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO, ip string) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	customer, err := s.customers.FindCustomerByEmail(ctx, strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to load customer", err)
	}
	if customer == nil {
		return AuthTokens{}, errors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, errors.ErrInvalidCredentials
	}
	if !customer.IsActive {
		return AuthTokens{}, errors.ErrCustomerInactive
	}

	if err := s.customers.RecordLogin(ctx, customer.ID, ip, s.now().UTC()); err != nil {
		s.logger.Warn("failed to record login", "customer_id", customer.ID, "error", err)
	}

	return s.issue(PrincipalFromCustomer(customer))
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, err
	}

	customer, err := s.customers.FindCustomerByID(ctx, claims.CustomerID)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to load customer", err)
	}
	if customer == nil {
		return AuthTokens{}, errors.ErrInvalidToken
	}
	if !customer.IsActive {
		return AuthTokens{}, errors.ErrCustomerInactive
	}

	return s.issue(PrincipalFromCustomer(customer))
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString, TokenTypeAccess)
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) issue(p Principal) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(p)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to issue access token", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(p)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to issue refresh token", err)
	}

	tokens := AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}
	if gen, ok := s.tokenGenerator.(*JWTTokenGenerator); ok {
		tokens.ExpiresAt = s.now().Add(gen.AccessTokenTTL).UTC()
	}
	return tokens, nil
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(p Principal) (string, error) {
	return j.sign(p, TokenTypeAccess, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(p Principal) (string, error) {
	return j.sign(p, TokenTypeRefresh, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(p Principal, tokenType string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		CustomerID: p.CustomerID,
		StoreID:    p.StoreID,
		Email:      p.Email,
		Admin:      p.IsAdmin,
		TokenType:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(p.CustomerID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken checks signature, expiry and token type.
func (j *JWTTokenGenerator) ValidateToken(tokenString, tokenType string) (*Claims, error) {
	secret := j.AccessTokenSecret
	if tokenType == TokenTypeRefresh {
		secret = j.RefreshTokenSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
