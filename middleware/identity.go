package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/at-fk/finalproject/utils"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultClientIP is used when no client address can be determined
const DefaultClientIP = "127.0.0.1"

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the claims accepted on bearer tokens
type Claims struct {
	jwt.RegisteredClaims
}

// TokenValidator defines the interface for validating bearer tokens
type TokenValidator interface {
	// ValidateToken validates a token and returns its claims
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// HMACValidator validates HS256 tokens signed with a shared secret
type HMACValidator struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

// NewHMACValidator creates a validator; an empty issuer accepts any issuer
func NewHMACValidator(secret, issuer string) *HMACValidator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &HMACValidator{
		secret: []byte(secret),
		issuer: issuer,
		parser: jwt.NewParser(opts...),
	}
}

// ValidateToken implements TokenValidator
func (v *HMACValidator) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IdentityMiddleware resolves the caller of every request
type IdentityMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewIdentityMiddleware creates a new IdentityMiddleware. A nil validator
// identifies every caller by client address.
func NewIdentityMiddleware(validator TokenValidator, logger *zap.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// CallerIdentity stores the caller in the request context. A bearer token, when
// present and a validator is configured, must be valid; otherwise the client
// address identifies the caller.
func (m *IdentityMiddleware) CallerIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		caller := Caller{ID: ClientIP(r), Source: CallerSourceIP}

		if token := extractBearerToken(r); token != "" && m.validator != nil {
			claims, err := m.validator.ValidateToken(ctx, token)
			if err != nil {
				m.logger.Warn("token validation failed",
					zap.String("request_id", requestID),
					zap.Error(err))
				_ = utils.WriteError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
				return
			}
			caller = Caller{ID: claims.Subject, Source: CallerSourceToken}
		}

		m.logger.Debug("caller identified",
			zap.String("request_id", requestID),
			zap.String("caller", caller.ID),
			zap.String("source", string(caller.Source)))

		next.ServeHTTP(w, r.WithContext(WithCaller(ctx, caller)))
	})
}

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP,
// then the remote address, then DefaultClientIP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return DefaultClientIP
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
