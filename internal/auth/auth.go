package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/golang-jwt/jwt/v5"
)

const RoleChef = "chef"

// Claims carried in the dashboard token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and validates dashboard tokens. The restaurant runs with a
// single shared chef credential, so there is no user store behind it.
type Service struct {
	secret []byte
	logger apt.Logger
}

func NewService(secret string, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{
		secret: []byte(secret),
		logger: logger,
	}
}

// GenerateToken creates a signed JWT for the chef dashboard
func (s *Service) GenerateToken(email string) (string, error) {
	claims := Claims{
		Email: email,
		Role:  RoleChef,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a token string and returns its claims.
func (s *Service) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// ChefOnly validates the bearer token and enforces the chef role.
func (s *Service) ChefOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			apt.RespondError(w, http.StatusUnauthorized, "Authorization header required (Bearer <token>)")
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := s.ParseToken(tokenStr)
		if err != nil {
			s.logger.Debug("token rejected", "error", err)
			apt.RespondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if claims.Role != RoleChef {
			apt.RespondError(w, http.StatusForbidden, "Chef access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
