package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/conformeahq/conformea/pkg/config"
	"github.com/conformeahq/conformea/pkg/logger"
	"github.com/conformeahq/conformea/pkg/models"
)

// ContextKey is a custom type for context keys.
type ContextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey ContextKey = "user"
	// ClaimsContextKey is the context key for the raw token claims.
	ClaimsContextKey ContextKey = "claims"
)

// Claims are the JWT claims issued by the Conformea identity service.
type Claims struct {
	jwt.RegisteredClaims
	OrgID string `json:"org_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Auth returns a middleware that validates HS256 bearer tokens.
func Auth(cfg config.AuthConfig, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" && !cfg.DevMode {
				http.Error(w, `{"error": "missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			var user *models.User

			if cfg.DevMode {
				// Development mode - create mock user
				log.Debug("auth middleware running in dev mode")
				user = &models.User{
					ID:    uuid.MustParse("00000000-0000-0000-0000-000000000001"),
					OrgID: uuid.MustParse("00000000-0000-0000-0000-0000000000aa"),
					Email: "dev@example.com",
					Name:  "Development User",
					Role:  models.RoleAdmin,
				}
			} else {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
					http.Error(w, `{"error": "invalid authorization header format"}`, http.StatusUnauthorized)
					return
				}

				claims, err := verifyToken(parts[1], cfg)
				if err != nil {
					log.Warn("JWT verification failed", "error", err)
					http.Error(w, `{"error": "invalid or expired token"}`, http.StatusUnauthorized)
					return
				}

				user, err = userFromClaims(claims)
				if err != nil {
					log.Warn("token claims rejected", "error", err)
					http.Error(w, `{"error": "invalid token claims"}`, http.StatusUnauthorized)
					return
				}

				// Store raw claims in context for later use
				r = r.WithContext(context.WithValue(r.Context(), ClaimsContextKey, claims))

				log.Debug("authenticated user",
					"user_id", claims.Subject,
					"email", claims.Email,
					"org_id", claims.OrgID,
					"role", claims.Role,
				)
			}

			// Add user to context
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			ctx = context.WithValue(ctx, logger.UserIDKey, user.ID.String())
			ctx = context.WithValue(ctx, logger.OrgIDKey, user.OrgID.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyToken(token string, cfg config.AuthConfig) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

func userFromClaims(claims *Claims) (*models.User, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	orgID, err := uuid.Parse(claims.OrgID)
	if err != nil {
		return nil, fmt.Errorf("invalid org_id: %w", err)
	}

	role := models.Role(claims.Role)
	switch role {
	case models.RoleAdmin, models.RoleRSSI, models.RoleContributor, models.RoleViewer:
	default:
		role = models.RoleViewer
	}

	return &models.User{
		ID:    userID,
		OrgID: orgID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  role,
	}, nil
}

// GetUser retrieves the authenticated user from the context.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// GetClaims retrieves the raw token claims from the context.
func GetClaims(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(ClaimsContextKey).(*Claims); ok {
		return claims
	}
	return nil
}

// RequireRole returns middleware that checks if the user has at least
// the required role.
func RequireRole(required models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}

			if !user.Role.AtLeast(required) {
				http.Error(w, `{"error": "forbidden"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
