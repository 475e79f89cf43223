package middleware

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/smart-student-hub/internal/models"
	"github.com/noah-isme/smart-student-hub/internal/utils"
)

// Fiber locals populated for authenticated requests.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

var (
	errMissingSubject = errors.New("token subject missing")
	errUnknownRole    = errors.New("token role not recognised")
)

// AccessClaims is the campus access token. The subject is the numeric user id;
// older tokens carry it as user_id instead. Role may also arrive as a roles list,
// in which case the first recognised role wins.
type AccessClaims struct {
	UserID json.Number `json:"user_id,omitempty"`
	Role   string      `json:"role,omitempty"`
	Roles  []string    `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Principal resolves the user id and role the token speaks for.
func (c AccessClaims) Principal() (uint, string, error) {
	raw := strings.TrimSpace(c.Subject)
	if raw == "" {
		raw = c.UserID.String()
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, "", errMissingSubject
	}

	for _, candidate := range append([]string{c.Role}, c.Roles...) {
		if role := canonicalRole(candidate); role != "" {
			return uint(id), role, nil
		}
	}
	return 0, "", errUnknownRole
}

func canonicalRole(value string) string {
	switch role := strings.ToLower(strings.TrimSpace(value)); role {
	case models.RoleStudent, models.RoleFaculty, models.RoleAdmin:
		return role
	default:
		return ""
	}
}

// JWTProtected validates HMAC bearer tokens and stores the principal in locals.
// Tokens without a subject or a student, faculty or admin role are refused.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}

	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		scheme, tokenString, found := strings.Cut(authorization, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}
		tokenString = strings.TrimSpace(tokenString)
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		var claims AccessClaims
		if _, err := parser.ParseWithClaims(tokenString, &claims, keyFunc); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, role, err := claims.Principal()
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserRole, role)

		return c.Next()
	}
}
