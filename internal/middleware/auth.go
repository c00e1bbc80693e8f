package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	RoleCandidate = "candidate"
	RoleAdmin     = "admin"

	candidateKey = "candidate"
	roleKey      = "role"
)

// Claims are issued by the identity service; sub carries the candidate id.
type Claims struct {
	InstitutionID uint   `json:"institution_id"`
	Role          string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies the HS256 bearer token and stores the caller in the gin context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			log.Error().Msg("Auth: JWT secret is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Authentication is not configured"})
			return
		}

		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: err.Error()})
			return
		}

		claims := &Claims{}
		_, err = jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			log.Warn().Err(err).Str("path", c.FullPath()).Msg("Auth: rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid or expired token"})
			return
		}

		id, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Token has no candidate id"})
			return
		}
		role := claims.Role
		if role == "" {
			role = RoleCandidate
		}

		c.Set(candidateKey, service.Candidate{ID: uint(id), InstitutionID: claims.InstitutionID})
		c.Set(roleKey, role)
		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(roleKey) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Message: "Admin role required"})
			return
		}
		c.Next()
	}
}

// CandidateFrom returns the caller stored by Auth.
func CandidateFrom(c *gin.Context) (service.Candidate, bool) {
	v, ok := c.Get(candidateKey)
	if !ok {
		return service.Candidate{}, false
	}
	candidate, ok := v.(service.Candidate)
	return candidate, ok
}

func bearerToken(header string) (string, error) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return "", fmt.Errorf("missing bearer token")
	}
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", fmt.Errorf("invalid authorization header")
	}
	return fields[1], nil
}
