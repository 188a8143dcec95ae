// Package gateway implements the HTTP boundary of the SSO bridge: session
// token issuance and the login surface that feeds the reconciliation chain.
package gateway

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// JWTAuth issues and verifies HS256 session tokens for authenticated
// principals.
type JWTAuth struct {
	Key          []byte
	SessionHours int
}

// TokenClaims is the session claim set: the local login plus the flat
// authority names resolved at authentication time.
type TokenClaims struct {
	Login       string   `json:"login"`
	Authorities []string `json:"authorities"`
	jwt.StandardClaims
}

// GenerateSecretKey generates a secret key for jwt signing.
func GenerateSecretKey(n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateJWT signs a session token for the given principal.
func (j *JWTAuth) GenerateJWT(login string, authorities []string) (string, error) {
	if len(j.Key) == 0 {
		return "", errors.New("empty jwt key")
	}
	hours := j.SessionHours
	if hours <= 0 {
		hours = 3
	}
	claims := TokenClaims{
		Login:       login,
		Authorities: authorities,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(time.Duration(hours) * time.Hour).Unix(),
			Issuer:    "ssobridge",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Key)
}

// VerifyJWT validates a session token and returns its claims.
func (j *JWTAuth) VerifyJWT(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// AuthMiddleware guards endpoints that need an established session. It puts
// the login and authorities from the token into the gin context.
func (j *JWTAuth) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "empty header was sent"})
			return
		}

		claims, err := j.VerifyJWT(h)
		if err != nil {
			if e, ok := err.(*jwt.ValidationError); ok && e.Errors&jwt.ValidationErrorExpired != 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "jwt_expired", "message": "token has expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "jwt_malformed", "message": "malformed token"})
			return
		}

		c.Set("login", claims.Login)
		c.Set("authorities", claims.Authorities)
		c.Next()
	}
}
