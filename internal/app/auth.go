package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const userIDKey = "user_id"

type registerReq struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// POST /api/auth/register
func (a *App) RegisterHandler(c *gin.Context) {
	var req registerReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.serverError(c, err)
		return
	}
	u := &User{Email: strings.ToLower(req.Email), Name: req.Name, PasswordHash: string(hash)}
	if err := a.CreateUser(c.Request.Context(), u); err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (a *App) LoginHandler(c *gin.Context) {
	var req loginReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := a.GetUserByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err == pgx.ErrNoRows {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	ttl := time.Duration(a.Cfg.Auth.TokenTTLMins) * time.Minute
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.Cfg.Auth.JWTSecret))
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}

// AuthMiddleware rejects unauthenticated callers and resolves the session
// user ID from the bearer token. Organisation membership is not resolved
// here; handlers re-derive it per request.
func (a *App) AuthMiddleware() gin.HandlerFunc {
	secret := []byte(a.Cfg.Auth.JWTSecret)
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return secret, nil
		}, jwt.WithLeeway(5*time.Second))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		claims := token.Claims.(*jwt.RegisteredClaims)
		if claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userIDKey, claims.Subject)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// requireOrgAccess writes a 404 and returns false unless the caller belongs
// to the organisation. Scope misses are reported as not-found rather than
// forbidden so resource IDs are not confirmed to outsiders.
func (a *App) requireOrgAccess(c *gin.Context, orgID string) bool {
	ok, err := a.IsMember(c.Request.Context(), currentUserID(c), orgID)
	if err != nil {
		a.serverError(c, err)
		return false
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return false
	}
	return true
}

// requireRoom resolves a room and checks the caller may act on it.
func (a *App) requireRoom(c *gin.Context, roomID string) (*Room, bool) {
	room, err := a.GetRoom(c.Request.Context(), roomID)
	if err == pgx.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}
	if err != nil {
		a.serverError(c, err)
		return nil, false
	}
	orgID, err := a.RoomOrganisation(c.Request.Context(), room.ID)
	if err != nil {
		a.serverError(c, err)
		return nil, false
	}
	if !a.requireOrgAccess(c, orgID) {
		return nil, false
	}
	return room, true
}

// serverError logs the cause and returns a generic 500.
func (a *App) serverError(c *gin.Context, err error) {
	a.Log.Error().Err(err).Str("path", c.FullPath()).Str("method", c.Request.Method).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
