package handlers

import (
	"net/http"
	"strings"
	"time"

	"railbook/internal/domain"
	"railbook/internal/repositories"
	"railbook/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register
func Register(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	req.Name = utils.NormalizeSpace(req.Name)
	req.Email = strings.ToLower(utils.TrimOrEmpty(req.Email))
	switch {
	case len(req.Name) < 2:
		RespondError(c, http.StatusBadRequest, "name must be at least 2 characters", nil)
		return
	case !strings.Contains(req.Email, "@"):
		RespondError(c, http.StatusBadRequest, "valid email required", nil)
		return
	case len(req.Password) < 8:
		RespondError(c, http.StatusBadRequest, "password must be at least 8 characters", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to hash password", err)
		return
	}

	repo := repositories.UserRepository{}
	user, err := repo.Create(c.Request.Context(), req.Name, req.Email, utils.TrimOrEmpty(req.Phone), string(hash))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// POST /api/auth/login
func Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.Email = strings.ToLower(utils.TrimOrEmpty(req.Email))

	repo := repositories.UserRepository{}
	user, err := repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			// Same message as a bad password so emails cannot be probed.
			respondError(c, http.StatusUnauthorized, "unauthorized", "invalid email or password", nil)
			return
		}
		RespondDomainError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "unauthorized", "invalid email or password", nil)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(env.TokenTTL).Unix(),
	})
	tokenString, err := token.SignedString([]byte(env.JWTSecret))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to sign token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": tokenString,
		"user":  user,
	})
}
