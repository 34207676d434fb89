package handlers

import (
	"net/http"

	"railbook/internal/http/middleware"
	"railbook/internal/repositories"
	"railbook/internal/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/users/me
func Me(c *gin.Context) {
	repo := repositories.UserRepository{}
	user, err := repo.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PUT /api/users/me
func UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.Name = utils.NormalizeSpace(req.Name)
	if len(req.Name) < 2 {
		RespondError(c, http.StatusBadRequest, "name must be at least 2 characters", nil)
		return
	}

	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)
	repo := repositories.UserRepository{}
	if err := repo.UpdateProfile(ctx, userID, req.Name, utils.TrimOrEmpty(req.Phone)); err != nil {
		RespondDomainError(c, err)
		return
	}
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
