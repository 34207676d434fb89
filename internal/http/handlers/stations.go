package handlers

import (
	"net/http"

	"railbook/internal/repositories"

	"github.com/gin-gonic/gin"
)

// GET /api/stations
func ListStations(c *gin.Context) {
	repo := repositories.StationRepository{}
	stations, err := repo.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stations": stations})
}
