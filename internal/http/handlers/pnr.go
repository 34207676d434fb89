package handlers

import (
	"net/http"

	"railbook/internal/http/middleware"
	"railbook/internal/repositories"
	"railbook/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/pnr/:pnr
//
// PNR status is public: the PNR itself is the credential, the same way the
// railway enquiry counters treat it.
func GetPNRStatus(c *gin.Context) {
	svc := services.PNRService{
		Store:     repositories.BookingRepository{},
		RequestID: middleware.GetRequestID(c),
	}
	booking, err := svc.Lookup(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
