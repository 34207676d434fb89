package handlers

import (
	"net/http"

	"railbook/internal/http/middleware"
	"railbook/internal/repositories"
	"railbook/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/bookings/:pnr/e-ticket
func GetETicketPDF(c *gin.Context) {
	svc := services.DocsService{
		Bookings:  repositories.BookingRepository{},
		RequestID: middleware.GetRequestID(c),
	}
	pdfBytes, filename, err := svc.GenerateETicket(c.Request.Context(), c.Param("pnr"), middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
