package handlers

import (
	"net/http"

	"railbook/internal/domain/models"
	"railbook/internal/http/middleware"
	"railbook/internal/repositories"
	"railbook/internal/services"
	"railbook/internal/utils"

	"github.com/gin-gonic/gin"
)

func bookingService(c *gin.Context) services.BookingService {
	return services.BookingService{
		Schedules: repositories.ScheduleRepository{},
		Store:     repositories.BookingRepository{},
		RequestID: middleware.GetRequestID(c),
	}
}

type createBookingRequest struct {
	ScheduleID     int64                   `json:"schedule_id"`
	ClassID        int64                   `json:"class_id"`
	FromCode       string                  `json:"from_station_code"`
	ToCode         string                  `json:"to_station_code"`
	Passengers     []models.PassengerInput `json:"passengers"`
	IdempotencyKey string                  `json:"idempotency_key"`
}

// POST /api/bookings
func CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	// Header wins over body so proxies can inject the key uniformly.
	key := utils.TrimOrEmpty(c.GetHeader("Idempotency-Key"))
	if key == "" {
		key = utils.TrimOrEmpty(req.IdempotencyKey)
	}

	booking, err := bookingService(c).Book(c.Request.Context(), models.BookingRequest{
		UserID:         middleware.GetUserID(c),
		ScheduleID:     req.ScheduleID,
		ClassID:        req.ClassID,
		FromCode:       utils.NormalizeStationCode(req.FromCode),
		ToCode:         utils.NormalizeStationCode(req.ToCode),
		Passengers:     req.Passengers,
		IdempotencyKey: key,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// GET /api/bookings
func GetBookings(c *gin.Context) {
	bookings, err := bookingService(c).History(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// POST /api/bookings/:pnr/cancel
func CancelBooking(c *gin.Context) {
	booking, err := bookingService(c).Cancel(c.Request.Context(), c.Param("pnr"), middleware.GetUserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
