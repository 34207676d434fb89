package handlers

import (
	"net/http"

	"railbook/internal/domain/models"
	"railbook/internal/http/middleware"
	"railbook/internal/repositories"
	"railbook/internal/services"

	"github.com/gin-gonic/gin"
)

func draftService(c *gin.Context) services.DraftService {
	return services.DraftService{
		Drafts:       repositories.DraftRepository{},
		Stations:     repositories.StationRepository{},
		Schedules:    repositories.ScheduleRepository{},
		Availability: repositories.AvailabilityRepository{},
		Booking:      bookingService(c),
		TTL:          env.DraftTTL,
		RequestID:    middleware.GetRequestID(c),
	}
}

// loadOwnedDraft rejects tokens belonging to another user before any state
// transition runs.
func loadOwnedDraft(c *gin.Context) (models.BookingDraft, bool) {
	d, err := draftService(c).Get(c.Request.Context(), c.Param("token"))
	if err != nil {
		RespondDomainError(c, err)
		return models.BookingDraft{}, false
	}
	if d.UserID != middleware.GetUserID(c) {
		respondError(c, http.StatusNotFound, "not_found", "draft not found", nil)
		return models.BookingDraft{}, false
	}
	return d, true
}

type startDraftRequest struct {
	FromCode    string `json:"from_station_code"`
	ToCode      string `json:"to_station_code"`
	JourneyDate string `json:"journey_date"`
}

// POST /api/drafts
func StartDraft(c *gin.Context) {
	var req startDraftRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	d, err := draftService(c).Start(c.Request.Context(), middleware.GetUserID(c), req.FromCode, req.ToCode, req.JourneyDate)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"draft": d})
}

// GET /api/drafts/:token
func GetDraft(c *gin.Context) {
	d, ok := loadOwnedDraft(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": d})
}

type selectDraftRequest struct {
	ScheduleID     int64 `json:"schedule_id"`
	ClassID        int64 `json:"class_id"`
	PassengerCount int   `json:"passenger_count"`
}

// POST /api/drafts/:token/select
func SelectDraftTrain(c *gin.Context) {
	if _, ok := loadOwnedDraft(c); !ok {
		return
	}
	var req selectDraftRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	d, err := draftService(c).Select(c.Request.Context(), c.Param("token"), req.ScheduleID, req.ClassID, req.PassengerCount)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": d})
}

type draftPassengersRequest struct {
	Passengers []models.PassengerInput `json:"passengers"`
}

// POST /api/drafts/:token/passengers
func EnterDraftPassengers(c *gin.Context) {
	if _, ok := loadOwnedDraft(c); !ok {
		return
	}
	var req draftPassengersRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	d, err := draftService(c).EnterPassengers(c.Request.Context(), c.Param("token"), req.Passengers)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": d})
}

// POST /api/drafts/:token/pay
func PayDraft(c *gin.Context) {
	if _, ok := loadOwnedDraft(c); !ok {
		return
	}
	booking, err := draftService(c).Pay(c.Request.Context(), c.Param("token"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}
