package handlers

import (
	"net/http"
	"strconv"

	"railbook/internal/repositories"
	"railbook/internal/utils"

	"github.com/gin-gonic/gin"
)

type trainSearchRequest struct {
	FromCode    string `json:"from_station_code"`
	ToCode      string `json:"to_station_code"`
	JourneyDate string `json:"journey_date"`
}

// POST /api/trains/search
func SearchTrains(c *gin.Context) {
	var req trainSearchRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	from := utils.NormalizeStationCode(req.FromCode)
	to := utils.NormalizeStationCode(req.ToCode)
	if from == "" || to == "" {
		RespondError(c, http.StatusBadRequest, "origin and destination station codes are required", nil)
		return
	}
	if from == to {
		RespondError(c, http.StatusBadRequest, "origin and destination must differ", nil)
		return
	}
	if _, err := utils.ParseDate(req.JourneyDate); err != nil {
		RespondError(c, http.StatusBadRequest, "journey_date must be YYYY-MM-DD", err)
		return
	}

	repo := repositories.ScheduleRepository{}
	results, err := repo.SearchTrains(c.Request.Context(), from, to, req.JourneyDate)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from_station_code": from,
		"to_station_code":   to,
		"journey_date":      req.JourneyDate,
		"trains":            results,
	})
}

// GET /api/trains/:number/classes
func ListTrainClasses(c *gin.Context) {
	number := utils.TrimOrEmpty(c.Param("number"))
	if number == "" {
		RespondError(c, http.StatusBadRequest, "train number required", nil)
		return
	}
	repo := repositories.ScheduleRepository{}
	classes, err := repo.ListClassesByTrainNumber(c.Request.Context(), number)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"train_number": number, "classes": classes})
}

// GET /api/trains/:number/route
func GetTrainRoute(c *gin.Context) {
	number := utils.TrimOrEmpty(c.Param("number"))
	if number == "" {
		RespondError(c, http.StatusBadRequest, "train number required", nil)
		return
	}
	repo := repositories.ScheduleRepository{}
	stops, err := repo.ListRoute(c.Request.Context(), number)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"train_number": number, "route": stops})
}

// GET /api/schedules/:id/availability?class_id=&from=&to=
func GetAvailability(c *gin.Context) {
	scheduleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || scheduleID <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid schedule id", err)
		return
	}
	classID, err := strconv.ParseInt(c.Query("class_id"), 10, 64)
	if err != nil || classID <= 0 {
		RespondError(c, http.StatusBadRequest, "class_id query parameter required", err)
		return
	}
	from := utils.NormalizeStationCode(c.Query("from"))
	to := utils.NormalizeStationCode(c.Query("to"))
	if from == "" || to == "" {
		RespondError(c, http.StatusBadRequest, "from and to query parameters required", nil)
		return
	}

	ctx := c.Request.Context()
	schedules := repositories.ScheduleRepository{}
	seg, err := schedules.ResolveSegment(ctx, scheduleID, from, to)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	rec, err := repositories.AvailabilityRepository{}.Get(ctx, scheduleID, classID, seg)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
