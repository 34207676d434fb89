package api

import (
	"log"
	stdhttp "net/http"
	"time"

	intconfig "railbook/internal/config"
	h "railbook/internal/http/handlers"
	"railbook/internal/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	h.Configure(env)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     env.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin", "Idempotency-Key", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		// Public catalog and enquiry
		api.GET("/stations", h.ListStations)
		api.POST("/trains/search", h.SearchTrains)
		api.GET("/trains/:number/classes", h.ListTrainClasses)
		api.GET("/trains/:number/route", h.GetTrainRoute)
		api.GET("/schedules/:id/availability", h.GetAvailability)
		api.GET("/pnr/:pnr", h.GetPNRStatus)

		auth := api.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)

		// Everything below needs a signed-in user.
		authed := api.Group("")
		authed.Use(middleware.RequireAuth(env.JWTSecret))

		users := authed.Group("/users")
		users.GET("/me", h.Me)
		users.PUT("/me", h.UpdateMe)

		bookings := authed.Group("/bookings")
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.GetBookings)
		bookings.POST("/:pnr/cancel", h.CancelBooking)
		bookings.GET("/:pnr/e-ticket", h.GetETicketPDF)

		drafts := authed.Group("/drafts")
		drafts.POST("", h.StartDraft)
		drafts.GET("/:token", h.GetDraft)
		drafts.POST("/:token/select", h.SelectDraftTrain)
		drafts.POST("/:token/passengers", h.EnterDraftPassengers)
		drafts.POST("/:token/pay", h.PayDraft)
	}

	return r
}
