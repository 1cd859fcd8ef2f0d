package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/service"
	"github.com/Freeeeeet/room_booking/internal/storage"
)

// Handler serves the REST API over the services
type Handler struct {
	accounts   *service.AccountService
	rooms      *service.RoomService
	facilities *service.FacilityService
	bookings   *service.BookingService
	loc        *time.Location
	logger     *zap.Logger
}

func NewHandler(
	accounts *service.AccountService,
	rooms *service.RoomService,
	facilities *service.FacilityService,
	bookings *service.BookingService,
	loc *time.Location,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		accounts:   accounts,
		rooms:      rooms,
		facilities: facilities,
		bookings:   bookings,
		loc:        loc,
		logger:     logger,
	}
}

type RouterConfig struct {
	CORSOrigins []string
	JWTSecret   string
	// UploadDir is served under /uploads when room images are stored locally
	UploadDir string
}

func NewRouter(cfg RouterConfig, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.logger))

	allowCredentials := true
	for _, origin := range cfg.CORSOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.UploadDir != "" {
		r.Static(strings.TrimSuffix(storage.LocalURLPrefix, "/"), cfg.UploadDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", Auth(cfg.JWTSecret, h.accounts, h.logger))
	admin := AdminOnly()

	api.GET("/me", h.GetMe)
	api.PATCH("/me/telegram", h.LinkTelegram)
	api.DELETE("/me/telegram", h.UnlinkTelegram)

	accounts := api.Group("/accounts", admin)
	{
		accounts.GET("", h.ListAccounts)
		accounts.PATCH("/:id/role", h.SetAccountRole)
	}

	rooms := api.Group("/rooms")
	{
		rooms.GET("", h.ListRooms)
		rooms.POST("", admin, h.CreateRoom)
		rooms.GET("/:id", h.GetRoom)
		rooms.PUT("/:id", admin, h.UpdateRoom)
		rooms.DELETE("/:id", admin, h.DeleteRoom)
		rooms.POST("/:id/image", admin, h.UploadRoomImage)
		rooms.GET("/:id/availability", h.RoomAvailability)
		rooms.GET("/:id/authorizations", h.ListAuthorizations)
		rooms.PUT("/:id/authorizations/:role", admin, h.SetAuthorization)
		rooms.DELETE("/:id/authorizations/:role", admin, h.DeleteAuthorization)
		rooms.PUT("/:id/facilities", admin, h.SetRoomFacilities)
	}

	facilities := api.Group("/facilities")
	{
		facilities.GET("", h.ListFacilities)
		facilities.POST("", admin, h.CreateFacility)
		facilities.DELETE("/:id", admin, h.DeleteFacility)
	}

	bookings := api.Group("/bookings")
	{
		bookings.GET("", admin, h.ListBookings)
		bookings.POST("", h.CreateBooking)
		// must stay ahead of /:id
		bookings.GET("/mine", h.ListMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/approve", admin, h.ApproveBooking)
		bookings.POST("/:id/reject", admin, h.RejectBooking)
		bookings.POST("/:id/resubmit", h.ResubmitBooking)
		bookings.POST("/:id/discard", h.DiscardBooking)
	}

	return r
}
