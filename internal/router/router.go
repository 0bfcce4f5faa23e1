package router

import (
	"net/http"

	"tourbook/config"
	"tourbook/internal/domain"
	"tourbook/internal/handler"
	"tourbook/internal/middleware"
	"tourbook/internal/repository"
	"tourbook/internal/service"
	"tourbook/internal/ws"
	"tourbook/pkg/cloudinary"
	"tourbook/pkg/lock"
	"tourbook/pkg/payment"
	"tourbook/pkg/queue"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps are the external collaborators chosen by main from configuration.
type Deps struct {
	Cloud   cloudinary.Client
	Gateway payment.Gateway
	Locker  lock.Locker
	Events  queue.Publisher
	Limiter middleware.Limiter
	Hub     *ws.Hub
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps, log *logrus.Logger) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Hub == nil {
		deps.Hub = ws.NewHub()
	}
	if deps.Limiter == nil {
		deps.Limiter = middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(log), middleware.Recovery(log))
	r.Use(middleware.RateLimit(deps.Limiter, log))

	store := repository.NewStore(db)

	// Services
	notifSvc := service.NewNotificationService(store, deps.Hub, deps.Events, log)
	bookingSvc := service.NewBookingService(store, service.NewInventoryGuard(cfg.Booking.EnforceTourCapacity), notifSvc, log)
	paymentSvc := service.NewPaymentService(cfg.Paystack, store, deps.Gateway, bookingSvc, deps.Locker, notifSvc, log)
	catalogSvc := service.NewCatalogService(store, deps.Cloud, service.NewCompensator(deps.Cloud, log), cfg.Cloudinary.Folder, log)
	authSvc := service.NewAuthService(cfg, store, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, store, log)
	bookingHandler := handler.NewBookingHandler(bookingSvc, log)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, log)
	webhookHandler := handler.NewPaymentWebhookHandler(paymentSvc, log)
	catalogHandler := handler.NewCatalogHandler(catalogSvc, log)
	notificationHandler := handler.NewNotificationHandler(notifSvc, log)
	adminHandler := handler.NewAdminHandler(store, log)

	authMw := middleware.AuthRequired(&cfg.JWT)
	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleAgent)
	admin := middleware.RequireRole(domain.RoleAdmin)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", authHandler.Me)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		bookings := api.Group("/bookings")
		bookings.Use(authMw)
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", bookingHandler.List)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.PATCH("/:id", bookingHandler.Update)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
			bookings.DELETE("/:id", admin, bookingHandler.Delete)
		}

		// the provider redirect carries no token
		api.GET("/payments/callback", paymentHandler.Callback)
		payments := api.Group("/payments")
		payments.Use(authMw)
		{
			payments.POST("", paymentHandler.Create)
			payments.GET("", paymentHandler.List)
			payments.GET("/:id", paymentHandler.Get)
			payments.PATCH("/:id/status", admin, paymentHandler.UpdateStatus)
			payments.POST("/:id/refund", admin, paymentHandler.Refund)
			payments.DELETE("/:id", admin, paymentHandler.Delete)
		}
		api.POST("/webhooks/paystack", webhookHandler.Paystack)

		api.GET("/tours", catalogHandler.ListTours)
		api.GET("/tours/:id", catalogHandler.GetTour)
		api.GET("/hotels", catalogHandler.ListHotels)
		api.GET("/hotels/:id", catalogHandler.GetHotel)
		api.GET("/hotels/:id/rooms", catalogHandler.ListRooms)
		api.GET("/rooms/:id", catalogHandler.GetRoom)
		api.GET("/flights", catalogHandler.ListFlights)
		api.GET("/flights/:id", catalogHandler.GetFlight)

		catalog := api.Group("")
		catalog.Use(authMw, staff)
		{
			catalog.POST("/tours", catalogHandler.CreateTour)
			catalog.PUT("/tours/:id", catalogHandler.UpdateTour)
			catalog.DELETE("/tours/:id", catalogHandler.DeleteTour)
			catalog.POST("/hotels", catalogHandler.CreateHotel)
			catalog.PUT("/hotels/:id", catalogHandler.UpdateHotel)
			catalog.DELETE("/hotels/:id", catalogHandler.DeleteHotel)
			catalog.POST("/hotels/:id/rooms", catalogHandler.CreateRoom)
			catalog.PUT("/rooms/:id", catalogHandler.UpdateRoom)
			catalog.DELETE("/rooms/:id", catalogHandler.DeleteRoom)
			catalog.POST("/flights", catalogHandler.CreateFlight)
			catalog.PUT("/flights/:id", catalogHandler.UpdateFlight)
			catalog.DELETE("/flights/:id", catalogHandler.DeleteFlight)
		}

		adminGroup := api.Group("/admin")
		adminGroup.Use(authMw, admin)
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/users/:id", adminHandler.GetUser)
			adminGroup.POST("/users", authHandler.CreateStaff)
			adminGroup.GET("/audit-logs", adminHandler.AuditTrail)
		}
	}

	r.GET("/ws/payments", ws.UpgradePaymentsWS(&cfg.JWT, deps.Hub, log))

	return r
}
