package routes

import (
	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/entity"
	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Users        *DefaultUserRoute
	Properties   *DefaultPropertyRoute
	Payments     *DefaultPaymentRoute
	Availability *DefaultAvailabilityRoute
	Appointments *DefaultAppointmentRoute
	Auctions     *DefaultAuctionRoute
	Purchases    *DefaultPurchaseRoute
	Messages     *DefaultMessageRoute
	Health       *DefaultHealthRoute
	LiveFeed     echo.HandlerFunc
	Metrics      echo.HandlerFunc
}

// Register mounts every route on e. authn must resolve the caller into an
// auth.Principal.
func Register(e *echo.Echo, h *Handlers, authn echo.MiddlewareFunc) {
	admin := auth.RequireRole(entity.RoleAdmin)
	lister := auth.RequireRole(entity.RoleAgent, entity.RoleAdmin)

	// Ops
	e.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		e.GET("/metrics", h.Metrics)
	}

	// Users
	e.POST("/api/users", h.Users.CreateUser)
	e.POST("/api/users/verify", h.Users.VerifySignup)
	e.POST("/api/users/login", h.Users.CreateLogin)
	e.GET("/api/users", h.Users.GetUsers, authn, admin)
	e.GET("/api/users/:id", h.Users.GetUser, authn)
	e.PUT("/api/users/:id/role", h.Users.UpdateRole, authn, admin)

	// Properties
	e.GET("/api/properties", h.Properties.ListProperties)
	e.GET("/api/properties/:id", h.Properties.GetProperty)
	e.POST("/api/properties", h.Properties.CreateProperty, authn, lister)

	// Payment instruments
	e.GET("/api/payment-methods", h.Payments.ListPaymentMethods, authn)
	e.POST("/api/payment-methods", h.Payments.AddPaymentMethod, authn)

	// Agent availability
	e.GET("/api/agents/:id/availability", h.Availability.GetAvailability)
	e.PUT("/api/agents/:id/availability", h.Availability.SetWeeklyAvailability, authn, lister)
	e.POST("/api/agents/:id/blocks", h.Availability.AddBlock, authn, lister)
	e.DELETE("/api/agents/:id/blocks/:blockId", h.Availability.RemoveBlock, authn, lister)
	e.GET("/api/agents/:id/slots", h.Availability.GetSlots)

	// Appointments
	e.GET("/api/appointments", h.Appointments.GetAppointments, authn)
	e.POST("/api/appointments", h.Appointments.CreateAppointment, authn)
	e.POST("/api/appointments/:id/cancel", h.Appointments.CancelAppointment, authn)
	e.POST("/api/appointments/:id/complete", h.Appointments.CompleteAppointment, authn)

	// Auctions
	e.GET("/api/auctions", h.Auctions.ListAuctions)
	e.GET("/api/auctions/:id", h.Auctions.GetAuction)
	e.POST("/api/auctions", h.Auctions.CreateAuction, authn, admin)
	e.GET("/api/auctions/:id/bids", h.Auctions.GetBids)
	e.POST("/api/auctions/:id/bids", h.Auctions.PlaceBid, authn)
	e.POST("/api/auctions/:id/end", h.Auctions.EndAuction, authn, admin)
	e.POST("/api/auctions/:id/cancel", h.Auctions.CancelAuction, authn, admin)
	e.POST("/api/auctions/:id/extend", h.Auctions.ExtendAuction, authn, admin)
	if h.LiveFeed != nil {
		e.GET("/ws/auctions/:id", h.LiveFeed)
	}

	// Purchases
	e.GET("/api/purchases", h.Purchases.GetPurchases, authn)
	e.POST("/api/purchases/:id/payment", h.Purchases.CompletePayment, authn)

	// Messages
	e.GET("/api/messages", h.Messages.GetMessages, authn)
	e.POST("/api/messages", h.Messages.SendMessage, authn)
	e.POST("/api/messages/:id/read", h.Messages.MarkRead, authn)
}
