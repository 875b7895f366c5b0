package handlers

import (
	"net/http"

	"laundry_manager/internal/middleware"
	"laundry_manager/internal/models"
	"laundry_manager/internal/statemachine"

	"github.com/gin-gonic/gin"
)

type Router struct {
	Auth        *AuthHandler
	Orders      *OrderHandler
	Frequencies *FrequencyHandler
	Users       *UserHandler
}

func (rt Router) Setup(r *gin.Engine, auth *middleware.Auth) {
	staff := middleware.RoleRequired(models.RoleOwner, models.RoleAdmin)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", rt.Auth.Register)
		public.POST("/auth/login", rt.Auth.Login)
		public.GET("/delivery-states", deliveryStates)
	}

	// ── Authenticated routes ───────────────────────────────────────
	api := r.Group("/api")
	api.Use(auth.AuthRequired())
	{
		api.GET("/profile", rt.Auth.Me)
		api.PUT("/users/:id", rt.Users.UpdateUser)

		api.GET("/notifications", rt.Users.ListNotifications)
		api.PUT("/notifications/:id/read", rt.Users.MarkNotificationRead)
		api.PUT("/notifications/read-all", rt.Users.MarkAllNotificationsRead)

		api.GET("/frequency-templates", rt.Frequencies.List)
		api.GET("/frequency-templates/:id", rt.Frequencies.Get)

		api.POST("/orders", rt.Orders.CreateOrder)
		api.GET("/orders", rt.Orders.ListOrders)
		api.GET("/orders/recurring", rt.Orders.ListRecurringOrders)
		api.GET("/orders/:id", rt.Orders.GetOrder)
		api.PUT("/orders/:id", rt.Orders.UpdateOrder)
		api.PUT("/orders/:id/cancel", rt.Orders.CancelOrder)
		api.POST("/orders/:id/edit-request", rt.Orders.SubmitEditRequest)
		api.POST("/orders/:id/modifications", rt.Orders.ProposeModification)
		api.PUT("/orders/:id/delivery-status", rt.Orders.UpdateDeliveryStatus)
	}

	// ── Staff routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(auth.AuthRequired(), staff)
	{
		admin.POST("/users", rt.Users.CreateUser)
		admin.GET("/users", rt.Users.ListUsers)
		admin.GET("/users/:id", rt.Users.GetUser)

		admin.POST("/frequency-templates", rt.Frequencies.Create)
		admin.PUT("/frequency-templates/:id", rt.Frequencies.Update)
		admin.DELETE("/frequency-templates/:id", rt.Frequencies.Delete)

		admin.GET("/orders/edit-requests", rt.Orders.ListPendingEditRequests)
		admin.PUT("/orders/:id/edit-request/review", rt.Orders.ReviewEditRequest)
		admin.PUT("/orders/:id/modifications/approve", rt.Orders.ApproveModification)
		admin.PUT("/orders/:id/modifications/reject", rt.Orders.RejectModification)
		admin.DELETE("/orders/:id/pending", rt.Orders.ClearPendingApproval)
		admin.PUT("/orders/:id/lock", rt.Orders.LockOrder)
		admin.PUT("/orders/:id/unlock", rt.Orders.UnlockOrder)
		admin.PUT("/orders/:id/driver", rt.Orders.AssignDriver)
		admin.DELETE("/orders/:id/driver", rt.Orders.UnassignDriver)
		admin.PUT("/orders/:id/recalculate", rt.Orders.RecalculateTotal)
		admin.PUT("/orders/:id/cancel-recurring", rt.Orders.CancelRecurringOrder)
		admin.DELETE("/orders/:id", rt.Orders.PurgeOrder)
	}
}

func deliveryStates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"transitions": statemachine.GetAllTransitions()})
}
