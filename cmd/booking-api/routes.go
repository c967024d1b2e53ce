package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/crew-booking-api/api/swagger"
	"github.com/noah-isme/crew-booking-api/internal/handler"
	"github.com/noah-isme/crew-booking-api/internal/middleware"
	"github.com/noah-isme/crew-booking-api/pkg/config"
)

type handlers struct {
	assignments   *handler.AssignmentHandler
	excluded      *handler.ExcludedDateHandler
	conflicts     *handler.ConflictHandler
	gantt         *handler.GanttHandler
	calendar      *handler.CalendarHandler
	confirmations *handler.ConfirmationHandler
	metrics       *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h handlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.RequestTimeout(cfg.Database.QueryTimeout))

	assignments := api.Group("/assignments")
	assignments.POST("", h.assignments.Create)
	assignments.POST("/bulk-status", h.assignments.BulkStatus)
	assignments.GET("/:id", h.assignments.Get)
	assignments.DELETE("/:id", h.assignments.Delete)
	assignments.POST("/:id/cycle-status", h.assignments.CycleStatus)
	assignments.POST("/:id/days", h.assignments.AddDays)
	assignments.POST("/:id/excluded-dates", h.excluded.Add)

	days := api.Group("/assignment-days")
	days.POST("/remove", h.assignments.RemoveDays)
	days.PATCH("/:dayId", h.assignments.UpdateDay)
	days.POST("/:dayId/move", h.assignments.MoveDay)

	excluded := api.Group("/excluded-dates")
	excluded.POST("/bulk-remove", h.excluded.BulkRemove)
	excluded.DELETE("/:id", h.excluded.Remove)

	api.GET("/conflicts", h.conflicts.List)
	api.POST("/conflicts/:id/override", h.conflicts.Override)

	api.GET("/gantt", h.gantt.Get)
	api.GET("/gantt/export", h.gantt.Export)

	users := api.Group("/users/:userId")
	users.GET("/calendar-connections", h.calendar.ListConnections)
	users.POST("/calendar-sync", h.calendar.FullSync)
	users.POST("/calendar-sync/assignments/:id/retry", h.calendar.Retry)
	users.GET("/calendar-sync/errors", h.calendar.Errors)

	api.GET("/calendar/oauth/:provider/authorize", h.calendar.Authorize)
	api.GET("/calendar/oauth/:provider/callback", h.calendar.Callback)
	api.DELETE("/calendar-connections/:id", h.calendar.Disconnect)
	api.DELETE("/calendar-sync/errors/:id", h.calendar.DismissError)

	api.POST("/confirmations", h.confirmations.Create)
	api.POST("/confirmations/respond", h.confirmations.Respond)
}
