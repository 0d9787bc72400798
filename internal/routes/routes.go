package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/marisol/coachloop-api/internal/handlers"
	"github.com/marisol/coachloop-api/internal/middleware"
	"github.com/marisol/coachloop-api/internal/models"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)
	protected.Get("/users/:id", handlers.GetUserProfile)

	// User administration
	admin := middleware.RequireRole(models.RoleAdmin)
	protected.Get("/users", admin, handlers.ListUsers)
	protected.Put("/users/:id/role", admin, handlers.UpdateUserRole)
	protected.Put("/users/:id/team", admin, handlers.AssignLearnerTeam)

	// Teams
	coachOrAdmin := middleware.RequireRole(models.RoleCoach, models.RoleAdmin)
	teams := protected.Group("/teams")
	teams.Get("/", coachOrAdmin, handlers.GetTeams)
	teams.Post("/", admin, handlers.CreateTeam)
	teams.Get("/:id", coachOrAdmin, handlers.GetTeam)
	teams.Put("/:id", admin, handlers.UpdateTeam)
	teams.Delete("/:id", admin, handlers.DeleteTeam)
	teams.Get("/:id/coaches", coachOrAdmin, handlers.GetTeamCoaches)
	teams.Post("/:id/coaches", admin, handlers.AssignCoach)
	teams.Delete("/:id/coaches/:coachId", admin, handlers.RemoveCoach)

	// Reflections & the feedback pipeline
	reflections := protected.Group("/reflections")
	reflections.Post("/", middleware.RequireRole(models.RoleLearner), handlers.SubmitReflection)
	reflections.Get("/", handlers.GetReflections)
	reflections.Get("/:id", handlers.GetReflection)
	reflections.Post("/:id/feedback", coachOrAdmin, handlers.SubmitCoachFeedback)
	reflections.Post("/:id/analyze", coachOrAdmin, handlers.TriggerAnalysis)

	// Prompt templates (admin-configured analysis prompts)
	templates := protected.Group("/prompt-templates", admin)
	templates.Get("/", handlers.GetPromptTemplates)
	templates.Post("/", handlers.CreatePromptTemplate)
	templates.Put("/:id", handlers.UpdatePromptTemplate)
	templates.Delete("/:id", handlers.DeletePromptTemplate)
	templates.Post("/:id/activate", handlers.ActivatePromptTemplate)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)
}
