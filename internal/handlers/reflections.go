package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/marisol/coachloop-api/internal/middleware"
	"github.com/marisol/coachloop-api/internal/models"
	"github.com/marisol/coachloop-api/internal/services"
)

// serviceError maps pipeline error types onto HTTP statuses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case services.IsAuthorizationError(err):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case services.IsNotFoundError(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
}

// SubmitReflection creates a weekly reflection and kicks off analysis
// in the background. Learner only.
func SubmitReflection(c *fiber.Ctx) error {
	learnerID := middleware.GetUserID(c)

	var req models.SubmitReflectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "weekStart must be a date in YYYY-MM-DD format",
		})
	}

	reflection, err := services.Pipeline.Submit(learnerID, req.Title, req.Body, weekStart)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(reflection)
}

// GetReflections lists reflections visible to the caller, projected
// through the visibility gate.
func GetReflections(c *fiber.Ctx) error {
	actorID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	var filter models.ReflectionFilter
	if v := c.Query("teamId"); v != "" {
		teamID, err := uuid.Parse(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid teamId"})
		}
		filter.TeamID = &teamID
	}
	if v := c.Query("learnerId"); v != "" {
		learnerID, err := uuid.Parse(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid learnerId"})
		}
		filter.LearnerID = &learnerID
	}
	if v := c.Query("status"); v != "" {
		status := models.ReflectionStatus(v)
		filter.Status = &status
	}
	if v := c.Query("weekStart"); v != "" {
		weekStart, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid weekStart"})
		}
		filter.WeekStart = &weekStart
	}

	reflections, err := services.Pipeline.List(actorID, role, filter)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(reflections)
}

// GetReflection returns one reflection, projected for the caller.
func GetReflection(c *fiber.Ctx) error {
	actorID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	reflectionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid reflection ID",
		})
	}

	reflection, err := services.Pipeline.Get(actorID, role, reflectionID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(reflection)
}

// SubmitCoachFeedback records human feedback. Coach/admin only.
func SubmitCoachFeedback(c *fiber.Ctx) error {
	actorID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	reflectionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid reflection ID",
		})
	}

	var req models.CoachFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	reflection, err := services.Pipeline.SubmitCoachFeedback(actorID, role, reflectionID, req.Feedback)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(reflection)
}

// TriggerAnalysis manually re-dispatches analysis. Coach/admin only.
func TriggerAnalysis(c *fiber.Ctx) error {
	actorID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	reflectionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid reflection ID",
		})
	}

	if err := services.Pipeline.TriggerAnalysis(actorID, role, reflectionID); err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true})
}
