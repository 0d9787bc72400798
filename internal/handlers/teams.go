package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/marisol/coachloop-api/internal/database"
	"github.com/marisol/coachloop-api/internal/middleware"
	"github.com/marisol/coachloop-api/internal/models"
)

// GetTeams lists teams. Admins see all; coaches see their assignments.
func GetTeams(c *fiber.Ctx) error {
	role := middleware.GetRole(c)

	var teams []models.Team
	if role == models.RoleAdmin {
		database.DB.Order("name").Find(&teams)
		return c.JSON(teams)
	}

	coachID := middleware.GetUserID(c)
	var teamIDs []uuid.UUID
	database.DB.Model(&models.CoachAssignment{}).
		Where("coach_id = ?", coachID).
		Pluck("team_id", &teamIDs)
	if len(teamIDs) == 0 {
		return c.JSON([]models.Team{})
	}

	database.DB.Where("id IN ?", teamIDs).Order("name").Find(&teams)
	return c.JSON(teams)
}

func CreateTeam(c *fiber.Ctx) error {
	var req models.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Team name is required",
		})
	}

	team := models.Team{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := database.DB.Create(&team).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(team)
}

func GetTeam(c *fiber.Ctx) error {
	teamID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team ID",
		})
	}

	var team models.Team
	if err := database.DB.Preload("Learners").First(&team, teamID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team not found",
		})
	}

	return c.JSON(team)
}

func UpdateTeam(c *fiber.Ctx) error {
	teamID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team ID",
		})
	}

	var req models.UpdateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var team models.Team
	if err := database.DB.First(&team, teamID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team not found",
		})
	}

	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = *req.Description
	}

	if err := database.DB.Save(&team).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update team",
		})
	}

	return c.JSON(team)
}

func DeleteTeam(c *fiber.Ctx) error {
	teamID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team ID",
		})
	}

	result := database.DB.Delete(&models.Team{}, teamID)
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team not found",
		})
	}

	// Unassign learners; their future reflections carry no team until
	// an admin reassigns them.
	database.DB.Model(&models.User{}).Where("team_id = ?", teamID).Update("team_id", nil)
	database.DB.Where("team_id = ?", teamID).Delete(&models.CoachAssignment{})

	return c.JSON(fiber.Map{"success": true})
}

// AssignCoach links a coach to a team. Admin only.
func AssignCoach(c *fiber.Ctx) error {
	teamID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team ID",
		})
	}

	var req models.AssignCoachRequest
	if err := c.BodyParser(&req); err != nil || req.CoachID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "coachId is required",
		})
	}

	var team models.Team
	if err := database.DB.First(&team, teamID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team not found",
		})
	}

	var coach models.User
	if err := database.DB.First(&coach, req.CoachID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Coach not found",
		})
	}
	if coach.Role != models.RoleCoach && coach.Role != models.RoleAdmin {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User is not a coach",
		})
	}

	var existing models.CoachAssignment
	if err := database.DB.Where("coach_id = ? AND team_id = ?", req.CoachID, teamID).First(&existing).Error; err == nil {
		return c.JSON(existing)
	}

	assignment := models.CoachAssignment{
		CoachID: req.CoachID,
		TeamID:  teamID,
	}
	if err := database.DB.Create(&assignment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to assign coach",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(assignment)
}

// RemoveCoach unlinks a coach from a team. Admin only.
func RemoveCoach(c *fiber.Ctx) error {
	teamID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team ID",
		})
	}
	coachID, err := uuid.Parse(c.Params("coachId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid coach ID",
		})
	}

	result := database.DB.Where("coach_id = ? AND team_id = ?", coachID, teamID).
		Delete(&models.CoachAssignment{})
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assignment not found",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetTeamCoaches lists the coaches assigned to a team.
func GetTeamCoaches(c *fiber.Ctx) error {
	teamID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team ID",
		})
	}

	var assignments []models.CoachAssignment
	database.DB.Where("team_id = ?", teamID).Preload("Coach").Find(&assignments)

	return c.JSON(assignments)
}
