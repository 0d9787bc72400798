package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/marisol/coachloop-api/internal/database"
	"github.com/marisol/coachloop-api/internal/models"
	"gorm.io/gorm"
)

// Prompt template management is admin-only; the pipeline itself only
// ever reads the active template.

func GetPromptTemplates(c *fiber.Ctx) error {
	var templates []models.PromptTemplate
	database.DB.Order("created_at DESC").Find(&templates)
	return c.JSON(templates)
}

func CreatePromptTemplate(c *fiber.Ctx) error {
	var req models.CreatePromptTemplateRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" || req.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and body are required",
		})
	}

	template := models.PromptTemplate{
		Name:        req.Name,
		Description: req.Description,
		Body:        req.Body,
	}
	if err := database.DB.Create(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create template",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(template)
}

func UpdatePromptTemplate(c *fiber.Ctx) error {
	templateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid template ID",
		})
	}

	var req models.UpdatePromptTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var template models.PromptTemplate
	if err := database.DB.First(&template, templateID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.Body != nil {
		template.Body = *req.Body
	}

	if err := database.DB.Save(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update template",
		})
	}

	return c.JSON(template)
}

func DeletePromptTemplate(c *fiber.Ctx) error {
	templateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid template ID",
		})
	}

	result := database.DB.Delete(&models.PromptTemplate{}, templateID)
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// ActivatePromptTemplate makes one template the active one. The store
// deactivates every other template in the same transaction, keeping the
// exclusive-activation invariant.
func ActivatePromptTemplate(c *fiber.Ctx) error {
	templateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid template ID",
		})
	}

	if err := database.ActivatePromptTemplate(templateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Template not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to activate template",
		})
	}

	var template models.PromptTemplate
	database.DB.First(&template, templateID)
	return c.JSON(template)
}
