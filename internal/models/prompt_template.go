package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromptTemplate is an operator-configured blueprint for the analysis
// prompt. At most one template is active at a time; activation is
// enforced transactionally in the database layer.
type PromptTemplate struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"size:100;not null"`
	Description string         `json:"description" gorm:"size:500"`
	Body        string         `json:"body" gorm:"type:text;not null"` // may contain {reflection_content}, {learner_name}, {team_name}, {week_start}
	IsActive    bool           `json:"isActive" gorm:"default:false;index"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (pt *PromptTemplate) BeforeCreate(tx *gorm.DB) error {
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	return nil
}

// PromptTemplate DTOs
type CreatePromptTemplateRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Body        string `json:"body" validate:"required"`
}

type UpdatePromptTemplateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Body        *string `json:"body"`
}
