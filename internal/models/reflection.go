package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReflectionStatus tracks a reflection through the feedback pipeline.
// The order is monotonic: submitted → ai_feedback_pending? →
// ai_feedback_done → coach_feedback_done. Pending marks an analysis
// that could not complete and is waiting on operator action.
type ReflectionStatus string

const (
	StatusSubmitted         ReflectionStatus = "submitted"
	StatusAIFeedbackPending ReflectionStatus = "ai_feedback_pending"
	StatusAIFeedbackDone    ReflectionStatus = "ai_feedback_done"
	StatusCoachFeedbackDone ReflectionStatus = "coach_feedback_done"
)

type Reflection struct {
	ID        uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	LearnerID uuid.UUID        `json:"learnerId" gorm:"type:uuid;index;not null"`
	TeamID    *uuid.UUID       `json:"teamId" gorm:"type:uuid;index"` // snapshot of the learner's team at submit time
	Title     string           `json:"title"`
	Body      string           `json:"body" gorm:"type:text;not null"`
	WeekStart time.Time        `json:"weekStart" gorm:"index;not null"`
	Status    ReflectionStatus `json:"status" gorm:"type:varchar(30);not null;default:'submitted';index"`

	// Populated only by the analysis pipeline, never by a human.
	AISummary *string `json:"aiSummary" gorm:"type:text"`
	AIRisks   *string `json:"aiRisks" gorm:"type:text"`
	AIActions *string `json:"aiActions" gorm:"type:text"`

	// Populated only by a coach or admin.
	CoachFeedback *string `json:"coachFeedback" gorm:"type:text"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Learner User  `json:"learner,omitempty" gorm:"foreignKey:LearnerID"`
	Team    *Team `json:"team,omitempty" gorm:"foreignKey:TeamID"`
}

func (r *Reflection) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PublicReflection is the learner-facing projection. AI fields are
// never present here, not even for the authoring learner.
type PublicReflection struct {
	ID            uuid.UUID        `json:"id"`
	LearnerID     uuid.UUID        `json:"learnerId"`
	TeamID        *uuid.UUID       `json:"teamId"`
	Title         string           `json:"title"`
	Body          string           `json:"body"`
	WeekStart     time.Time        `json:"weekStart"`
	Status        ReflectionStatus `json:"status"`
	CoachFeedback *string          `json:"coachFeedback"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// CoachReflection is the coach/admin projection with the AI fields.
type CoachReflection struct {
	PublicReflection
	AISummary *string `json:"aiSummary"`
	AIRisks   *string `json:"aiRisks"`
	AIActions *string `json:"aiActions"`
}

// ReflectionFilter narrows list queries. Nil fields are ignored.
type ReflectionFilter struct {
	LearnerID *uuid.UUID
	TeamID    *uuid.UUID
	Status    *ReflectionStatus
	WeekStart *time.Time
}

// Reflection DTOs
type SubmitReflectionRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body" validate:"required"`
	WeekStart string `json:"weekStart" validate:"required"` // YYYY-MM-DD
}

type CoachFeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}
