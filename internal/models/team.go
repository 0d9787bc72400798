package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Team struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Learners []User `json:"learners,omitempty" gorm:"foreignKey:TeamID"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// CoachAssignment links a coach to a team they review reflections for.
// A coach may be assigned to many teams and a team may have many coaches.
type CoachAssignment struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CoachID   uuid.UUID      `json:"coachId" gorm:"type:uuid;uniqueIndex:idx_coach_team;not null"`
	TeamID    uuid.UUID      `json:"teamId" gorm:"type:uuid;uniqueIndex:idx_coach_team;not null"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Coach User `json:"coach,omitempty" gorm:"foreignKey:CoachID"`
	Team  Team `json:"team,omitempty" gorm:"foreignKey:TeamID"`
}

func (ca *CoachAssignment) BeforeCreate(tx *gorm.DB) error {
	if ca.ID == uuid.Nil {
		ca.ID = uuid.New()
	}
	return nil
}

// Team DTOs
type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type AssignCoachRequest struct {
	CoachID uuid.UUID `json:"coachId" validate:"required"`
}
