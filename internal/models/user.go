package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of roles the application knows about.
type Role string

const (
	RoleLearner Role = "learner"
	RoleCoach   Role = "coach"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RoleCoach, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Email       string         `json:"email" gorm:"uniqueIndex;not null"`
	Password    string         `json:"-"`
	Role        Role           `json:"role" gorm:"type:varchar(20);not null;default:'learner';index"`
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName"`
	AvatarURL   string         `json:"avatarUrl"`
	Bio         string         `json:"bio"`
	TeamID      *uuid.UUID     `json:"teamId" gorm:"type:uuid;index"` // learner's single team, nullable
	FCMToken    string         `json:"-" gorm:"column:fcm_token"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Team *Team `json:"team,omitempty" gorm:"foreignKey:TeamID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayNameOrName prefers the display name, falling back to the
// account name and finally the email.
func (u *User) DisplayNameOrName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Auth DTOs
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	Bio         *string `json:"bio"`
	Name        *string `json:"name"`
}

type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required"`
}

type AssignTeamRequest struct {
	TeamID *uuid.UUID `json:"teamId"` // nil removes the learner from their team
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
