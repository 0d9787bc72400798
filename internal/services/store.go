package services

import (
	"github.com/google/uuid"
	"github.com/marisol/coachloop-api/internal/models"
)

// Store is the persistence surface the feedback pipeline depends on.
// database.Store implements it; tests use an in-memory fake.
type Store interface {
	FindUser(id uuid.UUID) (*models.User, error)
	FindTeam(id uuid.UUID) (*models.Team, error)

	// ActivePromptTemplate returns (nil, nil) when no template is
	// active; that is the documented fallback signal, not an error.
	ActivePromptTemplate() (*models.PromptTemplate, error)

	CreateReflection(r *models.Reflection) error
	FindReflection(id uuid.UUID) (*models.Reflection, error)
	SetReflectionStatus(id uuid.UUID, status models.ReflectionStatus) error
	SetAIFeedback(id uuid.UUID, summary, risks, actions string) error
	SetCoachFeedback(id uuid.UUID, feedback string) error
	ListReflections(f models.ReflectionFilter) ([]models.Reflection, error)

	CoachHasTeam(coachID, teamID uuid.UUID) (bool, error)
	CoachTeamIDs(coachID uuid.UUID) ([]uuid.UUID, error)
	CoachesForTeam(teamID uuid.UUID) ([]uuid.UUID, error)
}
