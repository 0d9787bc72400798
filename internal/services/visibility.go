package services

import (
	"github.com/marisol/coachloop-api/internal/models"
)

// ProjectReflection is the single place the "AI analysis is coach-only"
// rule is enforced. Every read path must pass rows through here before
// they leave the coach/admin boundary.
//
// Learners get a projection with the AI fields stripped, regardless of
// ownership: AI output is coaching material, not learner-facing
// material. Coaches must hold an assignment to the reflection's team or
// access is denied entirely. Admins see everything.
func ProjectReflection(r *models.Reflection, role models.Role, coachHasTeam bool) (interface{}, error) {
	switch role {
	case models.RoleLearner:
		return projectPublic(r), nil
	case models.RoleCoach:
		if !coachHasTeam {
			return nil, NewAuthorizationError("no access to this reflection's team")
		}
		return projectCoach(r), nil
	case models.RoleAdmin:
		return projectCoach(r), nil
	}
	return nil, NewAuthorizationError("unknown role")
}

func projectPublic(r *models.Reflection) models.PublicReflection {
	return models.PublicReflection{
		ID:            r.ID,
		LearnerID:     r.LearnerID,
		TeamID:        r.TeamID,
		Title:         r.Title,
		Body:          r.Body,
		WeekStart:     r.WeekStart,
		Status:        r.Status,
		CoachFeedback: r.CoachFeedback,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func projectCoach(r *models.Reflection) models.CoachReflection {
	return models.CoachReflection{
		PublicReflection: projectPublic(r),
		AISummary:        r.AISummary,
		AIRisks:          r.AIRisks,
		AIActions:        r.AIActions,
	}
}
