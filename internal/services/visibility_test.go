package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marisol/coachloop-api/internal/models"
)

func analyzedReflection() *models.Reflection {
	teamID := uuid.New()
	summary := "summary"
	risks := "risks"
	actions := "actions"
	feedback := "nice work"
	return &models.Reflection{
		ID:            uuid.New(),
		LearnerID:     uuid.New(),
		TeamID:        &teamID,
		Title:         "week 34",
		Body:          "body",
		WeekStart:     time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		Status:        models.StatusCoachFeedbackDone,
		AISummary:     &summary,
		AIRisks:       &risks,
		AIActions:     &actions,
		CoachFeedback: &feedback,
	}
}

func TestLearnerProjectionStripsAIFields(t *testing.T) {
	r := analyzedReflection()

	view, err := ProjectReflection(r, models.RoleLearner, false)
	require.NoError(t, err)

	public, ok := view.(models.PublicReflection)
	require.True(t, ok, "learner must get the public projection")
	assert.Equal(t, r.ID, public.ID)
	assert.Equal(t, r.Body, public.Body)
	// Human coach feedback is learner-facing; AI output is not part of
	// the type at all, so it cannot leak.
	require.NotNil(t, public.CoachFeedback)
	assert.Equal(t, "nice work", *public.CoachFeedback)
}

func TestLearnerProjectionStripsAIFieldsEvenWithTeamRelation(t *testing.T) {
	// The relation flag never upgrades a learner to the coach view.
	view, err := ProjectReflection(analyzedReflection(), models.RoleLearner, true)
	require.NoError(t, err)
	_, ok := view.(models.PublicReflection)
	assert.True(t, ok)
}

func TestCoachWithoutTeamRelationIsDenied(t *testing.T) {
	view, err := ProjectReflection(analyzedReflection(), models.RoleCoach, false)
	assert.Nil(t, view)
	assert.True(t, IsAuthorizationError(err))
}

func TestCoachWithTeamRelationSeesAIFields(t *testing.T) {
	r := analyzedReflection()
	view, err := ProjectReflection(r, models.RoleCoach, true)
	require.NoError(t, err)

	coach, ok := view.(models.CoachReflection)
	require.True(t, ok)
	require.NotNil(t, coach.AISummary)
	assert.Equal(t, "summary", *coach.AISummary)
	assert.Equal(t, "risks", *coach.AIRisks)
	assert.Equal(t, "actions", *coach.AIActions)
}

func TestAdminSeesAIFieldsWithoutTeamRelation(t *testing.T) {
	view, err := ProjectReflection(analyzedReflection(), models.RoleAdmin, false)
	require.NoError(t, err)

	coach, ok := view.(models.CoachReflection)
	require.True(t, ok)
	assert.NotNil(t, coach.AISummary)
}

func TestUnknownRoleIsDenied(t *testing.T) {
	view, err := ProjectReflection(analyzedReflection(), models.Role("superuser"), true)
	assert.Nil(t, view)
	assert.True(t, IsAuthorizationError(err))
}
