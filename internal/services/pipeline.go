package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/marisol/coachloop-api/internal/logger"
	"github.com/marisol/coachloop-api/internal/models"
	"github.com/marisol/coachloop-api/internal/retry"
)

// MinReflectionBodyLength is the analysis quality floor: shorter content
// produces unreliable model output.
const MinReflectionBodyLength = 100

// NotifyFunc records an in-app notification (and optionally pushes it).
// Wired up in main to avoid a dependency from the pipeline onto the
// HTTP layer; nil disables notifications.
type NotifyFunc func(userID uuid.UUID, notifType, title, body string, metadata map[string]interface{})

// PipelineService owns the reflection feedback lifecycle: it validates
// and persists submissions, drives the asynchronous AI analysis with
// retries, and applies the terminal status transitions.
type PipelineService struct {
	store     Store
	ai        Analyzer
	prompts   *PromptResolver
	log       *logger.Logger
	retryOpts retry.Options
	notify    NotifyFunc
}

// Global pipeline instance, set once at startup.
var Pipeline *PipelineService

func InitPipeline(store Store, ai Analyzer, log *logger.Logger, notify NotifyFunc) {
	Pipeline = NewPipelineService(store, ai, log, DefaultRetryOptions(), notify)
}

func NewPipelineService(store Store, ai Analyzer, log *logger.Logger, retryOpts retry.Options, notify NotifyFunc) *PipelineService {
	return &PipelineService{
		store:     store,
		ai:        ai,
		prompts:   NewPromptResolver(store),
		log:       log,
		retryOpts: retryOpts,
		notify:    notify,
	}
}

// DefaultRetryOptions is the analysis retry budget: 3 attempts, 1s
// initial delay, 5s cap, doubling.
func DefaultRetryOptions() retry.Options {
	return retry.Options{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}
}

// Submit validates and persists a new reflection, then dispatches the
// analysis attempt in the background. The caller gets the persisted row
// immediately and never waits on AI completion.
func (s *PipelineService) Submit(learnerID uuid.UUID, title, body string, weekStart time.Time) (*models.Reflection, error) {
	if utf8.RuneCountInString(strings.TrimSpace(body)) < MinReflectionBodyLength {
		return nil, NewValidationError("reflection body must be at least 100 characters")
	}

	learner, err := s.store.FindUser(learnerID)
	if err != nil {
		return nil, NewValidationError("learner not found")
	}

	reflection := &models.Reflection{
		LearnerID: learner.ID,
		TeamID:    learner.TeamID,
		Title:     title,
		Body:      body,
		WeekStart: weekStart,
		Status:    models.StatusSubmitted,
	}
	if err := s.store.CreateReflection(reflection); err != nil {
		return nil, err
	}

	go s.runAnalysis(context.Background(), reflection.ID)

	return reflection, nil
}

// TriggerAnalysis re-dispatches analysis for a reflection. It only
// proceeds when the status is exactly submitted, which guards against
// re-analyzing a row a coach is already working on.
func (s *PipelineService) TriggerAnalysis(actorID uuid.UUID, role models.Role, reflectionID uuid.UUID) error {
	reflection, err := s.store.FindReflection(reflectionID)
	if err != nil {
		return NewNotFoundError("reflection not found")
	}

	switch role {
	case models.RoleAdmin:
	case models.RoleCoach:
		if err := s.requireCoachAccess(actorID, reflection); err != nil {
			return err
		}
	default:
		return NewAuthorizationError("only coaches and admins can trigger analysis")
	}

	if reflection.Status != models.StatusSubmitted {
		return NewValidationError("analysis can only be triggered for submitted reflections")
	}

	go s.runAnalysis(context.Background(), reflectionID)
	return nil
}

// runAnalysis is the detached background task for one reflection. Any
// failure before or after the retry loop parks the row in
// ai_feedback_pending; there are no automatic re-drives beyond the
// configured attempt budget.
func (s *PipelineService) runAnalysis(ctx context.Context, reflectionID uuid.UUID) {
	reflection, err := s.store.FindReflection(reflectionID)
	if err != nil {
		s.log.Error("analysis dispatch: reflection not found", "reflection_id", reflectionID, "error", err.Error())
		return
	}
	if reflection.Status != models.StatusSubmitted {
		return
	}

	vars, err := s.buildPromptVars(reflection)
	if err != nil {
		s.log.Error("analysis dispatch failed", "reflection_id", reflectionID, "error", err.Error())
		s.markPending(reflection)
		return
	}

	prompt, err := s.prompts.Resolve(vars)
	if err != nil {
		s.log.Error("prompt resolution failed", "reflection_id", reflectionID, "error", err.Error())
		s.markPending(reflection)
		return
	}

	opts := s.retryOpts
	opts.Classify = IsRetryableAnalysisError
	opts.OnRetry = func(attempt int, delay time.Duration, err error) {
		s.log.Warn("analysis attempt failed, retrying",
			"reflection_id", reflectionID,
			"attempt", attempt,
			"delay", delay.String(),
			"error", err.Error(),
		)
	}

	result, err := retry.Do(ctx, opts, func(ctx context.Context) (FeedbackResult, error) {
		return s.ai.Analyze(ctx, prompt)
	})
	if err != nil {
		s.log.Error("analysis exhausted retries", "reflection_id", reflectionID, "error", err.Error())
		s.markPending(reflection)
		return
	}

	if err := s.store.SetAIFeedback(reflectionID, result.Summary, result.Risks, result.Actions); err != nil {
		s.log.Error("failed to persist analysis result", "reflection_id", reflectionID, "error", err.Error())
		return
	}

	s.log.Info("analysis complete", "reflection_id", reflectionID)
	s.notifyTeamCoaches(reflection, "analysis_ready",
		"AI analysis ready",
		"A reflection has new AI analysis waiting for your review.")
}

func (s *PipelineService) buildPromptVars(r *models.Reflection) (PromptVars, error) {
	learner, err := s.store.FindUser(r.LearnerID)
	if err != nil {
		return PromptVars{}, err
	}

	teamName := ""
	if r.TeamID != nil {
		team, err := s.store.FindTeam(*r.TeamID)
		if err != nil {
			return PromptVars{}, err
		}
		teamName = team.Name
	}

	return PromptVars{
		ReflectionContent: r.Body,
		LearnerName:       learner.DisplayNameOrName(),
		TeamName:          teamName,
		WeekStart:         r.WeekStart.Format("2006-01-02"),
	}, nil
}

func (s *PipelineService) markPending(r *models.Reflection) {
	if err := s.store.SetReflectionStatus(r.ID, models.StatusAIFeedbackPending); err != nil {
		s.log.Error("failed to mark reflection pending", "reflection_id", r.ID, "error", err.Error())
		return
	}
	s.notifyTeamCoaches(r, "analysis_stalled",
		"AI analysis stalled",
		"A reflection's analysis did not complete and needs attention.")
}

func (s *PipelineService) notifyTeamCoaches(r *models.Reflection, notifType, title, body string) {
	if s.notify == nil || r.TeamID == nil {
		return
	}
	coachIDs, err := s.store.CoachesForTeam(*r.TeamID)
	if err != nil {
		s.log.Error("failed to load coaches for notification", "team_id", *r.TeamID, "error", err.Error())
		return
	}
	metadata := map[string]interface{}{
		"reflectionId": r.ID.String(),
		"teamId":       r.TeamID.String(),
	}
	for _, coachID := range coachIDs {
		s.notify(coachID, notifType, title, body, metadata)
	}
}

// SubmitCoachFeedback records the human feedback and advances the row
// to coach_feedback_done. Re-submission is allowed so coaches can edit.
func (s *PipelineService) SubmitCoachFeedback(actorID uuid.UUID, role models.Role, reflectionID uuid.UUID, feedback string) (*models.Reflection, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, NewValidationError("feedback must not be empty")
	}

	reflection, err := s.store.FindReflection(reflectionID)
	if err != nil {
		return nil, NewNotFoundError("reflection not found")
	}

	switch role {
	case models.RoleAdmin:
	case models.RoleCoach:
		if err := s.requireCoachAccess(actorID, reflection); err != nil {
			return nil, err
		}
	default:
		return nil, NewAuthorizationError("only coaches and admins can submit feedback")
	}

	if reflection.Status != models.StatusAIFeedbackDone && reflection.Status != models.StatusCoachFeedbackDone {
		return nil, NewValidationError("coach feedback requires completed AI analysis")
	}

	if err := s.store.SetCoachFeedback(reflectionID, feedback); err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify(reflection.LearnerID, "coach_feedback",
			"New coach feedback",
			"Your coach left feedback on your weekly reflection.",
			map[string]interface{}{"reflectionId": reflection.ID.String()})
	}

	return s.store.FindReflection(reflectionID)
}

// Get returns a single reflection projected through the visibility
// gate. Learners can only read their own rows.
func (s *PipelineService) Get(actorID uuid.UUID, role models.Role, reflectionID uuid.UUID) (interface{}, error) {
	reflection, err := s.store.FindReflection(reflectionID)
	if err != nil {
		return nil, NewNotFoundError("reflection not found")
	}

	if role == models.RoleLearner && reflection.LearnerID != actorID {
		return nil, NewAuthorizationError("no access to this reflection")
	}

	coachHasTeam := false
	if role == models.RoleCoach && reflection.TeamID != nil {
		coachHasTeam, err = s.store.CoachHasTeam(actorID, *reflection.TeamID)
		if err != nil {
			return nil, err
		}
	}

	return ProjectReflection(reflection, role, coachHasTeam)
}

// List returns reflections matching the filter, scoped to what the
// actor may see and projected through the visibility gate.
func (s *PipelineService) List(actorID uuid.UUID, role models.Role, filter models.ReflectionFilter) ([]interface{}, error) {
	switch role {
	case models.RoleLearner:
		// Learners only ever list their own reflections.
		filter.LearnerID = &actorID
		rows, err := s.store.ListReflections(filter)
		if err != nil {
			return nil, err
		}
		return s.projectAll(rows, role)

	case models.RoleCoach:
		teamIDs, err := s.store.CoachTeamIDs(actorID)
		if err != nil {
			return nil, err
		}
		if filter.TeamID != nil {
			if !containsUUID(teamIDs, *filter.TeamID) {
				return nil, NewAuthorizationError("no access to this team")
			}
			rows, err := s.store.ListReflections(filter)
			if err != nil {
				return nil, err
			}
			return s.projectAll(rows, role)
		}
		var all []models.Reflection
		for _, teamID := range teamIDs {
			scoped := filter
			id := teamID
			scoped.TeamID = &id
			rows, err := s.store.ListReflections(scoped)
			if err != nil {
				return nil, err
			}
			all = append(all, rows...)
		}
		return s.projectAll(all, role)

	case models.RoleAdmin:
		rows, err := s.store.ListReflections(filter)
		if err != nil {
			return nil, err
		}
		return s.projectAll(rows, role)
	}

	return nil, NewAuthorizationError("unknown role")
}

// projectAll runs rows through the gate. Rows reaching here are already
// scoped to teams the viewer may access, so the coach relation holds.
func (s *PipelineService) projectAll(rows []models.Reflection, role models.Role) ([]interface{}, error) {
	projected := make([]interface{}, 0, len(rows))
	for i := range rows {
		view, err := ProjectReflection(&rows[i], role, true)
		if err != nil {
			return nil, err
		}
		projected = append(projected, view)
	}
	return projected, nil
}

func (s *PipelineService) requireCoachAccess(coachID uuid.UUID, r *models.Reflection) error {
	if r.TeamID == nil {
		return NewAuthorizationError("no access to this reflection's team")
	}
	ok, err := s.store.CoachHasTeam(coachID, *r.TeamID)
	if err != nil {
		return err
	}
	if !ok {
		return NewAuthorizationError("no access to this reflection's team")
	}
	return nil
}

func containsUUID(ids []uuid.UUID, target uuid.UUID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
