package database

import (
	"errors"

	"github.com/google/uuid"
	"github.com/marisol/coachloop-api/internal/models"
	"gorm.io/gorm"
)

// Store is the gorm-backed persistence used by the feedback pipeline.
// The pipeline talks to it through the services.Store interface so
// tests can swap in a fake.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) FindTeam(id uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := s.db.First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// ActivePromptTemplate returns the single active template, or nil when
// none is active. Absence is not an error; the prompt resolver treats
// it as the signal to fall back to the built-in template.
func (s *Store) ActivePromptTemplate() (*models.PromptTemplate, error) {
	var tpl models.PromptTemplate
	err := s.db.Where("is_active = ?", true).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *Store) CreateReflection(r *models.Reflection) error {
	return s.db.Create(r).Error
}

func (s *Store) FindReflection(id uuid.UUID) (*models.Reflection, error) {
	var r models.Reflection
	if err := s.db.First(&r, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) SetReflectionStatus(id uuid.UUID, status models.ReflectionStatus) error {
	return s.db.Model(&models.Reflection{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SetAIFeedback persists the analysis result and advances the row to
// ai_feedback_done in a single update, so the field invariant (ai_*
// non-null implies status done) holds at every observable point.
func (s *Store) SetAIFeedback(id uuid.UUID, summary, risks, actions string) error {
	return s.db.Model(&models.Reflection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ai_summary": summary,
			"ai_risks":   risks,
			"ai_actions": actions,
			"status":     models.StatusAIFeedbackDone,
		}).Error
}

func (s *Store) SetCoachFeedback(id uuid.UUID, feedback string) error {
	return s.db.Model(&models.Reflection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"coach_feedback": feedback,
			"status":         models.StatusCoachFeedbackDone,
		}).Error
}

func (s *Store) ListReflections(f models.ReflectionFilter) ([]models.Reflection, error) {
	q := s.db.Model(&models.Reflection{}).Order("week_start DESC, created_at DESC")
	if f.LearnerID != nil {
		q = q.Where("learner_id = ?", *f.LearnerID)
	}
	if f.TeamID != nil {
		q = q.Where("team_id = ?", *f.TeamID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.WeekStart != nil {
		q = q.Where("week_start = ?", *f.WeekStart)
	}

	var reflections []models.Reflection
	if err := q.Find(&reflections).Error; err != nil {
		return nil, err
	}
	return reflections, nil
}

func (s *Store) CoachHasTeam(coachID, teamID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.CoachAssignment{}).
		Where("coach_id = ? AND team_id = ?", coachID, teamID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CoachTeamIDs(coachID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&models.CoachAssignment{}).
		Where("coach_id = ?", coachID).
		Pluck("team_id", &ids).Error
	return ids, err
}

func (s *Store) CoachesForTeam(teamID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&models.CoachAssignment{}).
		Where("team_id = ?", teamID).
		Pluck("coach_id", &ids).Error
	return ids, err
}

// ActivatePromptTemplate enforces the exclusive-activation invariant:
// deactivate all templates, then activate the requested one, inside one
// transaction.
func ActivatePromptTemplate(id uuid.UUID) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PromptTemplate{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		result := tx.Model(&models.PromptTemplate{}).
			Where("id = ?", id).
			Update("is_active", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
