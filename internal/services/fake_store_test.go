package services

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/marisol/coachloop-api/internal/models"
)

// fakeStore is an in-memory Store used by the pipeline and resolver
// tests. It records every status a reflection passes through so tests
// can assert monotonicity.
type fakeStore struct {
	mu sync.Mutex

	users          map[uuid.UUID]*models.User
	teams          map[uuid.UUID]*models.Team
	reflections    map[uuid.UUID]*models.Reflection
	coachTeams     map[uuid.UUID][]uuid.UUID
	activeTemplate *models.PromptTemplate

	statusHistory map[uuid.UUID][]models.ReflectionStatus

	templateErr error
	createErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[uuid.UUID]*models.User),
		teams:         make(map[uuid.UUID]*models.Team),
		reflections:   make(map[uuid.UUID]*models.Reflection),
		coachTeams:    make(map[uuid.UUID][]uuid.UUID),
		statusHistory: make(map[uuid.UUID][]models.ReflectionStatus),
	}
}

func (f *fakeStore) addUser(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeStore) addTeam(t *models.Team) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teams[t.ID] = t
}

func (f *fakeStore) assignCoach(coachID, teamID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coachTeams[coachID] = append(f.coachTeams[coachID], teamID)
}

func (f *fakeStore) reflection(id uuid.UUID) models.Reflection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.reflections[id]
}

func (f *fakeStore) history(id uuid.UUID) []models.ReflectionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ReflectionStatus(nil), f.statusHistory[id]...)
}

func (f *fakeStore) FindUser(id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) FindTeam(id uuid.UUID) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *t
	return &copied, nil
}

func (f *fakeStore) ActivePromptTemplate() (*models.PromptTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.templateErr != nil {
		return nil, f.templateErr
	}
	if f.activeTemplate == nil {
		return nil, nil
	}
	copied := *f.activeTemplate
	return &copied, nil
}

func (f *fakeStore) CreateReflection(r *models.Reflection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	copied := *r
	f.reflections[r.ID] = &copied
	f.statusHistory[r.ID] = append(f.statusHistory[r.ID], r.Status)
	return nil
}

func (f *fakeStore) FindReflection(id uuid.UUID) (*models.Reflection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reflections[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *r
	return &copied, nil
}

func (f *fakeStore) SetReflectionStatus(id uuid.UUID, status models.ReflectionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reflections[id]
	if !ok {
		return errors.New("record not found")
	}
	r.Status = status
	f.statusHistory[id] = append(f.statusHistory[id], status)
	return nil
}

func (f *fakeStore) SetAIFeedback(id uuid.UUID, summary, risks, actions string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reflections[id]
	if !ok {
		return errors.New("record not found")
	}
	r.AISummary = &summary
	r.AIRisks = &risks
	r.AIActions = &actions
	r.Status = models.StatusAIFeedbackDone
	f.statusHistory[id] = append(f.statusHistory[id], r.Status)
	return nil
}

func (f *fakeStore) SetCoachFeedback(id uuid.UUID, feedback string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reflections[id]
	if !ok {
		return errors.New("record not found")
	}
	r.CoachFeedback = &feedback
	r.Status = models.StatusCoachFeedbackDone
	f.statusHistory[id] = append(f.statusHistory[id], r.Status)
	return nil
}

func (f *fakeStore) ListReflections(filter models.ReflectionFilter) ([]models.Reflection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reflection
	for _, r := range f.reflections {
		if filter.LearnerID != nil && r.LearnerID != *filter.LearnerID {
			continue
		}
		if filter.TeamID != nil && (r.TeamID == nil || *r.TeamID != *filter.TeamID) {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if filter.WeekStart != nil && !r.WeekStart.Equal(*filter.WeekStart) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) CoachHasTeam(coachID, teamID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.coachTeams[coachID] {
		if id == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CoachTeamIDs(coachID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.coachTeams[coachID]...), nil
}

func (f *fakeStore) CoachesForTeam(teamID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uuid.UUID
	for coachID, teams := range f.coachTeams {
		for _, id := range teams {
			if id == teamID {
				out = append(out, coachID)
			}
		}
	}
	return out, nil
}
