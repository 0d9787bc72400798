package services

import (
	"fmt"
	"strings"
)

// Placeholder tokens recognized in operator-configured templates.
const (
	TokenReflectionContent = "{reflection_content}"
	TokenLearnerName       = "{learner_name}"
	TokenTeamName          = "{team_name}"
	TokenWeekStart         = "{week_start}"
)

// PromptVars are the values substituted into an analysis prompt.
type PromptVars struct {
	ReflectionContent string
	LearnerName       string
	TeamName          string
	WeekStart         string
}

// PromptResolver produces the prompt text for one analysis request.
// It re-reads the active template on every call; the template may be
// swapped by an admin between runs and is never cached.
type PromptResolver struct {
	store Store
}

func NewPromptResolver(store Store) *PromptResolver {
	return &PromptResolver{store: store}
}

// Resolve loads the active template and substitutes the placeholder
// tokens by literal replacement. Unmatched tokens are left verbatim:
// template authors own the error surface for malformed templates. When
// no template is active, a built-in default is used.
func (p *PromptResolver) Resolve(vars PromptVars) (string, error) {
	tpl, err := p.store.ActivePromptTemplate()
	if err != nil {
		return "", err
	}
	if tpl == nil {
		return defaultPrompt(vars), nil
	}

	text := tpl.Body
	text = strings.ReplaceAll(text, TokenReflectionContent, vars.ReflectionContent)
	text = strings.ReplaceAll(text, TokenLearnerName, vars.LearnerName)
	text = strings.ReplaceAll(text, TokenTeamName, vars.TeamName)
	text = strings.ReplaceAll(text, TokenWeekStart, vars.WeekStart)
	return text, nil
}

func defaultPrompt(vars PromptVars) string {
	team := vars.TeamName
	if team == "" {
		team = "no team"
	}
	return fmt.Sprintf(`You are an experienced coach reviewing a learner's weekly reflection.

Learner: %s
Team: %s
Week starting: %s

Reflection:
%s

Analyze the reflection and respond with a JSON object containing exactly three keys:
- "summary": a concise summary of how the learner's week went
- "risks": anything that could block the learner's progress
- "actions": concrete next steps you would recommend

Respond with the JSON object only.`, vars.LearnerName, team, vars.WeekStart, vars.ReflectionContent)
}
