package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marisol/coachloop-api/internal/models"
)

func testPromptVars() PromptVars {
	return PromptVars{
		ReflectionContent: "This week I paired on the billing service and it went well.",
		LearnerName:       "Dana",
		TeamName:          "Platform",
		WeekStart:         "2026-08-24",
	}
}

func TestResolveFallsBackToDefaultTemplate(t *testing.T) {
	store := newFakeStore()
	resolver := NewPromptResolver(store)

	prompt, err := resolver.Resolve(testPromptVars())
	require.NoError(t, err)

	assert.Contains(t, prompt, "Dana")
	assert.Contains(t, prompt, "Platform")
	assert.Contains(t, prompt, "2026-08-24")
	assert.Contains(t, prompt, "billing service")
	// The built-in template instructs structured JSON output.
	assert.Contains(t, prompt, `"summary"`)
	assert.Contains(t, prompt, `"risks"`)
	assert.Contains(t, prompt, `"actions"`)
	// No placeholder tokens survive the default path.
	assert.NotContains(t, prompt, "{reflection_content}")
	assert.NotContains(t, prompt, "{learner_name}")
	assert.NotContains(t, prompt, "{team_name}")
	assert.NotContains(t, prompt, "{week_start}")
}

func TestResolveDefaultTemplateWithoutTeam(t *testing.T) {
	store := newFakeStore()
	resolver := NewPromptResolver(store)

	vars := testPromptVars()
	vars.TeamName = ""
	prompt, err := resolver.Resolve(vars)
	require.NoError(t, err)
	assert.Contains(t, prompt, "no team")
}

func TestResolveSubstitutesActiveTemplate(t *testing.T) {
	store := newFakeStore()
	store.activeTemplate = &models.PromptTemplate{
		Name: "custom",
		Body: "Review {learner_name} ({team_name}) for week {week_start}: {reflection_content}",
	}
	resolver := NewPromptResolver(store)

	prompt, err := resolver.Resolve(testPromptVars())
	require.NoError(t, err)
	assert.Equal(t, "Review Dana (Platform) for week 2026-08-24: This week I paired on the billing service and it went well.", prompt)
}

func TestResolveLeavesUnknownTokensVerbatim(t *testing.T) {
	store := newFakeStore()
	store.activeTemplate = &models.PromptTemplate{
		Name: "typo",
		Body: "Hello {learner_nmae}, content: {reflection_content}",
	}
	resolver := NewPromptResolver(store)

	prompt, err := resolver.Resolve(testPromptVars())
	require.NoError(t, err)
	// Template authors own malformed tokens; nothing is guessed.
	assert.True(t, strings.HasPrefix(prompt, "Hello {learner_nmae},"))
	assert.Contains(t, prompt, "billing service")
}

func TestResolveSubstitutesRepeatedTokens(t *testing.T) {
	store := newFakeStore()
	store.activeTemplate = &models.PromptTemplate{
		Name: "repeat",
		Body: "{learner_name} and again {learner_name}",
	}
	resolver := NewPromptResolver(store)

	prompt, err := resolver.Resolve(testPromptVars())
	require.NoError(t, err)
	assert.Equal(t, "Dana and again Dana", prompt)
}

func TestResolvePropagatesStoreError(t *testing.T) {
	store := newFakeStore()
	store.templateErr = errors.New("db down")
	resolver := NewPromptResolver(store)

	_, err := resolver.Resolve(testPromptVars())
	assert.EqualError(t, err, "db down")
}
