package filter

import (
	"testing"

	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/stretchr/testify/assert"
)

func sampleScenarios() []domain.Scenario {
	return []domain.Scenario{
		{Title: "What if humanity lived on Mars?", Description: "Colonies on the red planet.", Tags: []string{"SciFi", "Space"}},
		{Title: "What if dinosaurs never went extinct?", Description: "Giant lizards everywhere.", Tags: []string{"Historical", "Dinosaurs"}},
		{Title: "What if we could teleport?", Description: "Instant travel.", Tags: []string{"SciFi", "Technology"}},
	}
}

func titles(scenarios []domain.Scenario) []string {
	out := make([]string, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.Title
	}
	return out
}

func TestByTags_NoTagsReturnsAll(t *testing.T) {
	all := sampleScenarios()

	res := ByTags(all, nil)
	assert.Equal(t, titles(all), titles(res.Scenarios))
	assert.False(t, res.NoResults)

	res = ByTags(all, []string{"  ", ""})
	assert.Len(t, res.Scenarios, 3)
}

func TestByTags_Conjunction(t *testing.T) {
	res := ByTags(sampleScenarios(), []string{"SciFi", "Space"})
	assert.Equal(t, []string{"What if humanity lived on Mars?"}, titles(res.Scenarios))
	assert.False(t, res.NoResults)
}

func TestByTags_SingleTagPreservesOrder(t *testing.T) {
	res := ByTags(sampleScenarios(), []string{"scifi"})
	assert.Equal(t, []string{"What if humanity lived on Mars?", "What if we could teleport?"}, titles(res.Scenarios))
}

func TestByTags_NoResults(t *testing.T) {
	res := ByTags(sampleScenarios(), []string{"SciFi", "Dinosaurs"})
	assert.Empty(t, res.Scenarios)
	assert.True(t, res.NoResults)
}

func TestByTags_ExactTagMatchOnly(t *testing.T) {
	res := ByTags(sampleScenarios(), []string{"Sci"})
	assert.True(t, res.NoResults)
}

func TestByTags_EmptyInput(t *testing.T) {
	res := ByTags(nil, []string{"SciFi"})
	assert.Empty(t, res.Scenarios)
	assert.True(t, res.NoResults)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"SciFi", "Space"}, NormalizeTags([]string{" SciFi ", "", "scifi", "Space", "SPACE"}))
	assert.Empty(t, NormalizeTags(nil))
}
