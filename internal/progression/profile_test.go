package progression

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "progression.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultProfileIsValid(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())

	foundation, development := p.Thresholds()
	assert.Equal(t, 0.4, foundation)
	assert.Equal(t, 0.8, development)
}

func TestStageFor(t *testing.T) {
	p := Default()

	assert.Equal(t, models.StageFoundation, p.StageFor(0.1).Name)
	assert.Equal(t, models.StageDevelopment, p.StageFor(0.4).Name)
	assert.Equal(t, models.StageDevelopment, p.StageFor(0.79).Name)
	assert.Equal(t, models.StageMastery, p.StageFor(0.8).Name)
	assert.Equal(t, models.StageMastery, p.StageFor(1.0).Name)
}

func TestLoadFromFileMissingUsesDefaults(t *testing.T) {
	p, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoadFromFileOverrides(t *testing.T) {
	path := writeProfile(t, `
stages:
  - name: foundation
    label: Base
    until: 0.3
    focus: [guard]
  - name: development
    until: 0.7
    focus: [combos, drills]
  - name: mastery
    until: 1.0
    focus: [sparring]
techniques_per_lesson:
  min: 1
  max: 3
band_aliases:
  faixa-preta: Advanced
`)

	p, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Base", p.Stages[0].Label)
	assert.Equal(t, "development", p.Stages[1].Label)
	assert.Equal(t, 0.3, p.Stages[0].Until)
	assert.Equal(t, 1, p.MinPerLesson)
	assert.Equal(t, 3, p.MaxPerLesson)
	assert.Equal(t, models.BandAdvanced, p.BandTable().Normalize("FAIXA-PRETA"))
}

func TestLoadFromFileRejectsInvalidStages(t *testing.T) {
	path := writeProfile(t, `
stages:
  - name: development
    until: 0.5
    focus: [x]
  - name: foundation
    until: 0.8
    focus: [y]
  - name: mastery
    until: 1.0
    focus: [z]
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage 1")
}

func TestLoadFromFileRejectsInvertedBounds(t *testing.T) {
	path := writeProfile(t, `
techniques_per_lesson:
  min: 5
  max: 3
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
}
