package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandTableNormalize(t *testing.T) {
	table := DefaultBandTable()

	tests := []struct {
		raw  string
		want DifficultyBand
	}{
		{"1", BandBeginner},
		{"2", BandBeginner},
		{"3", BandIntermediate},
		{"5", BandAdvanced},
		{"BASICA", BandBeginner},
		{"Intermediária", BandIntermediate},
		{"AVANÇADA", BandAdvanced},
		{" advanced ", BandAdvanced},
		{"", BandBeginner},
		{"legendary", BandBeginner},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Normalize(tt.raw), "raw %q", tt.raw)
	}
}

func TestBandTableWith(t *testing.T) {
	table := DefaultBandTable().With(map[string]DifficultyBand{
		"Faixa Preta": BandAdvanced,
		"bogus":       DifficultyBand("Impossible"),
	})

	assert.Equal(t, BandAdvanced, table.Normalize("faixa preta"))
	assert.Equal(t, BandBeginner, table.Normalize("bogus"))
	// original table untouched
	assert.Equal(t, BandBeginner, DefaultBandTable().Normalize("faixa preta"))
}

func TestRawLevelUnmarshal(t *testing.T) {
	var payload struct {
		A RawLevel `json:"a"`
		B RawLevel `json:"b"`
		C RawLevel `json:"c"`
		D RawLevel `json:"d"`
		E RawLevel `json:"e"`
		F RawLevel `json:"f"`
	}

	err := json.Unmarshal([]byte(`{"a": 3, "b": "AVANCADA", "c": null, "d": 4.0, "e": 2.9, "f": 2.4}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, RawLevel("3"), payload.A)
	assert.Equal(t, RawLevel("AVANCADA"), payload.B)
	assert.Equal(t, RawLevel(""), payload.C)
	assert.Equal(t, RawLevel("4"), payload.D)
	assert.Equal(t, RawLevel("3"), payload.E)
	assert.Equal(t, RawLevel("2"), payload.F)
	assert.Equal(t, BandIntermediate, DefaultBandTable().Normalize(string(payload.E)))
}

func TestScheduleConfigTotalLessons(t *testing.T) {
	assert.Equal(t, 8, ScheduleConfig{TotalWeeks: 4, LessonsPerWeek: 2}.TotalLessons())
}

func TestApiClientHasPermission(t *testing.T) {
	c := &ApiClient{Name: "editor-ui", Permissions: []string{"editors:*", "catalog:read"}}

	assert.True(t, c.HasPermission("editors:write"))
	assert.True(t, c.HasPermission("catalog:read"))
	assert.False(t, c.HasPermission("catalog:write"))

	var nilClient *ApiClient
	assert.False(t, nilClient.HasPermission("catalog:read"))
}
