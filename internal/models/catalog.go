package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DifficultyBand is the coarse difficulty classification used to bias
// selection toward course progression.
type DifficultyBand string

const (
	BandBeginner     DifficultyBand = "Beginner"
	BandIntermediate DifficultyBand = "Intermediate"
	BandAdvanced     DifficultyBand = "Advanced"
)

// Bands lists every band in ascending difficulty.
var Bands = []DifficultyBand{BandBeginner, BandIntermediate, BandAdvanced}

// Valid reports whether b is one of the known bands
func (b DifficultyBand) Valid() bool {
	switch b {
	case BandBeginner, BandIntermediate, BandAdvanced:
		return true
	}
	return false
}

// DefaultCategory is used when source data carries no classification.
const DefaultCategory = "technique"

// Technique is an assignable catalog entry. Immutable once loaded.
type Technique struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Category        string         `json:"category"`
	Band            DifficultyBand `json:"difficultyBand"`
	DurationMinutes *int           `json:"durationMinutes,omitempty"`
	Description     string         `json:"description,omitempty"`
	Position        int            `json:"position"`
}

// BandTable maps normalized raw difficulty values to bands.
type BandTable map[string]DifficultyBand

// DefaultBandTable returns the table understood by both backend sources:
// numeric levels 1-5, English labels and the backend complexity enum.
func DefaultBandTable() BandTable {
	return BandTable{
		"1":             BandBeginner,
		"2":             BandBeginner,
		"3":             BandIntermediate,
		"4":             BandAdvanced,
		"5":             BandAdvanced,
		"beginner":      BandBeginner,
		"basic":         BandBeginner,
		"easy":          BandBeginner,
		"basica":        BandBeginner,
		"basico":        BandBeginner,
		"iniciante":     BandBeginner,
		"intermediate":  BandIntermediate,
		"medium":        BandIntermediate,
		"intermediaria": BandIntermediate,
		"intermediario": BandIntermediate,
		"advanced":      BandAdvanced,
		"hard":          BandAdvanced,
		"expert":        BandAdvanced,
		"avancada":      BandAdvanced,
		"avancado":      BandAdvanced,
	}
}

// With returns a copy of the table extended with aliases. Alias values
// that are not valid bands are ignored.
func (t BandTable) With(aliases map[string]DifficultyBand) BandTable {
	out := make(BandTable, len(t)+len(aliases))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range aliases {
		if v.Valid() {
			out[normalizeKey(k)] = v
		}
	}
	return out
}

// Normalize maps a raw difficulty value to a band. Unknown or empty
// values are Beginner.
func (t BandTable) Normalize(raw string) DifficultyBand {
	if band, ok := t[normalizeKey(raw)]; ok {
		return band
	}
	return BandBeginner
}

// normalizeKey lowercases, trims and strips diacritics ("AVANÇADA" -> "avancada")
func normalizeKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return s
	}

	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		// combining marks
		if r >= 0x0300 && r <= 0x036f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RawLevel is a wire difficulty value that may arrive as a JSON number or string.
type RawLevel string

// UnmarshalJSON accepts numbers, strings and null. Numbers are rounded to
// the nearest integer.
func (r *RawLevel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RawLevel(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = RawLevel(strconv.Itoa(int(math.Round(f))))
	return nil
}
