// Package progression loads the course progression profile: stage
// boundaries, per-stage focus texts, per-lesson technique bounds and extra
// difficulty aliases.
package progression

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

// Stage is one progression stage. A week or lesson belongs to the first
// stage whose Until bound is strictly greater than its progress ratio;
// the last stage catches everything else.
type Stage struct {
	Name  models.ProgressStage
	Label string
	Until float64
	Focus []string
}

// Profile drives focus text, selection bounds and band normalization
type Profile struct {
	Stages       []Stage
	MinPerLesson int
	MaxPerLesson int
	BandAliases  map[string]models.DifficultyBand
}

// Default returns the built-in profile
func Default() *Profile {
	return &Profile{
		Stages: []Stage{
			{
				Name:  models.StageFoundation,
				Label: "Fundamentals",
				Until: 0.4,
				Focus: []string{
					"stance, posture and coordination",
					"fundamental techniques",
					"basic reactions and simple defenses",
					"building confidence",
				},
			},
			{
				Name:  models.StageDevelopment,
				Label: "Development",
				Until: 0.8,
				Focus: []string{
					"technical precision",
					"combinations",
					"adaptability under pressure",
					"conditioning",
				},
			},
			{
				Name:  models.StageMastery,
				Label: "Mastery",
				Until: 1.0,
				Focus: []string{
					"technical refinement",
					"advanced combinations",
					"realistic scenarios",
					"review and assessment",
				},
			},
		},
		MinPerLesson: 2,
		MaxPerLesson: 4,
	}
}

// StageFor returns the stage a progress ratio in (0, 1] falls into
func (p *Profile) StageFor(progress float64) Stage {
	for _, s := range p.Stages {
		if progress < s.Until {
			return s
		}
	}
	return p.Stages[len(p.Stages)-1]
}

// Thresholds returns the foundation and development upper bounds
func (p *Profile) Thresholds() (foundation, development float64) {
	return p.Stages[0].Until, p.Stages[1].Until
}

// BandTable returns the default band table extended with the profile aliases
func (p *Profile) BandTable() models.BandTable {
	return models.DefaultBandTable().With(p.BandAliases)
}

// Validate checks stage order and selection bounds
func (p *Profile) Validate() error {
	want := []models.ProgressStage{models.StageFoundation, models.StageDevelopment, models.StageMastery}
	if len(p.Stages) != len(want) {
		return fmt.Errorf("profile must define exactly %d stages, got %d", len(want), len(p.Stages))
	}

	prev := 0.0
	for i, s := range p.Stages {
		if s.Name != want[i] {
			return fmt.Errorf("stage %d must be %q, got %q", i+1, want[i], s.Name)
		}
		if s.Until <= prev || s.Until > 1 {
			return fmt.Errorf("stage %q: until must be in (%.2f, 1], got %.2f", s.Name, prev, s.Until)
		}
		if len(s.Focus) == 0 {
			return fmt.Errorf("stage %q: at least one focus text is required", s.Name)
		}
		prev = s.Until
	}

	if p.MinPerLesson < 1 {
		return fmt.Errorf("min_per_lesson must be at least 1, got %d", p.MinPerLesson)
	}
	if p.MaxPerLesson < p.MinPerLesson {
		return fmt.Errorf("max_per_lesson (%d) must not be below min_per_lesson (%d)", p.MaxPerLesson, p.MinPerLesson)
	}

	return nil
}

// LoadFromFile loads a profile from a YAML file. Fields absent from the
// file keep their default values. A missing file yields the default profile.
func LoadFromFile(path string) (*Profile, error) {
	profile := Default()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("progression profile not found, using defaults", "path", path)
			return profile, nil
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(pf.Stages) > 0 {
		profile.Stages = make([]Stage, 0, len(pf.Stages))
		for _, sf := range pf.Stages {
			label := sf.Label
			if label == "" {
				label = sf.Name
			}
			profile.Stages = append(profile.Stages, Stage{
				Name:  models.ProgressStage(sf.Name),
				Label: label,
				Until: sf.Until,
				Focus: sf.Focus,
			})
		}
	}

	if pf.TechniquesPerLesson.Min > 0 {
		profile.MinPerLesson = pf.TechniquesPerLesson.Min
	}
	if pf.TechniquesPerLesson.Max > 0 {
		profile.MaxPerLesson = pf.TechniquesPerLesson.Max
	}

	if len(pf.BandAliases) > 0 {
		profile.BandAliases = make(map[string]models.DifficultyBand, len(pf.BandAliases))
		for alias, band := range pf.BandAliases {
			profile.BandAliases[alias] = models.DifficultyBand(band)
		}
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	slog.Info("progression profile loaded", "path", path,
		"min_per_lesson", profile.MinPerLesson,
		"max_per_lesson", profile.MaxPerLesson,
		"aliases", len(profile.BandAliases),
	)
	return profile, nil
}

// --- YAML file structs ---

// profileFile represents the YAML structure of a progression profile
type profileFile struct {
	Stages              []stageFile       `yaml:"stages"`
	TechniquesPerLesson boundsFile        `yaml:"techniques_per_lesson"`
	BandAliases         map[string]string `yaml:"band_aliases"`
}

type stageFile struct {
	Name  string   `yaml:"name"`
	Label string   `yaml:"label"`
	Until float64  `yaml:"until"`
	Focus []string `yaml:"focus"`
}

type boundsFile struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}
