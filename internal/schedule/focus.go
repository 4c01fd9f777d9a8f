package schedule

import (
	"fmt"

	"github.com/terra-clan/curriculum-engine/internal/models"
	"github.com/terra-clan/curriculum-engine/internal/progression"
)

// WeekFocus derives the stage and descriptive focus text of a week. It is a
// pure function of (week, totalWeeks) and the profile.
func WeekFocus(profile *progression.Profile, week, totalWeeks int) (models.ProgressStage, string) {
	if profile == nil {
		profile = progression.Default()
	}
	if totalWeeks <= 0 || week <= 0 {
		first := profile.Stages[0]
		return first.Name, fmt.Sprintf("%s: %s", first.Label, first.Focus[0])
	}

	stage := profile.StageFor(progress(week, totalWeeks))

	// index of this week among the weeks of the same stage
	idx := 0
	for w := week - 1; w >= 1; w-- {
		if profile.StageFor(progress(w, totalWeeks)).Name != stage.Name {
			break
		}
		idx++
	}

	return stage.Name, fmt.Sprintf("%s: %s", stage.Label, stage.Focus[idx%len(stage.Focus)])
}

func progress(n, total int) float64 {
	return float64(n) / float64(total)
}
