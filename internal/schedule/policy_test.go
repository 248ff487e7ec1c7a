package schedule

import (
	"testing"
	"time"

	"museumbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicy_Validation(t *testing.T) {
	base := DefaultOptions(time.UTC)

	noLoc := base
	noLoc.Location = nil
	_, err := NewPolicy(noLoc)
	assert.Error(t, err)

	badCapacity := base
	badCapacity.Experiences = []Experience{{Type: "x", Kind: KindGrid, Capacity: 0}}
	_, err = NewPolicy(badCapacity)
	assert.Error(t, err)

	gridOutside := base
	gridOutside.Grid = []TimeOfDay{NewTimeOfDay(20, 0)}
	_, err = NewPolicy(gridOutside)
	assert.Error(t, err)

	gridless := base
	gridless.Grid = nil
	_, err = NewPolicy(gridless)
	assert.Error(t, err)

	gridless.Experiences = []Experience{{Type: "open", Kind: KindWindow, Capacity: 5}}
	_, err = NewPolicy(gridless)
	assert.NoError(t, err)
}

func TestPolicy_ExperiencesSorted(t *testing.T) {
	p, err := NewPolicy(DefaultOptions(time.UTC))
	require.NoError(t, err)

	exps := p.Experiences()
	require.Len(t, exps, 2)
	assert.Equal(t, domain.ExperienceGuidedTour, exps[0].Type)
	assert.Equal(t, 20, exps[0].Capacity)
	assert.Equal(t, domain.ExperienceTourTasting, exps[1].Type)
	assert.Equal(t, 12, exps[1].Capacity)
}

func TestParseExperiences(t *testing.T) {
	exps, err := ParseExperiences([]string{"guided_tour:grid:20", " open_gallery : Window : 40 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []Experience{
		{Type: "guided_tour", Kind: KindGrid, Capacity: 20},
		{Type: "open_gallery", Kind: KindWindow, Capacity: 40},
	}, exps)

	_, err = ParseExperiences([]string{"guided_tour:grid"})
	assert.Error(t, err)
	_, err = ParseExperiences([]string{"guided_tour:grid:many"})
	assert.Error(t, err)
}

func TestParseGrid(t *testing.T) {
	grid, err := ParseGrid([]string{"09:00", "10:30"})
	require.NoError(t, err)
	assert.Equal(t, []TimeOfDay{540, 630}, grid)
	assert.Equal(t, "10:30", grid[1].String())

	_, err = ParseGrid([]string{"9h"})
	assert.Error(t, err)
}
