// Package schedule turns raw timestamps into canonical facility-local slots and checks them
// against opening hours, the slot grid and the per-experience policy table.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"museumbooking/internal/domain"
)

// Kind selects how slot start times are restricted for an experience type.
type Kind string

const (
	// KindGrid allows only the configured slot start times.
	KindGrid Kind = "grid"
	// KindWindow allows any minute within opening hours.
	KindWindow Kind = "window"
)

type Experience struct {
	Type     domain.ExperienceType `json:"experience_type"`
	Kind     Kind                  `json:"policy"`
	Capacity int                   `json:"capacity"`
}

// TimeOfDay is a wall-clock time as minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func timeOfDay(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

type Options struct {
	Location    *time.Location
	Open        TimeOfDay
	LastSlot    TimeOfDay
	Grid        []TimeOfDay
	Experiences []Experience
}

// DefaultOptions mirrors the museum's published schedule.
func DefaultOptions(loc *time.Location) Options {
	return Options{
		Location: loc,
		Open:     NewTimeOfDay(9, 0),
		LastSlot: NewTimeOfDay(19, 30),
		Grid: []TimeOfDay{
			NewTimeOfDay(9, 0),
			NewTimeOfDay(10, 30),
			NewTimeOfDay(12, 0),
			NewTimeOfDay(15, 0),
			NewTimeOfDay(16, 30),
			NewTimeOfDay(18, 0),
		},
		Experiences: []Experience{
			{Type: domain.ExperienceGuidedTour, Kind: KindGrid, Capacity: 20},
			{Type: domain.ExperienceTourTasting, Kind: KindGrid, Capacity: 12},
		},
	}
}

// Policy is immutable after construction and safe for concurrent use.
type Policy struct {
	loc         *time.Location
	open        TimeOfDay
	lastSlot    TimeOfDay
	grid        map[TimeOfDay]struct{}
	gridOrder   []TimeOfDay
	experiences map[domain.ExperienceType]Experience
}

func NewPolicy(opts Options) (*Policy, error) {
	if opts.Location == nil {
		return nil, fmt.Errorf("schedule: location is required")
	}
	if opts.LastSlot < opts.Open {
		return nil, fmt.Errorf("schedule: last slot %s is before opening %s", opts.LastSlot, opts.Open)
	}
	if len(opts.Experiences) == 0 {
		return nil, fmt.Errorf("schedule: at least one experience type is required")
	}

	p := &Policy{
		loc:         opts.Location,
		open:        opts.Open,
		lastSlot:    opts.LastSlot,
		grid:        make(map[TimeOfDay]struct{}, len(opts.Grid)),
		experiences: make(map[domain.ExperienceType]Experience, len(opts.Experiences)),
	}

	for _, g := range opts.Grid {
		if g < opts.Open || g > opts.LastSlot {
			return nil, fmt.Errorf("schedule: grid slot %s is outside opening hours", g)
		}
		if _, dup := p.grid[g]; dup {
			continue
		}
		p.grid[g] = struct{}{}
		p.gridOrder = append(p.gridOrder, g)
	}
	sort.Slice(p.gridOrder, func(i, j int) bool { return p.gridOrder[i] < p.gridOrder[j] })

	for _, e := range opts.Experiences {
		if e.Type == "" {
			return nil, fmt.Errorf("schedule: experience type name is empty")
		}
		if e.Capacity <= 0 {
			return nil, fmt.Errorf("schedule: capacity for %s must be > 0", e.Type)
		}
		if e.Kind != KindGrid && e.Kind != KindWindow {
			return nil, fmt.Errorf("schedule: unknown policy %q for %s", e.Kind, e.Type)
		}
		if e.Kind == KindGrid && len(p.gridOrder) == 0 {
			return nil, fmt.Errorf("schedule: %s uses the slot grid but no grid is configured", e.Type)
		}
		p.experiences[e.Type] = e
	}

	return p, nil
}

func (p *Policy) Location() *time.Location { return p.loc }

func (p *Policy) Experience(t domain.ExperienceType) (Experience, bool) {
	e, ok := p.experiences[t]
	return e, ok
}

// Experiences returns the policy table sorted by type name.
func (p *Policy) Experiences() []Experience {
	out := make([]Experience, 0, len(p.experiences))
	for _, e := range p.experiences {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func (p *Policy) Grid() []TimeOfDay {
	return append([]TimeOfDay(nil), p.gridOrder...)
}

// Local converts t to facility wall-clock time.
func (p *Policy) Local(t time.Time) time.Time {
	return t.In(p.loc)
}

// ParseExperiences reads entries of the form "name:kind:capacity".
func ParseExperiences(entries []string) ([]Experience, error) {
	out := make([]Experience, 0, len(entries))
	for _, raw := range entries {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid experience %q, want name:kind:capacity", raw)
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid capacity in %q: %w", raw, err)
		}
		out = append(out, Experience{
			Type:     domain.ExperienceType(strings.TrimSpace(parts[0])),
			Kind:     Kind(strings.ToLower(strings.TrimSpace(parts[1]))),
			Capacity: capacity,
		})
	}
	return out, nil
}

func ParseGrid(entries []string) ([]TimeOfDay, error) {
	out := make([]TimeOfDay, 0, len(entries))
	for _, raw := range entries {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		t, err := ParseTimeOfDay(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
