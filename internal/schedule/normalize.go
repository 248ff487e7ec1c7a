package schedule

import (
	"fmt"
	"strings"
	"time"

	"museumbooking/internal/domain"
)

// Mode distinguishes booking writes, which enforce the slot grid, from availability queries.
type Mode int

const (
	ModeQuery Mode = iota
	ModeBooking
)

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

// ParseTimestamp accepts RFC 3339 timestamps with an offset, or naive timestamps which are
// read as wall-clock time in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp is empty", domain.ErrInvalidInput)
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: malformed timestamp %q", domain.ErrInvalidInput, raw)
}

// Normalize converts t to a facility-local minute and validates it for experienceType.
// Checks run in order: known type, opening hours, slot grid (ModeBooking only), future.
func (p *Policy) Normalize(t time.Time, experienceType domain.ExperienceType, mode Mode, now time.Time) (domain.Slot, error) {
	exp, ok := p.experiences[experienceType]
	if !ok {
		return domain.Slot{}, fmt.Errorf("%w: unknown experience type %q", domain.ErrInvalidInput, experienceType)
	}

	local := t.In(p.loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), 0, 0, p.loc)
	slot := domain.Slot{ExperienceType: experienceType, At: at}

	tod := timeOfDay(at)
	if tod < p.open || tod > p.lastSlot {
		return domain.Slot{}, fmt.Errorf("%w: %s is outside %s-%s", domain.ErrOutOfHours, tod, p.open, p.lastSlot)
	}

	if mode == ModeBooking && exp.Kind == KindGrid {
		if _, ok := p.grid[tod]; !ok {
			return domain.Slot{}, fmt.Errorf("%w: choose one of %s", domain.ErrInvalidSlotGrid, p.gridList())
		}
	}

	if !at.After(now) {
		return domain.Slot{}, fmt.Errorf("%w: %s", domain.ErrPastBooking, at.Format("2006-01-02 15:04"))
	}

	return slot, nil
}

func (p *Policy) NormalizeRaw(raw string, experienceType domain.ExperienceType, mode Mode, now time.Time) (domain.Slot, error) {
	t, err := ParseTimestamp(raw, p.loc)
	if err != nil {
		return domain.Slot{}, err
	}
	return p.Normalize(t, experienceType, mode, now)
}

func (p *Policy) gridList() string {
	parts := make([]string, len(p.gridOrder))
	for i, g := range p.gridOrder {
		parts[i] = g.String()
	}
	return strings.Join(parts, ", ")
}
