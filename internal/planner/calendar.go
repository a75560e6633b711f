package planner

import (
	"time"

	"potager/pkg/domain"
)

// CalendarDay is one day of a culture's yearly calendar.
type CalendarDay struct {
	Date time.Time
	// Icons holds the milestone markers falling on this day.
	Icons []string
	// InSeason is set between the sow date and the harvest date inclusive.
	InSeason bool
}

// Calendar lays out a culture over every day of year. Without a harvest date
// only the sow day is in season.
func Calendar(c domain.Culture, year int) []CalendarDay {
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(1, 0, 0)

	sow, hasSow := ParseDate(c.SowDate)
	harvest, hasHarvest := ParseDate(c.HarvestDate)
	transplant, hasTransplant := ParseDate(c.TransplantDate)
	seasonEnd := harvest
	if !hasHarvest {
		seasonEnd = sow
	}

	var days []CalendarDay
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		day := CalendarDay{Date: d}
		if hasSow && d.Equal(sow) {
			day.Icons = append(day.Icons, MilestoneSow.Icon())
		}
		if hasTransplant && d.Equal(transplant) {
			day.Icons = append(day.Icons, MilestoneTransplant.Icon())
		}
		if hasHarvest && d.Equal(harvest) {
			day.Icons = append(day.Icons, MilestoneHarvest.Icon())
		}
		day.InSeason = hasSow && !d.Before(sow) && !d.After(seasonEnd)
		days = append(days, day)
	}
	return days
}
