package planner

import (
	"sort"
	"time"

	"potager/pkg/domain"
)

// DeadlineWindow is how far ahead Deadlines looks, inclusive.
const DeadlineWindow = 15 * 24 * time.Hour

const dateLayout = "2006-01-02"

// Milestone names a dated step of a culture.
type Milestone string

const (
	MilestoneSow        Milestone = "sow"
	MilestoneTransplant Milestone = "transplant"
	MilestoneHarvest    Milestone = "harvest"
)

// Icon returns the marker shown for the milestone.
func (m Milestone) Icon() string {
	switch m {
	case MilestoneSow:
		return "🌱"
	case MilestoneTransplant:
		return "🌿"
	case MilestoneHarvest:
		return "🥕"
	}
	return ""
}

// Deadline is one upcoming culture milestone.
type Deadline struct {
	CultureID     string    `json:"culture_id"`
	Culture       string    `json:"culture"`
	Date          time.Time `json:"date"`
	Milestone     Milestone `json:"milestone"`
	Icon          string    `json:"icon"`
	DaysRemaining int       `json:"days_remaining"`
}

// Deadlines lists the sow, transplant and harvest dates falling between today
// and today+15 days inclusive, by date. Missing or unparseable dates are
// skipped. Only the calendar day of today is used.
func Deadlines(cultures []domain.Culture, today time.Time) []Deadline {
	start := Day(today)
	end := start.Add(DeadlineWindow)
	var out []Deadline
	for _, c := range cultures {
		for _, m := range []struct {
			value     string
			milestone Milestone
		}{
			{c.SowDate, MilestoneSow},
			{c.TransplantDate, MilestoneTransplant},
			{c.HarvestDate, MilestoneHarvest},
		} {
			date, ok := ParseDate(m.value)
			if !ok || date.Before(start) || date.After(end) {
				continue
			}
			out = append(out, Deadline{
				CultureID:     c.ID,
				Culture:       c.Name,
				Date:          date,
				Milestone:     m.milestone,
				Icon:          m.milestone.Icon(),
				DaysRemaining: daysBetween(start, date),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ParseDate parses a YYYY-MM-DD culture date as UTC midnight.
func ParseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Day returns UTC midnight of t's calendar date in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	diff := to.Sub(from)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}
