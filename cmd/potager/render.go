package main

import (
	"fmt"
	"io"
	"strings"

	"potager/internal/planner"
	"potager/pkg/domain"
)

const (
	emptyCell   = "··"
	outsideCell = "  "
)

// renderGarden draws the garden grid with plot cells resolved the same way the
// planner resolves clicks. Plot cells without a crop print as dots.
func renderGarden(w io.Writer, st planner.State) {
	fmt.Fprintf(w, "garden %dx%d", st.Garden.Rows, st.Garden.Cols)
	if st.CurrentVersion != "" {
		fmt.Fprintf(w, " (version %s)", st.CurrentVersion)
	}
	fmt.Fprintln(w)
	for r := 0; r < st.Garden.Rows; r++ {
		var b strings.Builder
		for c := 0; c < st.Garden.Cols; c++ {
			plot, pos, ok := planner.Resolve(st.Plots, st.Positions, r, c)
			if !ok {
				b.WriteString(outsideCell)
				continue
			}
			cell := plot.Grid[planner.RelativeIndex(plot, pos, r, c)]
			if cell == nil {
				b.WriteString(emptyCell)
				continue
			}
			b.WriteString(cell.Emoji)
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func renderPlots(w io.Writer, st planner.State) {
	for _, p := range st.Plots {
		pos, placed := st.Positions[p.ID]
		at := "unplaced"
		if placed {
			at = fmt.Sprintf("at %d,%d", pos.Row, pos.Col)
		}
		filled := 0
		for _, cell := range p.Grid {
			if cell != nil {
				filled++
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\t%d/%d planted\n", p.ID, p.Name, p.Rows, p.Cols, at, filled, len(p.Grid))
	}
}

func renderDeadlines(w io.Writer, deadlines []planner.Deadline) {
	if len(deadlines) == 0 {
		fmt.Fprintln(w, "no deadlines in the next 15 days")
		return
	}
	for _, d := range deadlines {
		fmt.Fprintf(w, "%s %s\t%s\t%s\tin %d days\n", d.Icon, d.Date.Format("2006-01-02"), d.Culture, d.Milestone, d.DaysRemaining)
	}
}

// renderCalendar prints one line per month: season days as '#', others as
// '.', milestone days as their icon.
func renderCalendar(w io.Writer, c domain.Culture, days []planner.CalendarDay) {
	fmt.Fprintf(w, "%s %s\n", c.Emoji, c.Name)
	var line strings.Builder
	month := -1
	flush := func() {
		if line.Len() > 0 {
			fmt.Fprintln(w, line.String())
			line.Reset()
		}
	}
	for _, d := range days {
		if int(d.Date.Month()) != month {
			flush()
			month = int(d.Date.Month())
			fmt.Fprintf(&line, "%-4s", d.Date.Format("Jan"))
		}
		switch {
		case len(d.Icons) > 0:
			line.WriteString(d.Icons[0])
		case d.InSeason:
			line.WriteByte('#')
		default:
			line.WriteByte('.')
		}
	}
	flush()
}

func renderVersions(w io.Writer, versions []domain.Version, current string) {
	for _, v := range versions {
		marker := " "
		if v.ID == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\t%d plots\n", marker, v.ID, v.CreatedAt.Format("2006-01-02 15:04"), v.Name, len(v.Plots))
	}
}

// noticeRestored names the version Load restored, if any.
func noticeRestored(w io.Writer, st planner.State) {
	if st.CurrentVersion == "" {
		return
	}
	for _, v := range st.Versions {
		if v.ID == st.CurrentVersion {
			fmt.Fprintf(w, "restored version %s (%s); plots created after it are not shown\n", v.Name, v.ID)
			return
		}
	}
}
