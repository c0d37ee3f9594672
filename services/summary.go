package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"telecom-scraper/models"
)

const summaryWidth = 54

// Summary prints run reports the way an operator reads them at the end of a
// scheduled job.
type Summary struct {
	out io.Writer
}

// NewSummary creates a Summary writing to out.
func NewSummary(out io.Writer) *Summary {
	return &Summary{out: out}
}

// Print renders one report.
func (s *Summary) Print(r *models.RunReport) {
	sep := strings.Repeat("═", summaryWidth)
	thin := strings.Repeat("─", summaryWidth)

	fmt.Fprintf(s.out, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(s.out, "\033[1;35m  %s SCRAPE SUMMARY\033[0m\n", strings.ToUpper(string(r.Kind)))
	fmt.Fprintf(s.out, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(s.out, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(s.out, "  %s\n", thin)
	mode := r.Mode
	if r.Forced {
		mode += " (forced)"
	}
	fmt.Fprintf(s.out, "  Mode                : %s\n", mode)
	fmt.Fprintf(s.out, "  Providers ok/failed : \033[1m%d\033[0m / \033[1m%d\033[0m\n", r.Succeeded, r.Failed)
	fmt.Fprintf(s.out, "  Valid records       : \033[1m%d\033[0m (previous %d)\n", r.TotalRecords, r.Previous)
	fmt.Fprintf(s.out, "  Rejected candidates : %d\n", r.Rejected)
	fmt.Fprintln(s.out)

	fmt.Fprintf(s.out, "\033[1;33m  Providers\033[0m\n")
	fmt.Fprintf(s.out, "  %s\n", thin)
	for _, p := range r.Providers {
		name := padRight(truncate(p.Name, 22), 24)
		switch {
		case p.Skipped != "":
			fmt.Fprintf(s.out, "  %s skipped (%s)\n", name, p.Skipped)
		case p.Failures > 0:
			fmt.Fprintf(s.out, "  %s \033[1;31mfailed\033[0m %s\n", name, truncate(p.Err, 26))
		default:
			fmt.Fprintf(s.out, "  %s \033[1;32m%3d\033[0m kept, %d rejected\n", name, p.Records, p.Rejected)
		}
	}
	fmt.Fprintln(s.out)

	c := r.Changes
	fmt.Fprintf(s.out, "\033[1;33m  Changes\033[0m\n")
	fmt.Fprintf(s.out, "  %s\n", thin)
	if c.IsEmpty() {
		fmt.Fprintf(s.out, "  No changes detected\n")
	} else {
		fmt.Fprintf(s.out, "  New %d | Removed %d | Updated %d (price %d, promotion %d)\n",
			c.New, c.Removed, c.Updated, c.PriceChanges, c.PromotionChanges)
		for _, e := range topPriceMoves(c.Entries, 5) {
			fmt.Fprintf(s.out, "  %s %d → %d kr.\n", padRight(truncate(e.Key, 34), 36), e.OldPrice, e.NewPrice)
		}
	}
	fmt.Fprintln(s.out)

	switch {
	case r.Err != nil:
		fmt.Fprintf(s.out, "  \033[1;31mFAILED:\033[0m %v\n", r.Err)
	case r.Saved:
		fmt.Fprintf(s.out, "  Snapshot saved\n")
	default:
		fmt.Fprintf(s.out, "  Snapshot unchanged\n")
	}
	fmt.Fprintf(s.out, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// topPriceMoves returns up to n price updates, largest absolute move first.
func topPriceMoves(entries []models.RecordChange, n int) []models.RecordChange {
	var moves []models.RecordChange
	for _, e := range entries {
		if e.Type == models.ChangeUpdated && e.PriceChanged {
			moves = append(moves, e)
		}
	}
	sort.SliceStable(moves, func(i, j int) bool {
		return absInt(moves[i].NewPrice-moves[i].OldPrice) > absInt(moves[j].NewPrice-moves[j].OldPrice)
	})
	if len(moves) > n {
		moves = moves[:n]
	}
	return moves
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// truncate cuts s to max display columns. Danish letters count as one column.
func truncate(s string, max int) string {
	return runewidth.Truncate(s, max, "...")
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}
