package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/canvasser/internal/client/services"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/reconcile"
)

const notesWidth = 30

func renderRows(w io.Writer, rows []models.Address, limit int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tADDRESS\tVISITED\tSTATUS\tINTEREST\tNOTES\t")
	for i, r := range rows {
		if i >= limit {
			break
		}
		stored := ""
		if r.RemoteID != "" {
			stored = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\t%s\t%s\t\n",
			i+1, stored, r.FullAddress, r.Visited, r.Status, r.InterestLevel, truncate(r.Notes, notesWidth))
	}
	_ = tw.Flush()
	if len(rows) > limit {
		fmt.Fprintf(w, "... %d more, 'list all' to see everything\n", len(rows)-limit)
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func renderStats(w io.Writer, st reconcile.Stats, p reconcile.Period, days int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", st.Total)
	fmt.Fprintf(tw, "Visited\t%d\n", st.Visited)
	fmt.Fprintf(tw, "Not visited\t%d\n", st.NotVisited)

	statuses := make([]string, 0, len(st.ByStatus))
	for s := range st.ByStatus {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(tw, "  %s\t%d\n", s, st.ByStatus[models.Status(s)])
	}
	for _, l := range []models.InterestLevel{models.InterestHigh, models.InterestMedium, models.InterestLow, models.InterestNone} {
		if n := st.ByInterest[l]; n > 0 {
			fmt.Fprintf(tw, "  interest %s\t%d\n", l, n)
		}
	}
	fmt.Fprintf(tw, "With notes\t%d\n", st.WithNotes)
	fmt.Fprintf(tw, "With contact\t%d\n", st.WithContact)
	fmt.Fprintf(tw, "With follow-up\t%d\n", st.WithFollowUp)
	fmt.Fprintf(tw, "Conversion\t%.1f%%\n", st.ConversionRate())
	fmt.Fprintf(tw, "Sales\t%.1f%%\n", st.SalesRate())
	fmt.Fprintf(tw, "Last %d days\t%d visits, %d interested, %d sales, %d contacts\n", days, p.Visits, p.Interested, p.Sales, p.Contacts)
	_ = tw.Flush()
}

func formatNotice(n services.Notice) string {
	switch n.Kind {
	case services.NoticeSynced:
		return "* saved " + n.Address.FullAddress
	case services.NoticeQueued:
		return "* queued " + n.Address.FullAddress + " (offline)"
	default:
		return fmt.Sprintf("* could not save %s: %v", n.Address.FullAddress, n.Err)
	}
}
