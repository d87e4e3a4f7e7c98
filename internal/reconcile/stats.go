package reconcile

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/models"
)

// Stats summarises a collection.
type Stats struct {
	Total      int
	Visited    int
	NotVisited int

	ByStatus   map[models.Status]int
	ByInterest map[models.InterestLevel]int

	WithNotes    int
	WithContact  int
	WithFollowUp int
}

// ConversionRate is the share of visited addresses marked Interested, in percent.
func (s Stats) ConversionRate() float64 {
	return rate(s.ByStatus[models.StatusInterested], s.Visited)
}

// SalesRate is the share of visited addresses marked Sale, in percent.
func (s Stats) SalesRate() float64 {
	return rate(s.ByStatus[models.StatusSale], s.Visited)
}

func rate(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) * 100 / float64(of)
}

// Summarize counts the collection by annotation.
func Summarize(collection []models.Address) Stats {
	s := Stats{
		Total:      len(collection),
		ByStatus:   make(map[models.Status]int),
		ByInterest: make(map[models.InterestLevel]int),
	}
	for _, a := range collection {
		if a.Visited == models.VisitedYes {
			s.Visited++
		} else {
			s.NotVisited++
		}
		status := a.Status
		if status == "" {
			status = models.StatusNotContacted
		}
		s.ByStatus[status]++
		if a.InterestLevel != "" {
			s.ByInterest[a.InterestLevel]++
		}
		if strings.TrimSpace(a.Notes) != "" {
			s.WithNotes++
		}
		if strings.TrimSpace(a.ContactInfo) != "" {
			s.WithContact++
		}
		if a.FollowUpDate != "" {
			s.WithFollowUp++
		}
	}
	return s
}

// Period counts activity for records visited within [from, to]. A zero bound
// is open.
type Period struct {
	Visits     int
	Interested int
	Sales      int
	Contacts   int
}

// SummarizePeriod restricts Summarize-style counting to records whose visit
// date falls within [from, to]. Records without a parseable visit date are
// skipped.
func SummarizePeriod(collection []models.Address, from, to time.Time) Period {
	var p Period
	for _, a := range collection {
		d, err := time.Parse(time.DateOnly, a.VisitDate)
		if err != nil {
			continue
		}
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		p.Visits++
		switch a.Status {
		case models.StatusInterested:
			p.Interested++
		case models.StatusSale:
			p.Sales++
		}
		if strings.TrimSpace(a.ContactInfo) != "" {
			p.Contacts++
		}
	}
	return p
}
