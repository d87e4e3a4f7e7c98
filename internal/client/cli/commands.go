package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/reconcile"
)

const defaultPage = 40

var errUsage = errors.New("usage")

// fieldAliases maps short command-line names to editable fields.
var fieldAliases = map[string]models.Field{
	"date":     models.FieldVisitDate,
	"interest": models.FieldInterestLevel,
	"contact":  models.FieldContactInfo,
	"followup": models.FieldFollowUpDate,
	"follow":   models.FieldFollowUpDate,
}

func parseField(s string) (models.Field, error) {
	s = strings.ToLower(s)
	if f, ok := fieldAliases[s]; ok {
		return f, nil
	}
	for _, f := range models.Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnknownField, s)
}

// parseQuery splits "city, province, country" typed as free text.
func parseQuery(args []string) (city, province, country string) {
	parts := strings.SplitN(strings.Join(args, " "), ",", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

func (a *App) Search(ctx context.Context, args []string) error {
	city, province, country := parseQuery(args)
	if city == "" {
		return fmt.Errorf("%w: search <city>[, <province>[, <country>]]", errUsage)
	}

	a.println("Searching", city, "...")
	addrs, err := a.session.Search(ctx, city, province, country)
	switch {
	case errors.Is(err, common.ErrStaleSearch):
		return nil
	case errors.Is(err, common.ErrNetwork):
		return fmt.Errorf("cannot reach the annotations server: %w", err)
	case err != nil:
		return err
	}

	st := reconcile.Summarize(addrs)
	a.println(fmt.Sprintf("%d addresses, %d already visited", st.Total, st.Visited))
	return a.List(nil)
}

func (a *App) List(args []string) error {
	rows := a.session.Displayed()
	limit := defaultPage
	if len(args) > 0 {
		if args[0] == "all" {
			limit = len(rows)
		} else {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("%w: list [all|<n>]", errUsage)
			}
			limit = n
		}
	}
	if len(rows) == 0 {
		a.println("No addresses. Use 'search <city>' or relax the filter.")
		return nil
	}
	renderRows(a.out, rows, limit)
	return nil
}

// Edit takes a 1-based row number as shown by list.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: edit <row> <field> [value]", errUsage)
	}
	row, err := strconv.Atoi(args[0])
	if err != nil || row < 1 {
		return fmt.Errorf("%w: row must be a positive number", errUsage)
	}
	field, err := parseField(args[1])
	if err != nil {
		return err
	}
	value := strings.Join(args[2:], " ")

	if err := a.session.EditField(ctx, row-1, field, value); err != nil {
		return err
	}
	if shown := a.session.Displayed(); row <= len(shown) {
		a.println("Updated", shown[row-1].FullAddress)
	}
	return nil
}

// parseCriteria reads key=value pairs; "stored" alone enables StoredOnly.
func parseCriteria(args []string) (reconcile.Criteria, error) {
	var c reconcile.Criteria
	for _, arg := range args {
		if strings.EqualFold(arg, "stored") {
			c.StoredOnly = true
			continue
		}
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			c.Search = strings.TrimSpace(c.Search + " " + arg)
			continue
		}
		var err error
		switch strings.ToLower(key) {
		case "q", "search":
			c.Search = value
		case "from":
			c.NumberFrom, err = strconv.Atoi(value)
		case "to":
			c.NumberTo, err = strconv.Atoi(value)
		case "status":
			c.Status, err = models.ParseStatus(value)
		case "visited":
			c.Visited, err = models.ParseVisited(value)
		case "interest":
			c.InterestLevel, err = models.ParseInterestLevel(value)
		default:
			err = fmt.Errorf("%w: unknown filter %q", errUsage, key)
		}
		if err != nil {
			return reconcile.Criteria{}, err
		}
	}
	return c, nil
}

func (a *App) Filter(args []string) error {
	c, err := parseCriteria(args)
	if err != nil {
		return err
	}
	rows := a.session.Filter(c)
	if c.Active() {
		a.println(fmt.Sprintf("%d matching addresses", len(rows)))
	} else {
		a.println("Filter cleared")
	}
	return a.List(nil)
}

func (a *App) Status(ctx context.Context) error {
	st, err := a.session.SyncStatus(ctx)
	if err != nil {
		return err
	}
	mode := "offline"
	if st.Online {
		mode = "online"
	}
	a.println(fmt.Sprintf("Connection: %s\nPending edits: %d\nLast sync: %s", mode, st.PendingCount, st.LastSyncText))
	if st.NeedsSync {
		a.println("Run 'sync' when online to upload pending edits.")
	}
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	n, err := a.session.Sync(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		a.println("Nothing to sync")
		return nil
	}
	a.println(fmt.Sprintf("Synced %d addresses", n))
	return nil
}

// Stats prints totals for the loaded collection and activity over the last
// days (7 by default).
func (a *App) Stats(args []string) error {
	days := 7
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: stats [days]", errUsage)
		}
		days = n
	}
	collection := a.session.Collection()
	to := time.Now()
	from := to.AddDate(0, 0, -days+1).Truncate(24 * time.Hour)
	renderStats(a.out, reconcile.Summarize(collection), reconcile.SummarizePeriod(collection, from, to), days)
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	ok, err := Confirm(a.reader, "Delete ALL annotations of "+a.session.User()+" on this device and on the server?", a.out)
	if err != nil || !ok {
		a.println("Cancelled")
		return err
	}
	if err := a.session.ClearAll(ctx); err != nil {
		return err
	}
	a.println("All annotations deleted")
	return nil
}
