package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/client/client"
	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeClock hands out strictly increasing times.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newSync(t *testing.T, remote client.RemoteStore) (*SyncService, *sql.DB) {
	t.Helper()
	db := setupDB(t)
	s := NewSyncService(db, remote, logging.Discard())
	s.now = newClock().Now
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("entry-%d", n)
	}
	return s, db
}

func patch(n, street, city, notes string) models.AnnotationPatch {
	return models.AnnotationPatch{
		HouseNumber: n,
		Street:      street,
		City:        city,
		FullAddress: n + " " + street,
		Annotation:  models.Annotation{Visited: models.VisitedNo, Status: models.StatusNotContacted, Notes: notes},
	}
}

// ---- fake remote store ----

// fakeRemote is an in-memory RemoteStore keyed like the real server.
type fakeRemote struct {
	mu sync.Mutex

	records map[string]map[string]models.AnnotationPatch // user -> key -> record
	nextID  int

	down       bool
	upsertErr  error
	queryErr   error
	deleteErr  error
	upsertLog  [][]models.AnnotationPatch
	updateLog  []string
	deleteLog  []string
	queryDelay chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{records: map[string]map[string]models.AnnotationPatch{}}
}

func (f *fakeRemote) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *fakeRemote) Close() error { return nil }

func (f *fakeRemote) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return client.ErrUnavailable
	}
	return nil
}

func (f *fakeRemote) Upsert(_ context.Context, userID string, records []models.AnnotationPatch) ([]models.AnnotationPatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, client.ErrUnavailable
	}
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.upsertLog = append(f.upsertLog, append([]models.AnnotationPatch(nil), records...))

	if f.records[userID] == nil {
		f.records[userID] = map[string]models.AnnotationPatch{}
	}
	out := make([]models.AnnotationPatch, 0, len(records))
	for _, r := range records {
		if old, ok := f.records[userID][r.Key()]; ok {
			r.RemoteID = old.RemoteID
		} else {
			f.nextID++
			r.RemoteID = fmt.Sprintf("r%d", f.nextID)
		}
		f.records[userID][r.Key()] = r
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRemote) UpdateOne(_ context.Context, userID, id string, a models.Annotation) (models.AnnotationPatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return models.AnnotationPatch{}, client.ErrUnavailable
	}
	f.updateLog = append(f.updateLog, id)
	for k, r := range f.records[userID] {
		if r.RemoteID == id {
			r.Annotation = a
			f.records[userID][k] = r
			return r, nil
		}
	}
	return models.AnnotationPatch{}, common.ErrNotFound
}

func (f *fakeRemote) QueryByCity(_ context.Context, userID, city string) ([]models.AnnotationPatch, error) {
	if f.queryDelay != nil {
		<-f.queryDelay
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, client.ErrUnavailable
	}
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := []models.AnnotationPatch{}
	for _, r := range f.records[userID] {
		if r.City == city {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRemote) DeleteAll(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return client.ErrUnavailable
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleteLog = append(f.deleteLog, userID)
	delete(f.records, userID)
	return nil
}

func (f *fakeRemote) count(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records[userID])
}

func (f *fakeRemote) record(userID string, p models.AnnotationPatch) (models.AnnotationPatch, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[userID][p.Key()]
	return r, ok
}
