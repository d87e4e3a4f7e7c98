package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/client/client"
	"github.com/dmitrijs2005/canvasser/internal/client/repositories/cache"
	"github.com/dmitrijs2005/canvasser/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/canvasser/internal/client/repositories/queue"
	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/dbx"
	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/timex"
	"github.com/google/uuid"
)

// ErrOffline is returned by operations that need the remote store while the
// client is offline. It matches common.ErrNetwork.
var ErrOffline = fmt.Errorf("offline: %w", common.ErrNetwork)

// SyncStatus is a snapshot of the offline queue for one user.
type SyncStatus struct {
	Online       bool
	PendingCount int
	LastSync     time.Time
	// LastSyncText is LastSync for humans, "never" when zero.
	LastSyncText string
	NeedsSync    bool
}

// SaveResult tells the caller where a save ended up.
type SaveResult struct {
	// Stored holds the records the remote store acknowledged, with ids.
	Stored []models.AnnotationPatch
	// Queued counts the records diverted to the offline queue.
	Queued int
}

// SyncService owns the local cache and the offline queue of the client and
// pushes annotations to the remote store when it can.
type SyncService struct {
	db     *sql.DB
	remote client.RemoteStore
	logger logging.Logger

	now   func() time.Time
	newID func() string

	online atomic.Bool

	// localMu makes each cache or queue read-modify-write atomic.
	localMu sync.Mutex
	// flushMu serialises flushes.
	flushMu sync.Mutex
}

func NewSyncService(db *sql.DB, remote client.RemoteStore, logger logging.Logger) *SyncService {
	return &SyncService{
		db:     db,
		remote: remote,
		logger: logger.With("module", "sync"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *SyncService) Online() bool { return s.online.Load() }

// SetOnline records the connectivity state and reports whether it changed.
func (s *SyncService) SetOnline(online bool) bool {
	return s.online.Swap(online) != online
}

// Ping probes the remote store.
func (s *SyncService) Ping(ctx context.Context) error {
	return s.remote.Ping(ctx)
}

// Enqueue appends one batch to the user's offline queue. Batches are never
// collapsed here; Flush resolves overlaps.
func (s *SyncService) Enqueue(ctx context.Context, userID string, patches []models.AnnotationPatch) error {
	if len(patches) == 0 {
		return nil
	}
	s.localMu.Lock()
	defer s.localMu.Unlock()

	e := queue.Entry{ID: s.newID(), Timestamp: s.now(), Patches: patches}
	if err := queue.NewSQLiteRepository(s.db).Append(ctx, userID, e); err != nil {
		return err
	}
	s.logger.Debug(ctx, "queued", "user", userID, "entry", e.ID, "records", len(patches))
	return nil
}

// Dedupe collapses queued entries to one patch per address key. The entry
// with the later timestamp replaces the whole patch; among equal timestamps
// the later entry wins. Keys keep the order of their first appearance.
func Dedupe(entries []queue.Entry) []models.AnnotationPatch {
	ordered := slices.Clone(entries)
	slices.SortStableFunc(ordered, func(a, b queue.Entry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	pos := make(map[string]int)
	out := make([]models.AnnotationPatch, 0)
	for _, e := range ordered {
		for _, p := range e.Patches {
			k := p.Key()
			if i, ok := pos[k]; ok {
				out[i] = p
				continue
			}
			pos[k] = len(out)
			out = append(out, p)
		}
	}
	return out
}

// Flush sends the user's queue to the remote store as one deduplicated batch.
// On success the flushed entries are removed, the returned ids are written to
// the local cache and the last-sync time is recorded, all in one transaction.
// On failure nothing local changes. An empty queue is a successful no-op.
func (s *SyncService) Flush(ctx context.Context, userID string) (int, error) {
	if !s.Online() {
		return 0, ErrOffline
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.localMu.Lock()
	pruned, err := queue.NewSQLiteRepository(s.db).Prune(ctx, userID)
	s.localMu.Unlock()
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		s.logger.Warn(ctx, "dropped undecodable queue entries", "user", userID, "count", pruned)
	}

	entries, err := queue.NewSQLiteRepository(s.db).List(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	batch := Dedupe(entries)
	stored, err := s.remote.Upsert(ctx, userID, batch)
	if err != nil {
		s.logger.Warn(ctx, "flush failed", "user", userID, "records", len(batch), "error", err)
		return 0, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}

	s.localMu.Lock()
	defer s.localMu.Unlock()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := queue.NewSQLiteRepository(tx).Delete(ctx, userID, ids); err != nil {
			return err
		}
		if err := s.mergeCache(ctx, tx, userID, stored); err != nil {
			return err
		}
		return s.setLastSync(ctx, tx, userID)
	})
	if err != nil {
		return 0, fmt.Errorf("flush bookkeeping: %w", err)
	}

	s.logger.Info(ctx, "queue flushed", "user", userID, "entries", len(entries), "records", len(batch))
	return len(batch), nil
}

// SaveAddresses persists the modified records among addresses.
func (s *SyncService) SaveAddresses(ctx context.Context, userID string, addresses []models.Address) (SaveResult, error) {
	return s.Save(ctx, userID, models.ModifiedPatches(addresses))
}

// Save writes patches to the local cache, then to the remote store when
// online. Records with a remote id go through UpdateOne, the rest through one
// Upsert. Queued patches older than an acknowledged record are dropped so a
// later Flush cannot replay them over it. Whatever the remote store does not
// acknowledge is queued; remote errors are never returned. Only local storage
// failures are.
func (s *SyncService) Save(ctx context.Context, userID string, patches []models.AnnotationPatch) (SaveResult, error) {
	var res SaveResult
	if len(patches) == 0 {
		return res, nil
	}

	if err := s.writeCache(ctx, userID, patches); err != nil {
		return res, err
	}

	pending := patches
	if s.Online() {
		cutoff := s.now()
		s.flushMu.Lock()
		res.Stored, pending = s.push(ctx, userID, patches)
		var err error
		if len(res.Stored) > 0 {
			err = s.settle(ctx, userID, res.Stored, cutoff)
		}
		s.flushMu.Unlock()
		if err != nil {
			return res, fmt.Errorf("settle saved records: %w", err)
		}
	}

	if len(pending) > 0 {
		if err := s.Enqueue(ctx, userID, pending); err != nil {
			return res, err
		}
		res.Queued = len(pending)
	}
	return res, nil
}

// push returns what the remote store acknowledged and what it did not.
func (s *SyncService) push(ctx context.Context, userID string, patches []models.AnnotationPatch) (stored, failed []models.AnnotationPatch) {
	var upsert []models.AnnotationPatch

	for _, p := range patches {
		if p.RemoteID == "" {
			upsert = append(upsert, p)
			continue
		}
		rec, err := s.remote.UpdateOne(ctx, userID, p.RemoteID, p.Annotation)
		switch {
		case err == nil:
			stored = append(stored, rec)
		case errors.Is(err, common.ErrNotFound):
			p.RemoteID = ""
			upsert = append(upsert, p)
		default:
			s.logger.Warn(ctx, "update failed, queueing", "user", userID, "id", p.RemoteID, "error", err)
			failed = append(failed, p)
		}
	}

	if len(upsert) > 0 {
		recs, err := s.remote.Upsert(ctx, userID, upsert)
		if err != nil {
			s.logger.Warn(ctx, "upsert failed, queueing", "user", userID, "records", len(upsert), "error", err)
			failed = append(failed, upsert...)
		} else {
			stored = append(stored, recs...)
		}
	}
	return stored, failed
}

// settle writes acknowledged records to the local cache and removes their
// keys from queue entries created up to cutoff, in one transaction. Entries
// left without patches are deleted.
func (s *SyncService) settle(ctx context.Context, userID string, stored []models.AnnotationPatch, cutoff time.Time) error {
	keys := make(map[string]struct{}, len(stored))
	for _, p := range stored {
		keys[p.Key()] = struct{}{}
	}

	s.localMu.Lock()
	defer s.localMu.Unlock()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.mergeCache(ctx, tx, userID, stored); err != nil {
			return err
		}

		repo := queue.NewSQLiteRepository(tx)
		entries, err := repo.List(ctx, userID)
		if err != nil {
			return err
		}

		var drop []string
		for _, e := range entries {
			if e.Timestamp.After(cutoff) {
				continue
			}
			kept := slices.DeleteFunc(slices.Clone(e.Patches), func(p models.AnnotationPatch) bool {
				_, ok := keys[p.Key()]
				return ok
			})
			switch {
			case len(kept) == len(e.Patches):
			case len(kept) == 0:
				drop = append(drop, e.ID)
			default:
				e.Patches = kept
				if err := repo.Update(ctx, userID, e); err != nil {
					return err
				}
			}
		}
		if len(drop) > 0 {
			s.logger.Debug(ctx, "superseded queue entries", "user", userID, "entries", len(drop))
		}
		return repo.Delete(ctx, userID, drop)
	})
}

// Cached returns the user's locally cached annotations for city. A malformed
// cache is logged and read as empty.
func (s *SyncService) Cached(ctx context.Context, userID, city string) ([]models.AnnotationPatch, error) {
	env, err := cache.NewSQLiteRepository(s.db).Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrMalformedCache) {
			return nil, err
		}
		s.logger.Warn(ctx, "ignoring malformed cache", "user", userID, "error", err)
	}
	return env.ForCity(city), nil
}

// Pending returns the deduplicated queued patches for city.
func (s *SyncService) Pending(ctx context.Context, userID, city string) ([]models.AnnotationPatch, error) {
	entries, err := queue.NewSQLiteRepository(s.db).List(ctx, userID)
	if err != nil {
		return nil, err
	}
	env := cache.Empty()
	env.Addresses = Dedupe(entries)
	return env.ForCity(city), nil
}

func (s *SyncService) Status(ctx context.Context, userID string) (SyncStatus, error) {
	n, err := queue.NewSQLiteRepository(s.db).Count(ctx, userID)
	if err != nil {
		return SyncStatus{}, err
	}

	st := SyncStatus{Online: s.Online(), PendingCount: n, NeedsSync: n > 0}

	raw, err := metadata.NewSQLiteRepository(s.db).Get(ctx, userID, metadata.KeyLastSync)
	if err != nil {
		return SyncStatus{}, err
	}
	if raw != nil {
		if t, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
			st.LastSync = t
		}
	}
	st.LastSyncText = timex.HumanSince(st.LastSync, s.now())
	return st, nil
}

// Clear purges the user's annotations from the remote store, then the local
// cache, queue and last-sync time. It requires connectivity; when the remote
// delete fails local data is left alone.
func (s *SyncService) Clear(ctx context.Context, userID string) error {
	if !s.Online() {
		return ErrOffline
	}
	if err := s.remote.DeleteAll(ctx, userID); err != nil {
		return err
	}

	s.localMu.Lock()
	defer s.localMu.Unlock()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := cache.NewSQLiteRepository(tx).Delete(ctx, userID); err != nil {
			return err
		}
		if err := queue.NewSQLiteRepository(tx).Clear(ctx, userID); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Delete(ctx, userID, metadata.KeyLastSync)
	})
}

func (s *SyncService) writeCache(ctx context.Context, userID string, patches []models.AnnotationPatch) error {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.mergeCache(ctx, tx, userID, patches)
	})
}

func (s *SyncService) mergeCache(ctx context.Context, tx dbx.DBTX, userID string, patches []models.AnnotationPatch) error {
	if len(patches) == 0 {
		return nil
	}
	repo := cache.NewSQLiteRepository(tx)
	env, err := repo.Get(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrMalformedCache) {
		return err
	}
	return repo.Put(ctx, userID, env.Merge(patches, s.now()))
}

func (s *SyncService) setLastSync(ctx context.Context, tx dbx.DBTX, userID string) error {
	ts := s.now().UTC().Format(time.RFC3339Nano)
	return metadata.NewSQLiteRepository(tx).Set(ctx, userID, metadata.KeyLastSync, []byte(ts))
}
