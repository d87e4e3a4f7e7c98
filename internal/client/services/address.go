package services

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/dmitrijs2005/canvasser/internal/client/client"
	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/generator"
	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/reconcile"
)

// Searcher produces the address universe of a city.
type Searcher interface {
	Search(ctx context.Context, q generator.Query) ([]models.Address, error)
}

// NoticeKind classifies background persistence outcomes.
type NoticeKind string

const (
	NoticeSynced NoticeKind = "synced"
	NoticeQueued NoticeKind = "queued"
	NoticeFailed NoticeKind = "failed"
)

// Notice reports what happened to one edit after EditField returned.
type Notice struct {
	Kind    NoticeKind
	Address models.Address
	Err     error
}

const noticeBuffer = 64

// ErrClosed is returned by EditField after Close.
var ErrClosed = errors.New("address service closed")

// AddressOptions tune AddressService.
type AddressOptions struct {
	// OfflineSearch lets Search fall back to the local cache when the remote
	// store cannot be read, instead of failing with a network error.
	OfflineSearch bool
}

type saveJob struct {
	user string
	rec  models.Address
}

// AddressService is the caller-facing session: it holds the loaded address
// collection of the active user and the filtered view shown to them.
type AddressService struct {
	searcher Searcher
	remote   client.RemoteStore
	sync     *SyncService
	logger   logging.Logger
	opts     AddressOptions

	mu         sync.Mutex
	user       string
	generation uint64
	collection []models.Address
	criteria   reconcile.Criteria
	displayed  []models.Address

	notices chan Notice

	// saveMu guards closed and sends on saves.
	saveMu    sync.Mutex
	closed    bool
	saves     chan saveJob
	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

func NewAddressService(searcher Searcher, remote client.RemoteStore, s *SyncService, logger logging.Logger, opts AddressOptions) *AddressService {
	return &AddressService{
		searcher: searcher,
		remote:   remote,
		sync:     s,
		logger:   logger.With("module", "addresses"),
		opts:     opts,
		notices:  make(chan Notice, noticeBuffer),
		saves:    make(chan saveJob, noticeBuffer),
		done:     make(chan struct{}),
	}
}

// Notifications delivers persistence outcomes of edits. Notices are dropped
// when nobody reads them fast enough.
func (s *AddressService) Notifications() <-chan Notice {
	return s.notices
}

func (s *AddressService) notify(n Notice) {
	select {
	case s.notices <- n:
	default:
	}
}

// User returns the active user id.
func (s *AddressService) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// SetUser switches the active user. The loaded collection is dropped and any
// search still in flight is invalidated.
func (s *AddressService) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == userID {
		return
	}
	s.user = userID
	s.generation++
	s.collection = nil
	s.displayed = nil
	s.criteria = reconcile.Criteria{}
}

// Search generates the addresses of a city, overlays the user's stored
// annotations and replaces the loaded collection. If a newer search started
// meanwhile the result is discarded and ErrStaleSearch returned.
func (s *AddressService) Search(ctx context.Context, city, province, country string) ([]models.Address, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	user := s.user
	s.mu.Unlock()

	if user == "" {
		return nil, common.ErrNoUser
	}

	generated, err := s.searcher.Search(ctx, generator.Query{City: city, Province: province, Country: country})
	if err != nil {
		return nil, err
	}

	stored, err := s.stored(ctx, user, city)
	if err != nil {
		return nil, err
	}
	merged := reconcile.MergePatches(generated, stored)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug(ctx, "discarding stale search", "city", city)
		return nil, common.ErrStaleSearch
	}
	s.collection = merged
	s.criteria = reconcile.Criteria{}
	s.displayed = slices.Clone(merged)

	s.logger.Info(ctx, "search finished", "city", city, "addresses", len(merged), "annotated", len(stored))
	return slices.Clone(merged), nil
}

// stored collects the annotations to overlay: the remote records, then the
// edits still waiting in the offline queue, which are newer.
func (s *AddressService) stored(ctx context.Context, user, city string) ([]models.AnnotationPatch, error) {
	remote, err := s.remote.QueryByCity(ctx, user, city)
	if err != nil {
		if !s.opts.OfflineSearch {
			return nil, err
		}
		s.logger.Warn(ctx, "remote read failed, using local cache", "city", city, "error", err)
		cached, cerr := s.sync.Cached(ctx, user, city)
		if cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return cached, nil
	}

	pending, err := s.sync.Pending(ctx, user, city)
	if err != nil {
		s.logger.Warn(ctx, "reading queued edits failed", "error", err)
		return remote, nil
	}
	return append(remote, pending...), nil
}

// EditField sets field on the displayed row at displayIndex and on its
// counterpart in the loaded collection. Persistence happens in the
// background; outcomes arrive on Notifications. An index or row that matches
// nothing leaves everything unchanged and is not an error. Invalid values are.
func (s *AddressService) EditField(ctx context.Context, displayIndex int, field models.Field, value string) error {
	if s.isClosed() {
		return ErrClosed
	}

	s.mu.Lock()
	if displayIndex < 0 || displayIndex >= len(s.displayed) {
		s.mu.Unlock()
		s.logger.Debug(ctx, "edit ignored, index out of range", "index", displayIndex)
		return nil
	}

	collection, updated, ok, err := reconcile.ApplyEdit(s.collection, s.displayed[displayIndex], field, value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !ok {
		s.mu.Unlock()
		s.logger.Debug(ctx, "edit ignored, row not in collection", "index", displayIndex)
		return nil
	}

	s.collection = collection
	displayed := slices.Clone(s.displayed)
	displayed[displayIndex] = updated
	s.displayed = displayed
	user := s.user
	s.mu.Unlock()

	return s.enqueueSave(saveJob{user: user, rec: updated})
}

func (s *AddressService) isClosed() bool {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.closed
}

func (s *AddressService) enqueueSave(job saveJob) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.startOnce.Do(func() { go s.saveLoop() })
	s.saves <- job
	return nil
}

// saveLoop persists edits one at a time, in edit order.
func (s *AddressService) saveLoop() {
	defer close(s.done)
	for job := range s.saves {
		s.persist(job)
	}
}

func (s *AddressService) persist(job saveJob) {
	ctx := context.Background()

	res, err := s.sync.Save(ctx, job.user, []models.AnnotationPatch{job.rec.Patch()})
	switch {
	case err != nil:
		s.logger.Error(ctx, "saving edit failed", "address", job.rec.FullAddress, "error", err)
		s.notify(Notice{Kind: NoticeFailed, Address: job.rec, Err: err})
	case res.Queued > 0:
		s.notify(Notice{Kind: NoticeQueued, Address: job.rec})
	default:
		rec := job.rec
		for _, p := range res.Stored {
			if p.Key() == rec.Key() && p.RemoteID != "" {
				rec.RemoteID = p.RemoteID
				s.adoptRemoteID(job.user, rec)
			}
		}
		s.notify(Notice{Kind: NoticeSynced, Address: rec})
	}
}

// adoptRemoteID records the id the remote store assigned to rec.
func (s *AddressService) adoptRemoteID(user string, rec models.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != user {
		return
	}
	if i := reconcile.IndexOf(s.collection, rec); i >= 0 && s.collection[i].RemoteID == "" {
		s.collection = slices.Clone(s.collection)
		s.collection[i].RemoteID = rec.RemoteID
	}
	if i := reconcile.IndexOf(s.displayed, rec); i >= 0 && s.displayed[i].RemoteID == "" {
		s.displayed = slices.Clone(s.displayed)
		s.displayed[i].RemoteID = rec.RemoteID
	}
}

// Close stops accepting edits and waits for queued saves to finish.
func (s *AddressService) Close() {
	s.closeOnce.Do(func() {
		s.saveMu.Lock()
		s.closed = true
		s.startOnce.Do(func() { close(s.done) })
		close(s.saves)
		s.saveMu.Unlock()
		<-s.done
	})
}

// Filter narrows the displayed rows of the loaded collection.
func (s *AddressService) Filter(c reconcile.Criteria) []models.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = c
	s.displayed = reconcile.Filter(s.collection, c)
	return slices.Clone(s.displayed)
}

// Displayed returns the rows currently shown, in display order.
func (s *AddressService) Displayed() []models.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.displayed)
}

// Collection returns the whole loaded collection.
func (s *AddressService) Collection() []models.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.collection)
}

func (s *AddressService) Stats() reconcile.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reconcile.Summarize(s.collection)
}

func (s *AddressService) SyncStatus(ctx context.Context) (SyncStatus, error) {
	user := s.User()
	if user == "" {
		return SyncStatus{}, common.ErrNoUser
	}
	return s.sync.Status(ctx, user)
}

// Sync flushes the active user's offline queue.
func (s *AddressService) Sync(ctx context.Context) (int, error) {
	user := s.User()
	if user == "" {
		return 0, common.ErrNoUser
	}
	return s.sync.Flush(ctx, user)
}

// ClearAll purges the active user's annotations everywhere and resets the
// loaded collection to defaults. Confirmation is the caller's business.
func (s *AddressService) ClearAll(ctx context.Context) error {
	user := s.User()
	if user == "" {
		return common.ErrNoUser
	}
	if err := s.sync.Clear(ctx, user); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != user {
		return nil
	}
	reset := make([]models.Address, len(s.collection))
	for i, a := range s.collection {
		a.RemoteID = ""
		a.Annotation = models.DefaultAnnotation()
		reset[i] = a
	}
	s.collection = reset
	s.displayed = reconcile.Filter(reset, s.criteria)
	return nil
}
