package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/canvasser/internal/client/config"
	"github.com/dmitrijs2005/canvasser/internal/client/services"
	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/generator"
	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	user       string
	collection []models.Address
	displayed  []models.Address
	searchErr  error
	edits      []string
	cleared    bool
	criteria   reconcile.Criteria
	status     services.SyncStatus
	synced     int
	notices    chan services.Notice
}

func (f *fakeSession) Search(_ context.Context, city, province, country string) ([]models.Address, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.collection = generator.Generate(city, province, []string{"Calle Mayor"})
	f.displayed = f.collection
	return f.collection, nil
}

func (f *fakeSession) EditField(_ context.Context, i int, field models.Field, value string) error {
	if err := models.ValidateField(field, value); err != nil {
		return err
	}
	f.edits = append(f.edits, strings.Join([]string{string(rune('0' + i)), string(field), value}, "|"))
	return nil
}

func (f *fakeSession) Filter(c reconcile.Criteria) []models.Address {
	f.criteria = c
	f.displayed = reconcile.Filter(f.collection, c)
	return f.displayed
}

func (f *fakeSession) Displayed() []models.Address { return f.displayed }
func (f *fakeSession) Collection() []models.Address { return f.collection }
func (f *fakeSession) Stats() reconcile.Stats { return reconcile.Summarize(f.collection) }
func (f *fakeSession) SyncStatus(context.Context) (services.SyncStatus, error) {
	return f.status, nil
}
func (f *fakeSession) Sync(context.Context) (int, error) { return f.synced, nil }
func (f *fakeSession) ClearAll(context.Context) error {
	f.cleared = true
	return nil
}
func (f *fakeSession) User() string { return f.user }
func (f *fakeSession) SetUser(u string) { f.user = u }
func (f *fakeSession) Notifications() <-chan services.Notice { return f.notices }
func (f *fakeSession) Close() {}

type fakeAuth struct {
	user   string
	err    error
	logins []string
}

func (f *fakeAuth) Login(_ context.Context, token string) (string, error) {
	f.logins = append(f.logins, token)
	return f.user, f.err
}
func (f *fakeAuth) Restore(context.Context) (string, error) {
	if f.user == "" {
		return "", common.ErrNoUser
	}
	return f.user, nil
}
func (f *fakeAuth) Logout(context.Context) error {
	f.user = ""
	return nil
}

func newTestApp(input string) (*App, *fakeSession, *fakeAuth, *bytes.Buffer) {
	s := &fakeSession{user: "u1", notices: make(chan services.Notice, 1)}
	auth := &fakeAuth{user: "u1"}
	out := &bytes.Buffer{}
	a := &App{
		config:  &config.Config{},
		logger:  logging.Discard(),
		session: s,
		auth:    auth,
		reader:  rdr(input),
		out:     out,
	}
	return a, s, auth, out
}

func TestApp_SearchListEdit(t *testing.T) {
	a, s, _, out := newTestApp("")
	ctx := context.Background()

	require.NoError(t, a.Search(ctx, []string{"Madrid,", "Madrid"}))
	assert.Contains(t, out.String(), "120 addresses, 0 already visited")
	assert.Contains(t, out.String(), "1 Calle Mayor")
	assert.Contains(t, out.String(), "80 more")

	require.NoError(t, a.Edit(ctx, []string{"2", "notes", "call", "back"}))
	require.NoError(t, a.Edit(ctx, []string{"1", "interest", "alto"}))
	assert.Equal(t, []string{"1|notes|call back", "0|interest_level|alto"}, s.edits)

	require.ErrorIs(t, a.Edit(ctx, []string{"1", "colour", "red"}), models.ErrUnknownField)
	require.ErrorIs(t, a.Edit(ctx, []string{"1", "date", "someday"}), models.ErrInvalidValue)
	require.ErrorIs(t, a.Edit(ctx, []string{"zero", "notes"}), errUsage)
	require.ErrorIs(t, a.Search(ctx, nil), errUsage)
}

func TestApp_SearchErrors(t *testing.T) {
	a, s, _, _ := newTestApp("")

	s.searchErr = common.ErrStaleSearch
	require.NoError(t, a.Search(context.Background(), []string{"Madrid"}))

	s.searchErr = common.ErrNetwork
	require.ErrorIs(t, a.Search(context.Background(), []string{"Madrid"}), common.ErrNetwork)
}

func TestApp_Filter(t *testing.T) {
	a, s, _, out := newTestApp("")
	_, _ = s.Search(context.Background(), "Madrid", "", "")

	require.NoError(t, a.Filter([]string{"from=1", "to=9", "status=venta", "stored", "mayor"}))
	assert.Equal(t, reconcile.Criteria{
		Search: "mayor", NumberFrom: 1, NumberTo: 9, Status: models.StatusSale, StoredOnly: true,
	}, s.criteria)
	assert.Contains(t, out.String(), "0 matching addresses")

	require.NoError(t, a.Filter(nil))
	assert.Contains(t, out.String(), "Filter cleared")

	require.Error(t, a.Filter([]string{"colour=red"}))
	require.ErrorIs(t, a.Filter([]string{"status=maybe"}), models.ErrInvalidValue)
}

func TestApp_StatusSyncStats(t *testing.T) {
	a, s, _, out := newTestApp("")
	s.status = services.SyncStatus{PendingCount: 2, LastSyncText: "never", NeedsSync: true}
	s.synced = 2
	_, _ = s.Search(context.Background(), "Madrid", "", "")

	require.NoError(t, a.Status(context.Background()))
	require.NoError(t, a.Sync(context.Background()))
	require.NoError(t, a.Stats(nil))
	require.ErrorIs(t, a.Stats([]string{"-1"}), errUsage)

	got := out.String()
	assert.Contains(t, got, "Connection: offline")
	assert.Contains(t, got, "Pending edits: 2")
	assert.Contains(t, got, "Last sync: never")
	assert.Contains(t, got, "Synced 2 addresses")
	assert.Contains(t, got, "Last 7 days")
}

func TestApp_ClearNeedsConfirmation(t *testing.T) {
	a, s, _, out := newTestApp("n\ny\n")

	require.NoError(t, a.Clear(context.Background()))
	assert.False(t, s.cleared)
	assert.Contains(t, out.String(), "Cancelled")

	require.NoError(t, a.Clear(context.Background()))
	assert.True(t, s.cleared)
}

func TestApp_LoginLogout(t *testing.T) {
	a, s, auth, _ := newTestApp("prompted\n")
	orig := getSecret
	getSecret = GetSimpleText
	t.Cleanup(func() { getSecret = orig })
	s.user = ""

	auth.user = "u7"
	require.NoError(t, a.Login(context.Background(), []string{"tok"}))
	assert.Equal(t, "u7", s.user)

	require.NoError(t, a.Login(context.Background(), nil))
	assert.Equal(t, []string{"tok", "prompted"}, auth.logins)

	require.NoError(t, a.Logout(context.Background()))
	assert.Empty(t, s.user)

	auth.err = common.ErrInvalidToken
	require.ErrorIs(t, a.Login(context.Background(), []string{"bad"}), common.ErrInvalidToken)
	assert.Empty(t, s.user)
}

func TestApp_Restore(t *testing.T) {
	a, s, auth, out := newTestApp("")
	s.user = ""
	a.restore(context.Background())
	assert.Equal(t, "u1", s.user)
	assert.Contains(t, out.String(), "Logged in as u1")

	a, s, auth, out = newTestApp("")
	s.user, auth.user = "", ""
	a.restore(context.Background())
	assert.Empty(t, s.user)
	assert.Contains(t, out.String(), "Not logged in")

	a, s, auth, _ = newTestApp("")
	s.user = ""
	auth.user = "u9"
	a.config.AccessToken = "env-token"
	a.restore(context.Background())
	assert.Equal(t, "u9", s.user)
	assert.Equal(t, []string{"env-token"}, auth.logins)
}

func TestFormatNotice(t *testing.T) {
	addr := models.Address{FullAddress: "1 Calle Mayor"}
	assert.Equal(t, "* saved 1 Calle Mayor", formatNotice(services.Notice{Kind: services.NoticeSynced, Address: addr}))
	assert.Contains(t, formatNotice(services.Notice{Kind: services.NoticeQueued, Address: addr}), "queued")
	assert.Contains(t, formatNotice(services.Notice{Kind: services.NoticeFailed, Address: addr, Err: common.ErrNetwork}), "network error")
}

func TestStatusLine(t *testing.T) {
	a, s, _, _ := newTestApp("")
	assert.Equal(t, "u1 offline", a.status())
	a.online = func() bool { return true }
	assert.Equal(t, "u1 online", a.status())
	s.user = ""
	assert.Equal(t, "anonymous online", a.status())
}
