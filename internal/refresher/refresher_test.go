package refresher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/db/dbtest"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func timePtr(t time.Time) *time.Time { return &t }

type recordingNotifier struct {
	mu     sync.Mutex
	topics []string
}

func (n *recordingNotifier) Publish(_ context.Context, topic string, _ any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topic)
	return nil
}

func newRefresher(store db.Store, notifier Notifier) *Refresher {
	r := New(store, notifier, Options{Concurrency: 2, FetchTimeout: time.Second})
	r.now = func() time.Time { return now }
	return r
}

func dynamic(store *dbtest.MemoryStore, url string, lastFetched *time.Time, data string) model.Content {
	c := model.Content{
		Title:          "weather",
		Type:           model.ContentDynamic,
		APIURL:         &url,
		UpdateInterval: intPtr(5),
		LastFetched:    lastFetched,
	}
	if data != "" {
		c.Data = types.JSONText(data)
	}
	return store.PutContent(c)
}

func TestRun_RefreshesStaleItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"temp":21}`))
	}))
	defer srv.Close()

	store := dbtest.NewMemoryStore()
	item := dynamic(store, srv.URL, timePtr(now.Add(-10*time.Minute)), `{"temp":15}`)
	notifier := &recordingNotifier{}

	summary, err := newRefresher(store, notifier).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Checked: 1, Stale: 1, Refreshed: 1}, summary)

	got, err := store.GetContentByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"temp":21}`, string(got.Data))
	require.NotNil(t, got.LastFetched)
	assert.WithinDuration(t, now, *got.LastFetched, time.Second)
	assert.Len(t, notifier.topics, 1)
}

func TestRun_LeavesFreshItem(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"temp":21}`))
	}))
	defer srv.Close()

	store := dbtest.NewMemoryStore()
	fetched := now.Add(-2 * time.Minute)
	item := dynamic(store, srv.URL, &fetched, `{"temp":15}`)

	summary, err := newRefresher(store, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Checked: 1}, summary)
	assert.Zero(t, hits.Load())

	got, err := store.GetContentByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"temp":15}`, string(got.Data))
	assert.Equal(t, fetched, *got.LastFetched)
}

func TestRun_NeverFetchedIsStale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	store := dbtest.NewMemoryStore()
	item := dynamic(store, srv.URL, nil, "")

	summary, err := newRefresher(store, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Refreshed)

	got, _ := store.GetContentByID(context.Background(), item.ID)
	assert.JSONEq(t, `[1,2,3]`, string(got.Data))
}

func TestRun_FailureIsIsolated(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer bad.Close()

	store := dbtest.NewMemoryStore()
	old := now.Add(-time.Hour)
	failing := dynamic(store, bad.URL, &old, `{"prior":1}`)
	unreachable := dynamic(store, "http://127.0.0.1:1/nothing", &old, `{"prior":2}`)
	ok := dynamic(store, good.URL, &old, `{"prior":3}`)

	summary, err := newRefresher(store, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Checked: 3, Stale: 3, Refreshed: 1, Failed: 2}, summary)

	for id, want := range map[int]string{failing.ID: `{"prior":1}`, unreachable.ID: `{"prior":2}`} {
		got, err := store.GetContentByID(context.Background(), id)
		require.NoError(t, err)
		assert.JSONEq(t, want, string(got.Data))
		assert.Equal(t, old, *got.LastFetched)
	}

	got, _ := store.GetContentByID(context.Background(), ok.ID)
	assert.JSONEq(t, `{"ok":true}`, string(got.Data))
}

func TestRun_IgnoresOtherContentTypes(t *testing.T) {
	store := dbtest.NewMemoryStore()
	store.PutContent(model.Content{Title: "page", Type: model.ContentWebpage, URL: strPtr("http://example.com")})

	summary, err := newRefresher(store, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}

func TestRun_NonJSONBodyStoredAsString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("sunny"))
	}))
	defer srv.Close()

	store := dbtest.NewMemoryStore()
	item := dynamic(store, srv.URL, nil, "")

	_, err := newRefresher(store, nil).Run(context.Background())
	require.NoError(t, err)

	got, _ := store.GetContentByID(context.Background(), item.ID)
	assert.JSONEq(t, `"sunny"`, string(got.Data))
}

func TestRun_OversizedBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"` + strings.Repeat("a", maxBodyBytes) + `"`))
	}))
	defer srv.Close()

	store := dbtest.NewMemoryStore()
	dynamic(store, srv.URL, nil, "")

	summary, err := newRefresher(store, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
}

func TestRun_NoOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	store := dbtest.NewMemoryStore()
	dynamic(store, srv.URL, nil, "")
	r := newRefresher(store, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background())
		done <- err
	}()
	<-started

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	require.NoError(t, <-done)

	// guard is released after the cycle
	_, err = r.Run(context.Background())
	assert.NoError(t, err)
}

func TestRefreshOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"v":2}`))
	}))
	defer srv.Close()

	store := dbtest.NewMemoryStore()
	fresh := now.Add(-time.Minute)
	item := dynamic(store, srv.URL, &fresh, `{"v":1}`)
	r := newRefresher(store, nil)

	got, err := r.RefreshOne(context.Background(), item.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got.Data))

	page := store.PutContent(model.Content{Title: "page", Type: model.ContentWebpage, URL: strPtr("http://example.com")})
	_, err = r.RefreshOne(context.Background(), page.ID)
	assert.ErrorIs(t, err, ErrNotDynamic)

	_, err = r.RefreshOne(context.Background(), 9999)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSchedule_RejectsZeroInterval(t *testing.T) {
	_, err := Schedule(context.Background(), newRefresher(dbtest.NewMemoryStore(), nil), 0)
	assert.Error(t, err)
}

func TestSchedule_Starts(t *testing.T) {
	c, err := Schedule(context.Background(), newRefresher(dbtest.NewMemoryStore(), nil), 5)
	require.NoError(t, err)
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)
}
