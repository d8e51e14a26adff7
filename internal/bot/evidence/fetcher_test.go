package evidence

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobelev/gatewarden/internal/common"
	"github.com/skobelev/gatewarden/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestFetcher(cookies map[string]string) *HTTPFetcher {
	return NewHTTPFetcher(cookies, "ItemContent Activity", 5*time.Second, testLogger())
}

const profilePage = `<!DOCTYPE html>
<html><body>
<div class="Profile">
  <ul>
    <li><div class="ItemContent Activity">
      <span>Proving I own this account for</span> <b>Discord</b>, my id is 111222333.
    </div></li>
    <li><div class="ItemContent Activity">an older post about something else</div></li>
    <li><div class="ItemContent">not an activity block</div></li>
    <li><div class="Activity">also not a match on its own</div></li>
  </ul>
</div>
</body></html>`

func TestFetch_ExtractsActivityPostsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(profilePage))
	}))
	defer srv.Close()

	posts, err := newTestFetcher(nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, "Proving I own this account for Discord, my id is 111222333.", posts[0])
	assert.Equal(t, "an older post about something else", posts[1])
}

func TestFetch_ClassOrderInAttributeDoesNotMatter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="Activity ItemContent">swapped order</div>`))
	}))
	defer srv.Close()

	posts, err := newTestFetcher(nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "swapped order", posts[0])
}

func TestFetch_NoMatchingElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
	}))
	defer srv.Close()

	posts, err := newTestFetcher(nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetch_SendsConfiguredCookies(t *testing.T) {
	var gotCookies []*http.Cookie
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookies = r.Cookies()
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(map[string]string{"session": "s3cret", "uid": "42"})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	found := map[string]string{}
	for _, c := range gotCookies {
		found[c.Name] = c.Value
	}
	assert.Equal(t, map[string]string{"session": "s3cret", "uid": "42"}, found)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusNotFound, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		posts, err := newTestFetcher(nil).Fetch(context.Background(), srv.URL)
		require.ErrorIs(t, err, common.ErrFetch, "status %d", status)
		assert.Nil(t, posts)

		srv.Close()
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before the fetch

	_, err := newTestFetcher(nil).Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, common.ErrFetch)
}

func TestFetch_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(nil).Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, common.ErrFetch)
}

func TestFetch_RestartablePerCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`<div class="ItemContent Activity">post</div>`))
	}))
	defer srv.Close()

	f := newTestFetcher(nil)
	for i := 0; i < 2; i++ {
		posts, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		require.Len(t, posts, 1)
	}
	assert.Equal(t, 2, calls, "each Fetch performs its own GET")
}
