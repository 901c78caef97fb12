package metmuseum

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artdiscover/artdiscover-server/internal/logger"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "load fixture %s", name)
	return data
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Options)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts := Options{BaseURL: server.URL, RPS: 1000, Burst: 100, Timeout: 2 * time.Second}
	for _, m := range mutate {
		m(&opts)
	}

	client, err := New(opts, logger.Discard().Logger)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "::not a url"}, nil)
	assert.Error(t, err)
}

func TestClient_GetObject(t *testing.T) {
	fixture := loadFixture(t, "object_436535.json")

	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write(fixture)
	})

	art, err := client.GetObject(context.Background(), 436535)
	require.NoError(t, err)

	assert.Equal(t, "/objects/436535", gotPath)
	assert.Equal(t, 436535, art.ObjectID)
	assert.Equal(t, "Wheat Field with Cypresses", art.Title)
	assert.Equal(t, "Vincent van Gogh", art.ArtistDisplayName)
	assert.Equal(t, "1889", art.ObjectDate)
	assert.Equal(t, "European Paintings", art.Department)
	assert.True(t, art.Eligible())
}

func TestClient_GetObject_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
	}{
		{name: "not found", statusCode: http.StatusNotFound, body: `{"message":"Not a valid object"}`, wantErr: ErrNotFound},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "bad request", statusCode: http.StatusBadRequest, wantErr: ErrBadRequest},
		{name: "server error", statusCode: http.StatusBadGateway, wantErr: ErrServer},
		{name: "malformed body", statusCode: http.StatusOK, body: `{"objectID": "nope"`, wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			})

			_, err := client.GetObject(context.Background(), 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "getObject", apiErr.Op)
			assert.Equal(t, 1, apiErr.ObjectID)
		})
	}
}

func TestClient_HasPrimaryImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/objects/1":
			w.Write([]byte(`{"objectID":1,"primaryImage":"https://images.example.org/1.jpg"}`))
		case "/objects/2":
			w.Write([]byte(`{"objectID":2,"primaryImage":""}`))
		case "/objects/3":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})

	tests := []struct {
		id      int
		want    bool
		wantErr bool
	}{
		{id: 1, want: true},
		{id: 2, want: false},
		{id: 3, want: false},
		{id: 4, wantErr: true},
	}

	for _, tt := range tests {
		got, err := client.HasPrimaryImage(context.Background(), tt.id)
		if tt.wantErr {
			assert.Error(t, err, "id %d", tt.id)
			continue
		}
		require.NoError(t, err, "id %d", tt.id)
		assert.Equal(t, tt.want, got, "id %d", tt.id)
	}
}

func TestClient_GetObject_InvalidID(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) { hits.Add(1) })

	_, err := client.GetObject(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.Zero(t, hits.Load())
}

func TestClient_GetObject_MemoizesAnswers(t *testing.T) {
	fixture := loadFixture(t, "object_436535.json")
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/objects/2" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(fixture)
	})
	ctx := context.Background()

	for range 3 {
		_, err := client.GetObject(ctx, 436535)
		require.NoError(t, err)
		_, err = client.GetObject(ctx, 2)
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 2, client.CachedCount())
}

func TestClient_GetObject_ReturnsCopies(t *testing.T) {
	fixture := loadFixture(t, "object_436535.json")
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) { w.Write(fixture) })

	first, err := client.GetObject(context.Background(), 436535)
	require.NoError(t, err)
	first.Title = "mutated"

	second, err := client.GetObject(context.Background(), 436535)
	require.NoError(t, err)
	assert.Equal(t, "Wheat Field with Cypresses", second.Title)
}

func TestClient_GetObject_TransientErrorsAreNotMemoized(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for range 2 {
		_, err := client.GetObject(context.Background(), 5)
		require.ErrorIs(t, err, ErrServer)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_GetObject_CacheDisabled(t *testing.T) {
	fixture := loadFixture(t, "object_436535.json")
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write(fixture)
	}, func(o *Options) { o.CacheTTL = -1 })

	for range 2 {
		_, err := client.GetObject(context.Background(), 436535)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())
	assert.Zero(t, client.CachedCount())
}

func TestClient_GetObject_CollapsesConcurrentLookups(t *testing.T) {
	fixture := loadFixture(t, "object_436535.json")
	var hits atomic.Int32
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		w.Write(fixture)
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			art, err := client.GetObject(context.Background(), 436535)
			assert.NoError(t, err)
			assert.Equal(t, 436535, art.ObjectID)
		})
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_GetObject_CallerCancel(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetObject(ctx, 9)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_GetObject_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(o *Options) { o.Timeout = 50 * time.Millisecond })
	t.Cleanup(func() { close(release) })

	start := time.Now()
	_, err := client.GetObject(context.Background(), 9)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, Retryable(err))
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(wrapError("getObject", 1, ErrNotFound)))
	assert.False(t, Retryable(wrapError("getObject", 0, ErrInvalidID)))
	assert.True(t, Retryable(wrapError("getObject", 1, ErrRateLimited)))
	assert.True(t, Retryable(wrapError("getObject", 1, ErrServer)))
	assert.False(t, Retryable(wrapError("getObject", 1, ErrBadRequest)))
}

func TestPermanent(t *testing.T) {
	assert.False(t, Permanent(nil))
	assert.True(t, Permanent(wrapError("getObject", 1, ErrBadRequest)))
	assert.True(t, Permanent(wrapError("getObject", 1, ErrNotFound)))
	assert.False(t, Permanent(wrapError("getObject", 1, ErrRateLimited)))
}

func TestClient_Manifest(t *testing.T) {
	manifest := `[{"objectID":1,"departmentId":6},{"objectID":2,"departmentId":10}]`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/all_wanted_objects.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(manifest))
	})

	src, err := client.Manifest(client.baseURL.String() + "/all_wanted_objects.json")
	require.NoError(t, err)
	assert.Contains(t, src.String(), "all_wanted_objects.json")

	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, manifest, string(body))

	missing, err := client.Manifest(client.baseURL.String() + "/gone.json")
	require.NoError(t, err)
	_, err = missing.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Manifest_RejectsNonHTTP(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {})

	for _, raw := range []string{"", "/tmp/manifest.json", "ftp://example.org/m.json"} {
		_, err := client.Manifest(raw)
		assert.ErrorIs(t, err, ErrBadRequest, raw)
	}
}
