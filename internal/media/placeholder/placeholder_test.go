package placeholder

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/logger"
)

func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newImageServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	body := gradientPNG(t, 120, 90)
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/small.png", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not an image"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestComputeBlurHash(t *testing.T) {
	hash, err := ComputeBlurHash(bytes.NewReader(gradientPNG(t, 200, 100)))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	again, err := ComputeBlurHash(bytes.NewReader(gradientPNG(t, 200, 100)))
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestComputeBlurHash_NotAnImage(t *testing.T) {
	_, err := ComputeBlurHash(bytes.NewReader([]byte("plain text")))
	assert.Error(t, err)
}

func TestResizeForBlurHash(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"small kept", 40, 30, 40, 30},
		{"landscape", 640, 320, 64, 32},
		{"portrait", 300, 600, 32, 64},
		{"thin", 6400, 10, 64, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := resizeForBlurHash(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)))
			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			assert.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

func TestGenerator_Decorate(t *testing.T) {
	srv, hits := newImageServer(t)
	g := New(Options{}, logger.Discard().Logger)

	art := &domain.Artwork{ObjectID: 1, PrimaryImageSmall: srv.URL + "/small.png"}
	g.Decorate(context.Background(), art)
	assert.NotEmpty(t, art.Placeholder)

	other := &domain.Artwork{ObjectID: 2, PrimaryImageSmall: srv.URL + "/small.png"}
	g.Decorate(context.Background(), other)
	assert.Equal(t, art.Placeholder, other.Placeholder)
	assert.Equal(t, int32(1), hits.Load(), "hash is cached by url")
}

func TestGenerator_DecorateFailuresLeaveArtwork(t *testing.T) {
	srv, _ := newImageServer(t)
	g := New(Options{}, logger.Discard().Logger)

	for _, url := range []string{"", srv.URL + "/missing.png", srv.URL + "/text"} {
		art := &domain.Artwork{ObjectID: 1, PrimaryImageSmall: url}
		g.Decorate(context.Background(), art)
		assert.Empty(t, art.Placeholder, url)
	}
}

func TestGenerator_HashEmptyURL(t *testing.T) {
	_, err := New(Options{}, nil).Hash(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestGenerator_ConcurrentHashesShareDownload(t *testing.T) {
	srv, hits := newImageServer(t)
	g := New(Options{}, logger.Discard().Logger)

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			_, err := g.Hash(context.Background(), srv.URL+"/small.png")
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	downloads := hits.Load()
	assert.GreaterOrEqual(t, downloads, int32(1))
	assert.LessOrEqual(t, downloads, int32(10))

	_, err := g.Hash(context.Background(), srv.URL+"/small.png")
	require.NoError(t, err)
	assert.Equal(t, downloads, hits.Load(), "later calls hit the cache")
}

func TestGenerator_CanceledCaller(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	g := New(Options{}, logger.Discard().Logger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Hash(ctx, srv.URL+"/slow.png")
	assert.ErrorIs(t, err, context.Canceled)
}
