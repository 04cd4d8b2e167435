package stock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"scenegen-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPexelsClient_Search(t *testing.T) {
	t.Run("Photos", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/search", r.URL.Path)
			assert.Equal(t, "key", r.Header.Get("Authorization"))
			assert.Equal(t, "safety team", r.URL.Query().Get("query"))
			assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
			assert.Equal(t, "15", r.URL.Query().Get("per_page"))
			_, _ = w.Write([]byte(`{"photos":[{"id":11,"src":{"large2x":"https://img/11.jpg","medium":"https://img/11m.jpg"}},{"id":12,"src":{}}]}`))
		}))
		defer srv.Close()

		c := NewPexelsClient(Config{BaseURL: srv.URL, APIKey: "key"}, zap.NewNop())
		assets, err := c.Search(context.Background(), "safety team", models.BackgroundImage, 15)
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, "11", assets[0].ID)
		assert.Equal(t, "https://img/11.jpg", assets[0].URL)
		assert.Equal(t, "https://img/11m.jpg", assets[0].ThumbnailURL)
		assert.Equal(t, models.BackgroundImage, assets[0].Type)
	})

	t.Run("Videos prefer full HD", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/videos/search", r.URL.Path)
			_, _ = w.Write([]byte(`{"videos":[{"id":7,"image":"https://v/7.jpg","video_files":[
				{"quality":"sd","width":640,"height":360,"link":"https://v/7-sd.mp4"},
				{"quality":"hd","width":1280,"height":720,"link":"https://v/7-720.mp4"},
				{"quality":"hd","width":1920,"height":1080,"link":"https://v/7-1080.mp4"}]}]}`))
		}))
		defer srv.Close()

		c := NewPexelsClient(Config{BaseURL: srv.URL, APIKey: "key"}, zap.NewNop())
		assets, err := c.Search(context.Background(), "office", models.BackgroundVideo, 10)
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, "https://v/7-1080.mp4", assets[0].URL)
		assert.Equal(t, "https://v/7.jpg", assets[0].ThumbnailURL)
	})

	t.Run("Non-OK status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewPexelsClient(Config{BaseURL: srv.URL, APIKey: "key"}, zap.NewNop())
		_, err := c.Search(context.Background(), "office", models.BackgroundImage, 10)
		assert.ErrorIs(t, err, ErrStockSearchFailed)
	})

	t.Run("Missing key", func(t *testing.T) {
		c := NewPexelsClient(Config{BaseURL: "http://unused"}, zap.NewNop())
		_, err := c.Search(context.Background(), "office", models.BackgroundImage, 10)
		assert.ErrorIs(t, err, ErrStockSearchFailed)
	})

	t.Run("Gradient is not searchable", func(t *testing.T) {
		c := NewPexelsClient(Config{BaseURL: "http://unused", APIKey: "key"}, zap.NewNop())
		_, err := c.Search(context.Background(), "office", models.BackgroundGradient, 10)
		assert.ErrorIs(t, err, ErrStockSearchFailed)
	})
}

func TestPickVideoFile(t *testing.T) {
	f, ok := pickVideoFile([]pexelsVideoFile{{Quality: "sd", Link: "a"}, {Quality: "hd", Width: 1280, Link: "b"}})
	assert.True(t, ok)
	assert.Equal(t, "b", f.Link)

	f, ok = pickVideoFile([]pexelsVideoFile{{Quality: "sd", Link: "a"}})
	assert.True(t, ok)
	assert.Equal(t, "a", f.Link)

	_, ok = pickVideoFile(nil)
	assert.False(t, ok)
}
