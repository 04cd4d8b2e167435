package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"go.uber.org/zap"
)

// ErrStockSearchFailed wraps any failure of the stock media service.
var ErrStockSearchFailed = errors.New("stock media search failed")

// Config holds Pexels client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

var _ interfaces.StockMediaSearcher = (*PexelsClient)(nil)

// PexelsClient searches photos and videos on Pexels.
type PexelsClient struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPexelsClient creates a client. A zero timeout defaults to 8s.
func NewPexelsClient(cfg Config, logger *zap.Logger) *PexelsClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PexelsClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("PexelsClient"),
	}
}

type pexelsPhotoResponse struct {
	Photos []struct {
		ID  int64 `json:"id"`
		Src struct {
			Large2x string `json:"large2x"`
			Large   string `json:"large"`
			Medium  string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

type pexelsVideoFile struct {
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Link    string `json:"link"`
}

type pexelsVideoResponse struct {
	Videos []struct {
		ID         int64             `json:"id"`
		Image      string            `json:"image"`
		VideoFiles []pexelsVideoFile `json:"video_files"`
	} `json:"videos"`
}

// Search returns up to perPage landscape assets for the query.
func (c *PexelsClient) Search(ctx context.Context, query string, media models.BackgroundType, perPage int) ([]models.Asset, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key is not configured", ErrStockSearchFailed)
	}
	var path string
	switch media {
	case models.BackgroundImage:
		path = "/v1/search"
	case models.BackgroundVideo:
		path = "/videos/search"
	default:
		return nil, fmt.Errorf("%w: unsupported media %q", ErrStockSearchFailed, media)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("orientation", "landscape")
	endpointURL := c.cfg.BaseURL + path + "?" + params.Encode()

	log := c.logger.With(zap.String("media", string(media)), zap.String("query", query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrStockSearchFailed, err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("Pexels request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStockSearchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrStockSearchFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn("Pexels returned non-OK status", zap.Int("status_code", resp.StatusCode), zap.ByteString("response_body", body))
		return nil, fmt.Errorf("%w: status %d", ErrStockSearchFailed, resp.StatusCode)
	}

	if media == models.BackgroundImage {
		return decodePhotos(body)
	}
	return decodeVideos(body)
}

func decodePhotos(body []byte) ([]models.Asset, error) {
	var parsed pexelsPhotoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode photos: %v", ErrStockSearchFailed, err)
	}
	assets := make([]models.Asset, 0, len(parsed.Photos))
	for _, p := range parsed.Photos {
		src := p.Src.Large2x
		if src == "" {
			src = p.Src.Large
		}
		if src == "" {
			continue
		}
		assets = append(assets, models.Asset{
			ID:           strconv.FormatInt(p.ID, 10),
			URL:          src,
			ThumbnailURL: p.Src.Medium,
			Type:         models.BackgroundImage,
		})
	}
	return assets, nil
}

func decodeVideos(body []byte) ([]models.Asset, error) {
	var parsed pexelsVideoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode videos: %v", ErrStockSearchFailed, err)
	}
	assets := make([]models.Asset, 0, len(parsed.Videos))
	for _, v := range parsed.Videos {
		file, ok := pickVideoFile(v.VideoFiles)
		if !ok {
			continue
		}
		assets = append(assets, models.Asset{
			ID:           strconv.FormatInt(v.ID, 10),
			URL:          file.Link,
			ThumbnailURL: v.Image,
			Type:         models.BackgroundVideo,
		})
	}
	return assets, nil
}

// pickVideoFile prefers a 1920x1080 HD file, then any HD file, then the first one.
func pickVideoFile(files []pexelsVideoFile) (pexelsVideoFile, bool) {
	if len(files) == 0 {
		return pexelsVideoFile{}, false
	}
	var hd *pexelsVideoFile
	for i := range files {
		f := &files[i]
		if f.Quality != "hd" {
			continue
		}
		if f.Width == 1920 && f.Height == 1080 {
			return *f, true
		}
		if hd == nil {
			hd = f
		}
	}
	if hd != nil {
		return *hd, true
	}
	return files[0], files[0].Link != ""
}
