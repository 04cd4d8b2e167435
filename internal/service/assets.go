package service

import (
	"context"
	"math/rand"
	"strings"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"go.uber.org/zap"
)

const defaultAssetQuery = "business professional"

// curatedAssets are served when the stock search fails or runs dry.
var curatedAssets = map[models.BackgroundType][]models.Asset{
	models.BackgroundVideo: {
		{ID: "curated-video-1", URL: "https://videos.pexels.com/video-files/3129671/3129671-hd_1920_1080_30fps.mp4", Type: models.BackgroundVideo},
		{ID: "curated-video-2", URL: "https://videos.pexels.com/video-files/7534240/7534240-hd_1920_1080_25fps.mp4", Type: models.BackgroundVideo},
		{ID: "curated-video-3", URL: "https://videos.pexels.com/video-files/3252128/3252128-hd_1920_1080_24fps.mp4", Type: models.BackgroundVideo},
	},
	models.BackgroundImage: {
		{ID: "curated-image-1", URL: "https://images.pexels.com/photos/3184465/pexels-photo-3184465.jpeg", Type: models.BackgroundImage},
		{ID: "curated-image-2", URL: "https://images.pexels.com/photos/3184292/pexels-photo-3184292.jpeg", Type: models.BackgroundImage},
		{ID: "curated-image-3", URL: "https://images.pexels.com/photos/3182812/pexels-photo-3182812.jpeg", Type: models.BackgroundImage},
	},
}

// AssetUsage is the per-run record of bound asset ids, kept separately for
// images and videos. A new one is created for every generation run.
type AssetUsage struct {
	used map[models.BackgroundType]map[string]struct{}
	rng  *rand.Rand
}

// NewAssetUsage starts an empty usage record drawing from rng.
func NewAssetUsage(rng *rand.Rand) *AssetUsage {
	return &AssetUsage{
		used: map[models.BackgroundType]map[string]struct{}{
			models.BackgroundImage: {},
			models.BackgroundVideo: {},
		},
		rng: rng,
	}
}

// IsUsed reports whether the asset was already bound in this run.
func (u *AssetUsage) IsUsed(media models.BackgroundType, id string) bool {
	_, ok := u.used[media][id]
	return ok
}

// MarkUsed records the asset id for the medium.
func (u *AssetUsage) MarkUsed(media models.BackgroundType, id string) {
	set, ok := u.used[media]
	if !ok {
		set = map[string]struct{}{}
		u.used[media] = set
	}
	set[id] = struct{}{}
}

// Count returns the number of assets bound for the medium.
func (u *AssetUsage) Count(media models.BackgroundType) int {
	return len(u.used[media])
}

// AssetResolverConfig tunes the stock search.
type AssetResolverConfig struct {
	PageSize int
	TopN     int
}

// AssetResolver binds stock media to scene backgrounds.
type AssetResolver struct {
	searcher interfaces.StockMediaSearcher
	cache    interfaces.AssetCache
	cfg      AssetResolverConfig
	logger   *zap.Logger
}

// NewAssetResolver creates a resolver. cache may be nil.
func NewAssetResolver(searcher interfaces.StockMediaSearcher, cache interfaces.AssetCache, cfg AssetResolverConfig, logger *zap.Logger) *AssetResolver {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 15
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	return &AssetResolver{
		searcher: searcher,
		cache:    cache,
		cfg:      cfg,
		logger:   logger.Named("AssetResolver"),
	}
}

// Resolve picks an asset for the medium and keywords that was not used in this
// run. It never fails: on search errors or an empty page a curated asset is
// returned, and nil when those are exhausted too. Gradients are never resolved.
func (r *AssetResolver) Resolve(ctx context.Context, media models.BackgroundType, keywords string, usage *AssetUsage) *models.Asset {
	if media != models.BackgroundImage && media != models.BackgroundVideo {
		return nil
	}
	query := strings.TrimSpace(keywords)
	if query == "" {
		query = defaultAssetQuery
	}
	logFields := []zap.Field{zap.String("media", string(media)), zap.String("query", query)}

	candidates, err := r.search(ctx, media, query)
	if err != nil {
		r.logger.Warn("Stock search failed, using curated asset", append(logFields, zap.Error(err))...)
		stockSearchesTotal.WithLabelValues(string(media), "error").Inc()
		return r.curated(media, usage)
	}

	unused := make([]models.Asset, 0, r.cfg.TopN)
	for _, a := range candidates {
		if a.ID == "" || a.URL == "" || usage.IsUsed(media, a.ID) {
			continue
		}
		unused = append(unused, a)
		if len(unused) == r.cfg.TopN {
			break
		}
	}
	if len(unused) == 0 {
		r.logger.Debug("No unused stock assets, using curated asset", logFields...)
		stockSearchesTotal.WithLabelValues(string(media), "empty").Inc()
		return r.curated(media, usage)
	}

	picked := unused[usage.rng.Intn(len(unused))]
	usage.MarkUsed(media, picked.ID)
	stockSearchesTotal.WithLabelValues(string(media), "found").Inc()
	r.logger.Debug("Stock asset bound", append(logFields, zap.String("assetID", picked.ID))...)
	return &picked
}

func (r *AssetResolver) search(ctx context.Context, media models.BackgroundType, query string) ([]models.Asset, error) {
	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, media, query)
		if err != nil {
			r.logger.Warn("Asset cache read failed", zap.String("query", query), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	assets, err := r.searcher.Search(ctx, query, media, r.cfg.PageSize)
	if err != nil {
		return nil, err
	}
	if r.cache != nil && len(assets) > 0 {
		if err := r.cache.Set(ctx, media, query, assets); err != nil {
			r.logger.Warn("Asset cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	return assets, nil
}

func (r *AssetResolver) curated(media models.BackgroundType, usage *AssetUsage) *models.Asset {
	for _, a := range curatedAssets[media] {
		if usage.IsUsed(media, a.ID) {
			continue
		}
		usage.MarkUsed(media, a.ID)
		stockSearchesTotal.WithLabelValues(string(media), "curated").Inc()
		picked := a
		return &picked
	}
	stockSearchesTotal.WithLabelValues(string(media), "none").Inc()
	return nil
}

// IsCuratedAsset reports whether id belongs to the static fallback list.
func IsCuratedAsset(id string) bool {
	return strings.HasPrefix(id, "curated-")
}

// SearchFirst returns the first unused search hit without touching the curated list.
// It is used for one-off lookups such as project thumbnails.
func (r *AssetResolver) SearchFirst(ctx context.Context, media models.BackgroundType, query string, usage *AssetUsage) (*models.Asset, error) {
	assets, err := r.search(ctx, media, query)
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		if a.URL == "" || (usage != nil && usage.IsUsed(media, a.ID)) {
			continue
		}
		picked := a
		return &picked, nil
	}
	return nil, nil
}
