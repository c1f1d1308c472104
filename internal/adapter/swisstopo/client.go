// Package swisstopo fetches swissALTI3D elevation tiles through the
// geo.admin STAC API. Tile payloads are ASCII XYZ grids, cached by
// (tile id, source resolution).
package swisstopo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/frischwood/a3dshell/internal/cache"
	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/geo"
	"github.com/frischwood/a3dshell/internal/observability"
	"github.com/frischwood/a3dshell/internal/retry"
)

const sourceName = "swissalti3d"

// Client implements domain.TileSource against the geo.admin STAC API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	store      *cache.Store
	policy     retry.Policy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a tile client. endpoint is the STAC items URL of the
// swissALTI3D collection.
func NewClient(endpoint string, timeout time.Duration, store *cache.Store, policy retry.Policy, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		store:      store,
		policy:     policy,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchTile returns the tile grid for id at the given source resolution.
// The raw payload is cached so a hit is byte-identical to a fresh fetch.
func (c *Client) FetchTile(ctx context.Context, id domain.TileID, cellSize float64) (domain.Tile, error) {
	key := fmt.Sprintf("%s|%s|%g", sourceName, id, cellSize)

	data, hit, err := c.store.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.download(ctx, id, cellSize)
	})
	c.metrics.CacheLookups.WithLabelValues(sourceName, cacheResult(hit)).Inc()
	if err != nil {
		c.metrics.TileFetches.WithLabelValues(sourceName, "error").Inc()
		return domain.Tile{}, err
	}
	c.metrics.TileFetches.WithLabelValues(sourceName, "success").Inc()

	tile, err := parseXYZ(data, id, cellSize)
	if err != nil {
		return domain.Tile{}, fmt.Errorf("tile %s: %w", id, err)
	}
	return tile, nil
}

// download resolves the tile's asset href via the STAC API and fetches the
// payload, retrying transient failures.
func (c *Client) download(ctx context.Context, id domain.TileID, cellSize float64) ([]byte, error) {
	var payload []byte
	attempts, err := c.policy.Do(ctx, func(ctx context.Context) error {
		href, err := c.resolveAsset(ctx, id, cellSize)
		if err != nil {
			return err
		}
		payload, err = c.get(ctx, href)
		return err
	})
	if attempts > 1 {
		c.metrics.RetryAttempts.WithLabelValues(sourceName).Add(float64(attempts - 1))
	}
	if err != nil {
		return nil, &domain.SourceUnavailableError{Source: sourceName, Attempts: attempts, Err: err}
	}
	return payload, nil
}

// resolveAsset queries the STAC items endpoint for the tile's bounding box
// and picks the ASCII XYZ asset matching the requested ground resolution.
func (c *Client) resolveAsset(ctx context.Context, id domain.TileID, cellSize float64) (string, error) {
	bbox, err := geo.BoundToWGS84(id.Bound(), geo.EPSGLv95)
	if err != nil {
		return "", retry.Permanent(err)
	}
	params := url.Values{
		"bbox":  {geo.BBoxString(bbox)},
		"limit": {"100"},
	}

	body, err := c.get(ctx, c.endpoint+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	var resp stacResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", retry.Permanent(fmt.Errorf("decode STAC response: %w", err))
	}

	for _, feature := range resp.Features {
		for _, asset := range feature.Assets {
			if asset.GSD == cellSize && isXYZ(asset.Type) {
				return asset.Href, nil
			}
		}
	}
	return "", retry.Permanent(fmt.Errorf("no %gm XYZ asset for tile %s", cellSize, id))
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d from %s", resp.StatusCode, fullURL)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func isXYZ(mediaType string) bool {
	return mediaType == "application/x.ascii-xyz" ||
		mediaType == "application/x.ascii-xyz+zip"
}

func cacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// geo.admin STAC response types, reduced to the fields used.

type stacResponse struct {
	Features []stacFeature `json:"features"`
}

type stacFeature struct {
	Assets map[string]stacAsset `json:"assets"`
}

type stacAsset struct {
	Href string  `json:"href"`
	Type string  `json:"type"`
	GSD  float64 `json:"eo:gsd"`
}
