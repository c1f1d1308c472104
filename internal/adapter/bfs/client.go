// Package bfs fetches land-cover rasters from the BFS Arealstatistik
// service: the Swiss per-hectare land statistics grid in the LC_27 code
// space.
package bfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"

	"github.com/frischwood/a3dshell/internal/cache"
	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/geo"
	"github.com/frischwood/a3dshell/internal/observability"
	"github.com/frischwood/a3dshell/internal/retry"
)

const sourceName = "arealstatistik"

// Client implements domain.LandCoverSource.
type Client struct {
	httpClient *http.Client
	endpoint   string
	store      *cache.Store
	policy     retry.Policy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an Arealstatistik client.
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

// FetchRaster returns the LC_27 raster covering bound. Responses are
// cached by bounding box and CRS.
func (c *Client) FetchRaster(ctx context.Context, bound orb.Bound, epsg int) (domain.LandCoverRaster, error) {
	key := fmt.Sprintf("%s|%s|%d", sourceName, geo.BBoxString(bound), epsg)

	data, hit, err := c.store.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.download(ctx, bound, epsg)
	})
	c.metrics.CacheLookups.WithLabelValues(sourceName, cacheResult(hit)).Inc()
	if err != nil {
		c.metrics.TileFetches.WithLabelValues(sourceName, "error").Inc()
		return domain.LandCoverRaster{}, err
	}
	c.metrics.TileFetches.WithLabelValues(sourceName, "success").Inc()

	var resp rasterResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.LandCoverRaster{}, fmt.Errorf("decode raster response: %w", err)
	}
	return resp.toRaster()
}

func (c *Client) download(ctx context.Context, bound orb.Bound, epsg int) ([]byte, error) {
	params := url.Values{
		"bbox": {geo.BBoxString(bound)},
		"epsg": {strconv.Itoa(epsg)},
	}
	fullURL := c.endpoint + "/grid?" + params.Encode()

	var payload []byte
	attempts, err := c.policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request: %w", err))
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("land cover request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("status %d from land cover source", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}
		payload, err = io.ReadAll(resp.Body)
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

func cacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

type rasterResponse struct {
	OriginX  float64 `json:"origin_x"`
	OriginY  float64 `json:"origin_y"`
	CellSize float64 `json:"cell_size"`
	Cols     int     `json:"ncols"`
	Rows     int     `json:"nrows"`
	Codes    []int32 `json:"codes"`
}

func (r rasterResponse) toRaster() (domain.LandCoverRaster, error) {
	if r.Cols <= 0 || r.Rows <= 0 || r.CellSize <= 0 {
		return domain.LandCoverRaster{}, fmt.Errorf("malformed raster header %dx%d@%g", r.Cols, r.Rows, r.CellSize)
	}
	if len(r.Codes) != r.Cols*r.Rows {
		return domain.LandCoverRaster{}, fmt.Errorf("raster has %d codes, header wants %d", len(r.Codes), r.Cols*r.Rows)
	}
	return domain.LandCoverRaster{
		OriginX:  r.OriginX,
		OriginY:  r.OriginY,
		CellSize: r.CellSize,
		Cols:     r.Cols,
		Rows:     r.Rows,
		Codes:    r.Codes,
	}, nil
}
