// Package imis talks to the IMIS measurement network: the station catalog
// (metadata, coverage) and the per-station measurement series.
package imis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"

	"github.com/frischwood/a3dshell/internal/cache"
	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/geo"
	"github.com/frischwood/a3dshell/internal/observability"
	"github.com/frischwood/a3dshell/internal/retry"
)

const sourceName = "imis"

// Client implements domain.StationCatalog and domain.StationDataSource.
type Client struct {
	httpClient *http.Client
	endpoint   string
	store      *cache.Store
	policy     retry.Policy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an IMIS client.
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

// Query lists catalog stations inside bound. The catalog response is
// cached by bounding box; measurement data never is, since it changes as
// stations report.
func (c *Client) Query(ctx context.Context, bound orb.Bound, epsg int) ([]domain.StationMeta, error) {
	wgs, err := geo.BoundToWGS84(bound, epsg)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s|catalog|%s", sourceName, geo.BBoxString(wgs))

	data, hit, err := c.store.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		params := url.Values{"bbox": {geo.BBoxString(wgs)}}
		return c.get(ctx, c.endpoint+"/stations?"+params.Encode())
	})
	c.metrics.CacheLookups.WithLabelValues(sourceName, cacheResult(hit)).Inc()
	if err != nil {
		return nil, err
	}

	var entries []catalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode station catalog: %w", err)
	}

	stations := make([]domain.StationMeta, 0, len(entries))
	for _, e := range entries {
		easting, northing := geo.WGS84ToLV95(e.Longitude, e.Latitude)
		vars := make([]domain.Variable, 0, len(e.Variables))
		for _, v := range e.Variables {
			vars = append(vars, domain.Variable(v))
		}
		stations = append(stations, domain.StationMeta{
			ID:            e.ID,
			Name:          e.Name,
			Latitude:      e.Latitude,
			Longitude:     e.Longitude,
			Easting:       easting,
			Northing:      northing,
			EPSG:          geo.EPSGLv95,
			Elevation:     e.Elevation,
			Variables:     vars,
			CoverageStart: e.Since,
			CoverageEnd:   e.Until,
		})
	}
	return stations, nil
}

// FetchObservations returns the station's raw measurement series for the
// requested dates.
func (c *Client) FetchObservations(ctx context.Context, stationID string, dates domain.DateRange) (domain.RawSeries, error) {
	params := url.Values{
		"from": {dates.Start.Format("2006-01-02")},
		"to":   {dates.End.Format("2006-01-02")},
	}
	fullURL := fmt.Sprintf("%s/stations/%s/measurements?%s", c.endpoint, url.PathEscape(stationID), params.Encode())

	data, err := c.get(ctx, fullURL)
	if err != nil {
		return domain.RawSeries{}, err
	}

	var resp measurementResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.RawSeries{}, fmt.Errorf("decode measurements for %s: %w", stationID, err)
	}

	series := domain.RawSeries{
		StationID: stationID,
		Units:     map[domain.Variable]string{},
	}
	for name, unit := range resp.Units {
		series.Units[domain.Variable(name)] = unit
	}
	for _, rec := range resp.Records {
		obs := domain.RawObservation{
			Timestamp: rec.Timestamp.UTC(),
			Values:    map[domain.Variable]float64{},
		}
		for name, value := range rec.Values {
			obs.Values[domain.Variable(name)] = value
		}
		series.Observations = append(series.Observations, obs)
	}
	return series, nil
}

// get fetches a URL with the adapter retry policy applied.
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	var payload []byte
	attempts, err := c.policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request: %w", err))
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("station request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("status %d from station source", resp.StatusCode)
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

// IMIS API response types, reduced to the fields used.

type catalogEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Elevation float64   `json:"elevation"`
	Variables []string  `json:"variables"`
	Since     time.Time `json:"since"`
	Until     time.Time `json:"until"`
}

type measurementResponse struct {
	Units   map[string]string   `json:"units"`
	Records []measurementRecord `json:"records"`
}

type measurementRecord struct {
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}
