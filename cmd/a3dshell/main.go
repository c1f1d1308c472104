// Command a3dshell assembles a complete Alpine3D simulation input package
// for a Swiss region: elevation and land-use grids on a shared frame,
// forcing data from the best surrounding stations, and the solver
// configuration tying them together.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"

	"github.com/frischwood/a3dshell/internal/adapter/bfs"
	"github.com/frischwood/a3dshell/internal/adapter/httpadapter"
	"github.com/frischwood/a3dshell/internal/adapter/imis"
	"github.com/frischwood/a3dshell/internal/adapter/swisstopo"
	"github.com/frischwood/a3dshell/internal/assembly"
	"github.com/frischwood/a3dshell/internal/cache"
	"github.com/frischwood/a3dshell/internal/config"
	"github.com/frischwood/a3dshell/internal/dem"
	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/geo"
	"github.com/frischwood/a3dshell/internal/landcover"
	"github.com/frischwood/a3dshell/internal/observability"
	"github.com/frischwood/a3dshell/internal/retry"
	"github.com/frischwood/a3dshell/internal/stations"
)

const dateLayout = "2006-01-02"

type flags struct {
	name string

	// Explicit extent, all four required together.
	minX, minY, maxX, maxY float64

	// Alternative: a square of the given side length around the POI.
	size float64

	// Point of interest; defaults to the region centroid for explicit
	// extents.
	poiX, poiY float64

	start, end string
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.name, "name", "", "simulation package name (required)")
	flag.Float64Var(&f.minX, "min-x", 0, "region min easting")
	flag.Float64Var(&f.minY, "min-y", 0, "region min northing")
	flag.Float64Var(&f.maxX, "max-x", 0, "region max easting")
	flag.Float64Var(&f.maxY, "max-y", 0, "region max northing")
	flag.Float64Var(&f.size, "size", 0, "square region side length in meters, centered on the POI")
	flag.Float64Var(&f.poiX, "poi-x", 0, "point of interest easting")
	flag.Float64Var(&f.poiY, "poi-y", 0, "point of interest northing")
	flag.StringVar(&f.start, "start", "", "simulation start date, YYYY-MM-DD (required)")
	flag.StringVar(&f.end, "end", "", "simulation end date, YYYY-MM-DD (required)")
	flag.Parse()
	return f
}

// buildRequest validates the flags into an assembly request.
func buildRequest(f flags, epsg int, resolution float64) (assembly.Request, error) {
	if f.name == "" {
		return assembly.Request{}, errors.New("-name is required")
	}
	if f.start == "" || f.end == "" {
		return assembly.Request{}, errors.New("-start and -end are required")
	}
	start, err := time.Parse(dateLayout, f.start)
	if err != nil {
		return assembly.Request{}, fmt.Errorf("parse -start: %w", err)
	}
	end, err := time.Parse(dateLayout, f.end)
	if err != nil {
		return assembly.Request{}, fmt.Errorf("parse -end: %w", err)
	}
	dates, err := domain.NewDateRange(start, end)
	if err != nil {
		return assembly.Request{}, err
	}

	poi := orb.Point{f.poiX, f.poiY}
	var roi domain.ROI
	switch {
	case f.size > 0:
		if f.poiX == 0 && f.poiY == 0 {
			return assembly.Request{}, errors.New("-size requires -poi-x and -poi-y")
		}
		roi, err = domain.ROIAround(poi, f.size, epsg, resolution)
	case f.minX != 0 || f.minY != 0 || f.maxX != 0 || f.maxY != 0:
		roi, err = domain.NewROI(f.minX, f.minY, f.maxX, f.maxY, epsg, resolution)
		if err == nil && f.poiX == 0 && f.poiY == 0 {
			poi = roi.Centroid()
		}
	default:
		return assembly.Request{}, errors.New("region required: either -min-x/-min-y/-max-x/-max-y or -poi-x/-poi-y/-size")
	}
	if err != nil {
		return assembly.Request{}, err
	}

	return assembly.Request{Name: f.name, ROI: roi, POI: poi, Dates: dates}, nil
}

func main() {
	godotenv.Load()

	f := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	epsg, err := geo.EPSGFromCoordSys(cfg.CoordSys)
	if err != nil {
		logger.Error("invalid coordinate system", "error", err)
		os.Exit(1)
	}
	req, err := buildRequest(f, epsg, cfg.Resolution)
	if err != nil {
		logger.Error("invalid request", "error", err)
		flag.Usage()
		os.Exit(2)
	}

	store, err := cache.New(cfg.CacheDir, logger)
	if err != nil {
		logger.Error("failed to open cache", "error", err)
		os.Exit(1)
	}

	policy := retry.Default(clockwork.NewRealClock())
	policy.MaxAttempts = cfg.MaxAttempts

	demClient := swisstopo.NewClient(cfg.DEMEndpoint, cfg.RequestTimeout, store, policy, logger, metrics)
	elevation := dem.New(demClient, cfg.SourceResolution, cfg.MinCoverage, logger, metrics)

	var landCover *landcover.Provider
	if cfg.LandCoverSource == "constant" {
		landCover = landcover.NewConstant(int32(cfg.LandCoverConstant), logger, metrics)
	} else {
		lcClient := bfs.NewClient(cfg.LandCoverEndpoint, cfg.RequestTimeout, store, policy, logger, metrics)
		landCover = landcover.New(lcClient, logger, metrics)
	}

	imisClient := imis.NewClient(cfg.StationEndpoint, cfg.RequestTimeout, store, policy, logger, metrics)
	selector := stations.New(imisClient, imisClient, stations.Weights{
		Distance:     cfg.DistanceWeight,
		Elevation:    cfg.ElevationWeight,
		Completeness: cfg.CompletenessWeight,
	}, cfg.StationSearchRadius, cfg.MinCompleteness, cfg.SampleStep, logger, metrics)

	writer := assembly.NewWriter(cfg.OutputDir, cfg.SnowFilesDir, logger)
	orchestrator := assembly.New(elevation, landCover, selector, writer,
		cfg.MaxCells, cfg.MaxStations, cfg.CoordSys, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		status := httpadapter.NewStatusReporter()
		orchestrator.SetStageObserver(status)
		srv = httpadapter.NewServer(cfg.MetricsAddr, status, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	result, runErr := orchestrator.Run(ctx, req)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		cancel()
	}

	if runErr != nil {
		logger.Error("assembly failed", "name", req.Name, "error", runErr)
		os.Exit(1)
	}
	logger.Info("assembly complete", "name", req.Name, "path", result.Path,
		"stations", len(result.Package.Stations), "warnings", len(result.Package.Warnings))
}
