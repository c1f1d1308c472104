package assembly

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/frischwood/a3dshell/internal/asc"
	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/smet"
)

// Writer materializes a validated simulation package on disk. The package
// directory is built in a hidden staging directory and renamed into place,
// so a partially written package is never visible under its final name.
type Writer struct {
	outputDir string
	snowDir   string // optional user-supplied .sno files copied verbatim
	logger    *slog.Logger
}

// NewWriter creates a package writer rooted at outputDir. snowDir may be
// empty; when set, its .sno files are copied into the package alongside the
// generated ones.
func NewWriter(outputDir, snowDir string, logger *slog.Logger) *Writer {
	return &Writer{outputDir: outputDir, snowDir: snowDir, logger: logger}
}

// Write lays out the package directory and returns its final path. An
// existing package with the same name is replaced, but only once its
// replacement has been fully staged.
func (w *Writer) Write(pkg *domain.SimulationPackage) (string, error) {
	final := filepath.Join(w.outputDir, pkg.Name)
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output root: %w", err)
	}

	staging, err := os.MkdirTemp(w.outputDir, "."+pkg.Name+"-")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	if err := w.populate(staging, pkg); err != nil {
		os.RemoveAll(staging)
		return "", err
	}
	if _, err := os.Stat(final); err == nil {
		w.logger.Info("replacing existing package", "name", pkg.Name, "path", final)
		if err := os.RemoveAll(final); err != nil {
			os.RemoveAll(staging)
			return "", fmt.Errorf("remove previous package: %w", err)
		}
	}
	if err := os.Rename(staging, final); err != nil {
		os.RemoveAll(staging)
		return "", fmt.Errorf("publish package: %w", err)
	}
	w.logger.Info("package written", "name", pkg.Name, "path", final,
		"stations", len(pkg.Stations), "warnings", len(pkg.Warnings))
	return final, nil
}

func (w *Writer) populate(root string, pkg *domain.SimulationPackage) error {
	for _, dir := range []string{
		"input/surface-grids",
		"input/meteo",
		"input/snowfiles",
		"output/meteo",
		"output/snowfiles",
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := writeFile(filepath.Join(root, "input/surface-grids/dem.asc"), func(f io.Writer) error {
		return asc.WriteElevation(f, pkg.Elevation)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(root, "input/surface-grids/lus.asc"), func(f io.Writer) error {
		return asc.WriteLandCover(f, pkg.LandCover)
	}); err != nil {
		return err
	}

	for _, st := range pkg.Stations {
		path := filepath.Join(root, "input/meteo", st.ID+".smet")
		if err := writeFile(path, func(f io.Writer) error {
			return smet.Write(f, smet.File{
				StationID:   st.ID,
				StationName: st.Name,
				Latitude:    st.Latitude,
				Longitude:   st.Longitude,
				Easting:     st.Easting,
				Northing:    st.Northing,
				EPSG:        st.EPSG,
				Altitude:    st.Elevation,
				Fields:      st.Series.Fields,
				Records:     st.Series.Records,
			})
		}); err != nil {
			return err
		}
	}

	poiAltitude := w.elevationAt(pkg)
	if err := writeFile(filepath.Join(root, "input/meteo/poi.smet"), func(f io.Writer) error {
		return smet.WritePOI(f, pkg.Frame.EPSG, [][3]float64{
			{pkg.POI.X(), pkg.POI.Y(), poiAltitude},
		})
	}); err != nil {
		return err
	}

	for _, class := range pkg.LandCover.Classes() {
		path := filepath.Join(root, "input/snowfiles", fmt.Sprintf("%s_%d.sno", pkg.Name, class))
		if err := writeFile(path, func(f io.Writer) error {
			return writeSnoFile(f, pkg, class)
		}); err != nil {
			return err
		}
	}
	if w.snowDir != "" {
		if err := w.copySnowFiles(filepath.Join(root, "input/snowfiles")); err != nil {
			return err
		}
	}

	if err := writeFile(filepath.Join(root, "io.ini"), func(f io.Writer) error {
		return writeIOIni(f, pkg)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(root, "metadata.json"), func(f io.Writer) error {
		return writeMetadata(f, pkg)
	})
}

// elevationAt returns the elevation at the frame cell holding the POI, or
// the grid mean when the cell has no data.
func (w *Writer) elevationAt(pkg *domain.SimulationPackage) float64 {
	f := pkg.Frame
	col := int((pkg.POI.X() - f.OriginX) / f.CellSize)
	row := int((f.MaxY() - pkg.POI.Y()) / f.CellSize)
	if col >= 0 && col < f.Cols && row >= 0 && row < f.Rows {
		if v := pkg.Elevation.At(col, row); v != domain.NoData {
			return v
		}
	}
	if mean, ok := pkg.Elevation.MeanElevation(); ok {
		return mean
	}
	return 0
}

func (w *Writer) copySnowFiles(dst string) error {
	entries, err := os.ReadDir(w.snowDir)
	if err != nil {
		return fmt.Errorf("read snow files dir: %w", err)
	}
	copied := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sno") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(w.snowDir, e.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dst, e.Name()), data, 0o644); err != nil {
			return fmt.Errorf("copy %s: %w", e.Name(), err)
		}
		copied++
	}
	if copied > 0 {
		w.logger.Info("copied user snow files", "count", copied, "from", w.snowDir)
	}
	return nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return nil
}

// packageMetadata is the machine-readable run record stored with each
// package.
type packageMetadata struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	CoordSys  string    `json:"coord_sys"`

	Frame struct {
		OriginX  float64 `json:"origin_x"`
		OriginY  float64 `json:"origin_y"`
		CellSize float64 `json:"cell_size"`
		Cols     int     `json:"ncols"`
		Rows     int     `json:"nrows"`
		EPSG     int     `json:"epsg"`
	} `json:"frame"`

	Dates struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"dates"`

	ElevationValidFraction float64           `json:"elevation_valid_fraction"`
	LandCoverClasses       []int32           `json:"land_cover_classes"`
	Stations               []stationMetadata `json:"stations"`
	Warnings               []string          `json:"warnings"`
}

type stationMetadata struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Distance     float64 `json:"distance_m"`
	Elevation    float64 `json:"elevation_m"`
	Completeness float64 `json:"completeness"`
	Score        float64 `json:"score"`
}

func writeMetadata(w io.Writer, pkg *domain.SimulationPackage) error {
	md := packageMetadata{
		Name:      pkg.Name,
		CreatedAt: pkg.CreatedAt,
		CoordSys:  pkg.CoordSys,
	}
	md.Frame.OriginX = pkg.Frame.OriginX
	md.Frame.OriginY = pkg.Frame.OriginY
	md.Frame.CellSize = pkg.Frame.CellSize
	md.Frame.Cols = pkg.Frame.Cols
	md.Frame.Rows = pkg.Frame.Rows
	md.Frame.EPSG = pkg.Frame.EPSG
	md.Dates.Start = pkg.Dates.Start.Format("2006-01-02")
	md.Dates.End = pkg.Dates.End.Format("2006-01-02")
	md.ElevationValidFraction = pkg.Elevation.ValidFraction()
	md.LandCoverClasses = pkg.LandCover.Classes()
	md.Warnings = pkg.Warnings
	if md.Warnings == nil {
		md.Warnings = []string{}
	}
	for _, st := range pkg.Stations {
		md.Stations = append(md.Stations, stationMetadata{
			ID:           st.ID,
			Name:         st.Name,
			Distance:     st.Distance,
			Elevation:    st.Elevation,
			Completeness: st.Completeness,
			Score:        st.Score,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(md)
}
