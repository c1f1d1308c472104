package assembly

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/ini.v1"

	"github.com/frischwood/a3dshell/internal/domain"
)

const iniTimeLayout = "2006-01-02T15:04:05"

// writeIOIni emits the solver configuration file. Paths are relative to the
// package root so the directory stays relocatable.
func writeIOIni(w io.Writer, pkg *domain.SimulationPackage) error {
	cfg := ini.Empty()

	general, err := cfg.NewSection("General")
	if err != nil {
		return err
	}
	general.NewKey("BEGIN_DATE", pkg.Dates.Start.Format(iniTimeLayout))
	general.NewKey("END_DATE", pkg.Dates.End.Add(24*time.Hour).Format(iniTimeLayout))

	input, err := cfg.NewSection("Input")
	if err != nil {
		return err
	}
	input.NewKey("COORDSYS", pkg.CoordSys)
	input.NewKey("TIME_ZONE", "0")
	input.NewKey("DEMFILE", "input/surface-grids/dem.asc")
	input.NewKey("LANDUSEFILE", "input/surface-grids/lus.asc")
	input.NewKey("METEOPATH", "./input/meteo")
	input.NewKey("SNOWPATH", "./input/snowfiles")
	input.NewKey("POIFILE", "./input/meteo/poi.smet")
	for i, st := range pkg.Stations {
		input.NewKey(fmt.Sprintf("STATION%d", i+1), st.ID)
	}

	output, err := cfg.NewSection("Output")
	if err != nil {
		return err
	}
	output.NewKey("EXPERIMENT", pkg.Name)
	output.NewKey("COORDSYS", pkg.CoordSys)
	output.NewKey("TIME_ZONE", "0")
	output.NewKey("METEOPATH", "./output/meteo")
	output.NewKey("SNOWPATH", "./output/snowfiles")

	_, err = cfg.WriteTo(w)
	return err
}

// writeSnoFile emits the initial snow-cover state file for one land-use
// class. Station metadata comes from the best-ranked station, matching the
// convention the solver tooling expects.
func writeSnoFile(w io.Writer, pkg *domain.SimulationPackage, class int32) error {
	if len(pkg.Stations) == 0 {
		return fmt.Errorf("sno file for class %d: no stations", class)
	}
	ref := pkg.Stations[0]

	cfg := ini.Empty()
	header, err := cfg.NewSection("Header")
	if err != nil {
		return err
	}
	header.NewKey("EXPERIMENT", pkg.Name)
	header.NewKey("stationID", ref.ID)
	header.NewKey("latitude", fmt.Sprintf("%.6f", ref.Latitude))
	header.NewKey("longitude", fmt.Sprintf("%.6f", ref.Longitude))
	header.NewKey("altitude", fmt.Sprintf("%.1f", ref.Elevation))
	header.NewKey("nodata", "-999")
	header.NewKey("tz", "0")
	header.NewKey("ProfileDate", pkg.Dates.Start.Format(iniTimeLayout))
	header.NewKey("nSoilLayerData", "0")
	header.NewKey("nSnowLayerData", "0")

	_, err = cfg.WriteTo(w)
	return err
}
