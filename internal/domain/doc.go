// Package domain models the input dataset of an Alpine3D/Snowpack terrain
// snow simulation.
//
// # Grid model
//
// Every raster the pipeline produces shares one CoordinateFrame: a
// lower-left origin aligned to whole cells, a square cell size in meters,
// and an EPSG code. Grids are stored row-major with row 0 at the northern
// edge, matching the Arc/Info ASCII files the solver reads. The no-data
// sentinel is -9999 for grids.
//
// # Coordinate systems
//
// The pipeline works in a projected CRS, by default CH1903+/LV95
// (EPSG:2056) since the reference data sources (swissALTI3D elevation
// tiles, BFS Arealstatistik land cover, IMIS station network) are published
// in it. Upstream APIs are queried with WGS84 bounding boxes.
//
// # Land cover classes
//
// Grids use the PREVAH classification. Source data arrives in the BFS
// LC_27 code space and is mapped through a closed legend; a source code
// without a mapping is an error, never dropped.
//
// # Station data
//
// Time series use SMET variable names (TA, RH, VW, ...) and SI units: air
// temperature in kelvin, wind in m/s. Series are aligned to the exact
// requested date range on a fixed step; timestamps the source did not
// report are flagged missing and hold the nodata value -999 in SMET output.
package domain
