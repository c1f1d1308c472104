package swisstopo

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/frischwood/a3dshell/internal/domain"
)

// parseXYZ decodes an ASCII XYZ tile payload: one "easting northing
// elevation" triple per line, points at cell centers. Cells absent from the
// payload stay NoData.
func parseXYZ(data []byte, id domain.TileID, cellSize float64) (domain.Tile, error) {
	bound := id.Bound()
	cols := int(1000 / cellSize)
	rows := cols

	tile := domain.Tile{
		ID:       id,
		OriginX:  bound.Min.X(),
		OriginY:  bound.Min.Y(),
		CellSize: cellSize,
		Cols:     cols,
		Rows:     rows,
		Values:   make([]float64, cols*rows),
	}
	for i := range tile.Values {
		tile.Values[i] = domain.NoData
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Some exports carry an "X Y Z" header row.
		if lineNo == 1 && !isNumeric(line) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return domain.Tile{}, fmt.Errorf("line %d: expected 3 fields, got %d", lineNo, len(fields))
		}
		e, err1 := strconv.ParseFloat(fields[0], 64)
		n, err2 := strconv.ParseFloat(fields[1], 64)
		z, err3 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return domain.Tile{}, fmt.Errorf("line %d: malformed triple %q", lineNo, line)
		}

		col := int((e - tile.OriginX) / cellSize)
		row := rows - 1 - int((n-tile.OriginY)/cellSize)
		if col < 0 || col >= cols || row < 0 || row >= rows {
			continue // point outside the nominal tile extent
		}
		tile.Values[row*cols+col] = z
	}
	if err := scanner.Err(); err != nil {
		return domain.Tile{}, fmt.Errorf("scan payload: %w", err)
	}
	return tile, nil
}

func isNumeric(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(fields[0], 64)
	return err == nil
}
