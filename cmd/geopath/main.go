// Command geopath computes a terrain profile and line-of-sight
// envelope between two geographic points and reports it as CSV, JSON,
// or a terrain-intersection-area figure.
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/novalabsxyz/geoprop/p2p"
	"github.com/novalabsxyz/geoprop/tilestore"
	"github.com/novalabsxyz/geoprop/walker"
)

// row is the output shape for the csv and json subcommands, common to
// both the float32 and float64 build paths.
type row struct {
	DistanceM     float64 `json:"distance_m"`
	TerrainM      float64 `json:"terrain_m"`
	LOSElevM      float64 `json:"los_elev_m"`
	LowerFresnelM float64 `json:"lower_fresnel_m"`
}

type endpoint struct {
	lat, lon, altM float64
}

func parseEndpoint(s string) (endpoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return endpoint{}, fmt.Errorf("expected lat,lon,alt, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return endpoint{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return endpoint{}, fmt.Errorf("lon: %w", err)
	}
	alt, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return endpoint{}, fmt.Errorf("alt: %w", err)
	}
	return endpoint{lat: lat, lon: lon, altM: alt}, nil
}

// buildRows runs the double- or single-precision p2p.Builder
// depending on cCtx's --f32 flag, and returns the resulting profile
// flattened to float64 rows regardless of which precision produced
// them.
func buildRows(cCtx *cli.Context) ([]row, error) {
	store, err := tilestore.Open(cCtx.String("tile-dir"), tilestore.MemMap)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	start, err := parseEndpoint(cCtx.String("start"))
	if err != nil {
		return nil, fmt.Errorf("--start: %w", err)
	}
	dest, err := parseEndpoint(cCtx.String("dest"))
	if err != nil {
		return nil, fmt.Errorf("--dest: %w", err)
	}

	if cCtx.Bool("f32") {
		link, err := p2p.NewBuilder[float32](store).
			Start(walker.Point[float32]{X: float32(start.lon), Y: float32(start.lat)}).
			End(walker.Point[float32]{X: float32(dest.lon), Y: float32(dest.lat)}).
			StartAltM(float32(start.altM)).
			EndAltM(float32(dest.altM)).
			MaxStepM(float32(cCtx.Float64("max-step"))).
			EarthCurve(cCtx.Bool("earth-curve")).
			Normalize(cCtx.Bool("normalize")).
			Freq(float32(cCtx.Float64("frequency"))).
			Build()
		if err != nil {
			return nil, err
		}
		return toRows32(link), nil
	}

	link, err := p2p.NewBuilder[float64](store).
		Start(walker.Point[float64]{X: start.lon, Y: start.lat}).
		End(walker.Point[float64]{X: dest.lon, Y: dest.lat}).
		StartAltM(start.altM).
		EndAltM(dest.altM).
		MaxStepM(cCtx.Float64("max-step")).
		EarthCurve(cCtx.Bool("earth-curve")).
		Normalize(cCtx.Bool("normalize")).
		Freq(cCtx.Float64("frequency")).
		Build()
	if err != nil {
		return nil, err
	}
	return toRows64(link), nil
}

func toRows64(link *p2p.PointToPoint[float64]) []row {
	rows := make([]row, link.Len())
	for i := range rows {
		rows[i] = row{
			DistanceM:     link.DistancesM[i],
			TerrainM:      link.TerrainM[i],
			LOSElevM:      link.LOSElevM[i],
			LowerFresnelM: link.LowerFresnelZoneM[i],
		}
	}
	return rows
}

func toRows32(link *p2p.PointToPoint[float32]) []row {
	rows := make([]row, link.Len())
	for i := range rows {
		rows[i] = row{
			DistanceM:     float64(link.DistancesM[i]),
			TerrainM:      float64(link.TerrainM[i]),
			LOSElevM:      float64(link.LOSElevM[i]),
			LowerFresnelM: float64(link.LowerFresnelZoneM[i]),
		}
	}
	return rows
}

// terrainIntersectionArea is the integral of max(0, terrain - los)
// over distance, by the trapezoid rule.
func terrainIntersectionArea(rows []row) float64 {
	area := 0.0
	for i := 0; i+1 < len(rows); i++ {
		y0 := rows[i].TerrainM - rows[i].LOSElevM
		if y0 < 0 {
			y0 = 0
		}
		y1 := rows[i+1].TerrainM - rows[i+1].LOSElevM
		if y1 < 0 {
			y1 = 0
		}
		dx := rows[i+1].DistanceM - rows[i].DistanceM
		area += dx * (y0 + y1) / 2
	}
	return area
}

func writeCSV(rows []row) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	if err := w.Write([]string{"distance_m", "terrain_m", "los_elev_m", "lower_fresnel_m"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatFloat(r.DistanceM, 'f', -1, 64),
			strconv.FormatFloat(r.TerrainM, 'f', -1, 64),
			strconv.FormatFloat(r.LOSElevM, 'f', -1, 64),
			strconv.FormatFloat(r.LowerFresnelM, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

var errPlotNotImplemented = errors.New("geopath: the plot subcommand is not implemented; use csv or json and plot the output externally")

func main() {
	commonFlags := []cli.Flag{
		&cli.StringFlag{Name: "tile-dir", Required: true, Usage: "directory of .hgt elevation tiles"},
		&cli.Float64Flag{Name: "max-step", Value: 90, Usage: "maximum spacing between samples, in meters"},
		&cli.BoolFlag{Name: "earth-curve", Usage: "bulge the terrain profile for earth curvature"},
		&cli.BoolFlag{Name: "normalize", Usage: "re-level the bulged profile (requires --earth-curve)"},
		&cli.StringFlag{Name: "start", Required: true, Usage: "lat,lon,alt_m"},
		&cli.StringFlag{Name: "dest", Required: true, Usage: "lat,lon,alt_m"},
		&cli.Float64Flag{Name: "frequency", Required: true, Usage: "link frequency, in Hz"},
		&cli.BoolFlag{Name: "f32", Usage: "use single-precision (float32) arithmetic"},
	}

	app := &cli.App{
		Name:  "geopath",
		Usage: "terrain line-of-sight profiles between two points",
		Commands: []*cli.Command{
			{
				Name:  "csv",
				Flags: commonFlags,
				Action: func(cCtx *cli.Context) error {
					rows, err := buildRows(cCtx)
					if err != nil {
						return err
					}
					return writeCSV(rows)
				},
			},
			{
				Name:  "json",
				Flags: commonFlags,
				Action: func(cCtx *cli.Context) error {
					rows, err := buildRows(cCtx)
					if err != nil {
						return err
					}
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(rows)
				},
			},
			{
				Name:  "tia",
				Usage: "terrain intersection area: integral of max(0, terrain-los) over distance",
				Flags: commonFlags,
				Action: func(cCtx *cli.Context) error {
					rows, err := buildRows(cCtx)
					if err != nil {
						return err
					}
					fmt.Printf("%g\n", terrainIntersectionArea(rows))
					return nil
				},
			},
			{
				Name:  "plot",
				Flags: commonFlags,
				Action: func(cCtx *cli.Context) error {
					return errPlotNotImplemented
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
