// Command hexit tessellates elevation tiles into H3-indexed files,
// combines them into a single DiskTree, and looks values back up.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/urfave/cli/v2"

	"github.com/novalabsxyz/geoprop/combine"
	"github.com/novalabsxyz/geoprop/disktree"
	"github.com/novalabsxyz/geoprop/hex"
	"github.com/novalabsxyz/geoprop/mask"
	"github.com/novalabsxyz/geoprop/tessellate"
)

func openMask(path string) (*mask.Mask, error) {
	if path == "" {
		return nil, nil
	}
	return mask.Open(path)
}

func tessellateAction(cCtx *cli.Context) error {
	m, err := openMask(cCtx.String("mask"))
	if err != nil {
		return err
	}
	opts := tessellate.Options{
		Resolution:  cCtx.Int("resolution"),
		Overwrite:   cCtx.Bool("overwrite"),
		Compression: cCtx.Int("compression"),
		Mask:        m,
	}
	return tessellate.Run(cCtx.Context, cCtx.Args().Slice(), cCtx.String("out-dir"), opts)
}

func combineAction(cCtx *cli.Context) error {
	m, err := openMask(cCtx.String("mask"))
	if err != nil {
		return err
	}

	kind := combine.Compactor(cCtx.String("compactor"))
	opts := combine.Options{
		Compactor:        kind,
		Tolerance:        int16(cCtx.Int("tolerance")),
		SourceResolution: cCtx.Int("source-resolution"),
		TargetResolution: cCtx.Int("target-resolution"),
		Mask:             m,
		Verify:           cCtx.Bool("verify"),
	}

	n, err := combine.Run(cCtx.Args().Slice(), cCtx.String("out"), opts)
	if err != nil {
		return err
	}
	log.Printf("hexit combine: wrote %d leaves to %s", n, cCtx.String("out"))
	return nil
}

func parseCell(s string) (hex.Cell, error) {
	if raw, err := strconv.ParseUint(s, 10, 64); err == nil {
		return hex.NewCell(raw)
	}
	raw, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("hexit: %q is neither a decimal nor a hex H3 cell id", s)
	}
	return hex.NewCell(raw)
}

func lookupAction(cCtx *cli.Context) error {
	args := cCtx.Args()
	if args.Len() != 2 {
		return fmt.Errorf("hexit lookup: expected <disktree> <cell>")
	}
	dt, err := disktree.Open(args.Get(0))
	if err != nil {
		return err
	}
	defer dt.Close()

	if cCtx.Bool("iter") {
		entries, err := disktree.ToAll(dt, combine.ElevationCodec{}.Decode)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("cell: %s (res %d)\n", e.Cell, e.Cell.Resolution())
			fmt.Printf("min:  %d\n", e.Value.Min)
			fmt.Printf("avg:  %d\n", e.Value.Avg())
			fmt.Printf("max:  %d\n", e.Value.Max)
		}
		return nil
	}

	cell, err := parseCell(args.Get(1))
	if err != nil {
		return err
	}
	matched, raw, ok, err := dt.SeekToCell(cell)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("cell not found")
		return nil
	}
	val := combine.ElevationCodec{}.Decode(raw)
	fmt.Printf("cell: %s (res %d)\n", matched, matched.Resolution())
	fmt.Printf("min:  %d\n", val.Min)
	fmt.Printf("avg:  %d\n", val.Avg())
	fmt.Printf("max:  %d\n", val.Max)
	return nil
}

// jsonEntry is the kepler.gl-friendly output record for the json
// subcommand, matching hexit/src/json.rs's JsonEntry.
type jsonEntry struct {
	H3ID string `json:"h3_id"`
	Min  int16  `json:"min"`
	Avg  int16  `json:"avg"`
	Max  int16  `json:"max"`
}

func jsonAction(cCtx *cli.Context) error {
	args := cCtx.Args()
	if args.Len() != 2 {
		return fmt.Errorf("hexit json: expected <mask> <disktree>")
	}
	m, err := mask.Open(args.Get(0))
	if err != nil {
		return err
	}
	dt, err := disktree.Open(args.Get(1))
	if err != nil {
		return err
	}
	defer dt.Close()

	entries, err := disktree.ToAll(dt, combine.ElevationCodec{}.Decode)
	if err != nil {
		return err
	}

	seen := make(map[hex.Cell]bool)
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		center := e.Cell.Center()
		if !m.Contains(orb.Point{center.Lng, center.Lat}) {
			continue
		}
		if seen[e.Cell] {
			continue
		}
		seen[e.Cell] = true
		out = append(out, jsonEntry{
			H3ID: e.Cell.String(),
			Min:  e.Value.Min,
			Avg:  e.Value.Avg(),
			Max:  e.Value.Max,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(out)
}

func main() {
	app := &cli.App{
		Name:  "hexit",
		Usage: "tessellate elevation tiles into H3 cells and combine them into a disktree",
		Commands: []*cli.Command{
			{
				Name:      "tessellate",
				Usage:     "generate (cell, elevation) tessellations for each input tile",
				ArgsUsage: "<tile> [tile...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mask", Usage: "GeoJSON mask; tiles outside it are skipped"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"O"}, Usage: "reprocess a tile even if its output already exists"},
					&cli.IntFlag{Name: "compression", Aliases: []string{"c"}, Value: 6, Usage: "gzip compression level"},
					&cli.IntFlag{Name: "resolution", Aliases: []string{"r"}, Value: 12, Usage: "H3 resolution to polyfill to"},
					&cli.StringFlag{Name: "out-dir", Aliases: []string{"o"}, Required: true, Usage: "output directory"},
				},
				Action: tessellateAction,
			},
			{
				Name:      "combine",
				Usage:     "merge tessellation files into a single DiskTree",
				ArgsUsage: "<tessellation> [tessellation...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "compactor", Value: "equality", Usage: "equality, close-enough, or reduction"},
					&cli.IntFlag{Name: "tolerance", Aliases: []string{"t"}, Usage: "close-enough compactor's allowed min/max spread"},
					&cli.IntFlag{Name: "source-resolution", Usage: "resolution tessellation files were written at (reduction compactor)"},
					&cli.IntFlag{Name: "target-resolution", Usage: "resolution the reduction compactor reduces to"},
					&cli.StringFlag{Name: "mask", Usage: "GeoJSON mask; cells outside it are skipped"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "output DiskTree path"},
					&cli.BoolFlag{Name: "verify", Usage: "re-open the written DiskTree and verify every entry"},
				},
				Action: combineAction,
			},
			{
				Name:      "lookup",
				Usage:     "look up a cell's value in a DiskTree",
				ArgsUsage: "<disktree> <cell>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "iter", Aliases: []string{"i"}, Usage: "iterate the whole disktree instead of looking up one cell"},
				},
				Action: lookupAction,
			},
			{
				Name:      "json",
				Usage:     "dump a kepler.gl-compatible JSON export of a DiskTree within a mask",
				ArgsUsage: "<mask> <disktree>",
				Action:    jsonAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
