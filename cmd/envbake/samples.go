package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/lhkbob/envbake/ibl"
	"github.com/lhkbob/envbake/libio"
)

type samplesArgs struct {
	commonArgs
	count      int
	thresholds int
	batch      int
	structured bool
	json       bool
	overlay    bool
}

func createSamplesCommand() *command {

	args := samplesArgs{
		commonArgs: commonArgs{
			diffuse: 32,
			ext:     ".txt",
		},
		count:      64,
		thresholds: ibl.DefaultThresholds,
		batch:      0,
		structured: false,
		json:       false,
		overlay:    false,
	}

	flags := flag.NewFlagSet("samples", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.IntVar(&args.count, "count", args.count, "the number of point lights to extract")
	flags.IntVar(&args.count, "n", args.count, "shorthand for count")
	flags.IntVar(&args.thresholds, "thresholds", args.thresholds, "the number of threshold levels for structured sampling")
	flags.IntVar(&args.batch, "batch", args.batch, "group the lights into batches of this size, 0 keeps a flat list")
	flags.BoolVar(&args.structured, "structured", args.structured, "use structured importance sampling instead of per texel ranking")
	flags.BoolVar(&args.json, "json", args.json, "write json instead of plain text")
	flags.BoolVar(&args.overlay, "overlay", args.overlay, "also write a png of the radiance with the lights marked")

	return &command{
		Name: "samples",
		Help: "extract point light samples from environment map caches",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 ||
				args.count < 1 || args.thresholds < 1 || args.batch < 0 || args.diffuse < 1 {
				printCommandUsage(self, " file-glob...")
			}
			if args.json && args.ext == ".txt" {
				args.ext = ".json"
			}
			setCommonArgs(&args.commonArgs)

			runSamples(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runSamples(args samplesArgs, inputFiles []string) {
	ext := cargs.suffix + cargs.ext

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := samplesFile(args, p, ext)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Sampled %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func samplesFile(args samplesArgs, p string, ext string) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	hdri, err := ibl.DecodeEnvMap(inFile, args.layout())
	if err != nil {
		return err
	}

	var samples []ibl.Sample
	if args.structured {
		sampler, err := ibl.NewStructuredSampler(hdri.Radiance, args.thresholds)
		if err != nil {
			return err
		}
		samples = sampler.ComputeSamples(args.count)
		// brightest first, like the ranked path
		slices.Reverse(samples)
	} else {
		samples = hdri.Samples()
		if len(samples) > args.count {
			samples = samples[:args.count]
		}
	}

	if !cargs.quiet {
		fmt.Printf("Extracted %d lights ...\n", len(samples))
	}

	base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	outFilename := filepath.Join(cargs.out, base+ext)
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}

	batches := batchSamples(samples, args.batch)
	if args.json {
		err = writeSamplesJson(outFile, batches, args.batch > 0)
	} else {
		err = writeSamplesText(outFile, batches)
	}
	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}

	if args.overlay {
		return writeOverlay(hdri.Radiance, samples, filepath.Join(cargs.out, base+cargs.suffix+"_overlay.png"))
	}
	return nil
}

// batchSamples splits the lights the way a renderer would consume them,
// a fixed number per frame. A batch size of 0 yields one batch with
// everything.
func batchSamples(samples []ibl.Sample, batch int) [][]ibl.Sample {
	if batch == 0 {
		batch = len(samples)
	}
	q := ibl.NewSampleQueue(samples, batch)

	var batches [][]ibl.Sample
	for b := q.Next(); b != nil; b = q.Next() {
		batches = append(batches, b)
	}
	return batches
}

func writeSamplesText(dst *os.File, batches [][]ibl.Sample) error {
	w := bufio.NewWriter(dst)
	fmt.Fprintf(w, "# face x y dir.x dir.y dir.z illum.r illum.g illum.b\n")
	for i, batch := range batches {
		if len(batches) > 1 {
			fmt.Fprintf(w, "# batch %d\n", i)
		}
		for _, s := range batch {
			fmt.Fprintf(w, "%s %d %d %.6f %.6f %.6f %g %g %g\n",
				s.Face, s.X, s.Y,
				s.Direction[0], s.Direction[1], s.Direction[2],
				s.Illumination[0], s.Illumination[1], s.Illumination[2])
		}
	}
	return w.Flush()
}

type jsonSample struct {
	Face         string     `json:"face"`
	X            int        `json:"x"`
	Y            int        `json:"y"`
	Direction    [3]float64 `json:"direction"`
	Illumination [3]float64 `json:"illumination"`
}

func writeSamplesJson(dst *os.File, batches [][]ibl.Sample, batched bool) error {
	conv := func(batch []ibl.Sample) []jsonSample {
		js := make([]jsonSample, len(batch))
		for i, s := range batch {
			js[i] = jsonSample{
				Face:         s.Face.String(),
				X:            s.X,
				Y:            s.Y,
				Direction:    s.Direction,
				Illumination: s.Illumination,
			}
		}
		return js
	}

	enc := json.NewEncoder(dst)
	enc.SetIndent("", "\t")
	if batched {
		out := make([][]jsonSample, len(batches))
		for i, batch := range batches {
			out[i] = conv(batch)
		}
		return enc.Encode(out)
	}

	var flat []ibl.Sample
	for _, batch := range batches {
		flat = append(flat, batch...)
	}
	return enc.Encode(conv(flat))
}

// writeOverlay renders the radiance contact sheet with a marker on every
// light's texel.
func writeOverlay(radiance *ibl.CubeMap, samples []ibl.Sample, outFilename string) error {
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	side := radiance.Side
	fimg := libio.NewFloatImage(radiance.Data(), 3, side, side*6)
	rgba := fimg.ToIntImage(2.2, 1.0).ToRGBA()

	for _, s := range samples {
		// the contact sheet stacks faces bottom up, ToRGBA flips to the
		// png's top down rows
		py := 6*side - 1 - (int(s.Face)*side + s.Y)
		mark := func(x, y int) {
			if x < 0 || x >= side || y < 0 || y >= 6*side {
				return
			}
			o := rgba.PixOffset(x, y)
			rgba.Pix[o+0] = 0xff
			rgba.Pix[o+1] = 0
			rgba.Pix[o+2] = 0
		}
		mark(s.X, py)
		mark(s.X-1, py)
		mark(s.X+1, py)
		mark(s.X, py-1)
		mark(s.X, py+1)
	}

	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}

	err = png.Encode(outFile, rgba)
	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}

	return nil
}
