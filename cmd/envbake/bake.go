package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lhkbob/envbake/ibl"
	"github.com/lhkbob/envbake/libio"
)

type bakeArgs struct {
	commonArgs
}

func createBakeCommand() *command {

	args := bakeArgs{
		commonArgs: commonArgs{
			compress: 2,
			diffuse:  32,
			ext:      ".envcache",
		},
	}

	flags := flag.NewFlagSet("bake", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	return &command{
		Name: "bake",
		Help: "bake radiance cross images into environment map caches",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 || args.diffuse < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runBake(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runBake(args bakeArgs, inputFiles []string) {
	ext := cargs.suffix + cargs.ext

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := bakeFile(args, p, ext)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Baked %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func bakeFile(args bakeArgs, p string, ext string) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	img, err := libio.DecodeRadiance(inFile)
	if err != nil {
		return err
	}

	outFilename := filepath.Join(cargs.out, strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))+ext)
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	layout := args.layout()
	if !cargs.quiet {
		fmt.Printf("Baking %dx%d cubemap with %d specular levels ...\n", img.Width/3, img.Width/3, layout.SpecularCount())
	}

	env, err := ibl.NewEnvMapFromCross(img, layout)
	if err != nil {
		return err
	}

	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}

	err = ibl.EncodeEnvMap(outFile, env, ibl.OptCompress(cargs.compress-1))
	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}

	return nil
}
