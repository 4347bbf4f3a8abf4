package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lhkbob/envbake/ibl"
)

type repackArgs struct {
	commonArgs
}

func createRepackCommand() *command {
	args := repackArgs{
		commonArgs: commonArgs{
			compress: 2,
			diffuse:  32,
			ext:      ".envcache",
			suffix:   "_repacked",
		},
	}

	flags := flag.NewFlagSet("repack", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	return &command{
		Name: "repack",
		Help: "rewrite environment map caches with different compression",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 || args.diffuse < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runRepack(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runRepack(args repackArgs, inputFiles []string) {
	ext := cargs.suffix + cargs.ext

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := repackFile(args, p, ext)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Repacked %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func repackFile(args repackArgs, p, ext string) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	src, err := ibl.DecodeEnvMap(inFile, args.layout())
	if err != nil {
		return err
	}

	outFilename := filepath.Join(cargs.out, strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))+ext)
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	err = ibl.EncodeEnvMap(outFile, src, ibl.OptCompress(cargs.compress-1))
	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}

	return nil
}
