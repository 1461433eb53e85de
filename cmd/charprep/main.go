// Command charprep normalizes a raw character dataset (<in>/<label>/*) into
// fixed-size binary images ready for platetrain.
//
// Usage: charprep -in raw -out prepared [-size 20]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"plate-reader/internal/character"
	"plate-reader/internal/config"
	"plate-reader/internal/logging"
	"plate-reader/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(os.Getenv("PLATE_ENV_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	inDir := flag.String("in", "", "raw dataset directory")
	outDir := flag.String("out", "", "output directory")
	size := flag.Int("size", cfg.CharSize, "output side length; 0 uses the largest input side")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("charprep"))
		return
	}
	if *inDir == "" || *outDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -in raw -out prepared [-size S]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogPrefix)
	logger.SetDebug(cfg.Debug)

	if *size == 0 {
		*size, err = character.FindMaxImageSize(*inDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *size == 0 {
			fmt.Fprintf(os.Stderr, "Error: no readable images in %s\n", *inDir)
			os.Exit(1)
		}
		fmt.Printf("Using largest input side: %d\n", *size)
	}

	normalizer := character.NewNormalizer(cfg.Character)
	stats, err := normalizer.PrepareDataset(*inDir, *outDir, *size, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Prepared %d images in %d classes (%d skipped) at %dx%d\n",
		stats.Written, stats.Classes, stats.Skipped, *size, *size)
}
