// Command platetrain trains the character classifier from a directory of
// normalized character images laid out as <data>/<label>/*.
//
// Usage: platetrain -data prepared -model model [-holdout 0.2]
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"plate-reader/internal/classifier"
	"plate-reader/internal/config"
	"plate-reader/internal/dataset"
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

	dataDir := flag.String("data", "", "directory of <label>/ subdirectories with normalized images")
	modelDir := flag.String("model", cfg.ModelDir, "output model directory")
	labelPath := flag.String("labels", "", "label map output (default <model>/label_map.txt)")
	size := flag.Int("size", cfg.CharSize, "expected character size")
	maxPerClass := flag.Int("max-per-class", 100, "cap on samples per label")
	components := flag.Int("components", cfg.Train.Components, "PCA components")
	holdout := flag.Float64("holdout", 0, "fraction of samples held out for evaluation")
	seed := flag.Int64("seed", time.Now().UnixNano(), "shuffle seed")
	workers := flag.Int("j", cfg.Train.Workers, "worker goroutines")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("platetrain"))
		return
	}
	if *dataDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -data dir [-model dir] [flags]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *labelPath == "" {
		*labelPath = filepath.Join(*modelDir, "label_map.txt")
	}

	logger := logging.NewLogger(cfg.LogPrefix)
	logger.SetDebug(cfg.Debug)

	labels, err := classifier.BuildLabelMap(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d labels\n", labels.Len())

	opts := dataset.DefaultOptions().WithMaxPerClass(*maxPerClass).WithSeed(*seed)
	opts.Log = logger
	set, err := dataset.Load(*dataDir, labels, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", err)
		os.Exit(1)
	}
	if set.Len() == 0 {
		fmt.Fprintf(os.Stderr, "Error: no samples found in %s\n", *dataDir)
		os.Exit(1)
	}
	if n := len(set.Samples[0]); n != (*size)*(*size) {
		logger.Warn("sample size differs from -size", "pixels", n, "size", *size)
	}

	set.Shuffle(rand.New(rand.NewSource(*seed)))
	train, test := set.Split(*holdout)
	fmt.Printf("Loaded %d samples (%d train, %d held out)\n", set.Len(), train.Len(), test.Len())

	params := cfg.Train.WithComponents(*components).WithWorkers(*workers)
	start := time.Now()
	model, err := classifier.Train(train.Samples, train.Labels, params)
	if err != nil {
		if errors.Is(err, classifier.ErrDegenerateData) {
			fmt.Fprintf(os.Stderr, "Error: training data has no contrast; nothing saved\n")
		} else {
			fmt.Fprintf(os.Stderr, "Error training: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Printf("Trained in %v (%d components)\n", time.Since(start).Round(time.Millisecond), model.Components())
	fmt.Printf("Training accuracy: %.2f%%\n", 100*model.Evaluate(train.Samples, train.Labels))
	if test.Len() > 0 {
		fmt.Printf("Holdout accuracy:  %.2f%%\n", 100*model.Evaluate(test.Samples, test.Labels))
	}

	if err := model.Save(*modelDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving model: %v\n", err)
		os.Exit(1)
	}
	if err := labels.Save(*labelPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving labels: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved model to %s and labels to %s\n", *modelDir, *labelPath)
}
