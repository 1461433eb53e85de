// Command platerec reads license plates from an image, a video file or a
// camera.
//
// Usage: platerec -image car.jpg [-out annotated.png]
//
//	platerec -video traffic.mp4 [-db results.db]
//	platerec -camera 0 -backend tesseract
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"gocv.io/x/gocv"

	"plate-reader/internal/classifier"
	"plate-reader/internal/config"
	"plate-reader/internal/logging"
	"plate-reader/internal/ocr"
	"plate-reader/internal/recognize"
	"plate-reader/internal/store"
	"plate-reader/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	os.Exit(run())
}

// run holds the command body so deferred closes happen before os.Exit.
func run() int {
	cfg, err := config.Load(os.Getenv("PLATE_ENV_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	imagePath := flag.String("image", "", "image file to read")
	videoPath := flag.String("video", "", "video file to read")
	camera := flag.Int("camera", -1, "camera device id")
	modelDir := flag.String("model", cfg.ModelDir, "model directory")
	labelPath := flag.String("labels", cfg.LabelMap, "label map file")
	size := flag.Int("size", cfg.CharSize, "normalized character size")
	outPath := flag.String("out", "", "write the annotated image here (image mode)")
	dbPath := flag.String("db", cfg.ResultsDB, "SQLite file for recognized plates")
	backend := flag.String("backend", "svm", "character classifier: svm or tesseract")
	recent := flag.Int("recent", 0, "list the N latest recognitions from -db and exit")
	debug := flag.Bool("debug", cfg.Debug, "verbose logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("platerec"))
		return 0
	}

	logger := logging.NewLogger(cfg.LogPrefix)
	logger.SetDebug(*debug)

	var results *store.ResultStore
	if *dbPath != "" {
		results, err = store.Open(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening results database: %v\n", err)
			return 1
		}
		defer results.Close()
	}

	if *recent > 0 {
		if results == nil {
			fmt.Fprintf(os.Stderr, "Error: -recent needs -db\n")
			return 1
		}
		if err := listRecent(results, *recent); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	cls, closeCls, err := openClassifier(*backend, *modelDir, *labelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeCls()

	pipeline := cfg.Pipeline()
	pipeline.CharSize = *size
	rec := recognize.New(pipeline, cls, logger)

	switch {
	case *imagePath != "":
		err = runImage(rec, *imagePath, *outPath, results)
	case *videoPath != "":
		err = runStream(rec, func() (recognize.FrameSource, error) { return recognize.OpenVideo(*videoPath) }, results, logger)
	case *camera >= 0:
		err = runStream(rec, func() (recognize.FrameSource, error) { return recognize.OpenCamera(*camera) }, results, logger)
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s -image path | -video path | -camera id [flags]\n", os.Args[0])
		flag.PrintDefaults()
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func openClassifier(backend, modelDir, labelPath string) (recognize.CharClassifier, func(), error) {
	switch backend {
	case "svm":
		model, err := classifier.Load(modelDir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading model: %w", err)
		}
		labels, err := classifier.LoadLabelMap(labelPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading labels: %w", err)
		}
		return recognize.ModelClassifier{Model: model, Labels: labels}, func() {}, nil
	case "tesseract":
		engine, err := ocr.NewEngine("")
		if err != nil {
			return nil, nil, err
		}
		return engine, func() { engine.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func runImage(rec *recognize.Recognizer, path, outPath string, results *store.ResultStore) error {
	src, err := recognize.OpenImage(path)
	if err != nil {
		return err
	}
	defer src.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	src.Next(&frame)

	res, annotated, err := rec.RecognizeAnnotated(frame)
	defer annotated.Close()
	if err != nil {
		return err
	}
	report(path, 0, res)

	if outPath != "" {
		if !gocv.IMWrite(outPath, annotated) {
			return fmt.Errorf("failed to write %s", outPath)
		}
		fmt.Printf("Annotated image: %s\n", outPath)
	}
	return record(context.Background(), results, path, 0, res)
}

func runStream(rec *recognize.Recognizer, open func() (recognize.FrameSource, error), results *store.ResultStore, logger *logging.Logger) error {
	src, err := open()
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("reading frames", "source", src.Name())
	recognized := 0
	err = rec.Run(ctx, src, func(index int, res recognize.Result) error {
		if res.Status != recognize.StatusRecognized {
			logger.Debug("frame", "index", index, "status", res.Status)
			return nil
		}
		recognized++
		report(src.Name(), index, res)
		return record(ctx, results, src.Name(), index, res)
	})
	logger.Info("stream finished", "source", src.Name(), "recognized", recognized)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func report(source string, index int, res recognize.Result) {
	switch res.Status {
	case recognize.StatusRecognized:
		fmt.Printf("%s[%d]: %s (%d characters, %d unknown) at %dx%d+%d+%d\n",
			source, index, res.Plate, res.Characters, res.Unknown,
			res.Region.Width, res.Region.Height, res.Region.X, res.Region.Y)
	default:
		fmt.Printf("%s[%d]: %s\n", source, index, res.Status)
	}
}

func record(ctx context.Context, results *store.ResultStore, source string, index int, res recognize.Result) error {
	if results == nil || res.Status != recognize.StatusRecognized || res.Plate == "" {
		return nil
	}
	return results.Insert(ctx, &store.Record{
		Source:     source,
		Frame:      index,
		Plate:      res.Plate,
		Region:     res.Region,
		Characters: res.Characters,
	})
}

func listRecent(results *store.ResultStore, n int) error {
	records, err := results.Recent(context.Background(), n)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%s  %-10s %s[%d]  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Plate, r.Source, r.Frame, r.ID)
	}
	return nil
}
