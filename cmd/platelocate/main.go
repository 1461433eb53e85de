// Command platelocate runs plate localization on one image and writes the
// binary mask and the resized image with candidate regions drawn. It is a
// tuning aid for the preprocessing parameters.
//
// Usage: platelocate -image car.jpg [-out-dir debug]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"plate-reader/internal/config"
	plateimage "plate-reader/internal/image"
	"plate-reader/internal/plate"
	"plate-reader/internal/version"
	"plate-reader/pkg/colorutil"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Getenv("PLATE_ENV_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	imagePath := flag.String("image", "", "input image")
	outDir := flag.String("out-dir", ".", "directory for mask.png and regions.png")
	segment := flag.Bool("segment", false, "also write the segmented characters of the top region")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("platelocate"))
		return 0
	}
	if *imagePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -image path [-out-dir dir]\n", os.Args[0])
		return 1
	}

	frame, err := plateimage.LoadMat(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		return 1
	}
	defer frame.Close()

	locator := plate.NewLocator(cfg.Plate)
	resized, mask, err := locator.Preprocess(frame)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer resized.Close()
	defer mask.Close()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := write(filepath.Join(*outDir, "mask.png"), mask); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	regions := locator.LocatePlates(mask, cfg.Locate)
	fmt.Printf("Resized to %dx%d, %d candidate regions\n", resized.Cols(), resized.Rows(), len(regions))

	drawn := resized.Clone()
	defer drawn.Close()
	for i, r := range regions {
		fmt.Printf("  #%d %dx%d+%d+%d aspect %.2f\n", i, r.Width, r.Height, r.X, r.Y, r.AspectRatio())
		c := colorutil.Blue
		if i == 0 {
			c = colorutil.Green
		}
		gocv.Rectangle(&drawn, r.ImageRect(), c, 2)
	}
	if err := write(filepath.Join(*outDir, "regions.png"), drawn); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if !*segment || len(regions) == 0 {
		return 0
	}
	crop := resized.Region(regions[0].Clamp(resized.Cols(), resized.Rows()).ImageRect())
	defer crop.Close()
	chars, err := locator.SegmentCharacters(crop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer plate.CloseCharacters(chars)
	for i, ch := range chars {
		if err := write(filepath.Join(*outDir, fmt.Sprintf("char_%02d.png", i)), ch.Mat); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	fmt.Printf("Segmented %d characters\n", len(chars))
	return 0
}

func write(path string, m gocv.Mat) error {
	if !gocv.IMWrite(path, m) {
		return fmt.Errorf("failed to write %s", path)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
