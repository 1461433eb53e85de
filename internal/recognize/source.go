package recognize

import (
	"fmt"
	"strconv"

	"gocv.io/x/gocv"

	plateimage "plate-reader/internal/image"
)

// FrameSource yields frames one at a time.
type FrameSource interface {
	// Next reads the next frame into dst. It returns false when the source is
	// exhausted or broken.
	Next(dst *gocv.Mat) bool
	Close() error
	Name() string
}

type imageSource struct {
	path string
	img  gocv.Mat
	done bool
}

// OpenImage returns a source that yields a single image file once.
func OpenImage(path string) (FrameSource, error) {
	img, err := plateimage.LoadMat(path)
	if err != nil {
		return nil, err
	}
	return &imageSource{path: path, img: img}, nil
}

func (s *imageSource) Next(dst *gocv.Mat) bool {
	if s.done {
		return false
	}
	s.done = true
	s.img.CopyTo(dst)
	return true
}

func (s *imageSource) Close() error { return s.img.Close() }
func (s *imageSource) Name() string { return s.path }

type captureSource struct {
	name string
	cap  *gocv.VideoCapture
}

// OpenVideo returns a source reading frames from a video file.
func OpenVideo(path string) (FrameSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	return &captureSource{name: path, cap: vc}, nil
}

// OpenCamera returns a source reading frames from a capture device.
func OpenCamera(id int) (FrameSource, error) {
	vc, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", id, err)
	}
	return &captureSource{name: "camera:" + strconv.Itoa(id), cap: vc}, nil
}

func (s *captureSource) Next(dst *gocv.Mat) bool { return s.cap.Read(dst) }
func (s *captureSource) Close() error            { return s.cap.Close() }
func (s *captureSource) Name() string            { return s.name }
