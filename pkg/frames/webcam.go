package frames

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// WebcamConfig configures the V4L2/libcamera capture device.
type WebcamConfig struct {
	Device  int
	Width   int
	Height  int
	Quality int // JPEG quality 1-100
}

// DefaultWebcamConfig matches the stock front camera: 640x360 JPEG at
// quality 80.
func DefaultWebcamConfig() WebcamConfig {
	return WebcamConfig{Device: 0, Width: 640, Height: 360, Quality: 80}
}

// Webcam captures frames from a local camera via gocv. It reuses one
// Mat across captures; the mutex keeps concurrent callers from
// clobbering it.
type Webcam struct {
	mu      sync.Mutex
	cap     *gocv.VideoCapture
	mat     gocv.Mat
	quality int
}

// OpenWebcam opens and configures the capture device.
func OpenWebcam(cfg WebcamConfig) (*Webcam, error) {
	cap, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("frames: open camera %d: %w", cfg.Device, err)
	}
	if cfg.Width > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	quality := cfg.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	return &Webcam{cap: cap, mat: gocv.NewMat(), quality: quality}, nil
}

// CaptureFrame grabs one frame and encodes it as JPEG.
func (w *Webcam) CaptureFrame() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.cap.Read(&w.mat) || w.mat.Empty() {
		return nil, fmt.Errorf("frames: camera read failed")
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.mat,
		[]int{gocv.IMWriteJpegQuality, w.quality})
	if err != nil {
		return nil, fmt.Errorf("frames: jpeg encode: %w", err)
	}
	defer buf.Close()

	// The buffer is backed by C memory freed on Close; copy out.
	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())
	return jpeg, nil
}

// Close releases the capture device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mat.Close()
	return w.cap.Close()
}
