package camera

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"camstreamer/internal/config"
	"camstreamer/internal/logger"
)

// Device is an opened capture device that hands out JPEG-encoded frames.
type Device struct {
	capture   *gocv.VideoCapture
	frame     gocv.Mat
	converted gocv.Mat
	params    []int
	swapRB    bool
	logger    *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open opens the device named in cfg and applies the capture size and the
// frame-rate hint. The device may be an index ("0"), a path or a pipeline.
func Open(cfg config.CameraConfig, logger *logger.Logger) (*Device, error) {
	capture, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %s: %w", cfg.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %s is not available", cfg.Device)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	if cfg.FrameRateHint > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(cfg.FrameRateHint))
	}

	d := &Device{
		capture:   capture,
		frame:     gocv.NewMat(),
		converted: gocv.NewMat(),
		params:    []int{gocv.IMWriteJpegQuality, cfg.Quality},
		swapRB:    cfg.SwapRB,
		logger:    logger,
	}

	logger.Info("Camera initialized: device=%s size=%.0fx%.0f fps hint=%.0f",
		cfg.Device,
		capture.Get(gocv.VideoCaptureFrameWidth),
		capture.Get(gocv.VideoCaptureFrameHeight),
		capture.Get(gocv.VideoCaptureFPS))

	return d, nil
}

// Capture reads one frame and returns it JPEG-encoded. Channel order is
// converted to BGR first when the source delivers RGB.
func (d *Device) Capture() ([]byte, error) {
	if ok := d.capture.Read(&d.frame); !ok || d.frame.Empty() {
		return nil, fmt.Errorf("failed to read frame from camera")
	}

	return d.encode(d.frame)
}

func (d *Device) encode(frame gocv.Mat) ([]byte, error) {
	src := frame
	if d.swapRB {
		if err := gocv.CvtColor(frame, &d.converted, gocv.ColorRGBToBGR); err != nil {
			return nil, fmt.Errorf("failed to convert frame to BGR: %w", err)
		}
		src = d.converted
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, src, d.params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())
	return jpeg, nil
}

// Close releases the frame buffers and the device. Only the first call has an effect.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.frame.Close()
		d.converted.Close()
		d.closeErr = d.capture.Close()
		d.logger.Info("Camera released")
	})
	return d.closeErr
}
