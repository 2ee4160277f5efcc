package camera

import (
	"os"
	"testing"

	"gocv.io/x/gocv"

	"camstreamer/internal/config"
	"camstreamer/internal/logger"
)

func isJPEG(b []byte) bool {
	return len(b) > 4 && b[0] == 0xFF && b[1] == 0xD8 && b[len(b)-2] == 0xFF && b[len(b)-1] == 0xD9
}

// decodedPixel returns the BGR value at the centre of a JPEG.
func decodedPixel(t *testing.T, data []byte) (b, g, r uint8) {
	t.Helper()
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		t.Fatalf("Failed to decode frame: %v", err)
	}
	defer img.Close()
	row, col := img.Rows()/2, img.Cols()/2
	return img.GetUCharAt(row, col*3), img.GetUCharAt(row, col*3+1), img.GetUCharAt(row, col*3+2)
}

func TestEncode_ChannelOrder(t *testing.T) {
	// first channel set, as an RGB source delivers red
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 16, 16, gocv.MatTypeCV8UC3)
	defer frame.Close()

	tests := []struct {
		name    string
		swapRB  bool
		wantRed bool
	}{
		{"BGR source is encoded as is", false, false},
		{"RGB source is converted", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Device{
				converted: gocv.NewMat(),
				params:    []int{gocv.IMWriteJpegQuality, 90},
				swapRB:    tt.swapRB,
			}
			defer d.converted.Close()

			data, err := d.encode(frame)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if !isJPEG(data) {
				t.Fatalf("Output is not a JPEG: % x", data[:min(len(data), 4)])
			}

			b, _, r := decodedPixel(t, data)
			if gotRed := r > 200 && b < 50; gotRed != tt.wantRed {
				t.Errorf("Unexpected pixel b=%d r=%d, want red=%v", b, r, tt.wantRed)
			}
		})
	}
}

func TestOpen_MissingDevice(t *testing.T) {
	cfg := config.Default().Camera
	cfg.Device = "/nonexistent/camstreamer-video"

	if d, err := Open(cfg, logger.NewNop()); err == nil {
		d.Close()
		t.Error("Expected an error for a missing device")
	}
}

// Needs real hardware: CAMSTREAMER_TEST_DEVICE=0 go test ./internal/camera
func TestDevice_CaptureAndClose(t *testing.T) {
	device := os.Getenv("CAMSTREAMER_TEST_DEVICE")
	if device == "" {
		t.Skip("CAMSTREAMER_TEST_DEVICE not set")
	}

	cfg := config.Default().Camera
	cfg.Device = device
	d, err := Open(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		data, err := d.Capture()
		if err != nil {
			t.Fatalf("Capture %d failed: %v", i, err)
		}
		if !isJPEG(data) {
			t.Errorf("Capture %d did not return a JPEG", i)
		}
	}

	if err := d.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}
