package route

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"camstreamer/internal/config"
	"camstreamer/internal/dto"
	"camstreamer/internal/logger"
	"camstreamer/internal/preview"
)

func newPreviewServer(t *testing.T, token string) (*httptest.Server, *preview.Hub, *preview.Monitor) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := preview.NewHub(logger.NewNop())
	go hub.Run(ctx)
	monitor := preview.NewMonitor("camera_0", hub, logger.NewNop())

	server := httptest.NewServer(SetupRoutes(hub, monitor, config.PreviewConfig{Token: token}, logger.NewNop()))
	t.Cleanup(server.Close)
	return server, hub, monitor
}

func waitForViewers(t *testing.T, hub *preview.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d viewers, have %d", n, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPreviewWebsocket_ReceivesFrames(t *testing.T) {
	server, hub, monitor := newPreviewServer(t, "")

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/preview"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	waitForViewers(t, hub, 1)

	jpeg := []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9}
	monitor.FrameCaptured(jpeg)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var frame dto.PreviewFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		t.Fatalf("Invalid preview message: %v", err)
	}
	if frame.Camera != "camera_0" {
		t.Errorf("Expected camera_0, got %s", frame.Camera)
	}
	if frame.Image != base64.StdEncoding.EncodeToString(jpeg) {
		t.Errorf("Image does not round-trip: %s", frame.Image)
	}

	conn.Close()
	waitForViewers(t, hub, 0)
}

func TestPreviewWebsocket_RequiresToken(t *testing.T) {
	server, hub, _ := newPreviewServer(t, "secret")
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/preview"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("Dial without token should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token=secret", nil)
	if err != nil {
		t.Fatalf("Dial with token failed: %v", err)
	}
	defer conn.Close()
	waitForViewers(t, hub, 1)
}

func TestPreviewStatus_CORS(t *testing.T) {
	server, _, _ := newPreviewServer(t, "")

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/preview/status", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard CORS origin, got %q", got)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if raw["camera_id"] != "camera_0" || raw["last_frame_at"] != nil {
		t.Errorf("Unexpected status before any upload: %v", raw)
	}
}

func TestLogs_DisabledWithoutDirectory(t *testing.T) {
	server, _, _ := newPreviewServer(t, "")

	resp, err := http.Get(server.URL + "/logs/info")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}
