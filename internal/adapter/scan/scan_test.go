package scan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// Mock ScanHandler
type recordingHandler struct {
	mu     sync.Mutex
	scans  []string
	errors []error
}

func (h *recordingHandler) OnScan(barcode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scans = append(h.scans, barcode)
}

func (h *recordingHandler) OnError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, err)
}

type brokenReader struct{}

func (brokenReader) Read(p []byte) (int, error) {
	return 0, errors.New("device unplugged")
}

func TestReaderSource(t *testing.T) {
	h := &recordingHandler{}
	src := NewReaderSource(strings.NewReader("6901234567890\n\n  4006381333931 \r\nABC-1"))

	if err := src.Run(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"6901234567890", "4006381333931", "ABC-1"}
	if len(h.scans) != len(want) {
		t.Fatalf("expected %v, got %v", want, h.scans)
	}
	for i := range want {
		if h.scans[i] != want[i] {
			t.Errorf("scan %d: expected %q, got %q", i, want[i], h.scans[i])
		}
	}
}

func TestReaderSource_Cancelled(t *testing.T) {
	h := &recordingHandler{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewReaderSource(strings.NewReader("A\nB\n")).Run(ctx, h)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if len(h.scans) != 0 {
		t.Errorf("expected no scans after cancel, got %v", h.scans)
	}
}

func TestReaderSource_ReadError(t *testing.T) {
	h := &recordingHandler{}

	err := NewReaderSource(brokenReader{}).Run(context.Background(), h)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(h.errors) != 1 {
		t.Errorf("expected OnError to be called once, got %d", len(h.errors))
	}
}

func TestGate_DropsRepeatsInsideWindow(t *testing.T) {
	h := &recordingHandler{}
	g := NewGate(h, time.Second)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	g.OnScan("A")
	now = now.Add(200 * time.Millisecond)
	g.OnScan("A") // same physical scan
	g.OnScan("B")
	now = now.Add(300 * time.Millisecond)
	g.OnScan("A") // different code in between, counts again
	now = now.Add(2 * time.Second)
	g.OnScan("A")

	want := []string{"A", "B", "A", "A"}
	if len(h.scans) != len(want) {
		t.Fatalf("expected %v, got %v", want, h.scans)
	}
}

func TestGate_Inactive(t *testing.T) {
	h := &recordingHandler{}
	g := NewGate(h, 0)

	g.SetActive(false)
	if g.IsActive() {
		t.Error("expected gate to be inactive")
	}
	g.OnScan("A")

	g.SetActive(true)
	g.OnScan("B")

	if len(h.scans) != 1 || h.scans[0] != "B" {
		t.Errorf("expected only B, got %v", h.scans)
	}

	g.OnError(errors.New("camera permission denied"))
	if len(h.errors) != 1 {
		t.Errorf("expected error to pass through, got %d", len(h.errors))
	}
}
