package scan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rl1809/stock-ledger/internal/port"
)

// ReaderSource reads one barcode per line. USB and Bluetooth scanners in
// keyboard mode type the code followed by Enter, so stdin works as a device.
type ReaderSource struct {
	r io.Reader
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

func (s *ReaderSource) Run(ctx context.Context, h port.ScanHandler) error {
	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		barcode := strings.TrimSpace(scanner.Text())
		if barcode == "" {
			continue
		}
		h.OnScan(barcode)
	}

	if err := scanner.Err(); err != nil {
		err = fmt.Errorf("read scans: %w", err)
		h.OnError(err)
		return err
	}
	return nil
}
