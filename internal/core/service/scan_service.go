package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/rl1809/stock-ledger/internal/core/domain"
)

const (
	scanNote    = "scan"
	scanTimeout = 5 * time.Second
)

// ScanService turns scanned barcodes into stock-in movements. Scans are
// queued and applied by a single worker so there is one writer.
type ScanService struct {
	stock    *StockService
	queue    chan string
	done     chan struct{}
	once     sync.Once
	quantity int
}

func NewScanService(stock *StockService, queueSize, quantityPerScan int) *ScanService {
	if quantityPerScan <= 0 {
		quantityPerScan = 1
	}
	return &ScanService{
		stock:    stock,
		queue:    make(chan string, queueSize),
		done:     make(chan struct{}),
		quantity: quantityPerScan,
	}
}

// OnScan blocks while the queue is full. Scans after Close are dropped.
func (s *ScanService) OnScan(barcode string) {
	select {
	case <-s.done:
		log.Printf("[scan] queue closed, dropping %s", barcode)
		return
	default:
	}

	select {
	case s.queue <- barcode:
	case <-s.done:
		log.Printf("[scan] queue closed, dropping %s", barcode)
	}
}

func (s *ScanService) OnError(err error) {
	log.Printf("[scan] source error: %v", err)
}

func (s *ScanService) GetScanQueue() <-chan string {
	return s.queue
}

// Close stops accepting scans. Run finishes what is already queued.
func (s *ScanService) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *ScanService) Process(ctx context.Context, barcode string) (int, error) {
	return s.stock.RecordMovement(ctx, barcode, s.quantity, domain.MovementIn, scanNote)
}

// Run applies queued scans until Close, then drains the queue and returns.
func (s *ScanService) Run() {
	for {
		select {
		case barcode := <-s.queue:
			s.apply(barcode)
		case <-s.done:
			for {
				select {
				case barcode := <-s.queue:
					s.apply(barcode)
				default:
					return
				}
			}
		}
	}
}

func (s *ScanService) apply(barcode string) {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	stock, err := s.Process(ctx, barcode)
	if err != nil {
		log.Printf("[scan] failed to record %s: %v", barcode, err)
		return
	}
	log.Printf("[scan] %s stock=%d", barcode, stock)
}
