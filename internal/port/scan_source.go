package port

import "context"

type ScanHandler interface {
	// OnScan is called at most once per physical scan event
	OnScan(barcode string)

	// OnError reports device or permission failures
	OnError(err error)
}

type ScanSource interface {
	// Run delivers scans to h until ctx is cancelled or the source is exhausted
	Run(ctx context.Context, h ScanHandler) error
}
