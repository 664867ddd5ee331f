package format

import (
	"context"

	"github.com/MKhiriev/lambda-search/models"
)

// recordBuffer accumulates index records and flushes them to the sink in
// fixed-size batches to bound memory and transaction size. The final
// partial batch must be flushed explicitly via close.
type recordBuffer struct {
	sink      Sink
	batchSize int
	records   []models.IndexRecord
}

func newRecordBuffer(sink Sink, batchSize int) *recordBuffer {
	return &recordBuffer{
		sink:      sink,
		batchSize: batchSize,
		records:   make([]models.IndexRecord, 0, batchSize),
	}
}

// add buffers one record, flushing when the batch is full.
func (b *recordBuffer) add(ctx context.Context, record models.IndexRecord) error {
	b.records = append(b.records, record)
	if len(b.records) >= b.batchSize {
		return b.flush(ctx)
	}

	return nil
}

// close flushes whatever partial batch remains.
func (b *recordBuffer) close(ctx context.Context) error {
	return b.flush(ctx)
}

func (b *recordBuffer) flush(ctx context.Context) error {
	if len(b.records) == 0 {
		return nil
	}

	if err := b.sink.Flush(ctx, b.records); err != nil {
		return err
	}

	b.records = b.records[:0]
	return nil
}
