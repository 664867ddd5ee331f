package format

import (
	"context"
	"fmt"
	"testing"

	"github.com/MKhiriev/lambda-search/models"
)

// recordingSink captures every Flush call for inspection.
type recordingSink struct {
	batches [][]models.IndexRecord
	err     error
}

func (s *recordingSink) Flush(_ context.Context, records []models.IndexRecord) error {
	if s.err != nil {
		return s.err
	}

	batch := make([]models.IndexRecord, len(records))
	copy(batch, records)
	s.batches = append(s.batches, batch)
	return nil
}

func testRecord(i int) models.IndexRecord {
	return models.IndexRecord{
		Row:        models.RowRef{Kind: models.CSVLineNumber, Value: int64(i)},
		ColumnName: "email",
		Value:      fmt.Sprintf("%08x", i),
	}
}

// TestRecordBuffer_FlushBoundary verifies that batchSize+1 records produce
// exactly two flushes: one full batch and one singleton.
func TestRecordBuffer_FlushBoundary(t *testing.T) {
	const batchSize = 5

	sink := &recordingSink{}
	buffer := newRecordBuffer(sink, batchSize)
	ctx := context.Background()

	for i := 0; i < batchSize+1; i++ {
		if err := buffer.add(ctx, testRecord(i)); err != nil {
			t.Fatalf("add error: %v", err)
		}
	}
	if err := buffer.close(ctx); err != nil {
		t.Fatalf("close error: %v", err)
	}

	if len(sink.batches) != 2 {
		t.Fatalf("expected 2 flushes, got %d", len(sink.batches))
	}
	if len(sink.batches[0]) != batchSize {
		t.Fatalf("first batch size = %d, want %d", len(sink.batches[0]), batchSize)
	}
	if len(sink.batches[1]) != 1 {
		t.Fatalf("second batch size = %d, want 1", len(sink.batches[1]))
	}
}

func TestRecordBuffer_ExactMultipleNoEmptyFlush(t *testing.T) {
	const batchSize = 4

	sink := &recordingSink{}
	buffer := newRecordBuffer(sink, batchSize)
	ctx := context.Background()

	for i := 0; i < batchSize*2; i++ {
		if err := buffer.add(ctx, testRecord(i)); err != nil {
			t.Fatalf("add error: %v", err)
		}
	}
	if err := buffer.close(ctx); err != nil {
		t.Fatalf("close error: %v", err)
	}

	if len(sink.batches) != 2 {
		t.Fatalf("expected 2 flushes for an exact multiple, got %d", len(sink.batches))
	}
}

func TestRecordBuffer_EmptyCloseIsNoop(t *testing.T) {
	sink := &recordingSink{}
	buffer := newRecordBuffer(sink, 10)

	if err := buffer.close(context.Background()); err != nil {
		t.Fatalf("close error: %v", err)
	}
	if len(sink.batches) != 0 {
		t.Fatalf("expected no flushes, got %d", len(sink.batches))
	}
}
