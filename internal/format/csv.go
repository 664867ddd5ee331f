package format

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MKhiriev/lambda-search/internal/crypto"
	"github.com/MKhiriev/lambda-search/internal/normalize"
	"github.com/MKhiriev/lambda-search/models"
)

// csvHandler processes delimited text files as a single flat table. The
// first record is treated as the header; data rows are addressed by their
// 1-based position ([models.CSVLineNumber] refs).
type csvHandler struct {
	path      string
	cipher    crypto.Cipher
	batchSize int
}

func newCSVHandler(path string, cipher crypto.Cipher, batchSize int) Handler {
	return &csvHandler{
		path:      path,
		cipher:    cipher,
		batchSize: batchSize,
	}
}

// Validate confirms the file parses as delimited text.
func (h *csvHandler) Validate(ctx context.Context) error {
	if _, err := h.readAll(); err != nil {
		return err
	}
	return nil
}

// CountRows returns the number of data rows: total records minus the
// header.
func (h *csvHandler) CountRows(ctx context.Context) (int64, error) {
	records, err := h.readAll()
	if err != nil {
		return 0, err
	}

	if len(records) == 0 {
		return 0, nil
	}
	return int64(len(records) - 1), nil
}

// Encrypt walks each data row and column, normalizes and encrypts every
// non-empty cell, rewrites the file in place with ciphertext, and streams
// index records keyed by 1-based row number and header-derived column name.
func (h *csvHandler) Encrypt(ctx context.Context, sink Sink, progress ProgressFunc) error {
	records, err := h.readAll()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	header := records[0]
	buffer := newRecordBuffer(sink, h.batchSize)

	encrypted := make([][]string, 0, len(records))
	encrypted = append(encrypted, header)

	for rowNumber, row := range records[1:] {
		encryptedRow := make([]string, len(row))

		for columnIndex, cell := range row {
			if cell == "" {
				continue
			}

			ciphertext, err := h.cipher.Encrypt(normalize.Value(cell))
			if err != nil {
				return fmt.Errorf("error encrypting row %d column %d: %w", rowNumber+1, columnIndex+1, err)
			}

			addErr := buffer.add(ctx, models.IndexRecord{
				Row:        models.RowRef{Kind: models.CSVLineNumber, Value: int64(rowNumber + 1)},
				ColumnName: columnName(header, columnIndex),
				Value:      truncateValue(ciphertext),
			})
			if addErr != nil {
				return addErr
			}

			encryptedRow[columnIndex] = ciphertext
		}

		encrypted = append(encrypted, encryptedRow)

		if progress != nil {
			progress(int64(rowNumber + 1))
		}
	}

	if err := h.writeAll(encrypted); err != nil {
		return err
	}

	return buffer.close(ctx)
}

// ReadPreview returns the header and the first n raw rows under the file's
// base name, mirroring the per-table shape of the SQLite handler.
func (h *csvHandler) ReadPreview(ctx context.Context, n int) (map[string]Preview, error) {
	records, err := h.readAll()
	if err != nil {
		return nil, err
	}

	preview := Preview{Columns: []string{}, Rows: [][]string{}}
	if len(records) > 0 {
		preview.Columns = records[0]

		limit := min(n, len(records)-1)
		for _, row := range records[1 : 1+limit] {
			preview.Rows = append(preview.Rows, row)
		}
	}

	return map[string]Preview{filepath.Base(h.path): preview}, nil
}

func (h *csvHandler) readAll() ([][]string, error) {
	file, err := os.Open(h.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Leak dumps are rarely rectangular; ragged rows are data, not errors.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	return records, nil
}

func (h *csvHandler) writeAll(records [][]string) error {
	file, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("error rewriting csv file: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		file.Close()
		return fmt.Errorf("error rewriting csv file: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("error rewriting csv file: %w", err)
	}

	return file.Close()
}

// columnName derives the index-record column label from the header,
// falling back to a synthetic "Column N" label when the header has no cell
// at that position or the cell is empty.
func columnName(header []string, columnIndex int) string {
	if columnIndex < len(header) && header[columnIndex] != "" {
		return header[columnIndex]
	}
	return fmt.Sprintf("Column %d", columnIndex+1)
}
