package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MKhiriev/lambda-search/internal/crypto"
	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/internal/normalize"
	"github.com/MKhiriev/lambda-search/internal/store"
	"github.com/MKhiriev/lambda-search/models"
)

// searchService is the concrete implementation of SearchService. Equality
// search over ciphertext works because the cell cipher is deterministic:
// the query passes through the same normalize-then-encrypt pipeline as
// every ingested cell, so one index lookup finds all occurrences.
type searchService struct {
	data    store.DataRepository
	history store.HistoryRepository
	cipher  crypto.Cipher
	logger  *logger.Logger
}

// NewSearchService constructs a SearchService over the given index and
// history repositories, using cipher to encrypt incoming queries.
func NewSearchService(data store.DataRepository, history store.HistoryRepository, cipher crypto.Cipher, logger *logger.Logger) SearchService {
	return &searchService{
		data:    data,
		history: history,
		cipher:  cipher,
		logger:  logger,
	}
}

// Search implements the two-step lookup: first the distinct source rows
// whose indexed value matches the encrypted query, then every cell of those
// rows, grouped per database and classified by column sensitivity.
//
// An empty result set is not an error. The executed search is appended to
// the user's history either way; a history write failure does not fail the
// search that already produced results.
func (s *searchService) Search(ctx context.Context, userID int64, query string) ([]models.SearchResult, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	encrypted, err := s.cipher.Encrypt(normalize.Value(query))
	if err != nil {
		log.Err(err).Str("func", "searchService.Search").Msg("failed to encrypt query")
		return nil, fmt.Errorf("failed to encrypt query: %w", err)
	}
	if len(encrypted) > models.MaxValueLength {
		encrypted = encrypted[:models.MaxValueLength]
	}

	keys, err := s.data.FindRowKeys(ctx, encrypted)
	if err != nil {
		return nil, fmt.Errorf("row key lookup failed: %w", err)
	}

	cells, err := s.data.FindRowsByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("row expansion failed: %w", err)
	}

	results := groupCells(cells)

	log.Info().
		Str("func", "searchService.Search").
		Int64("user_id", userID).
		Int("matched_rows", len(keys)).
		Int("matched_databases", len(results)).
		Msg("search executed")

	entry := models.QueryHistory{
		UserID:  userID,
		Query:   encrypted,
		Results: results,
	}
	if histErr := s.history.Append(ctx, &entry); histErr != nil {
		log.Err(histErr).
			Str("func", "searchService.Search").
			Int64("user_id", userID).
			Msg("failed to append query history entry")
	}

	return results, nil
}

// History returns the user's past searches, newest first.
func (s *searchService) History(ctx context.Context, userID int64) ([]models.QueryHistory, error) {
	entries, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("history lookup failed: %w", err)
	}

	return entries, nil
}

// groupCells folds the flat, name-ordered cell list into one result per
// database. Column names are resolved to their canonical vocabulary form
// and classified by sensitivity; first-seen order within each database is
// preserved.
func groupCells(cells []models.MatchedCell) []models.SearchResult {
	results := make([]models.SearchResult, 0, 4)
	columnsByDatabase := make(map[int64][]string, 4)
	resultIndex := make(map[int64]int, 4)

	for _, cell := range cells {
		if _, seen := resultIndex[cell.DatabaseID]; !seen {
			resultIndex[cell.DatabaseID] = len(results)
			results = append(results, models.SearchResult{
				Database: cell.DatabaseName,
				History:  cell.History,
			})
		}
		columnsByDatabase[cell.DatabaseID] = append(columnsByDatabase[cell.DatabaseID], cell.ColumnName)
	}

	for databaseID, idx := range resultIndex {
		results[idx].Data = normalize.ClassifyColumns(columnsByDatabase[databaseID])
	}

	return results
}
