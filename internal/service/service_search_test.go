package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/MKhiriev/lambda-search/internal/crypto"
	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/internal/normalize"
	"github.com/MKhiriev/lambda-search/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCipher(t *testing.T) crypto.Cipher {
	t.Helper()
	cipher, err := crypto.NewCellCipher(bytes.Repeat([]byte{0x2a}, 32))
	require.NoError(t, err)
	return cipher
}

func TestSearch_GroupsAndClassifies(t *testing.T) {
	cipher := testCipher(t)
	encrypted, err := cipher.Encrypt(normalize.Value("john@mail.com"))
	require.NoError(t, err)

	data := &fakeDataRepo{
		findRowKeys: func(ctx context.Context, encryptedValue string) ([]models.RowKey, error) {
			assert.Equal(t, encrypted, encryptedValue)
			return []models.RowKey{{DatabaseID: 1, UserIndex: 17}, {DatabaseID: 2, UserIndex: 3}}, nil
		},
		findRowsByKeys: func(ctx context.Context, keys []models.RowKey) ([]models.MatchedCell, error) {
			require.Len(t, keys, 2)
			return []models.MatchedCell{
				{DatabaseID: 1, DatabaseName: "alpha", History: "2019 dump", UserIndex: 17, ColumnName: "email", Value: "aa"},
				{DatabaseID: 1, DatabaseName: "alpha", History: "2019 dump", UserIndex: 17, ColumnName: "Пароль", Value: "bb"},
				{DatabaseID: 1, DatabaseName: "alpha", History: "2019 dump", UserIndex: 17, ColumnName: "occupation", Value: "cc"},
				{DatabaseID: 2, DatabaseName: "beta", History: "forum leak", UserIndex: 3, ColumnName: "username", Value: "dd"},
			}, nil
		},
	}
	history := &fakeHistoryRepo{}

	svc := NewSearchService(data, history, cipher, logger.Nop())

	results, err := svc.Search(context.Background(), 9, "john@mail.com")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "alpha", results[0].Database)
	assert.Equal(t, "2019 dump", results[0].History)
	assert.Equal(t, []string{"email", "password"}, results[0].Data.Critical)
	assert.Equal(t, []string{"occupation"}, results[0].Data.Low)

	assert.Equal(t, "beta", results[1].Database)
	assert.Equal(t, []string{"username"}, results[1].Data.Medium)

	// the executed search landed in history, query stored encrypted
	require.Len(t, history.entries, 1)
	assert.Equal(t, int64(9), history.entries[0].UserID)
	assert.Equal(t, encrypted, history.entries[0].Query)
	assert.Len(t, history.entries[0].Results, 2)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewSearchService(&fakeDataRepo{}, &fakeHistoryRepo{}, testCipher(t), logger.Nop())

	_, err := svc.Search(context.Background(), 9, "   ")
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_NoMatchesIsNotAnError(t *testing.T) {
	data := &fakeDataRepo{
		findRowKeys: func(ctx context.Context, encryptedValue string) ([]models.RowKey, error) {
			return nil, nil
		},
		findRowsByKeys: func(ctx context.Context, keys []models.RowKey) ([]models.MatchedCell, error) {
			return []models.MatchedCell{}, nil
		},
	}
	history := &fakeHistoryRepo{}

	svc := NewSearchService(data, history, testCipher(t), logger.Nop())

	results, err := svc.Search(context.Background(), 9, "nobody")
	require.NoError(t, err)
	assert.Empty(t, results)

	// even a miss is recorded
	require.Len(t, history.entries, 1)
	assert.Empty(t, history.entries[0].Results)
}

func TestSearch_HistoryFailureDoesNotFailSearch(t *testing.T) {
	data := &fakeDataRepo{
		findRowKeys: func(ctx context.Context, encryptedValue string) ([]models.RowKey, error) {
			return nil, nil
		},
		findRowsByKeys: func(ctx context.Context, keys []models.RowKey) ([]models.MatchedCell, error) {
			return nil, nil
		},
	}
	history := &fakeHistoryRepo{failErr: errors.New("history table on fire")}

	svc := NewSearchService(data, history, testCipher(t), logger.Nop())

	_, err := svc.Search(context.Background(), 9, "john")
	require.NoError(t, err)
}

func TestSearch_PhoneNormalization(t *testing.T) {
	cipher := testCipher(t)
	canonical, err := cipher.Encrypt("79111411123")
	require.NoError(t, err)

	var lookedUp string
	data := &fakeDataRepo{
		findRowKeys: func(ctx context.Context, encryptedValue string) ([]models.RowKey, error) {
			lookedUp = encryptedValue
			return nil, nil
		},
		findRowsByKeys: func(ctx context.Context, keys []models.RowKey) ([]models.MatchedCell, error) {
			return nil, nil
		},
	}

	svc := NewSearchService(data, &fakeHistoryRepo{}, cipher, logger.Nop())

	_, err = svc.Search(context.Background(), 9, "+7 (911) 141-11-23")
	require.NoError(t, err)
	assert.Equal(t, canonical, lookedUp)
}

func TestHistory_ListsOwnEntriesOnly(t *testing.T) {
	history := &fakeHistoryRepo{entries: []models.QueryHistory{
		{ID: 1, UserID: 9, Query: "aa"},
		{ID: 2, UserID: 4, Query: "bb"},
	}}

	svc := NewSearchService(&fakeDataRepo{}, history, testCipher(t), logger.Nop())

	entries, err := svc.History(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ID)
}
