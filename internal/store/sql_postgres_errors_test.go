package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	classifier := NewPostgresErrorClassifier()

	tests := map[string]struct {
		err  error
		want ErrorClassification
	}{
		"nil":                   {nil, NonRetryable},
		"plain error":           {errors.New("boom"), NonRetryable},
		"connection failure":    {pgError(pgerrcode.ConnectionFailure), Retryable},
		"deadlock":              {pgError(pgerrcode.DeadlockDetected), Retryable},
		"serialization failure": {pgError(pgerrcode.SerializationFailure), Retryable},
		"cannot connect now":    {pgError(pgerrcode.CannotConnectNow), Retryable},
		"unique violation":      {pgError(pgerrcode.UniqueViolation), NonRetryable},
		"syntax error":          {pgError(pgerrcode.SyntaxError), NonRetryable},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.want, classifier.Classify(test.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(pgError(pgerrcode.UniqueViolation)))
	require.False(t, IsUniqueViolation(pgError(pgerrcode.NotNullViolation)))
	require.False(t, IsUniqueViolation(errors.New("boom")))
	require.False(t, IsUniqueViolation(nil))
}
