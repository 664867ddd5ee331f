package store

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/MKhiriev/lambda-search/models"
)

const (
	createUser = `INSERT INTO users (login, auth_hash)
    VALUES ($1, $2)
    RETURNING user_id, login, auth_hash, created_at;`

	findUserByLogin = `SELECT user_id, login, auth_hash, created_at
    FROM users
    WHERE login = $1;`

	createDatabase = `INSERT INTO managed_databases (name, file_path, history, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, file_path, history, active, is_encrypted, encryption_started, job_id, error, created_at, updated_at;`

	getDatabaseByID = `SELECT id, name, file_path, history, active, is_encrypted, encryption_started, job_id, error, created_at, updated_at
		FROM managed_databases
		WHERE id = $1;`

	listDatabases = `SELECT id, name, file_path, history, active, is_encrypted, encryption_started, job_id, error, created_at, updated_at
		FROM managed_databases
		ORDER BY name;`

	deleteDatabase = `DELETE FROM managed_databases
		WHERE id = $1
		RETURNING file_path;`

	// The WHERE guard makes the claim a compare-and-swap: of two
	// concurrent callers exactly one observes an affected row.
	claimEncryption = `UPDATE managed_databases
		SET encryption_started = true, error = '', updated_at = NOW()
		WHERE id = $1 AND NOT encryption_started;`

	resetEncryption = `UPDATE managed_databases
		SET encryption_started = false, error = $2, updated_at = NOW()
		WHERE id = $1;`

	markEncrypted = `UPDATE managed_databases
		SET is_encrypted = true, error = '', updated_at = NOW()
		WHERE id = $1;`

	setDatabaseJob = `UPDATE managed_databases
		SET job_id = $2, updated_at = NOW()
		WHERE id = $1;`

	// Duplicate quadruples are skipped at the SQL level so that an
	// ingestion retry over already indexed rows is a no-op.
	insertIndexRecord = `INSERT INTO data (database_id, user_index, column_name, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (database_id, user_index, column_name, value) DO NOTHING;`

	findRowKeysByValue = `SELECT DISTINCT d.database_id, d.user_index
		FROM data d
		JOIN managed_databases m ON m.id = d.database_id
		WHERE d.value = $1 AND m.active AND m.is_encrypted;`

	appendQueryHistory = `INSERT INTO query_history (user_id, query, results)
		VALUES ($1, $2, $3)
		RETURNING id, created_at;`

	listQueryHistory = `SELECT id, user_id, query, results, created_at
		FROM query_history
		WHERE user_id = $1
		ORDER BY created_at DESC;`

	updateDatabaseBase = `
		UPDATE managed_databases
		SET updated_at = NOW()`
	updateDatabaseWhere = `
		WHERE id = $%d`
)

// buildFindRowsByKeysQuery builds the row expansion query for the search
// engine: every indexed cell of every matched source row, joined with the
// owning database's name and history note.
//
// The match list is an OR of (database_id, user_index) pairs, so one query
// covers all hits regardless of how many databases they span. The active and
// is_encrypted guards are repeated here so a database deactivated between key
// lookup and expansion drops out of the results.
func buildFindRowsByKeysQuery(keys []models.RowKey) (string, []any, error) {
	pairs := make(sq.Or, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, sq.Eq{
			"d.database_id": key.DatabaseID,
			"d.user_index":  key.UserIndex,
		})
	}

	query, args, err := sq.
		Select("d.database_id", "m.name", "m.history", "d.user_index", "d.column_name", "d.value").
		From("data d").
		Join("managed_databases m ON m.id = d.database_id").
		Where(pairs).
		Where(sq.Eq{"m.active": true, "m.is_encrypted": true}).
		OrderBy("m.name", "d.user_index", "d.id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

// buildUpdateDatabaseQuery dynamically builds the partial UPDATE query for a
// managed database. Only non-nil fields of update produce SET clauses;
// updated_at is always bumped.
func buildUpdateDatabaseQuery(update models.DatabaseUpdate) (string, []any) {
	queryBuilder := new(strings.Builder)
	queryBuilder.WriteString(updateDatabaseBase)

	args := make([]any, 0, 4)
	setClauses := make([]string, 0, 3)
	argIndex := 1

	if update.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *update.Name)
		argIndex++
	}

	if update.History != nil {
		setClauses = append(setClauses, fmt.Sprintf("history = $%d", argIndex))
		args = append(args, *update.History)
		argIndex++
	}

	if update.Active != nil {
		setClauses = append(setClauses, fmt.Sprintf("active = $%d", argIndex))
		args = append(args, *update.Active)
		argIndex++
	}

	if len(setClauses) > 0 {
		queryBuilder.WriteString(", ")
		queryBuilder.WriteString(strings.Join(setClauses, ", "))
	}

	queryBuilder.WriteString(fmt.Sprintf(updateDatabaseWhere, argIndex))
	args = append(args, update.ID)

	return queryBuilder.String(), args
}
