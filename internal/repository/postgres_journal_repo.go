package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/kokorolog/internal/model"
)

// PostgresJournalRepo はPostgreSQLを使用したジャーナルリポジトリ。
// body_mappingは自由形式のキー→値マップのためJSONBで保存する。
type PostgresJournalRepo struct {
	db *sql.DB
}

// NewPostgresJournalRepo はPostgresJournalRepoを生成する。
func NewPostgresJournalRepo(db *sql.DB) *PostgresJournalRepo {
	return &PostgresJournalRepo{db: db}
}

// Create はエントリを作成する。
func (r *PostgresJournalRepo) Create(ctx context.Context, entry *model.JournalEntry) error {
	bodyMapping, err := marshalBodyMapping(entry.BodyMapping)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, user_id, journal_type, emotion_level, body_mapping, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, string(entry.JournalType), entry.EmotionLevel,
		bodyMapping, entry.Content, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// FindByID は指定IDのエントリを取得する。見つからない場合はnilを返す。
func (r *PostgresJournalRepo) FindByID(ctx context.Context, id string) (*model.JournalEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, journal_type, emotion_level, body_mapping, content, created_at
		 FROM journal_entries WHERE id = $1`,
		id,
	)

	entry, err := scanJournalEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find journal entry: %w", err)
	}
	return entry, nil
}

// ListByUser はユーザーのエントリをcreated_at降順で返す。
// sinceがゼロ値でない場合はcreated_at >= sinceに絞り込む。
func (r *PostgresJournalRepo) ListByUser(ctx context.Context, userID string, since time.Time) ([]model.JournalEntry, error) {
	query := `SELECT id, user_id, journal_type, emotion_level, body_mapping, content, created_at
	          FROM journal_entries
	          WHERE user_id = $1`
	args := []any{userID}

	if !since.IsZero() {
		query += ` AND created_at >= $2`
		args = append(args, since)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}

	return entries, nil
}

// CountByUserSince はcreated_at >= sinceのエントリ数を返す。
func (r *PostgresJournalRepo) CountByUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM journal_entries WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}
	return count, nil
}

// Delete は指定IDのエントリを削除する。
func (r *PostgresJournalRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("journal entry not found: %s", id)
	}
	return nil
}

// DeleteByUserID はユーザーの全エントリを削除する。
func (r *PostgresJournalRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user journal entries: %w", err)
	}
	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanJournalEntry は1行をJournalEntryに変換する。
func scanJournalEntry(row rowScanner) (*model.JournalEntry, error) {
	entry := &model.JournalEntry{}
	var journalType string
	var bodyMapping []byte

	err := row.Scan(&entry.ID, &entry.UserID, &journalType, &entry.EmotionLevel,
		&bodyMapping, &entry.Content, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	entry.JournalType = model.ParseJournalType(journalType)

	if len(bodyMapping) > 0 {
		if err := json.Unmarshal(bodyMapping, &entry.BodyMapping); err != nil {
			return nil, fmt.Errorf("failed to decode body_mapping: %w", err)
		}
	}

	return entry, nil
}

// marshalBodyMapping はBodyMappingをJSONB用のバイト列に変換する。
// nilマップは空オブジェクトとして保存する。
func marshalBodyMapping(m model.BodyMapping) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode body_mapping: %w", err)
	}
	return b, nil
}

// compile-time interface check
var _ JournalRepository = (*PostgresJournalRepo)(nil)
