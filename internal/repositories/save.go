package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/models"
	"github.com/myrjola/casefile/internal/sqlite"
)

var ErrSaveNotFound = errors.NewSentinel("save not found")

// timestampLayout matches the STRFTIME default in schema.sql.
const timestampLayout = "2006-01-02T15:04:05.000Z"

type SaveRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewSaveRepository(db *sqlite.Database, logger *slog.Logger) *SaveRepository {
	return &SaveRepository{
		db:     db,
		logger: logger.With(slog.String("source", "SaveRepository")),
	}
}

type saveRow struct {
	GameID  string         `db:"game_id"`
	CaseID  string         `db:"case_id"`
	State   string         `db:"state"`
	Framing sql.NullString `db:"framing"`
	Created string         `db:"created"`
	Updated string         `db:"updated"`
}

// Get returns the save for gameID or ErrSaveNotFound.
func (r *SaveRepository) Get(ctx context.Context, gameID string) (*models.Save, error) {
	var row saveRow
	stmt := `SELECT game_id, case_id, state, framing, created, updated FROM saves WHERE game_id = ?`
	if err := r.db.ReadOnly.GetContext(ctx, &row, stmt, gameID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrSaveNotFound, "get save", slog.String("game_id", gameID))
		}
		return nil, errors.Wrap(err, "get save", slog.String("game_id", gameID))
	}

	save := models.Save{
		GameID: row.GameID,
		CaseID: row.CaseID,
	}
	if err := json.Unmarshal([]byte(row.State), &save.State); err != nil {
		return nil, errors.Wrap(err, "decode state", slog.String("game_id", gameID))
	}
	if row.Framing.Valid {
		if err := json.Unmarshal([]byte(row.Framing.String), &save.Framing); err != nil {
			return nil, errors.Wrap(err, "decode framing", slog.String("game_id", gameID))
		}
	}
	var err error
	if save.Created, err = time.Parse(timestampLayout, row.Created); err != nil {
		return nil, errors.Wrap(err, "parse created")
	}
	if save.Updated, err = time.Parse(timestampLayout, row.Updated); err != nil {
		return nil, errors.Wrap(err, "parse updated")
	}
	return &save, nil
}

// Put inserts or replaces the snapshot of a game session.
func (r *SaveRepository) Put(ctx context.Context, save models.Save) error {
	state, err := json.Marshal(save.State)
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	var framingState sql.NullString
	if save.Framing != nil {
		var raw []byte
		if raw, err = json.Marshal(save.Framing); err != nil {
			return errors.Wrap(err, "encode framing")
		}
		framingState = sql.NullString{String: string(raw), Valid: true}
	}

	stmt := `INSERT INTO saves (game_id, case_id, state, framing, updated)
VALUES (:game_id, :case_id, :state, :framing, :updated)
ON CONFLICT (game_id) DO UPDATE SET case_id = excluded.case_id,
                                    state   = excluded.state,
                                    framing = excluded.framing,
                                    updated = excluded.updated`
	if _, err = r.db.ReadWrite.NamedExecContext(ctx, stmt, saveRow{
		GameID:  save.GameID,
		CaseID:  save.CaseID,
		State:   string(state),
		Framing: framingState,
		Updated: time.Now().UTC().Format(timestampLayout),
	}); err != nil {
		return errors.Wrap(err, "upsert save", slog.String("game_id", save.GameID))
	}
	return nil
}

// Delete removes a save. Deleting a missing save is not an error.
func (r *SaveRepository) Delete(ctx context.Context, gameID string) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM saves WHERE game_id = ?`, gameID); err != nil {
		return errors.Wrap(err, "delete save", slog.String("game_id", gameID))
	}
	return nil
}

// List returns the most recently updated saves first.
func (r *SaveRepository) List(ctx context.Context, limit int) ([]models.SaveSummary, error) {
	var rows []struct {
		GameID  string `db:"game_id"`
		CaseID  string `db:"case_id"`
		Updated string `db:"updated"`
	}
	stmt := `SELECT game_id, case_id, updated FROM saves ORDER BY updated DESC, game_id LIMIT ?`
	if err := r.db.ReadOnly.SelectContext(ctx, &rows, stmt, limit); err != nil {
		return nil, errors.Wrap(err, "list saves")
	}
	summaries := make([]models.SaveSummary, 0, len(rows))
	for _, row := range rows {
		updated, err := time.Parse(timestampLayout, row.Updated)
		if err != nil {
			return nil, errors.Wrap(err, "parse updated", slog.String("game_id", row.GameID))
		}
		summaries = append(summaries, models.SaveSummary{GameID: row.GameID, CaseID: row.CaseID, Updated: updated})
	}
	return summaries, nil
}

// Count returns the number of stored saves.
func (r *SaveRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.ReadOnly.GetContext(ctx, &count, `SELECT COUNT(*) FROM saves`); err != nil {
		return 0, errors.Wrap(err, "count saves")
	}
	return count, nil
}

// DeleteOlderThan removes saves that have not been updated since cutoff and returns how many were removed.
func (r *SaveRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM saves WHERE updated < ?`,
		cutoff.UTC().Format(timestampLayout))
	if err != nil {
		return 0, errors.Wrap(err, "delete old saves")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}

// Ping checks that both connection pools answer.
func (r *SaveRepository) Ping(ctx context.Context) error {
	return errors.Join(
		errors.Wrap(r.db.ReadWrite.PingContext(ctx), "ping read-write pool"),
		errors.Wrap(r.db.ReadOnly.PingContext(ctx), "ping read-only pool"),
	)
}
