package sqlite

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/casefile/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

const (
	savesV1 = "CREATE TABLE saves (game_id TEXT PRIMARY KEY, case_id TEXT NOT NULL, state TEXT NOT NULL) STRICT"
	savesV2 = `CREATE TABLE saves (game_id TEXT PRIMARY KEY, case_id TEXT NOT NULL, state TEXT NOT NULL,
                   framing TEXT, updated TEXT NOT NULL DEFAULT '') STRICT`
	updatedIndex = "CREATE INDEX saves_updated_idx ON saves (updated)"
	caseRequired = `CREATE TRIGGER saves_case_required BEFORE INSERT ON saves WHEN NEW.case_id = ''
                   BEGIN SELECT RAISE ( FAIL, 'case required' ); END`
	caseRequiredLoose = `CREATE TRIGGER saves_case_required BEFORE INSERT ON saves WHEN NEW.case_id IS NULL
                   BEGIN SELECT RAISE ( FAIL, 'case required' ); END`
	seedSave = "INSERT INTO saves (game_id, case_id, state) VALUES ('g0', 'the-ledger', '{}')"
)

func TestDatabase_migrate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		schemas []string
		// seeded saves a row after the first schema is applied. Later schemas must keep it.
		seeded  bool
		queries []string
		wantErr bool
	}{
		{
			name:    "Empty schema",
			schemas: []string{""},
			queries: []string{"SELECT * FROM sqlite_schema"},
		},
		{
			name:    "Create saves",
			schemas: []string{savesV1},
			queries: []string{"INSERT INTO saves (game_id, case_id, state) VALUES ('g1', 'the-ledger', '{}')"},
		},
		{
			name:    "Drop saves",
			schemas: []string{savesV1, ""},
			queries: []string{"SELECT * FROM saves"},
			wantErr: true,
		},
		{
			name:    "Add framing and updated columns keeps saves",
			schemas: []string{savesV1, savesV2},
			seeded:  true,
			queries: []string{"UPDATE saves SET framing = '{}' WHERE game_id = 'g0' AND updated = ''"},
		},
		{
			name:    "Remove framing column",
			schemas: []string{savesV1, savesV2, savesV1},
			seeded:  true,
			queries: []string{"UPDATE saves SET framing = '{}'"},
			wantErr: true,
		},
		{
			name:    "Strict table rejects wrong types",
			schemas: []string{savesV1},
			queries: []string{"INSERT INTO saves (game_id, case_id, state) VALUES ('g1', 'the-ledger', X'00')"},
			wantErr: true,
		},
		{
			name:    "Create index",
			schemas: []string{savesV2 + "; " + updatedIndex},
			queries: []string{"DROP INDEX saves_updated_idx"},
		},
		{
			name:    "Drop index",
			schemas: []string{savesV2 + "; " + updatedIndex, savesV2},
			queries: []string{"DROP INDEX saves_updated_idx"},
			wantErr: true,
		},
		{
			name: "Update index",
			schemas: []string{
				savesV2 + "; " + updatedIndex,
				savesV2 + "; CREATE INDEX saves_updated_idx ON saves (updated, case_id)",
			},
			seeded:  true,
			queries: []string{"DROP INDEX saves_updated_idx"},
		},
		{
			name:    "Create trigger",
			schemas: []string{savesV1 + "; " + caseRequired},
			queries: []string{"INSERT INTO saves (game_id, case_id, state) VALUES ('g1', '', '{}')"},
			wantErr: true,
		},
		{
			name:    "Delete trigger",
			schemas: []string{savesV1 + "; " + caseRequired, savesV1},
			queries: []string{"INSERT INTO saves (game_id, case_id, state) VALUES ('g1', '', '{}')"},
		},
		{
			name:    "Update trigger",
			schemas: []string{savesV1 + "; " + caseRequired, savesV1 + "; " + caseRequiredLoose},
			queries: []string{"INSERT INTO saves (game_id, case_id, state) VALUES ('g1', '', '{}')"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			logger := testhelpers.NewLogger(io.Discard)
			db, err := connect(":memory:", logger)
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			for i, schema := range tt.schemas {
				logger.LogAttrs(ctx, slog.LevelInfo, "migrating", slog.String("schema", schema))
				require.NoError(t, db.migrateTo(ctx, schema))
				if i == 0 && tt.seeded {
					_, err = db.ReadWrite.ExecContext(ctx, seedSave)
					require.NoError(t, err)
				}
			}
			if tt.seeded {
				var ids []string
				require.NoError(t, db.ReadWrite.SelectContext(ctx, &ids, "SELECT game_id FROM saves"))
				require.Equal(t, []string{"g0"}, ids, "migration lost saves")
			}
			for _, query := range tt.queries {
				_, err = db.ReadWrite.ExecContext(ctx, query)
				if tt.wantErr {
					require.Error(t, err, query)
				} else {
					require.NoError(t, err, query)
				}
			}
		})
	}
}

func TestNewDatabase(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	logger := testhelpers.NewLogger(io.Discard)

	db, err := NewDatabase(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ReadWrite.ExecContext(ctx,
		"INSERT INTO saves (game_id, case_id, state) VALUES ('g1', 'the-ledger', '{}')")
	require.NoError(t, err)

	// Migrating to the same schema again keeps the data.
	require.NoError(t, db.migrateTo(ctx, schemaDefinition))

	var count int
	require.NoError(t, db.ReadOnly.GetContext(ctx, &count, "SELECT COUNT(*) FROM saves"))
	require.Equal(t, 1, count)

	_, err = db.ReadOnly.ExecContext(ctx, "DELETE FROM saves")
	require.Error(t, err, "read-only pool must refuse writes")
}
