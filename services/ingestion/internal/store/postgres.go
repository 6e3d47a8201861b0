// Package store bulk-loads normalized tables into Postgres.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/example/catalog-graph/services/ingestion/internal/output"
)

const defaultChunkSize = 500

// DB is the subset of *pgxpool.Pool used by PostgresLoader.
type DB interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TableResult reports how many rows of one table were written or already present.
type TableResult struct {
	Table    string `json:"table"`
	Inserted int64  `json:"inserted"`
	Skipped  int64  `json:"skipped"`
}

// PostgresLoader writes every table in load order with
// INSERT ... ON CONFLICT DO NOTHING, one transaction per table.
// The target tables and their unique keys are expected to exist.
type PostgresLoader struct {
	db        DB
	log       *zap.Logger
	chunkSize int
}

func NewPostgresLoader(db DB, log *zap.Logger) *PostgresLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresLoader{db: db, log: log, chunkSize: defaultChunkSize}
}

// WithChunkSize sets how many inserts go into one batch round trip.
func (l *PostgresLoader) WithChunkSize(n int) *PostgresLoader {
	if n > 0 {
		l.chunkSize = n
	}
	return l
}

func (l *PostgresLoader) Name() string { return "postgres" }

// Consume loads the tables and logs per-table results.
func (l *PostgresLoader) Consume(ctx context.Context, runID string, t *output.Tables) error {
	results, err := l.Load(ctx, t)
	for _, r := range results {
		l.log.Info("store: table loaded",
			zap.String("run_id", runID),
			zap.String("table", r.Table),
			zap.Int64("inserted", r.Inserted),
			zap.Int64("skipped", r.Skipped))
	}
	return err
}

// Load inserts all tables in dependency order. It stops at the first table
// that fails; results for the tables already committed are returned.
func (l *PostgresLoader) Load(ctx context.Context, t *output.Tables) ([]TableResult, error) {
	var results []TableResult
	for _, tb := range t.Ordered() {
		if tb.Len == 0 {
			results = append(results, TableResult{Table: tb.Name})
			continue
		}
		res, err := l.loadTable(ctx, tb)
		if err != nil {
			return results, fmt.Errorf("load %s: %w", tb.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (l *PostgresLoader) loadTable(ctx context.Context, tb output.Table) (TableResult, error) {
	res := TableResult{Table: tb.Name}
	query := insertSQL(tb.Name, tb.Columns)

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for start := 0; start < tb.Len; start += l.chunkSize {
		end := min(start+l.chunkSize, tb.Len)
		batch := &pgx.Batch{}
		for i := start; i < end; i++ {
			batch.Queue(query, tb.Row(i)...)
		}
		inserted, err := execBatch(ctx, tx, batch)
		if err != nil {
			return res, err
		}
		res.Inserted += inserted
	}
	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit: %w", err)
	}
	res.Skipped = int64(tb.Len) - res.Inserted
	return res, nil
}

func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) (int64, error) {
	br := tx.SendBatch(ctx, batch)
	var inserted int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return inserted, fmt.Errorf("exec row: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return inserted, fmt.Errorf("close batch: %w", err)
	}
	return inserted, nil
}

// insertSQL builds the idempotent insert for one table.
func insertSQL(table string, columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgx.Identifier{table}.Sanitize())
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{c}.Sanitize())
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("$")
		b.WriteString(strconv.Itoa(i + 1))
	}
	b.WriteString(") ON CONFLICT DO NOTHING")
	return b.String()
}
