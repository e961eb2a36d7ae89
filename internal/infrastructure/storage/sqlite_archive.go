package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver

	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

const reportsSchema = `CREATE TABLE IF NOT EXISTS reports (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	report_date  TEXT NOT NULL,
	content      TEXT NOT NULL,
	generated_at TEXT NOT NULL
)`

// SQLiteArchive persists generated reports into a SQLite database.
type SQLiteArchive struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ReportRepository = (*SQLiteArchive)(nil)

// OpenSQLiteArchive opens (and migrates) the archive at path.
func OpenSQLiteArchive(path string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(reportsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}

	return &SQLiteArchive{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

// Close releases the database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

// AppendReport inserts report; re-appending an existing id is a no-op.
func (a *SQLiteArchive) AppendReport(ctx context.Context, report domain.Report) error {
	query, args, err := a.builder.
		Insert("reports").
		Options("OR IGNORE").
		Columns("id", "report_date", "content", "generated_at").
		Values(report.ID, report.Date, report.Content, report.GeneratedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert report %s: %w", report.ID, err)
	}
	return nil
}

// ListReports returns stored reports in insertion order.
func (a *SQLiteArchive) ListReports(ctx context.Context) ([]domain.Report, error) {
	query, args, err := a.builder.
		Select("id", "report_date", "content", "generated_at").
		From("reports").
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}

	var reports []domain.Report
	for rows.Next() {
		var r domain.Report
		if err := rows.Scan(&r.ID, &r.Date, &r.Content, &r.GeneratedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return reports, nil
}
