package upstream

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
)

const hitsSchema = `
CREATE TABLE IF NOT EXISTS hits (
    page      TEXT    NOT NULL,
    series    TEXT    NOT NULL,
    bucket_ms INTEGER NOT NULL,
    count     REAL    NOT NULL DEFAULT 0,
    PRIMARY KEY (page, series, bucket_ms)
);
`

// makeDSN builds a SQLite connection string with shared pragmas.
// The file: form is required for mode=ro to reach SQLite.
func makeDSN(path string, readOnly bool) string {
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	if readOnly {
		params.Set("mode", "ro")
	} else {
		params.Set("_journal_mode", "WAL")
		params.Set("_synchronous", "NORMAL")
	}
	return "file:" + path + "?" + params.Encode()
}

// SQLiteStore serves breakdowns from a local hits database.
// It only ever reads.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the hits database at path read-only.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", makeDSN(path, true))
	if err != nil {
		return nil, fmt.Errorf("opening hits db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening hits db %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Name implements Source.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Fetch implements Source. Series come back ordered by name,
// points by time, and TotalHits is the sum of every count.
func (s *SQLiteStore) Fetch(
	ctx context.Context, page string,
) (chart.Payload, error) {
	path, err := pagePath(page)
	if err != nil {
		return chart.Payload{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT series, bucket_ms, count
		FROM hits
		WHERE page = ?
		ORDER BY series, bucket_ms`, path)
	if err != nil {
		return chart.Payload{}, fmt.Errorf("querying hits: %w", err)
	}
	defer rows.Close()

	p := chart.Payload{HasSeries: true}
	for rows.Next() {
		var name string
		var pt chart.RawPoint
		if err := rows.Scan(&name, &pt.DateTime, &pt.Count); err != nil {
			return chart.Payload{}, fmt.Errorf("scanning hit: %w", err)
		}
		if n := len(p.Series); n == 0 || p.Series[n-1].Name != name {
			p.Series = append(p.Series, chart.RawSeries{Name: name})
		}
		last := &p.Series[len(p.Series)-1]
		last.Data = append(last.Data, pt)
		p.TotalHits += pt.Count
	}
	if err := rows.Err(); err != nil {
		return chart.Payload{}, fmt.Errorf("reading hits: %w", err)
	}
	return p, nil
}

// HitsWriter loads breakdowns into a hits database. It backs the
// fixture generator and tests.
type HitsWriter struct {
	db *sql.DB
}

// CreateHitsDB opens or creates a writable hits database at path.
func CreateHitsDB(path string) (*HitsWriter, error) {
	db, err := sql.Open("sqlite3", makeDSN(path, false))
	if err != nil {
		return nil, fmt.Errorf("opening hits db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(hitsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating hits schema: %w", err)
	}
	return &HitsWriter{db: db}, nil
}

// Close releases the database.
func (w *HitsWriter) Close() error {
	return w.db.Close()
}

// WriteSeries stores one series for a page path, replacing any
// points already stored at the same times.
func (w *HitsWriter) WriteSeries(
	ctx context.Context, path string, s chart.RawSeries,
) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO hits (page, series, bucket_ms, count)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, pt := range s.Data {
		if _, err := stmt.ExecContext(
			ctx, path, s.Name, pt.DateTime, pt.Count,
		); err != nil {
			return fmt.Errorf("inserting %s@%d: %w", s.Name, pt.DateTime, err)
		}
	}
	return tx.Commit()
}
