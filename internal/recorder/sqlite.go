package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"MarketLens/internal/model"
)

// SQLiteRecorder persists analysis runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id         TEXT PRIMARY KEY,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			bars       INTEGER NOT NULL,
			close      REAL,
			rsi        REAL,
			macd       REAL,
			signal     REAL,
			histogram  REAL,
			sma20      REAL,
			bb_upper   REAL,
			bb_lower   REAL,
			tags       TEXT,
			levels     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON analysis_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS levels (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
			kind    TEXT NOT NULL,
			date    TEXT NOT NULL,
			price   REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_levels_run ON levels(run_id)`,

		`CREATE TABLE IF NOT EXISTS watchlist_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			action    TEXT NOT NULL,
			symbol    TEXT NOT NULL,
			source    TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullable(v model.Value) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.V, Valid: v.Valid}
}

func fromNullable(n sql.NullFloat64) model.Value {
	if !n.Valid {
		return model.Undefined
	}
	return model.Defined(n.Float64)
}

func encodeTags(tags []model.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t.Family) + ":" + string(t.State)
	}
	return strings.Join(parts, ",")
}

func decodeTags(s string) []model.Tag {
	if s == "" {
		return []model.Tag{}
	}
	parts := strings.Split(s, ",")
	tags := make([]model.Tag, 0, len(parts))
	for _, p := range parts {
		family, state, ok := strings.Cut(p, ":")
		if !ok {
			continue
		}
		tags = append(tags, model.Tag{Family: model.Family(family), State: model.State(state)})
	}
	return tags
}

// RecordAnalysis stores the latest row, the summary and all levels of a run
// in one transaction. It returns the generated run id.
func (r *SQLiteRecorder) RecordAnalysis(a *model.Analysis) (string, error) {
	if a == nil {
		return "", errors.New("nil analysis")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	row, _ := a.Frame.Latest()
	id := uuid.NewString()
	ts := a.AnalyzedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO analysis_runs
		(id, timestamp, symbol, bars, close, rsi, macd, signal, histogram,
		 sma20, bb_upper, bb_lower, tags, levels)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, ts.Unix(), a.Symbol, a.Frame.Len(),
		nullable(row.Close), nullable(row.RSI), nullable(row.MACD),
		nullable(row.Signal), nullable(row.Histogram), nullable(row.SMA20),
		nullable(row.BBUpper), nullable(row.BBLower),
		encodeTags(a.Summary.Tags), len(a.Levels),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, l := range a.Levels {
		if _, err := tx.Exec(`INSERT INTO levels (run_id, kind, date, price) VALUES (?,?,?,?)`,
			id, string(l.Kind), l.Date.Format("2006-01-02"), l.Price); err != nil {
			return "", fmt.Errorf("insert level: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func (r *SQLiteRecorder) RecordWatchlistEvent(evt *WatchlistEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO watchlist_events (timestamp, action, symbol, source) VALUES (?,?,?,?)`,
		time.Now().Unix(), evt.Action, evt.Symbol, evt.Source)
	return err
}

// History returns the most recent runs of symbol, newest first.
func (r *SQLiteRecorder) History(symbol string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, symbol, bars, close, rsi, macd, signal, histogram, tags, levels
		FROM analysis_runs WHERE symbol = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                          Run
			ts                           int64
			closeV, rsi, macd, sig, hist sql.NullFloat64
			tags                         sql.NullString
		)
		if err := rows.Scan(&run.ID, &ts, &run.Symbol, &run.Bars,
			&closeV, &rsi, &macd, &sig, &hist, &tags, &run.Levels); err != nil {
			return nil, err
		}
		run.AnalyzedAt = time.Unix(ts, 0).UTC()
		run.Close = fromNullable(closeV)
		run.RSI = fromNullable(rsi)
		run.MACD = fromNullable(macd)
		run.Signal = fromNullable(sig)
		run.Histogram = fromNullable(hist)
		run.Tags = decodeTags(tags.String)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
