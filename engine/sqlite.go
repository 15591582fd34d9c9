package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb/encoding/wkt"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	job INTEGER NOT NULL,
	city TEXT NOT NULL,
	started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS volumes (
	run_id TEXT NOT NULL,
	job INTEGER NOT NULL,
	day INTEGER NOT NULL,
	edge_id INTEGER NOT NULL,
	tag TEXT NOT NULL,
	count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS known_edges (
	run_id TEXT NOT NULL,
	job INTEGER NOT NULL,
	day INTEGER NOT NULL,
	edge_id INTEGER NOT NULL,
	tag TEXT NOT NULL,
	count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS known_landmarks (
	run_id TEXT NOT NULL,
	job INTEGER NOT NULL,
	day INTEGER NOT NULL,
	building_id INTEGER NOT NULL,
	tag TEXT NOT NULL,
	count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trips (
	run_id TEXT NOT NULL,
	job INTEGER NOT NULL,
	day INTEGER NOT NULL,
	agent_id INTEGER NOT NULL,
	tag TEXT NOT NULL,
	origin INTEGER NOT NULL,
	destination INTEGER NOT NULL,
	edges TEXT NOT NULL,
	length REAL NOT NULL,
	geometry TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_volumes_day ON volumes(run_id, day);
CREATE INDEX IF NOT EXISTS idx_trips_day ON trips(run_id, day);
`

type countRow struct {
	RunID string `db:"run_id"`
	Job   int    `db:"job"`
	Day   int    `db:"day"`
	ID    int32  `db:"id"`
	Tag   string `db:"tag"`
	Count int64  `db:"count"`
}

type tripRow struct {
	RunID       string  `db:"run_id"`
	Job         int     `db:"job"`
	Day         int     `db:"day"`
	Agent       int32   `db:"agent_id"`
	Tag         string  `db:"tag"`
	Origin      int32   `db:"origin"`
	Destination int32   `db:"destination"`
	Edges       string  `db:"edges"`
	Length      float64 `db:"length"`
	Geometry    string  `db:"geometry"`
}

// SQLiteExporter 写入本地SQLite文件
type SQLiteExporter struct {
	db        *sqlx.DB
	batchSize int
}

// OpenSQLite 打开或创建数据库并建表
func OpenSQLite(path string, batchSize int) (*SQLiteExporter, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return &SQLiteExporter{db: db, batchSize: batchSize}, nil
}

func (e *SQLiteExporter) Begin(ctx context.Context, run Run) error {
	_, err := e.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, job, city, started_at) VALUES (?, ?, ?, ?)`,
		run.ID.String(), run.Job, run.City, run.Started.Format("2006-01-02 15:04:05"))
	return err
}

func (e *SQLiteExporter) Export(ctx context.Context, run Run, flows *DayFlows) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := []struct {
		table, column string
		records       []CountRecord
	}{
		{"volumes", "edge_id", flows.Volumes},
		{"known_edges", "edge_id", flows.KnownEdges},
		{"known_landmarks", "building_id", flows.KnownLandmarks},
	}
	for _, t := range tables {
		query := fmt.Sprintf(`INSERT INTO %s (run_id, job, day, %s, tag, count)
			VALUES (:run_id, :job, :day, :id, :tag, :count)`, t.table, t.column)
		for _, batch := range batches(t.records, e.batchSize) {
			rows := make([]countRow, len(batch))
			for i, r := range batch {
				rows[i] = countRow{RunID: run.ID.String(), Job: run.Job, Day: flows.Day, ID: r.ID, Tag: r.Tag, Count: r.Count}
			}
			if _, err := tx.NamedExecContext(ctx, query, rows); err != nil {
				return fmt.Errorf("insert %s: %w", t.table, err)
			}
		}
	}
	for _, batch := range batches(flows.Trips, e.batchSize) {
		rows := make([]tripRow, len(batch))
		for i, r := range batch {
			rows[i] = tripRow{
				RunID: run.ID.String(), Job: run.Job, Day: flows.Day,
				Agent: r.Agent, Tag: r.Tag, Origin: r.Origin, Destination: r.Destination,
				Edges: joinIDs(r.Edges), Length: r.Length, Geometry: wkt.MarshalString(r.Line),
			}
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO trips
			(run_id, job, day, agent_id, tag, origin, destination, edges, length, geometry)
			VALUES (:run_id, :job, :day, :agent_id, :tag, :origin, :destination, :edges, :length, :geometry)`, rows); err != nil {
			return fmt.Errorf("insert trips: %w", err)
		}
	}
	return tx.Commit()
}

// Volumes 读取某天的边流量，按边与标签排序
func (e *SQLiteExporter) Volumes(ctx context.Context, run Run, day int) ([]CountRecord, error) {
	out := make([]CountRecord, 0)
	err := e.db.SelectContext(ctx, &out,
		`SELECT edge_id AS id, tag, count FROM volumes WHERE run_id = ? AND day = ? ORDER BY edge_id, tag`,
		run.ID.String(), day)
	return out, err
}

// Trips 某天的出行数
func (e *SQLiteExporter) Trips(ctx context.Context, run Run, day int) (int, error) {
	var n int
	err := e.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM trips WHERE run_id = ? AND day = ?`, run.ID.String(), day)
	return n, err
}

func (e *SQLiteExporter) Close(context.Context) error {
	return e.db.Close()
}

func joinIDs(ids []int32) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, ",")
}
