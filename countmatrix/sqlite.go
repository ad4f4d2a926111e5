//go:build cgo
// +build cgo

package countmatrix

import (
	"fmt"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS subsets (
	condition TEXT NOT NULL,
	position INTEGER NOT NULL,
	subset TEXT NOT NULL,
	PRIMARY KEY (condition, position)
);
CREATE TABLE IF NOT EXISTS counts (
	condition TEXT NOT NULL,
	sample_order INTEGER NOT NULL,
	sample_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY (condition, sample_id, position)
);
`

// OpenSQLite opens (or creates) a SQLite database of count matrices.
func OpenSQLite(path string) (*sqlx.DB, error) {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	return db, nil
}

// WriteSQLite stores m under condition, replacing anything previously stored
// under that condition.
func WriteSQLite(db *sqlx.DB, condition string, m *Matrix) error {
	tx, err := db.Beginx()
	if err != nil {
		return pfx.Err(err)
	}
	defer tx.Rollback()

	for _, table := range []string{"subsets", "counts"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE condition=?", condition); err != nil {
			return pfx.Err(err)
		}
	}

	for j, s := range m.Subsets {
		if _, err := tx.Exec("INSERT INTO subsets (condition, position, subset) VALUES (?, ?, ?)", condition, j, s); err != nil {
			return pfx.Err(err)
		}
	}

	stmt, err := tx.Preparex("INSERT INTO counts (condition, sample_order, sample_id, position, count) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return pfx.Err(err)
	}
	defer stmt.Close()

	for i, sample := range m.Samples {
		for j, c := range m.Counts[i] {
			if _, err := stmt.Exec(condition, i, sample, j, c); err != nil {
				return pfx.Err(err)
			}
		}
	}

	return pfx.Err(tx.Commit())
}

// ReadSQLite rebuilds the matrix stored under condition.
func ReadSQLite(db *sqlx.DB, condition string) (*Matrix, error) {
	subsets := []string{}
	if err := db.Select(&subsets, "SELECT subset FROM subsets WHERE condition=? ORDER BY position ASC", condition); err != nil {
		return nil, pfx.Err(err)
	}
	if len(subsets) == 0 {
		return nil, fmt.Errorf("No count matrix is stored for condition %q", condition)
	}

	cells := []LongRow{}
	if err := db.Select(&cells, "SELECT condition, sample_id, position, count, '' AS subset FROM counts WHERE condition=? ORDER BY sample_order ASC, position ASC", condition); err != nil {
		return nil, pfx.Err(err)
	}

	m := New(subsets)
	for start := 0; start < len(cells); start += len(subsets) {
		end := start + len(subsets)
		if end > len(cells) {
			end = len(cells)
		}

		row := make([]int64, 0, len(subsets))
		for _, cell := range cells[start:end] {
			if cell.SampleID != cells[start].SampleID || int(cell.Position) != len(row) {
				return nil, fmt.Errorf("Stored counts for sample %s are incomplete", cells[start].SampleID)
			}
			row = append(row, cell.Count)
		}

		if err := m.Add(cells[start].SampleID, row); err != nil {
			return nil, err
		}
	}

	return m, nil
}
