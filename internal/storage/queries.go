package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mzhou/focusfield/internal/analyzer"
)

// Analysis is one recorded focus-field run
type Analysis struct {
	ID            int64  `json:"id"`
	TargetID      string `json:"target_id"`
	File          string `json:"file"`
	Line          int    `json:"line"`
	Column        int    `json:"column"`
	TargetName    string `json:"target_name"`
	TargetKind    string `json:"target_kind"`
	RelationCount int    `json:"relation_count"`
	StartLine     int    `json:"start_line"`
	EndLine       int    `json:"end_line"`
	TotalLines    int    `json:"total_lines"`
	CreatedAt     string `json:"created_at"`
}

// RecordAnalysis stores a focus context together with all of its relations
// and returns the new analysis row ID. The cursor position is the one the
// caller supplied; line numbers inside the context may differ from it.
func (db *DB) RecordAnalysis(ctx *analyzer.FocusContext, line, column int) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO analyses (target_id, file, line, col, target_name, target_kind,
		 relation_count, start_line, end_line, total_lines, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ctx.Target.ID, ctx.Target.File, line, column,
		ctx.Target.Name, string(ctx.Target.Kind),
		len(ctx.Relations), ctx.Range.StartLine, ctx.Range.EndLine, ctx.TotalLines,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, rel := range ctx.Relations {
		if _, err := tx.Exec(
			`INSERT INTO relations (analysis_id, relation_id, kind, line, col, end_col, severity, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, rel.ID, string(rel.Kind), rel.Line, rel.Column, rel.EndColumn,
			string(rel.Severity), rel.Description,
		); err != nil {
			return 0, fmt.Errorf("failed to insert relation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetRecentAnalyses returns the newest analyses, most recent first.
// If limit is 0, all analyses are returned.
func (db *DB) GetRecentAnalyses(limit int) ([]*Analysis, error) {
	query := `SELECT id, target_id, file, line, col, target_name, target_kind,
	          relation_count, start_line, end_line, total_lines, created_at
	          FROM analyses ORDER BY id DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnalyses(rows)
}

// FindAnalysesByFile returns analyses whose file matches the pattern (using LIKE)
func (db *DB) FindAnalysesByFile(pattern string, limit int) ([]*Analysis, error) {
	query := `SELECT id, target_id, file, line, col, target_name, target_kind,
	          relation_count, start_line, end_line, total_lines, created_at
	          FROM analyses WHERE file LIKE ? ORDER BY id DESC`
	args := []interface{}{"%" + pattern + "%"}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnalyses(rows)
}

// GetAnalysisByID returns one analysis by its row ID
func (db *DB) GetAnalysisByID(id int64) (*Analysis, error) {
	row := db.conn.QueryRow(
		`SELECT id, target_id, file, line, col, target_name, target_kind,
		 relation_count, start_line, end_line, total_lines, created_at
		 FROM analyses WHERE id = ?`,
		id,
	)
	return scanAnalysis(row)
}

// GetRelations returns the stored relations of an analysis in insertion order
func (db *DB) GetRelations(analysisID int64) ([]*analyzer.RelationRecord, error) {
	rows, err := db.conn.Query(
		`SELECT relation_id, kind, line, col, end_col, severity, description
		 FROM relations WHERE analysis_id = ? ORDER BY id ASC`,
		analysisID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []*analyzer.RelationRecord
	for rows.Next() {
		var rel analyzer.RelationRecord
		var kind, severity string
		if err := rows.Scan(&rel.ID, &kind, &rel.Line, &rel.Column, &rel.EndColumn, &severity, &rel.Description); err != nil {
			return nil, err
		}
		rel.Kind = analyzer.RelationKind(kind)
		rel.Severity = analyzer.Severity(severity)
		relations = append(relations, &rel)
	}
	return relations, rows.Err()
}

// GetDistinctFiles returns every file that has at least one recorded analysis
func (db *DB) GetDistinctFiles() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT file FROM analyses ORDER BY file ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteAnalysesByFile removes all analyses recorded for a file and returns
// the number of deleted rows
func (db *DB) DeleteAnalysesByFile(file string) (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM analyses WHERE file = ?`, file)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetStats returns the number of recorded analyses and relations
func (db *DB) GetStats() (analysisCount, relationCount int64, err error) {
	if err = db.conn.QueryRow("SELECT COUNT(*) FROM analyses").Scan(&analysisCount); err != nil {
		return
	}
	err = db.conn.QueryRow("SELECT COUNT(*) FROM relations").Scan(&relationCount)
	return
}

func scanAnalysis(row *sql.Row) (*Analysis, error) {
	var a Analysis
	err := row.Scan(
		&a.ID, &a.TargetID, &a.File, &a.Line, &a.Column, &a.TargetName, &a.TargetKind,
		&a.RelationCount, &a.StartLine, &a.EndLine, &a.TotalLines, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAnalyses(rows *sql.Rows) ([]*Analysis, error) {
	var analyses []*Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(
			&a.ID, &a.TargetID, &a.File, &a.Line, &a.Column, &a.TargetName, &a.TargetKind,
			&a.RelationCount, &a.StartLine, &a.EndLine, &a.TotalLines, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		analyses = append(analyses, &a)
	}
	return analyses, rows.Err()
}
