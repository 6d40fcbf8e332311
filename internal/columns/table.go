// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package columns

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	log "github.com/sirupsen/logrus"
)

const loadedTable = "annotated_table"

// Table is a csv or json table loaded into an in memory duckdb
type Table struct {
	duckdb *sql.DB
}

// quoteIdent quotes a column or table name for duckdb
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral quotes a string for places where duckdb
// does not accept prepared statement parameters
func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// FormatOf guesses the table format from a file name; csv unless it ends in .json
func FormatOf(name string) string {
	if parsed, err := url.Parse(name); err == nil && parsed.Scheme != "" {
		if format := parsed.Query().Get("form"); format != "" {
			return strings.ToLower(format)
		}
		name = parsed.Path
	}
	if strings.EqualFold(path.Ext(name), ".json") {
		return "json"
	}
	return "csv"
}

// OpenTable loads a local csv file or json array of row objects
func OpenTable(ctx context.Context, file string, format string) (*Table, error) {
	var reader string
	switch format {
	case "json":
		reader = "read_json_auto"
	case "csv", "":
		reader = "read_csv_auto"
	default:
		return nil, fmt.Errorf("unsupported table format %q", format)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, err
	}
	// one connection so the loaded table stays visible to every query
	db.SetMaxOpenConns(1)

	query := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s(%s)", loadedTable, reader, quoteLiteral(file))
	if _, err := db.ExecContext(ctx, query); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load %s as %s: %w", file, format, err)
	}
	return &Table{duckdb: db}, nil
}

// Header lists the column names in table order
func (t *Table) Header(ctx context.Context) ([]string, error) {
	rows, err := t.duckdb.QueryContext(ctx,
		"SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position",
		loadedTable)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var header []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		header = append(header, name)
	}
	return header, rows.Err()
}

// ExportCSV writes the table to a csv file using newHeader as column names.
// newHeader must have one entry per column, in table order
func (t *Table) ExportCSV(ctx context.Context, newHeader []string, out string) error {
	header, err := t.Header(ctx)
	if err != nil {
		return err
	}
	if len(header) != len(newHeader) {
		return fmt.Errorf("table has %d columns but %d names were given", len(header), len(newHeader))
	}

	selections := make([]string, len(header))
	for i, name := range header {
		selections[i] = quoteIdent(name) + " AS " + quoteIdent(newHeader[i])
	}
	query := fmt.Sprintf("COPY (SELECT %s FROM %s) TO %s (HEADER, DELIMITER ',')",
		strings.Join(selections, ", "), loadedTable, quoteLiteral(out))
	if _, err := t.duckdb.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}

func (t *Table) Close() error {
	return t.duckdb.Close()
}

// DownloadTable saves a remote table into dir and returns the local path
func DownloadTable(ctx context.Context, client *http.Client, tableURL string, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tableURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", tableURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %d", tableURL, resp.StatusCode)
	}

	local := filepath.Join(dir, "table."+FormatOf(tableURL))
	file, err := os.Create(local)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	size, err := io.Copy(file, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to save %s: %w", tableURL, err)
	}
	log.Debugf("downloaded %d bytes of %s to %s", size, tableURL, local)
	return local, nil
}
