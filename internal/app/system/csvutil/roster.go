// internal/app/system/csvutil/roster.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// RosterCSVRow is the normalized row produced by PreScanRosterCSV.
type RosterCSVRow struct {
	FullName string
	Email    string
}

// RowError describes one rejected CSV row.
type RowError struct {
	Line   int    `json:"line"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (e RowError) String() string {
	email := e.Email
	if email == "" {
		email = "(no email on row)"
	}
	name := e.Name
	if name == "" {
		name = "(missing)"
	}
	return fmt.Sprintf("line %d: %s | %s → %s", e.Line, email, name, e.Reason)
}

// PreScanRosterCSV reads all rows from r, skips a header if present, and
// validates each row. Each row must have a Full Name and an Email. It either
// returns normalized rows OR the list of bad rows. It never writes to a DB;
// it's safe to call before any mutations.
func PreScanRosterCSV(r io.Reader) (rows []RosterCSVRow, bad []RowError, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Pull first row to check header
	first, ferr := reader.Read()
	if ferr == io.EOF {
		first = nil
	} else if ferr != nil {
		return nil, nil, ferr
	}
	line := 1
	var raw [][]string
	var lines []int
	if len(first) >= 2 &&
		(strings.EqualFold(strings.TrimSpace(first[0]), "full name") ||
			strings.EqualFold(strings.TrimSpace(first[0]), "name")) &&
		strings.EqualFold(strings.TrimSpace(first[1]), "email") {
		// header detected → skip
	} else if first != nil {
		raw = append(raw, first)
		lines = append(lines, line)
	}
	for {
		rec, e := reader.Read()
		line++
		if e == io.EOF {
			break
		}
		if e != nil {
			// A broken reader (e.g. a truncated upload) repeats its error
			// on every read, so retrying cannot make progress.
			return nil, nil, e
		}
		if len(rec) == 0 {
			continue
		}
		if len(raw) >= MaxRows {
			return nil, nil, fmt.Errorf("roster CSV exceeds %d rows", MaxRows)
		}
		raw = append(raw, rec)
		lines = append(lines, line)
	}

	normalize := func(rec []string) RosterCSVRow {
		var n, e string
		if len(rec) > 0 {
			n = strings.TrimSpace(rec[0])
		}
		if len(rec) > 1 {
			e = strings.TrimSpace(rec[1])
		}
		return RosterCSVRow{FullName: n, Email: e}
	}

	for i, rec := range raw {
		row := normalize(rec)
		if row.FullName == "" && row.Email == "" {
			continue
		}
		if row.FullName == "" {
			bad = append(bad, RowError{
				Line: lines[i], Email: strings.ToLower(row.Email), Name: row.FullName, Reason: "missing full name",
			})
		}
		if row.Email == "" {
			bad = append(bad, RowError{
				Line: lines[i], Email: row.Email, Name: row.FullName, Reason: "missing email",
			})
		} else if !strings.Contains(row.Email, "@") {
			bad = append(bad, RowError{
				Line: lines[i], Email: strings.ToLower(row.Email), Name: row.FullName, Reason: "invalid email",
			})
		}
		rows = append(rows, row)
	}

	if len(bad) > 0 {
		return nil, bad, nil
	}
	return rows, nil, nil
}
