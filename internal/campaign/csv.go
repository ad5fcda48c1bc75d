package campaign

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSV export quotes every field unconditionally and folds embedded double
// quotes to single quotes, so downstream spreadsheet imports never have to
// guess at escaping. encoding/csv cannot be configured to do either, hence
// the hand-rolled writer.

var csvHeader = []string{
	"first_name", "last_name", "phone", "address", "city", "state", "zip",
	"status", "outcome", "summary", "ended_reason", "duration",
	"replied", "last_reply", "note",
}

// WriteResultsCSV renders the reconciled result rows, one line per lead.
func WriteResultsCSV(w io.Writer, rows []ReconciledRow) error {
	if err := writeCSVLine(w, csvHeader); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		line := []string{
			r.FirstName, r.LastName, r.Phone, r.Address, r.City, r.State, r.Zip,
			string(r.Status), string(r.Outcome), r.Summary, r.EndedReason, r.Duration,
			strconv.FormatBool(r.Replied), r.LastReply, r.Note,
		}
		if err := writeCSVLine(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVLine(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `'`) + `"`
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, ","))
	return err
}
