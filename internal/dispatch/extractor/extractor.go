package extractor

import (
	"encoding/csv"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/corvusHold/postal/internal/dispatch/domain"
)

// Column-name aliases tried in order, compared case-insensitively after
// trimming. Headers like "Email ID" and "E-mail" appear in real uploads.
var emailAliases = []string{"email", "email id", "e-mail", "email address", "mail"}
var nameAliases = []string{"name", "full name", "first name", "username", "recipient"}

// ValidEmail reports whether s has an RFC mailbox shape with a dotted
// domain. Display-name forms ("A <a@b.c>") are rejected; the extractor
// only accepts bare addresses.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(s[at+1:], ".")
}

// FromRows extracts recipients from parsed tabular rows. Rows without a
// resolvable, valid email are silently dropped; the first occurrence of
// a normalized email wins, name included.
func FromRows(rows []map[string]string) []domain.RecipientRecord {
	out := make([]domain.RecipientRecord, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		email := strings.ToLower(strings.TrimSpace(lookup(row, emailAliases)))
		if email == "" || !ValidEmail(email) {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, domain.RecipientRecord{
			Email: email,
			Name:  strings.TrimSpace(lookup(row, nameAliases)),
		})
	}
	return out
}

func lookup(row map[string]string, aliases []string) string {
	for _, alias := range aliases {
		for k, v := range row {
			if strings.EqualFold(strings.TrimSpace(k), alias) && strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	return ""
}

// FromText extracts recipients from pasted text. Lines are split on
// newlines; a line of exactly "email,name" keeps the name, any other
// comma-separated tokens are treated as bare email candidates.
func FromText(raw string) []domain.RecipientRecord {
	out := make([]domain.RecipientRecord, 0)
	seen := make(map[string]struct{})
	add := func(email, name string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || !ValidEmail(email) {
			return
		}
		if _, dup := seen[email]; dup {
			return
		}
		seen[email] = struct{}{}
		out = append(out, domain.RecipientRecord{Email: email, Name: strings.TrimSpace(name)})
	}
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		parts := strings.Split(line, ",")
		if len(parts) == 2 && ValidEmail(strings.ToLower(strings.TrimSpace(parts[0]))) && !ValidEmail(strings.ToLower(strings.TrimSpace(parts[1]))) {
			add(parts[0], parts[1])
			continue
		}
		for _, p := range parts {
			add(p, "")
		}
	}
	return out
}

// FromFile extracts recipients from an uploaded spreadsheet or
// delimited-text artifact. Unknown types fail with ErrUnsupportedFormat;
// a file that parses but yields no valid recipient fails with
// ErrNoRecipients.
func FromFile(a domain.Artifact) ([]domain.RecipientRecord, error) {
	var (
		recs []domain.RecipientRecord
		err  error
	)
	switch classify(a) {
	case "xlsx":
		recs, err = fromXLSX(a.Path)
	case "csv":
		recs, err = fromDelimited(a.Path, ',')
	case "tsv":
		recs, err = fromDelimited(a.Path, '\t')
	case "text":
		raw, rerr := os.ReadFile(a.Path)
		if rerr != nil {
			return nil, rerr
		}
		recs = FromText(string(raw))
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, a.Name)
	}
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, domain.ErrNoRecipients
	}
	return recs, nil
}

func classify(a domain.Artifact) string {
	switch strings.ToLower(a.MIMEType) {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/vnd.ms-excel":
		return "xlsx"
	case "text/csv", "application/csv":
		return "csv"
	case "text/tab-separated-values":
		return "tsv"
	case "text/plain":
		return "text"
	}
	switch strings.ToLower(filepath.Ext(a.Name)) {
	case ".xlsx", ".xls":
		return "xlsx"
	case ".csv":
		return "csv"
	case ".tsv":
		return "tsv"
	case ".txt":
		return "text"
	}
	return ""
}

func fromDelimited(path string, comma rune) ([]domain.RecipientRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedFormat, err)
	}
	return FromRows(toRowMaps(records)), nil
}

func fromXLSX(path string) ([]domain.RecipientRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.ErrNoRecipients
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return FromRows(toRowMaps(rows)), nil
}

// toRowMaps zips the header row onto each data row.
func toRowMaps(records [][]string) []map[string]string {
	if len(records) < 2 {
		return nil
	}
	header := records[0]
	out := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out
}
