package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvusHold/postal/internal/dispatch/domain"
)

func TestValidEmail(t *testing.T) {
	require.True(t, ValidEmail("x@y.com"))
	require.True(t, ValidEmail("first.last+tag@sub.example.org"))
	require.False(t, ValidEmail("a@@b"))
	require.False(t, ValidEmail("not-an-email"))
	require.False(t, ValidEmail(""))
	require.False(t, ValidEmail("a@b"))
	require.False(t, ValidEmail("Alice <alice@x.com>"))
}

func TestFromTextDropsInvalidSilently(t *testing.T) {
	got := FromText("a@@b, x@y.com, , not-an-email")
	require.Equal(t, []domain.RecipientRecord{{Email: "x@y.com"}}, got)
}

func TestFromTextEmailNamePairs(t *testing.T) {
	got := FromText("alice@x.com,Alice\nbob@x.com")
	require.Equal(t, []domain.RecipientRecord{
		{Email: "alice@x.com", Name: "Alice"},
		{Email: "bob@x.com"},
	}, got)
}

func TestFromTextDedupFirstSeenWins(t *testing.T) {
	got := FromText("Alice@X.com,Alice\nalice@x.com,Alicia\nbob@x.com")
	require.Equal(t, []domain.RecipientRecord{
		{Email: "alice@x.com", Name: "Alice"},
		{Email: "bob@x.com"},
	}, got)
}

func TestFromTextTwoEmailsOnOneLine(t *testing.T) {
	got := FromText("a@x.com,b@x.com")
	require.Equal(t, []domain.RecipientRecord{
		{Email: "a@x.com"},
		{Email: "b@x.com"},
	}, got)
}

func TestFromRowsAliasesAndOrder(t *testing.T) {
	rows := []map[string]string{
		{"Email ID": "C@x.com", "Full Name": "Carol"},
		{"Email ID": "d@x.com"},
		{"Email ID": "broken"},
		{"Email ID": "c@x.com", "Full Name": "Other"},
	}
	got := FromRows(rows)
	require.Equal(t, []domain.RecipientRecord{
		{Email: "c@x.com", Name: "Carol"},
		{Email: "d@x.com"},
	}, got)
}

func TestFromRowsUnresolvableEmailDropped(t *testing.T) {
	rows := []map[string]string{
		{"phone": "123", "name": "NoEmail"},
		{"E-mail": "e@x.com", "Username": "eve"},
	}
	got := FromRows(rows)
	require.Equal(t, []domain.RecipientRecord{{Email: "e@x.com", Name: "eve"}}, got)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestFromFileCSV(t *testing.T) {
	p := writeTemp(t, "list.csv", "Email,Name\na@x.com,Ann\nB@X.com,Ben\na@x.com,Dup\n")
	got, err := FromFile(domain.Artifact{Name: "list.csv", Path: p, MIMEType: "text/csv"})
	require.NoError(t, err)
	require.Equal(t, []domain.RecipientRecord{
		{Email: "a@x.com", Name: "Ann"},
		{Email: "b@x.com", Name: "Ben"},
	}, got)
}

func TestFromFileTSVByExtension(t *testing.T) {
	p := writeTemp(t, "list.tsv", "email\tname\nt@x.com\tTed\n")
	got, err := FromFile(domain.Artifact{Name: "list.tsv", Path: p})
	require.NoError(t, err)
	require.Equal(t, []domain.RecipientRecord{{Email: "t@x.com", Name: "Ted"}}, got)
}

func TestFromFilePlainText(t *testing.T) {
	p := writeTemp(t, "list.txt", "a@x.com,Ann\nb@x.com\n")
	got, err := FromFile(domain.Artifact{Name: "list.txt", Path: p, MIMEType: "text/plain"})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestFromFileUnsupportedFormat(t *testing.T) {
	p := writeTemp(t, "list.pdf", "%PDF-1.4")
	_, err := FromFile(domain.Artifact{Name: "list.pdf", Path: p, MIMEType: "application/pdf"})
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestFromFileNoRecipients(t *testing.T) {
	p := writeTemp(t, "list.csv", "Email,Name\nnot-an-email,X\n")
	_, err := FromFile(domain.Artifact{Name: "list.csv", Path: p, MIMEType: "text/csv"})
	require.ErrorIs(t, err, domain.ErrNoRecipients)
}
