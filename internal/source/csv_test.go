package source

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
)

const csvHeader = "id,name,email,role,status,department,score,joinDate,lastLogin"

func newTestCSV(t *testing.T, content string, hasHeader bool) *CSV {
	t.Helper()
	a, err := NewCSV(CSVOptions{Open: stringContent(content), HasHeader: hasHeader}, newTestSynth(), testClock)
	require.NoError(t, err)
	return a
}

func TestCSV_RoundTrip(t *testing.T) {
	content := csvHeader + "\n1,John Doe,john@example.com,admin,active,Engineering,85,2023-01-15,2024-01-10"

	rows, total, err := drain(newTestCSV(t, content, true), 1000)
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.Row{
		ID:         "1",
		Name:       "John Doe",
		Email:      "john@example.com",
		Role:       "admin",
		Status:     "active",
		Department: "Engineering",
		Score:      85,
		JoinDate:   "2023-01-15",
		LastLogin:  "2024-01-10",
	}, rows[0])
}

func TestCSV_DefaultFill(t *testing.T) {
	rows, _, err := drain(newTestCSV(t, csvHeader+"\n2,Jane", true), 1000)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "2", row.ID)
	assert.Equal(t, "Jane", row.Name)
	assert.Equal(t, "user0@example.com", row.Email)
	assert.Equal(t, "user", row.Role)
	assert.Equal(t, "active", row.Status)
	assert.Equal(t, "General", row.Department)
	assert.GreaterOrEqual(t, row.Score, 0)
	assert.LessOrEqual(t, row.Score, 100)
	assert.Equal(t, "2025-03-14", row.JoinDate)
	assert.Equal(t, "2025-03-14", row.LastLogin)
}

func TestCSV_BlankColumnsUseIndexedPlaceholders(t *testing.T) {
	content := "a,b,c\n,,\n"
	a, err := NewCSV(CSVOptions{Open: stringContent(content), HasHeader: false}, newTestSynth(), testClock)
	require.NoError(t, err)

	rows, total, err := drain(a, 10)
	require.NoError(t, err)

	// trailing newline leaves one blank line that is scanned but skipped
	assert.Equal(t, 3, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)
	assert.Equal(t, "csv_1", rows[1].ID)
	assert.Equal(t, "User 1", rows[1].Name)
	assert.Equal(t, "user1@example.com", rows[1].Email)
}

func TestCSV_BlankLinesAdvanceCursorWithoutRows(t *testing.T) {
	content := csvHeader + "\n1,A\n\n   \n4,D\n"

	a := newTestCSV(t, content, true)
	total, err := a.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	first, err := a.Produce(0, 3)
	require.NoError(t, err)
	second, err := a.Produce(3, 5)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "1", first[0].ID)
	assert.Equal(t, "4", second[0].ID)
}

func TestCSV_DelimiterQuotesAndWhitespace(t *testing.T) {
	content := `"7"; "Ann Lee" ;ann@x.io;guest;pending;Legal;"42";2022-02-02;2022-03-03` + "\r\n"
	a, err := NewCSV(CSVOptions{Open: stringContent(content), Delimiter: ";"}, newTestSynth(), testClock)
	require.NoError(t, err)

	rows, _, err := drain(a, 10)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0].ID)
	assert.Equal(t, "Ann Lee", rows[0].Name)
	assert.Equal(t, 42, rows[0].Score)
	assert.Equal(t, "2022-03-03", rows[0].LastLogin)
}

func TestCSV_ScoreParsing(t *testing.T) {
	content := csvHeader + "\n1,A,a@x,user,active,HR,150\n2,B,b@x,user,active,HR,-3\n3,C,c@x,user,active,HR,66.9\n4,D,d@x,user,active,HR,0"

	rows, _, err := drain(newTestCSV(t, content, true), 2)
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, 100, rows[0].Score)
	assert.Equal(t, 0, rows[1].Score)
	assert.Equal(t, 66, rows[2].Score)
	assert.Equal(t, 0, rows[3].Score)
}

func TestCSV_ScoreLeadingDigits(t *testing.T) {
	content := csvHeader + "\n1,A,a@x,user,active,HR,85pts\n2,B,b@x,user,active,HR,-7x\n3,C,c@x,user,active,HR,1e3\n4,D,d@x,user,active,HR,+12.5%"

	rows, _, err := drain(newTestCSV(t, content, true), 10)
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, 85, rows[0].Score)
	assert.Equal(t, 0, rows[1].Score)
	assert.Equal(t, 1, rows[2].Score)
	assert.Equal(t, 12, rows[3].Score)
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"42", 42, true},
		{"85pts", 85, true},
		{"-3", -3, true},
		{"99999999999999999999999", 1000, true},
		{"high", 0, false},
		{"-", 0, false},
		{".5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := leadingInt(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK && tt.want <= 100 {
				assert.Equal(t, tt.want, got)
			}
			if tt.wantOK && tt.want > 100 {
				assert.Greater(t, got, 100)
			}
		})
	}
}

func TestCSV_UnparsableScoreIsRandom(t *testing.T) {
	rows, _, err := drain(newTestCSV(t, csvHeader+"\n1,A,a@x,user,active,HR,high", true), 10)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.GreaterOrEqual(t, rows[0].Score, 0)
	assert.Less(t, rows[0].Score, 100)
}

func TestCSV_EmptyContent(t *testing.T) {
	rows, total, err := drain(newTestCSV(t, "", true), 10)
	require.NoError(t, err)

	assert.Equal(t, 0, total)
	assert.Empty(t, rows)
}

func TestCSV_HeaderOnly(t *testing.T) {
	rows, total, err := drain(newTestCSV(t, csvHeader, true), 10)
	require.NoError(t, err)

	assert.Equal(t, 0, total)
	assert.Empty(t, rows)
}

func TestCSV_ReadFailure(t *testing.T) {
	failing := func(context.Context) (io.ReadCloser, error) {
		return nil, errors.New("disk unavailable")
	}
	a, err := NewCSV(CSVOptions{Open: failing}, newTestSynth(), testClock)
	require.NoError(t, err)

	_, err = a.Open(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.Equal(t, "Failed to read CSV file: disk unavailable", err.Error())
}

func TestCSV_MaxBytes(t *testing.T) {
	a, err := NewCSV(CSVOptions{Open: stringContent("1,2,3,4,5"), MaxBytes: 4}, newTestSynth(), testClock)
	require.NoError(t, err)

	_, err = a.Open(context.Background())
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestNewCSV_InvalidOptions(t *testing.T) {
	_, err := NewCSV(CSVOptions{Open: stringContent("x"), Delimiter: "::"}, newTestSynth(), testClock)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = NewCSV(CSVOptions{}, newTestSynth(), testClock)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
