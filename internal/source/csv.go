package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/synth"
)

// Positional column layout of CSV input
const (
	colID = iota
	colName
	colEmail
	colRole
	colStatus
	colDepartment
	colScore
	colJoinDate
	colLastLogin
)

// ContentOpener hands the adapter the raw CSV text. It is called once, from Open.
type ContentOpener func(ctx context.Context) (io.ReadCloser, error)

// CSVOptions configures a CSV request
type CSVOptions struct {
	Open      ContentOpener
	Delimiter string
	HasHeader bool
	// MaxBytes caps the content size; 0 means unlimited.
	MaxBytes int64
}

// CSV maps delimited lines onto canonical rows by column position. Lines are
// split naively: quoting and escaped delimiters are not supported.
type CSV struct {
	opts  CSVOptions
	synth *synth.Synthesizer
	now   Clock

	lines []string
	start int
}

func NewCSV(opts CSVOptions, s *synth.Synthesizer, now Clock) (*CSV, error) {
	if opts.Open == nil {
		return nil, fmt.Errorf("%w: no CSV content", ErrInvalidOptions)
	}
	if opts.Delimiter == "" {
		opts.Delimiter = ","
	}
	if utf8.RuneCountInString(opts.Delimiter) != 1 {
		return nil, fmt.Errorf("%w: delimiter must be a single character, got %q", ErrInvalidOptions, opts.Delimiter)
	}

	return &CSV{opts: opts, synth: s, now: now}, nil
}

// Open reads the whole content. The total counts data lines, blank ones included.
func (a *CSV) Open(ctx context.Context) (int, error) {
	content, err := a.read(ctx)
	if err != nil {
		return 0, parseFailure(fmt.Errorf("Failed to read CSV file: %w", err))
	}

	a.lines = strings.Split(content, "\n")
	if a.opts.HasHeader {
		a.start = 1
	}

	total := len(a.lines) - a.start
	if total < 0 {
		total = 0
	}
	return total, nil
}

func (a *CSV) read(ctx context.Context) (string, error) {
	rc, err := a.opts.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	reader := io.Reader(rc)
	if a.opts.MaxBytes > 0 {
		reader = io.LimitReader(rc, a.opts.MaxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if a.opts.MaxBytes > 0 && int64(len(data)) > a.opts.MaxBytes {
		return "", fmt.Errorf("content exceeds %d bytes", a.opts.MaxBytes)
	}
	return string(data), nil
}

// Produce maps data lines [from, to). Blank lines yield no row.
func (a *CSV) Produce(from, to int) ([]domain.Row, error) {
	if to <= from {
		return nil, nil
	}

	rows := make([]domain.Row, 0, to-from)
	for i := from; i < to; i++ {
		idx := a.start + i
		if idx >= len(a.lines) {
			break
		}

		line := a.lines[idx]
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, a.mapLine(i, line))
	}
	return rows, nil
}

func (a *CSV) mapLine(i int, line string) domain.Row {
	columns := strings.Split(line, a.opts.Delimiter)
	for j, col := range columns {
		columns[j] = strings.ReplaceAll(strings.TrimSpace(col), `"`, "")
	}

	date := today(a.now)

	return domain.Row{
		ID:         column(columns, colID, fmt.Sprintf("csv_%d", i)),
		Name:       column(columns, colName, fmt.Sprintf("User %d", i)),
		Email:      column(columns, colEmail, fmt.Sprintf("user%d@example.com", i)),
		Role:       column(columns, colRole, "user"),
		Status:     column(columns, colStatus, "active"),
		Department: column(columns, colDepartment, "General"),
		Score:      a.score(column(columns, colScore, "")),
		JoinDate:   column(columns, colJoinDate, date),
		LastLogin:  column(columns, colLastLogin, date),
	}
}

func (a *CSV) score(raw string) int {
	if raw == "" {
		return a.synth.Score()
	}
	if n, ok := leadingInt(raw); ok {
		return domain.ClampScore(n)
	}
	return a.synth.Score()
}

// leadingInt reads an optionally signed run of digits from the start of s and
// ignores whatever follows, so "85pts" is 85 and "66.9" is 66.
func leadingInt(s string) (int, bool) {
	i, negative := 0, false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}

	start, n := i, 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		// Anything past 100 clamps the same, so stop growing there.
		if n <= 100 {
			n = n*10 + int(s[i]-'0')
		}
	}
	if i == start {
		return 0, false
	}

	if negative {
		n = -n
	}
	return n, true
}

func column(columns []string, idx int, fallback string) string {
	if idx < len(columns) && columns[idx] != "" {
		return columns[idx]
	}
	return fallback
}
