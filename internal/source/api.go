package source

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/synth"
)

// Aliases lists, per canonical field, the gjson paths tried in order when
// reading a fetched record.
type Aliases struct {
	ID         []string
	Name       []string
	FirstName  []string
	LastName   []string
	Email      []string
	Role       []string
	Status     []string
	Department []string
	Score      []string
	JoinDate   []string
	LastLogin  []string
}

// DefaultAliases covers the field spellings common in user-listing APIs.
// Name falls back to FirstName and LastName joined by a space.
var DefaultAliases = Aliases{
	ID:         []string{"id"},
	Name:       []string{"name", "fullName"},
	FirstName:  []string{"firstName"},
	LastName:   []string{"lastName"},
	Email:      []string{"email", "emailAddress"},
	Role:       []string{"role", "userRole"},
	Status:     []string{"status", "accountStatus"},
	Department: []string{"department", "division"},
	Score:      []string{"score", "rating"},
	JoinDate:   []string{"joinDate", "createdAt"},
	LastLogin:  []string{"lastLogin", "lastActive"},
}

// APIOptions configures an API request
type APIOptions struct {
	Request *FetchRequest
	// UserCount is the number of rows wanted; shortfall is padded with synthetic rows.
	UserCount int
	Aliases   *Aliases
}

// API normalizes the records of one fetched JSON payload.
type API struct {
	fetcher Fetcher
	opts    APIOptions
	aliases Aliases
	synth   *synth.Synthesizer
	padding *Synthetic
	now     Clock

	records []gjson.Result
}

func NewAPI(fetcher Fetcher, opts APIOptions, s *synth.Synthesizer, now Clock) (*API, error) {
	if opts.Request == nil || strings.TrimSpace(opts.Request.URL) == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidOptions)
	}

	aliases := DefaultAliases
	if opts.Aliases != nil {
		aliases = *opts.Aliases
	}

	return &API{
		fetcher: fetcher,
		opts:    opts,
		aliases: aliases,
		synth:   s,
		padding: NewSynthetic(opts.UserCount, s),
		now:     now,
	}, nil
}

// Open fetches the payload. The total is the larger of the requested user
// count and the number of fetched records.
func (a *API) Open(ctx context.Context) (int, error) {
	body, err := a.fetcher.Fetch(ctx, a.opts.Request)
	if err != nil {
		return 0, sourceFailure(err)
	}
	if !gjson.ValidBytes(body) {
		return 0, sourceFailure(errors.New("response is not valid JSON"))
	}

	a.records = recordsOf(gjson.ParseBytes(body))

	total := a.opts.UserCount
	if len(a.records) > total {
		total = len(a.records)
	}
	return total, nil
}

// recordsOf accepts a bare array or an object with a data array. Any other
// shape yields no records.
func recordsOf(payload gjson.Result) []gjson.Result {
	if payload.IsArray() {
		return payload.Array()
	}
	if data := payload.Get("data"); payload.IsObject() && data.IsArray() {
		return data.Array()
	}
	return nil
}

func (a *API) Produce(from, to int) ([]domain.Row, error) {
	if to <= from {
		return nil, nil
	}

	rows := make([]domain.Row, 0, to-from)
	fetched := len(a.records)

	for i := from; i < to && i < fetched; i++ {
		rows = append(rows, a.normalize(i, a.records[i]))
	}

	if to > fetched {
		start := from
		if start < fetched {
			start = fetched
		}
		padded, err := a.padding.Produce(start, to)
		if err != nil {
			return nil, err
		}
		rows = append(rows, padded...)
	}

	return rows, nil
}

func (a *API) normalize(i int, record gjson.Result) domain.Row {
	date := today(a.now)

	return domain.Row{
		ID:         firstString(record, a.aliases.ID, fmt.Sprintf("api_%d", i)),
		Name:       a.name(i, record),
		Email:      firstString(record, a.aliases.Email, fmt.Sprintf("user%d@example.com", i)),
		Role:       firstString(record, a.aliases.Role, "user"),
		Status:     firstString(record, a.aliases.Status, "active"),
		Department: firstString(record, a.aliases.Department, "General"),
		Score:      a.score(record),
		JoinDate:   firstString(record, a.aliases.JoinDate, date),
		LastLogin:  firstString(record, a.aliases.LastLogin, date),
	}
}

func (a *API) name(i int, record gjson.Result) string {
	if v, ok := lookup(record, a.aliases.Name); ok {
		return v.String()
	}

	first, _ := lookup(record, a.aliases.FirstName)
	last, _ := lookup(record, a.aliases.LastName)
	if joined := strings.TrimSpace(first.String() + " " + last.String()); joined != "" {
		return joined
	}

	return fmt.Sprintf("User %d", i)
}

func (a *API) score(record gjson.Result) int {
	for _, path := range a.aliases.Score {
		v := record.Get(path)
		if !present(v) {
			continue
		}
		if score, ok := numeric(v); ok {
			return score
		}
	}
	return a.synth.Score()
}

func numeric(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		return boundedScore(math.Round(v.Num)), true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return boundedScore(math.Round(f)), true
	default:
		return 0, false
	}
}

func present(v gjson.Result) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return false
	}
	return !(v.Type == gjson.String && v.Str == "")
}

func lookup(record gjson.Result, paths []string) (gjson.Result, bool) {
	for _, path := range paths {
		if v := record.Get(path); present(v) {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func firstString(record gjson.Result, paths []string, fallback string) string {
	if v, ok := lookup(record, paths); ok {
		return v.String()
	}
	return fallback
}

// boundedScore clamps before converting so huge values cannot overflow int.
func boundedScore(f float64) int {
	return int(math.Max(0, math.Min(100, f)))
}
