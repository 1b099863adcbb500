// Package synth builds canonical rows from a deterministic random stream.
package synth

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/domain"
)

const (
	scoreMean   = 75
	scoreStdDev = 15

	maxLoginOffsetDays = 365
)

// Epoch is the earliest join date a synthetic row can carry.
var Epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// Rand is a stream of values in [0,1).
type Rand interface {
	Next() float64
}

// Synthesizer produces rows whose content depends only on the position of
// its Rand stream. Join dates fall between Epoch and the now given to New.
type Synthesizer struct {
	rand    Rand
	rangeMs int64
}

// New creates a synthesizer drawing from rand.
func New(rand Rand, now time.Time) *Synthesizer {
	rangeMs := now.Sub(Epoch).Milliseconds()
	if rangeMs < 0 {
		rangeMs = 0
	}
	return &Synthesizer{rand: rand, rangeMs: rangeMs}
}

// Row synthesizes the row at index. The index only names the row; the field
// values come from the next draws of the stream.
func (s *Synthesizer) Row(index int) domain.Row {
	firstName := s.pick(firstNames)
	lastName := s.pick(lastNames)
	emailDomain := s.pick(emailDomains)

	joinDate := s.joinDate()
	lastLogin := joinDate.AddDate(0, 0, s.intn(maxLoginOffsetDays))

	return domain.Row{
		ID:         fmt.Sprintf("user-%d", index+1),
		Name:       firstName + " " + lastName,
		Email:      s.email(firstName, lastName, emailDomain),
		Role:       s.pick(roles),
		Status:     s.pick(statuses),
		Score:      s.score(),
		Department: s.pick(departments),
		JoinDate:   joinDate.Format(domain.DateLayout),
		LastLogin:  lastLogin.Format(domain.DateLayout),
	}
}

// Score draws a uniform score in [0,100). Sources use it for missing scores.
func (s *Synthesizer) Score() int {
	return s.intn(100)
}

func (s *Synthesizer) intn(n int) int {
	return int(math.Floor(s.rand.Next() * float64(n)))
}

func (s *Synthesizer) pick(values []string) string {
	return values[s.intn(len(values))]
}

func (s *Synthesizer) email(firstName, lastName, emailDomain string) string {
	return fmt.Sprintf("%s.%s%d@%s",
		strings.ToLower(firstName),
		strings.ToLower(lastName),
		s.intn(100),
		emailDomain)
}

func (s *Synthesizer) joinDate() time.Time {
	offset := int64(math.Floor(s.rand.Next() * float64(s.rangeMs)))
	ts := Epoch.Add(time.Duration(offset) * time.Millisecond)
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// score applies the Box-Muller transform to two draws.
func (s *Synthesizer) score() int {
	u1 := s.rand.Next()
	u2 := s.rand.Next()
	if u1 <= 0 {
		u1 = math.SmallestNonzeroFloat64
	}

	z0 := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return domain.ClampScore(int(math.Round(scoreMean + z0*scoreStdDev)))
}
