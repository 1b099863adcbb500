package domain

// DateLayout is the calendar-date format used for JoinDate and LastLogin
const DateLayout = "2006-01-02"

// Row is the canonical record every source is normalized into
type Row struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	Score      int    `json:"score"`
	Department string `json:"department"`
	JoinDate   string `json:"joinDate"`
	LastLogin  string `json:"lastLogin"`
}

// ClampScore bounds a score to [0,100]
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
