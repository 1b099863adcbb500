package synth

var (
	roles       = []string{"admin", "user", "moderator", "guest"}
	statuses    = []string{"active", "inactive", "pending", "suspended"}
	departments = []string{
		"Engineering", "Marketing", "Sales", "HR", "Finance",
		"Operations", "Customer Support", "Product", "Design", "Legal",
	}

	// Repeated entries are intentional; they weight the sample.
	firstNames = []string{
		"John", "Jane", "Michael", "Sarah", "David", "Emily", "Robert", "Jessica",
		"William", "Ashley", "James", "Amanda", "Christopher", "Jennifer", "Daniel",
		"Lisa", "Matthew", "Nancy", "Anthony", "Karen", "Mark", "Betty", "Donald",
		"Helen", "Steven", "Sandra", "Paul", "Donna", "Andrew", "Carol", "Joshua",
		"Ruth", "Kenneth", "Sharon", "Kevin", "Michelle", "Brian", "Laura", "George",
		"Sarah", "Timothy", "Kimberly", "Ronald", "Deborah", "Jason", "Dorothy",
		"Edward", "Lisa", "Jeffrey", "Nancy", "Ryan", "Karen", "Jacob", "Betty",
	}

	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
		"Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson",
		"White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson", "Walker",
		"Young", "Allen", "King", "Wright", "Scott", "Torres", "Nguyen", "Hill",
		"Flores", "Green", "Adams", "Nelson", "Baker", "Hall", "Rivera", "Campbell",
		"Mitchell", "Carter", "Roberts", "Gomez", "Phillips", "Evans", "Turner", "Diaz",
	}

	emailDomains = []string{
		"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "company.com",
		"example.org", "test.net", "demo.io", "sample.co", "business.com",
	}
)
