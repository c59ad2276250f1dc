package roster

import (
	"fmt"
	"math"
	"math/rand"
)

var (
	generatedBranches = []string{"CSE", "ECE", "EE", "ME", "CE", "IT"}
	generatedCourses  = []string{"OOPS", "DSA", "MTH", "DBMS", "OS", "CN", "NLP", "ML", "AI", "SE", "101", "102", "201", "301", "401"}
	generatedNames    = []string{"Aarav", "Diya", "Ishaan", "Kavya", "Rohan", "Sara", "Vihaan", "Anaya", "Arjun", "Meera"}
)

// Generate builds n synthetic records from seed. The same seed always yields
// the same records, which benchmarks and tests rely on.
func Generate(n int, seed int64) []*Record {
	rng := rand.New(rand.NewSource(seed))
	out := make([]*Record, n)

	for i := range out {
		branch := generatedBranches[rng.Intn(len(generatedBranches))]
		year := 2018 + rng.Intn(7)

		rec := &Record{
			Name:      fmt.Sprintf("%s %c.", generatedNames[rng.Intn(len(generatedNames))], 'A'+rune(rng.Intn(26))),
			Roll:      fmt.Sprintf("%s%d%04d", branch, year, rng.Intn(10000)),
			Branch:    branch,
			StartYear: year,
		}

		for _, idx := range rng.Perm(len(generatedCourses))[:2+rng.Intn(3)] {
			rec.CurrentCourses = append(rec.CurrentCourses, generatedCourses[idx])
		}
		for _, idx := range rng.Perm(len(generatedCourses))[:1+rng.Intn(5)] {
			// one decimal place in [5.0, 10.0]
			value := math.Round((5+rng.Float64()*5)*10) / 10
			rec.PreviousCourses = append(rec.PreviousCourses, Grade{Course: generatedCourses[idx], Value: value})
		}

		out[i] = rec
	}
	return out
}
