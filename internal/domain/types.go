package domain

// Test is a single extracted example: an expression with its expected
// output, located in a source document.
type Test struct {
	Filename string
	Line     int // 1-based line of the first prompt
	Expr     string
	Expected string
	Options  map[string]any // decoded inline options
}

// TestOutput is what a runtime produces for one test expression.
// Code 0 means the expression evaluated without a runtime error. Code 1
// means an error occurred; Output still carries the conventional error
// text the document compares against and ShortError an abbreviated form.
type TestOutput struct {
	Code       int
	Output     string
	ShortError string
}

// TestMatch is the result of comparing expected output to actual
// output. Vars is non-empty only for parse-based matches with named
// captures.
type TestMatch struct {
	Match bool
	Vars  map[string]any
}

// Location identifies a test by file and line.
type Location struct {
	Filename string
	Line     int
}

// Summary accumulates test results for a document or a whole run.
type Summary struct {
	Tested  int
	Failed  int
	Skipped int

	FailedLocations  []Location
	SkippedLocations []Location
}

// Add merges other into s.
func (s *Summary) Add(other Summary) {
	s.Tested += other.Tested
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.FailedLocations = append(s.FailedLocations, other.FailedLocations...)
	s.SkippedLocations = append(s.SkippedLocations, other.SkippedLocations...)
}
