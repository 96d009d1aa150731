package framework

import (
	"fmt"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skipped  []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

func (r TestResult) Failed() bool {
	return !r.Skipped && len(r.Errors) != 0
}

// TestID identifies a test case by its position in the run and its title. Titles are not
// guaranteed to be unique.
type TestID struct {
	Index int
	Title string
}

func (t TestID) String() string {
	return fmt.Sprintf("\"%s\" Index: %d", t.Title, t.Index)
}
