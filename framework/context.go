package framework

import (
	"fmt"
	"runtime/debug"
)

type environment struct {
	results    Results
	testLogger TestLogger
	filter     Filter
}

type Context struct {
	env         *environment
	id          TestID
	debugLogger CapturingLogger
	failed      bool
	errors      []error
}

// Run runs the top-level action, which will normally call Context.Run once per test case, and
// returns the results of every case that was run or skipped.
func Run(
	filter Filter,
	testLogger TestLogger,
	action func(*Context),
) Results {
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	env := &environment{
		filter:     filter,
		testLogger: testLogger,
	}
	c := &Context{env: env}
	c.run(action)
	return env.results
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil {
			c.failed = true
			err := fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			c.errors = append(c.errors, err)
			c.env.testLogger.TestError(c.id, err)
		}
	}()

	action(c)
}

// Run runs a single test case and records its result.
func (c *Context) Run(id TestID, action func(*Context)) TestResult {
	c.env.testLogger.TestStarted(id)
	if c.env.filter != nil && !c.env.filter(id) {
		result := TestResult{TestID: id, Skipped: true}
		c.env.results.Skipped = append(c.env.results.Skipped, result)
		c.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		return result
	}
	c1 := &Context{
		id:  id,
		env: c.env,
	}
	c1.run(action)

	result := TestResult{TestID: id, Errors: c1.errors}
	c.env.results.Tests = append(c.env.results.Tests, result)
	if c1.failed {
		c.env.results.Failures = append(c.env.results.Failures, result)
	}
	c.env.testLogger.TestFinished(id, c1.failed, c1.debugLogger.Output())
	return result
}

// Errorf records a failed expectation. It does not stop the test case.
func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	err := fmt.Errorf(format, args...)
	c.errors = append(c.errors, err)
	c.env.testLogger.TestError(c.id, err)
}

func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}
