// Package report prints scenario run records to a console, in the style
// of a test-runner summary.
package report

import (
	"fmt"
	"io"

	"github.com/andrewBezerra/assured-go/scenario"

	"github.com/fatih/color"
)

var (
	passedLabel = color.New(color.FgGreen).SprintFunc()
	failedLabel = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Results summarizes a set of executed steps.
type Results struct {
	Records  []scenario.Record
	Failures []scenario.Record
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Collect gathers the records of one or more engines (a scenario and its
// forks) into a Results.
func Collect(engines ...*scenario.Engine) Results {
	var results Results
	for _, e := range engines {
		for _, record := range e.Records() {
			results.Records = append(results.Records, record)
			if !record.OK() {
				results.Failures = append(results.Failures, record)
			}
		}
	}
	return results
}

// Print writes one line per step plus a summary.
func Print(dest io.Writer, results Results) {
	for _, record := range results.Records {
		label := passedLabel("PASSED")
		if !record.OK() {
			label = failedLabel("FAILED")
		}
		fmt.Fprintf(dest, "%s  [%s] %s (%s)\n", label, record.Kind, record.Description, record.Elapsed)
		if record.OK() {
			continue
		}
		for i, res := range record.Results {
			if res.Success {
				continue
			}
			for _, err := range res.Errors {
				if len(record.Results) > 1 {
					fmt.Fprintf(dest, "        payload %d: %s\n", i, err)
				} else {
					fmt.Fprintf(dest, "        %s\n", err)
				}
			}
		}
	}

	fmt.Fprintf(dest, "\n%d step(s) executed, %d failed\n", len(results.Records), len(results.Failures))
}
