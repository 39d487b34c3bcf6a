// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/iwvelando/loan-simulator/pkg/amortization"
)

// FindScenario finds a scenario by name in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindScenario(results []simulation.Result, name string) *simulation.Result {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// FindRow returns the schedule row for the given month, nil when the schedule
// ended earlier.
func FindRow(schedule []amortization.ScheduleRow, month int) *amortization.ScheduleRow {
	for i := range schedule {
		if schedule[i].Month == month {
			return &schedule[i]
		}
	}
	return nil
}
