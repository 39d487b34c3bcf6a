// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single extra-payment search.
type Summary struct {
	Scenario     string   `json:"scenario"`
	Target       string   `json:"target"`
	Strategy     string   `json:"strategy"`
	Goal         float64  `json:"goal"`
	Original     float64  `json:"original"`
	Achieved     float64  `json:"achieved"`
	Value        float64  `json:"value"`
	Iterations   int      `json:"iterations"`
	Converged    bool     `json:"converged"`
	Notes        []string `json:"notes,omitempty"`
	ValueDisplay string   `json:"valueDisplay,omitempty"`
}
