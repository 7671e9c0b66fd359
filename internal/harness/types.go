package harness

import "github.com/ivanyeors/ai-analytics-platform/internal/model"

// StepOutcome records what one flow step actually returned.
type StepOutcome struct {
	Step   int    `json:"step"`
	Call   string `json:"call"`
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and every
	// assertion held.
	Pass bool `json:"pass"`

	// Steps holds the outcome of each flow step, in order.
	Steps []StepOutcome `json:"steps"`

	// Log is the reducer call log after the scenario, setup included.
	Log []model.ReducerCall `json:"log"`

	// Categories and DataPoints are the final table contents, in primary
	// key order.
	Categories []model.Category  `json:"categories"`
	DataPoints []model.DataPoint `json:"data_points"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Steps:      []StepOutcome{},
		Log:        []model.ReducerCall{},
		Categories: []model.Category{},
		DataPoints: []model.DataPoint{},
		Errors:     []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
