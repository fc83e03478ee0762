package backend

import (
	"net/http"
	"time"
)

// Operation is one logical call the proxy can make to the backend.
type Operation struct {
	Name    string
	Method  string
	Path    string
	Timeout time.Duration
	// FailureMessage is shown when the backend cannot be reached.
	FailureMessage string
}

// Budgets are the timeout budgets; long ones for synthesis and publishing,
// short ones for regeneration and diagnostics.
type Budgets struct {
	Generate    time.Duration
	ConfirmPost time.Duration
	Regenerate  time.Duration
	Health      time.Duration
	Debug       time.Duration
}

// Operations is the fixed set of backend calls.
type Operations struct {
	Generate           Operation
	RegenerateTitle    Operation
	RegenerateCategory Operation
	ConfirmPost        Operation
	Health             Operation
	Debug              Operation
}

// NewOperations builds the operation table from budgets.
func NewOperations(b Budgets) Operations {
	return Operations{
		Generate: Operation{
			Name:           "generate",
			Method:         http.MethodPost,
			Path:           "/generate",
			Timeout:        budgetOrDefault(b.Generate, 180*time.Second),
			FailureMessage: "Failed to generate content",
		},
		RegenerateTitle: Operation{
			Name:           "regenerate-title",
			Method:         http.MethodPost,
			Path:           "/regenerate-title",
			Timeout:        budgetOrDefault(b.Regenerate, 30*time.Second),
			FailureMessage: "Failed to regenerate title",
		},
		RegenerateCategory: Operation{
			Name:           "regenerate-category",
			Method:         http.MethodPost,
			Path:           "/regenerate-category",
			Timeout:        budgetOrDefault(b.Regenerate, 30*time.Second),
			FailureMessage: "Failed to regenerate category",
		},
		ConfirmPost: Operation{
			Name:           "confirm-post",
			Method:         http.MethodPost,
			Path:           "/confirm-post",
			Timeout:        budgetOrDefault(b.ConfirmPost, 180*time.Second),
			FailureMessage: "Failed to post to WordPress",
		},
		Health: Operation{
			Name:           "health",
			Method:         http.MethodGet,
			Path:           "/health",
			Timeout:        budgetOrDefault(b.Health, 2*time.Second),
			FailureMessage: "Failed to reach backend health check",
		},
		Debug: Operation{
			Name:           "debug",
			Method:         http.MethodGet,
			Path:           "/debug",
			Timeout:        budgetOrDefault(b.Debug, 10*time.Second),
			FailureMessage: "Failed to fetch backend debug information",
		},
	}
}
