package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is matching across the taxonomy.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrData          = errors.New("data error")
	ErrInfeasible    = errors.New("infeasible problem")
	ErrSolver        = errors.New("solver failure")
)

// ConfigurationError reports an invalid parameter or parameter combination.
// It is raised when a config is built or validated, never from inside a solve.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (err *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", err.Field, err.Reason)
}

func (err *ConfigurationError) Unwrap() error { return ErrConfiguration }

// DataError reports a malformed net-load series. Index is -1 when the problem
// is not tied to a single step.
type DataError struct {
	Plot   string
	Index  int
	Reason string
}

func (err *DataError) Error() string {
	var b strings.Builder
	b.WriteString("data error")
	if err.Plot != "" {
		fmt.Fprintf(&b, " (plot %s)", err.Plot)
	}
	if err.Index >= 0 {
		fmt.Fprintf(&b, " at step %d", err.Index)
	}
	b.WriteString(": ")
	b.WriteString(err.Reason)
	return b.String()
}

func (err *DataError) Unwrap() error { return ErrData }

// InfeasibleError is returned when the solver proves the model infeasible. The
// zero-battery dispatch is always feasible, so this points at a modelling bug
// and carries the full parameter set for diagnosis.
type InfeasibleError struct {
	Plot   string
	Params map[string]float64
}

func (err *InfeasibleError) Error() string {
	plot := err.Plot
	if plot == "" {
		plot = "single"
	}
	return fmt.Sprintf("infeasible problem (plot %s) with params %v", plot, err.Params)
}

func (err *InfeasibleError) Unwrap() error { return ErrInfeasible }

// SolverError surfaces a non-optimal solver outcome (unbounded, timed out,
// numerical failure) with the solver status verbatim.
type SolverError struct {
	Plot   string
	Status string
	Err    error
}

func (err *SolverError) Error() string {
	msg := fmt.Sprintf("solver failure: status %s", err.Status)
	if err.Plot != "" {
		msg += fmt.Sprintf(" (plot %s)", err.Plot)
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *SolverError) Unwrap() []error {
	if err.Err == nil {
		return []error{ErrSolver}
	}
	return []error{ErrSolver, err.Err}
}
