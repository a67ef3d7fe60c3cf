// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"errors"
	"fmt"
)

// CounterSchema is a minimal model parameter schema used across tests.
const CounterSchema = `
// Size of the closed population.
population: int & >=1

// Probability of transmission per contact.
infection_rate: float & >0 & <=1
`

// CounterParams is the decoded form of CounterSchema.
type CounterParams struct {
	Population    int     `json:"population"`
	InfectionRate float64 `json:"infection_rate"`
}

// CounterState tracks a shrinking count and the number of steps taken.
type CounterState struct {
	Count int
	Step  int
}

// CounterRecord is the per-step observation of a CounterModel run.
type CounterRecord struct {
	Count int
	Step  int
}

// CounterModel starts Count at the population size and decrements it by
// one per step, clamping at zero. Failure injection is opt-in so the
// same model serves both happy-path and error-path tests.
type CounterModel struct {
	// FailInit makes Init return an error.
	FailInit bool

	// FailOnStep makes the given 1-based step return an error.
	// Zero disables injection.
	FailOnStep int
}

func (m CounterModel) Init(p CounterParams) (CounterState, error) {
	if m.FailInit {
		return CounterState{}, errors.New("counter: refusing to seed")
	}
	return CounterState{Count: p.Population}, nil
}

func (m CounterModel) Step(s CounterState, p CounterParams) (CounterState, error) {
	next := s.Step + 1
	if m.FailOnStep != 0 && next == m.FailOnStep {
		return CounterState{}, fmt.Errorf("counter: injected failure at step %d", next)
	}
	count := s.Count - 1
	if count < 0 {
		count = 0
	}
	return CounterState{Count: count, Step: next}, nil
}

func (m CounterModel) Observe(s CounterState) CounterRecord {
	return CounterRecord{Count: s.Count, Step: s.Step}
}
