package config

import (
	"fmt"
	"strings"
)

// ValidationError reports one invalid field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors accumulates every ValidationError found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	messages := make([]string, len(e))
	for i, err := range e {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(messages, "; "))
}

// Validate checks every section of Config, accumulating all failures
// rather than stopping at the first.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if ve := c.validateRuntime(); len(ve) > 0 {
		errors = append(errors, ve...)
	}
	if ve := c.validatePolicy(); len(ve) > 0 {
		errors = append(errors, ve...)
	}
	if ve := c.validateDVFS(); len(ve) > 0 {
		errors = append(errors, ve...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateRuntime() ValidationErrors {
	var errors ValidationErrors
	if c.Runtime.Workers <= 0 {
		errors = append(errors, ValidationError{
			Field: "runtime.workers", Value: c.Runtime.Workers,
			Message: "must be positive",
		})
	}
	if c.Runtime.StealThreshold < 0 {
		errors = append(errors, ValidationError{
			Field: "runtime.steal_threshold", Value: c.Runtime.StealThreshold,
			Message: "must be nonnegative",
		})
	}
	return errors
}

func (c *Config) validatePolicy() ValidationErrors {
	var errors ValidationErrors
	if c.Policy.EnergyBudgetJ < 0 {
		errors = append(errors, ValidationError{
			Field: "policy.energy_budget_joules", Value: c.Policy.EnergyBudgetJ,
			Message: "must be nonnegative",
		})
	}
	if c.Policy.FixedWatts <= 0 {
		errors = append(errors, ValidationError{
			Field: "policy.fixed_watts", Value: c.Policy.FixedWatts,
			Message: "must be positive",
		})
	}
	if c.Policy.Deadline <= 0 {
		errors = append(errors, ValidationError{
			Field: "policy.deadline", Value: c.Policy.Deadline,
			Message: "must be positive",
		})
	}
	if c.Policy.MaxDrainAttempts < 0 {
		errors = append(errors, ValidationError{
			Field: "policy.max_drain_attempts", Value: c.Policy.MaxDrainAttempts,
			Message: "must be nonnegative",
		})
	}
	return errors
}

func (c *Config) validateDVFS() ValidationErrors {
	var errors ValidationErrors
	if len(c.DVFS.FrequenciesMHz) == 0 {
		errors = append(errors, ValidationError{
			Field: "dvfs.frequencies_mhz", Value: c.DVFS.FrequenciesMHz,
			Message: "must list at least one frequency",
		})
	}
	for _, f := range c.DVFS.FrequenciesMHz {
		if f <= 0 {
			errors = append(errors, ValidationError{
				Field: "dvfs.frequencies_mhz", Value: f,
				Message: "frequencies must be positive",
			})
			break
		}
	}
	if c.DVFS.PowerBudgetW <= 0 {
		errors = append(errors, ValidationError{
			Field: "dvfs.power_budget_watts", Value: c.DVFS.PowerBudgetW,
			Message: "must be positive",
		})
	}
	return errors
}
