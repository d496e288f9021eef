// Package validation runs the two-stage validation pipeline over a merged
// day document: structural schema checks first, then the business-rule set.
// Both stages always execute so a caller sees every problem at once, and all
// findings come back as data, never as raised errors.
package validation

import (
	"sessioncore/pkg/device"
	"sessioncore/pkg/domain"
)

// Rule is one business-rule evaluation, pure and total over the merged
// document.
type Rule interface {
	Name() string
	Evaluate(doc domain.EffectiveDay) domain.ValidationResult
}

// Engine orchestrates the validation pipeline.
type Engine struct {
	rules []Rule
}

// NewEngine constructs an engine with no business rules registered.
func NewEngine() *Engine {
	return &Engine{}
}

// NewDefaultEngine builds an engine with the built-in rule set resolved
// against the given device registry.
func NewDefaultEngine(registry *device.Registry) *Engine {
	if registry == nil {
		registry = device.Builtin()
	}
	e := NewEngine()
	e.Register(NewReferentialRule())
	e.Register(NewUniquenessRule())
	e.Register(NewChannelMapRule(registry))
	e.Register(NewCrossReferenceRule())
	return e
}

// Register appends a rule to the engine.
func (e *Engine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Validate runs stage A structural validation followed by every registered
// business rule. Stage B runs even when stage A fails.
func (e *Engine) Validate(doc domain.EffectiveDay) domain.ValidationResult {
	res := validateStructure(doc)
	for _, rule := range e.rules {
		res.Merge(rule.Evaluate(doc))
	}
	return res
}
