package core

import "potager/pkg/domain"

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in layout policy
// set: malformed plots block, overlapping or out-of-garden plots warn.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewPlotShapeRule())
	engine.Register(NewPlotOverlapRule())
	engine.Register(NewPlotBoundsRule())
	return engine
}
