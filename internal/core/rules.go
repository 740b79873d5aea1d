package core

// NewDefaultRulesEngine builds a rules engine with the built-in invariant
// checks.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(RegistryConsistencyRule())
	engine.Register(SaleLockRule())
	engine.Register(LineageIntegrityRule())
	return engine
}
