package interpreter

// fuelTick accounts for one interpreted instruction. A negative fuel value
// means unlimited (used by tests and by embedders that trust their guest
// code); zero or positive is a hard budget that ErrFuelExhausted enforces
// exactly once it reaches zero, per spec.md §4.3.
func (ce *callEngine) fuelTick() error {
	if ce.fuel < 0 {
		return nil
	}
	if ce.fuel == 0 {
		return ErrFuelExhausted{}
	}
	ce.fuel--
	return nil
}

// RemainingFuel reports the fuel left after the most recent Call on this
// callEngine, for embedders exposing SetFuel/RemainingFuel per-instance.
func (ce *callEngine) RemainingFuel() int64 {
	return ce.fuel
}
