package optimistic

// saga pairs a forward local mutation with its precise inverse,
// defined at the same site. Rollback always runs the inverse that was
// written next to the forward step, so compensation cannot drift from
// the action as the code evolves.
type saga struct {
	// apply performs the local mutation and reports whether visible
	// state actually changed. A no-op apply (duplicate add, absent
	// remove) must not be compensated.
	apply func() bool

	// revert undoes exactly what apply changed, nothing more.
	revert func()
}

// run applies the forward step and returns the compensation to hand to
// the write queue. The returned func is nil when the forward step was
// a visible no-op.
func (s saga) run() func() {
	if !s.apply() {
		return nil
	}
	return s.revert
}
