package ecs

// Tick is the world's monotonic change counter. It advances once per
// scheduler pass, never per system, so every system in a pass observes the
// same change window.
type Tick uint64

// IsNewerThan reports whether t falls inside the change window (lastRun,
// thisRun]. The comparison is done on wrapping distances from thisRun so it
// stays correct across counter wraparound.
func (t Tick) IsNewerThan(lastRun, thisRun Tick) bool {
	lastDiff := uint64(thisRun - lastRun)
	thisDiff := uint64(thisRun - t)
	return thisDiff < lastDiff
}

// ComponentTicks records when a component slot was first written and last
// mutated.
type ComponentTicks struct {
	Added   Tick
	Changed Tick
}

func newComponentTicks(tick Tick) ComponentTicks {
	return ComponentTicks{Added: tick, Changed: tick}
}

// IsAdded reports whether the slot was inserted since lastRun.
func (ct ComponentTicks) IsAdded(lastRun, thisRun Tick) bool {
	return ct.Added.IsNewerThan(lastRun, thisRun)
}

// IsChanged reports whether the slot was written since lastRun.
func (ct ComponentTicks) IsChanged(lastRun, thisRun Tick) bool {
	return ct.Changed.IsNewerThan(lastRun, thisRun)
}
