package strategy

// Dedup suppresses consecutive same-action signals per strategy for one
// symbol. The first verdict always passes; repeats of the same action are
// muted until the action changes. One instance lives and dies with its
// symbol's feed, so unsubscribing clears the memory.
type Dedup struct {
	last map[string]Action
}

// NewDedup creates an empty dedup memory.
func NewDedup() *Dedup {
	return &Dedup{last: make(map[string]Action)}
}

// ShouldEmit reports whether this action may be broadcast for the strategy,
// recording it as the new last action when it may.
func (d *Dedup) ShouldEmit(strategy string, action Action) bool {
	if prev, ok := d.last[strategy]; ok && prev == action {
		return false
	}
	d.last[strategy] = action
	return true
}
