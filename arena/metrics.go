package arena

// ArenaMetrics is a point-in-time snapshot of an Arena's usage,
// grounded on the teacher's ArenaMetrics (SizeInUse/NumChunks/
// Capacity/Utilization/ChunkSize) and extended with FreeSlots/
// UsedSlots per this module's generalized free-list semantics.
type ArenaMetrics struct {
	UsedSlots   int64
	FreeSlots   int64
	MaxLength   int64
	NumChunks   int
	Capacity    int64
	ChunkSize   int64
	Utilization float64
}

// Metrics returns a snapshot of a's current state.
func (a *Arena[T, Size]) Metrics() ArenaMetrics {
	a.mu.RLock()
	numChunks := len(a.chunks)
	a.mu.RUnlock()

	maxLen := a.MaxLength()
	free := a.FreeSlots()
	used := maxLen - free

	var util float64
	if maxLen > 0 {
		util = float64(used) / float64(maxLen)
	}

	return ArenaMetrics{
		UsedSlots:   used,
		FreeSlots:   free,
		MaxLength:   maxLen,
		NumChunks:   numChunks,
		Capacity:    a.Capacity(),
		ChunkSize:   int64(a.cfg.ChunkSize),
		Utilization: util,
	}
}
