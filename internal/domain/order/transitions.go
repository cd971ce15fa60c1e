package order

// Effect is the side effect mandated when an order enters a status.
type Effect int

const (
	EffectNone Effect = iota
	// EffectRestoreStock returns every reserved line quantity to inventory.
	EffectRestoreStock
)

// entryEffects is keyed by the status being entered. Same-status updates
// never carry an effect, which is what makes repeated cancellation calls
// safe: the second call enters cancelled from cancelled and is a no-op.
var entryEffects = map[Status]Effect{
	StatusCancelled: EffectRestoreStock,
}

// TransitionEffect reports the side effect for moving an order from one
// status to another.
func TransitionEffect(from, to Status) Effect {
	if from == to {
		return EffectNone
	}
	return entryEffects[to]
}
