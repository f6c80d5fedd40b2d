package domain

// Notifier receives lifecycle notifications from the entry registry.
// Implementations must not call back into the registry synchronously, as
// notifications fire with the registry lock held.
type Notifier interface {
	// EntryAdded fires once when a new entry is registered, either from an
	// initial directory scan, a watcher create event, or explicit creation.
	EntryAdded(basename string)
	// EntryChanged fires when an entry's fields were reloaded or mutated.
	// It never fires for a failed operation that produced no state change.
	EntryChanged(basename string)
	// EntryRemoved fires when an entry leaves the registry entirely, i.e.
	// it was deleted while shadowing no system copy.
	EntryRemoved(basename string)
}
