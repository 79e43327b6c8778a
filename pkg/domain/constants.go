package domain

// Well-known flag keys used by the built-in requirement kinds.
const (
	// KeyInventory is the default flag holding the player inventory.
	// It may be a list of item names or a map of item name to count.
	KeyInventory = "inventory"

	// KeyClock is the default flag read by time_window requirements.
	// Hosts advance it explicitly; the engine never consults the wall clock.
	KeyClock = "clock"

	// KeySeed is the flag read by weighted branch suggestion. Keeping the
	// seed in the flags makes suggestions replayable from a save.
	KeySeed = "seed"
)
