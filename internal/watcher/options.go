package watcher

import "time"

const defaultSettleDelay = 250 * time.Millisecond

// Options configures the file watcher behavior.
type Options struct {
	// SettleDelay is how long the file must stay unchanged before an event
	// is emitted. Manifest writers usually truncate then stream, so several
	// writes collapse into one event.
	SettleDelay time.Duration
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.SettleDelay <= 0 {
		o.SettleDelay = defaultSettleDelay
	}
}
