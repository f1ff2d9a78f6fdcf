package types

// Logger is a simple logging interface used throughout hushcore
type Logger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

const (
	// DEFAULT_MUTE_THRESHOLD is the confidence score at which the player is muted
	DEFAULT_MUTE_THRESHOLD = 50

	// DEFAULT_UNMUTE_THRESHOLD is the confidence score below which the player is unmuted
	DEFAULT_UNMUTE_THRESHOLD = 30

	// DEFAULT_ANALYTICS_BURST is the analytics request count above which a
	// beacon burst counts as ad evidence
	DEFAULT_ANALYTICS_BURST = 5

	// DEFAULT_TICK_MS is the engine's sampling tick in milliseconds
	DEFAULT_TICK_MS = 1000
)
