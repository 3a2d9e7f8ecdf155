package realtime

// Realtime API constants.
const (
	// Endpoint is the base websocket endpoint for the realtime API.
	Endpoint = "wss://api.openai.com/v1/realtime"

	// DefaultModel is the realtime model used when none is configured.
	DefaultModel = "gpt-4o-realtime-preview-2024-12-17"

	// BetaHeader is required for the realtime API.
	BetaHeader = "realtime=v1"

	// Output audio of the realtime API is 24kHz 16-bit PCM mono.
	SampleRate = 24000
	Channels   = 1
	BitDepth   = 16

	// DefaultTemperature is the sampling temperature sent with every session.
	DefaultTemperature = 0.8
)
