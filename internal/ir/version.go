package ir

// Version constants for records and engine.
const (
	// RecordVersion is the run record schema version.
	RecordVersion = "1"

	// EngineVersion is the brainplus engine version.
	EngineVersion = "0.1.0"
)
