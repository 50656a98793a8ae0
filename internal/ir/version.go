package ir

const (
	// IRVersion is the catalog and plan schema version written to the store.
	IRVersion = "1"

	// EngineVersion is the forgeplan release.
	EngineVersion = "0.1.0"
)
