package config

// AppConfig holds the live-viewer settings resolved from flags.
type AppConfig struct {
	Port           int
	Endpoint       string
	Width          int
	Height         int
	FPS            int
	Workers        int
	Lenient        bool
	Debug          bool
	DebugEventRate float64
	RawLogEnabled  bool
	RawLogDir      string
	IngestLogEvery int
	IngestFallback bool
}
