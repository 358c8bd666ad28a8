package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose   bool            `mapstructure:"verbose"`
	Config    string          `mapstructure:"config"`
	Engine    EngineConfig    `mapstructure:"engine" validate:"required"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Data      DataConfig      `mapstructure:"data" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// EngineConfig exposes the scoring and classification thresholds as named
// values. The defaults are a starting calibration, not gospel; every value can
// be overridden under the `engine` key.
type EngineConfig struct {
	// SpecificityBonus is added to an agent's confidence when the task
	// matches at least one keyword unique to that agent's profile.
	SpecificityBonus float64 `mapstructure:"specificityBonus" validate:"min=0,max=1"`
	// LowConfidence is the top-match confidence below which a
	// specialization-mismatch risk is reported.
	LowConfidence float64 `mapstructure:"lowConfidence" validate:"min=0,max=1"`
	// ModerateWords, ComplexWords and EpicWords are the description word
	// counts at which a task is considered medium, long and very long.
	ModerateWords int `mapstructure:"moderateWords" validate:"min=1"`
	ComplexWords  int `mapstructure:"complexWords" validate:"min=1"`
	EpicWords     int `mapstructure:"epicWords" validate:"min=1"`
}

// RegistryConfig holds agent catalog settings
type RegistryConfig struct {
	// File is an optional YAML catalog that replaces the built-in one.
	File string `mapstructure:"file"`
	// Watch enables hot reload of the catalog file on change.
	Watch bool `mapstructure:"watch"`
}

// DataConfig holds analysis history storage configuration
type DataConfig struct {
	File string `mapstructure:"file" validate:"required"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port    int      `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Origins []string `mapstructure:"origins"`
}

// PolicyConfig holds routing policy settings
type PolicyConfig struct {
	// Dir is the directory containing .rego routing policies. Empty disables
	// policy evaluation entirely.
	Dir string `mapstructure:"dir"`
}

// TelemetryConfig holds anonymous usage analytics settings
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	APIKey   string `mapstructure:"apiKey"`
	Endpoint string `mapstructure:"endpoint"`
}
