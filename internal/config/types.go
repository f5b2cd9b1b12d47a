package config

// Config holds the front-end options loaded from lumina.yaml, the
// environment, and CLI flags.
type Config struct {
	// Mode selects the parser output: "direct-ast", "cst" or "cst-ast".
	Mode string `koanf:"mode"`
	// MaxErrors bounds diagnostics per compilation; 0 disables errors.
	MaxErrors int `koanf:"max_errors"`
	// Strict stops each stage at its first error.
	Strict bool `koanf:"strict"`

	PreserveTrivia       bool `koanf:"preserve_trivia"`
	EarlyTypeResolution  bool `koanf:"early_type_resolution"`
	DeferExpressionTypes bool `koanf:"defer_expression_types"`
	InsertErrorNodes     bool `koanf:"insert_error_nodes"`
	InsertMissingNodes   bool `koanf:"insert_missing_nodes"`
	SourceMapping        bool `koanf:"source_mapping"`

	// MinFrontend is a semver constraint the running front end must
	// satisfy, e.g. ">= 0.3.0".
	MinFrontend string `koanf:"min_frontend"`

	// Output selects diagnostic rendering: "text" or "table".
	Output string `koanf:"output"`

	// ConfigFile is the file the values came from, empty when none.
	ConfigFile string `koanf:"-"`
}

const (
	DefaultMode      = "cst-ast"
	DefaultMaxErrors = 100
	DefaultOutput    = "text"
)
