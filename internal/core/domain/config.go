package domain

import "runtime"

// Config is the run-level configuration of a build.
type Config struct {
	// Input is the root of the source tree.
	Input string `mapstructure:"input" yaml:"input"`
	// Output is the root of the rendered tree.
	Output string `mapstructure:"output" yaml:"output"`
	// VarsPreset selects the named presets scope layered over "default".
	VarsPreset string `mapstructure:"vars-preset" yaml:"vars-preset"`
	// Vars are run-level variable overrides with the highest precedence.
	Vars map[string]any `mapstructure:"vars" yaml:"vars"`
	// Strict turns logged warnings into a failed run.
	Strict bool `mapstructure:"strict" yaml:"strict"`
	// Parallelism bounds the number of entry workers.
	Parallelism int `mapstructure:"parallelism" yaml:"parallelism"`
	// Ignore lists globs excluded from discovery and asset copying.
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`
	// StateFile stores build state between runs. Relative paths live under Output.
	StateFile string `mapstructure:"state-file" yaml:"state-file"`
	// MetricsFile, when set, receives a Prometheus text exposition after each run.
	MetricsFile string `mapstructure:"metrics-file" yaml:"metrics-file"`
}

const (
	// ConfigFileName is the optional project configuration file in the input root.
	ConfigFileName = ".quire.yaml"
	// DefaultStateFile is the state file location relative to the output root.
	DefaultStateFile = ".quire/state.json"
	// DirPerm is the permission used for created directories.
	DirPerm = 0o755
	// FilePerm is the permission used for written files.
	FilePerm = 0o644
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Input:       ".",
		Output:      "build",
		VarsPreset:  DefaultScope,
		Parallelism: runtime.NumCPU(),
		StateFile:   DefaultStateFile,
	}
}
