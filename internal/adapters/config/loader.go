// Package config assembles the quire run configuration.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
)

const (
	// EnvPrefix prefixes every environment variable read by the loader.
	EnvPrefix = "QUIRE"
	// DotEnvFile is read from the input root before the process environment.
	DotEnvFile = ".env"
	// VarsFlag names the repeatable key=value flag carrying run-level overrides.
	VarsFlag = "vars"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader on viper.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load assembles the configuration. Later sources win:
// defaults, .quire.yaml, .env, QUIRE_* environment, then flags that were set explicitly.
func (l *Loader) Load(flags *pflag.FlagSet) (*domain.Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if !isSetting(f.Name) {
				return
			}
			if err := v.BindPFlag(f.Name, f); err != nil {
				bindErr = errors.Join(bindErr, err)
			}
		})
		if bindErr != nil {
			return nil, zerr.Wrap(bindErr, "failed to bind flags")
		}
	}

	input := v.GetString("input")
	vars, err := l.mergeProjectFile(v, filepath.Join(input, domain.ConfigFileName))
	if err != nil {
		return nil, err
	}
	if err := l.mergeDotEnv(v, filepath.Join(input, DotEnvFile)); err != nil {
		return nil, err
	}

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrInvalidConfig, err), "failed to decode configuration")
	}
	cfg.Vars = vars

	if flags != nil {
		if err := applyVarsFlag(&cfg, flags); err != nil {
			return nil, err
		}
	}
	return normalize(&cfg)
}

// RegisterFlags defines every configuration flag on flags.
func RegisterFlags(flags *pflag.FlagSet) {
	def := domain.DefaultConfig()
	flags.StringP("input", "i", def.Input, "source root")
	flags.StringP("output", "o", def.Output, "output root, relative to the input root")
	flags.String("vars-preset", def.VarsPreset, "named presets scope layered over default")
	flags.StringArray(VarsFlag, nil, "variable override as key=value, repeatable")
	flags.Bool("strict", false, "fail the run when warnings were logged")
	flags.IntP("parallelism", "j", 0, "number of entry workers (default one per CPU)")
	flags.StringSlice("ignore", nil, "glob excluded from discovery and asset copy, repeatable")
	flags.String("state-file", def.StateFile, "build state file, relative to the output root")
	flags.String("metrics-file", "", "Prometheus textfile written after each run")
}

func setDefaults(v *viper.Viper) {
	def := domain.DefaultConfig()
	v.SetDefault("input", def.Input)
	v.SetDefault("output", def.Output)
	v.SetDefault("vars-preset", def.VarsPreset)
	v.SetDefault("strict", def.Strict)
	v.SetDefault("parallelism", def.Parallelism)
	v.SetDefault("ignore", []string{})
	v.SetDefault("state-file", def.StateFile)
	v.SetDefault("metrics-file", def.MetricsFile)
}

func isSetting(name string) bool {
	switch name {
	case "input", "output", "vars-preset", "strict", "parallelism", "ignore", "state-file", "metrics-file":
		return true
	default:
		return false
	}
}

// mergeProjectFile layers the project file and returns its vars. Unknown keys are rejected.
// Vars bypass viper, which would lowercase their keys.
func (l *Loader) mergeProjectFile(v *viper.Viper, path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the configured input root
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("no project configuration", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var probe domain.Config
	if err := dec.Decode(&probe); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrInvalidConfig, err), "failed to parse config file"), "path", path)
	}

	var settings map[string]any
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrInvalidConfig, err), "failed to parse config file"), "path", path)
	}
	delete(settings, VarsFlag)
	if err := v.MergeConfigMap(settings); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to merge config file"), "path", path)
	}
	l.logger.Debug("loaded project configuration", "path", path)
	return probe.Vars, nil
}

// mergeDotEnv layers QUIRE_* keys of a .env file above the project file. The process environment still wins
// because viper consults it before the config layer.
func (l *Loader) mergeDotEnv(v *viper.Viper, path string) error {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read dotenv file"), "path", path)
	}

	settings := make(map[string]any)
	for key, value := range env {
		name, ok := strings.CutPrefix(key, EnvPrefix+"_")
		if !ok {
			continue
		}
		name = strings.ReplaceAll(strings.ToLower(name), "_", "-")
		if !isSetting(name) {
			l.logger.Warn("unknown setting in dotenv file", "key", key, "path", path)
			continue
		}
		settings[name] = value
	}
	if len(settings) == 0 {
		return nil
	}
	if err := v.MergeConfigMap(settings); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to merge dotenv file"), "path", path)
	}
	l.logger.Debug("loaded dotenv file", "path", path)
	return nil
}

// applyVarsFlag lays key=value overrides over the configured vars. Values are decoded as YAML scalars,
// so --vars n=1 yields an int. Dotted keys address nested maps.
func applyVarsFlag(cfg *domain.Config, flags *pflag.FlagSet) error {
	f := flags.Lookup(VarsFlag)
	if f == nil || !f.Changed {
		return nil
	}
	pairs, err := flags.GetStringArray(VarsFlag)
	if err != nil {
		return zerr.Wrap(err, "failed to read vars flag")
	}
	if cfg.Vars == nil {
		cfg.Vars = make(map[string]any)
	}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "vars must be key=value"), "vars", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		setPath(cfg.Vars, strings.Split(key, "."), value)
	}
	return nil
}

func setPath(m map[string]any, path []string, value any) {
	for _, part := range path[:len(path)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[part] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func normalize(cfg *domain.Config) (*domain.Config, error) {
	input, err := filepath.Abs(cfg.Input)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve input root")
	}
	cfg.Input = input

	if !filepath.IsAbs(cfg.Output) {
		cfg.Output = filepath.Join(input, cfg.Output)
	}
	if cfg.StateFile != "" && !filepath.IsAbs(cfg.StateFile) {
		cfg.StateFile = filepath.Join(cfg.Output, cfg.StateFile)
	}
	if cfg.MetricsFile != "" && !filepath.IsAbs(cfg.MetricsFile) {
		cfg.MetricsFile = filepath.Join(cfg.Output, cfg.MetricsFile)
	}
	if cfg.VarsPreset == "" {
		cfg.VarsPreset = domain.DefaultScope
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.NumCPU()
	}
	if cfg.Vars == nil {
		cfg.Vars = make(map[string]any)
	}
	return cfg, nil
}
