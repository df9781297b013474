package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go.trai.ch/quire/internal/adapters/config"
	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports/mocks"
)

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	return config.NewLoader(log)
}

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := newLoader(t).Load(parseFlags(t, "--input", dir))
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Input)
	assert.Equal(t, filepath.Join(dir, "build"), cfg.Output)
	assert.Equal(t, filepath.Join(dir, "build", ".quire", "state.json"), cfg.StateFile)
	assert.Equal(t, domain.DefaultScope, cfg.VarsPreset)
	assert.Equal(t, runtime.NumCPU(), cfg.Parallelism)
	assert.False(t, cfg.Strict)
	assert.Empty(t, cfg.MetricsFile)
	assert.NotNil(t, cfg.Vars)
}

func TestLoad_ProjectFileThenFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, domain.ConfigFileName), `
output: site
vars-preset: internal
strict: true
parallelism: 3
ignore: ["drafts/**"]
vars:
  Title: Handbook
  nested:
    keep: 1
`)

	cfg, err := newLoader(t).Load(parseFlags(t, "-i", dir, "-j", "5", "--vars", "nested.added=true"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "site"), cfg.Output)
	assert.Equal(t, "internal", cfg.VarsPreset)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 5, cfg.Parallelism)
	assert.Equal(t, []string{"drafts/**"}, cfg.Ignore)
	assert.Equal(t, map[string]any{
		"Title":  "Handbook",
		"nested": map[string]any{"keep": 1, "added": true},
	}, cfg.Vars)
}

func TestLoad_EnvironmentLayers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, domain.ConfigFileName), "vars-preset: from-file\noutput: from-file\n")
	writeFile(t, filepath.Join(dir, config.DotEnvFile), "QUIRE_VARS_PRESET=from-dotenv\nQUIRE_OUTPUT=from-dotenv\nOTHER=1\n")
	t.Setenv("QUIRE_OUTPUT", "from-env")

	cfg, err := newLoader(t).Load(parseFlags(t, "-i", dir))
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.VarsPreset)
	assert.Equal(t, filepath.Join(dir, "from-env"), cfg.Output)
}

func TestLoad_FlagBeatsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUIRE_VARS_PRESET", "from-env")

	cfg, err := newLoader(t).Load(parseFlags(t, "-i", dir, "--vars-preset", "from-flag"))
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.VarsPreset)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, domain.ConfigFileName), "outptu: typo\n")

	_, err := newLoader(t).Load(parseFlags(t, "-i", dir))
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad_InvalidVarsFlag(t *testing.T) {
	dir := t.TempDir()

	_, err := newLoader(t).Load(parseFlags(t, "-i", dir, "--vars", "novalue"))
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad_VarsFlagScalars(t *testing.T) {
	dir := t.TempDir()

	cfg, err := newLoader(t).Load(parseFlags(t, "-i", dir, "--vars", "n=1", "--vars", "s=hello world", "--vars", "empty="))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 1, "s": "hello world", "empty": ""}, cfg.Vars)
}
