package ports

import (
	"github.com/spf13/pflag"

	"go.trai.ch/quire/internal/core/domain"
)

// ConfigLoader assembles the run configuration from every configuration source.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load layers defaults, the project file, the environment and the changed flags of flags, in that order.
	// flags may be nil.
	Load(flags *pflag.FlagSet) (*domain.Config, error)
}
