//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/ouija/woocommerce-gateway-payza/internal/app"
)

func InitializeApp() (*app.App, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		InfraSet,
		RepositorySet,
		GatewaySet,
		ServiceSet,
		HTTPSet,
		AppSet,
	))
}

func InitializeMigrationRunner() (*MigrationRunner, error) {
	panic(wire.Build(
		ConfigSet,
		provideDB,
		NewMigrationRunner,
	))
}
