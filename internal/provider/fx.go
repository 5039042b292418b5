package provider

import (
	"github.com/craftwork-labs/minutemarket/internal/provider/repository"
	"github.com/craftwork-labs/minutemarket/internal/provider/service"
	"go.uber.org/fx"
)

var Module = fx.Module("provider.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
