package bundle

import (
	"github.com/craftwork-labs/minutemarket/internal/bundle/repository"
	"github.com/craftwork-labs/minutemarket/internal/bundle/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bundle.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
