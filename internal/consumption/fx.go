package consumption

import (
	"github.com/craftwork-labs/minutemarket/internal/consumption/repository"
	"github.com/craftwork-labs/minutemarket/internal/consumption/service"
	"go.uber.org/fx"
)

var Module = fx.Module("consumption.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
