package balance

import (
	"github.com/craftwork-labs/minutemarket/internal/balance/repository"
	"github.com/craftwork-labs/minutemarket/internal/balance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("balance.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
