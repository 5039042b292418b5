package order

import (
	"github.com/craftwork-labs/minutemarket/internal/order/repository"
	"github.com/craftwork-labs/minutemarket/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
