package creditlot

import (
	"github.com/craftwork-labs/minutemarket/internal/creditlot/repository"
	"github.com/craftwork-labs/minutemarket/internal/creditlot/service"
	"go.uber.org/fx"
)

var Module = fx.Module("creditlot.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
