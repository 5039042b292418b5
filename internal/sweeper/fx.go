package sweeper

import (
	"github.com/craftwork-labs/minutemarket/internal/sweeper/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sweeper.service",
	fx.Provide(service.NewService),
)
