package ledger

import (
	"github.com/craftwork-labs/minutemarket/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(service.NewService),
)
