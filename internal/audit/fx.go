package audit

import (
	"github.com/craftwork-labs/minutemarket/internal/audit/repository"
	"github.com/craftwork-labs/minutemarket/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
