package organization

import (
	"github.com/craftwork-labs/minutemarket/internal/organization/repository"
	"github.com/craftwork-labs/minutemarket/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
