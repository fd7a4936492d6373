package tax

import (
	"github.com/smallbiznis/folio/internal/tax/repository"
	"github.com/smallbiznis/folio/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(service.NewResolver),
)
