package discount

import (
	"github.com/smallbiznis/folio/internal/discount/repository"
	"github.com/smallbiznis/folio/internal/discount/service"
	"go.uber.org/fx"
)

var Module = fx.Module("discount",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(service.NewResolver),
)
