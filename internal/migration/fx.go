package migration

import (
	"strings"

	"github.com/smallbiznis/folio/internal/config"
	discountdomain "github.com/smallbiznis/folio/internal/discount/domain"
	invoicedomain "github.com/smallbiznis/folio/internal/invoice/domain"
	organizationdomain "github.com/smallbiznis/folio/internal/organization/domain"
	"github.com/smallbiznis/folio/internal/seed"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL targets postgres; other dialects only appear in
		// development and take the gorm schema directly.
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&organizationdomain.Organization{},
				&taxdomain.TaxDefinition{},
				&discountdomain.Discount{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
			); err != nil {
				return err
			}
		}

		if cfg.DefaultOrgID != 0 {
			return seed.EnsureDefaultOrgWithID(conn, cfg.DefaultOrgID)
		}
		return seed.EnsureDefaultOrg(conn)
	}),
)
