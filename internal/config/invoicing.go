package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InvoicingConfig is the hot-reloadable policy for the document engine.
type InvoicingConfig struct {
	// StrictReferences turns an unresolved tax or discount reference into a
	// validation error instead of silently applying no tax/discount.
	StrictReferences bool `mapstructure:"strictReferences"`

	// DefaultDueDays sets the due date offset applied at finalize.
	DefaultDueDays int `mapstructure:"defaultDueDays"`

	// PaymentLinkReturnURL is passed to the payment-link issuer.
	PaymentLinkReturnURL string `mapstructure:"paymentLinkReturnUrl"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		StrictReferences: false,
		DefaultDueDays:   30,
	}
}

// InvoicingConfigHolder exposes the current engine policy. Reads are
// lock-free; the watcher swaps the whole value on file change.
type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

func NewInvoicingConfigHolder() (*InvoicingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/folio/config")
	v.AddConfigPath("/etc/folio")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		defaults := DefaultInvoicingConfig()
		v.SetDefault("invoicing.strictReferences", defaults.StrictReferences)
		v.SetDefault("invoicing.defaultDueDays", defaults.DefaultDueDays)
		v.SetDefault("invoicing.paymentLinkReturnUrl", defaults.PaymentLinkReturnURL)
	}

	var cfg InvoicingConfig
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoicingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		var next InvoicingConfig
		if err := v.UnmarshalKey("invoicing", &next); err != nil {
			log.Printf("invoicing config reload failed: %v", err)
			return
		}
		if err := validateInvoicingConfig(next); err != nil {
			log.Printf("invoicing config reload rejected: %v", err)
			return
		}
		holder.current.Store(next)
	})

	return holder, nil
}

// Current returns the active engine policy.
func (h *InvoicingConfigHolder) Current() InvoicingConfig {
	if h == nil {
		return DefaultInvoicingConfig()
	}
	if cfg, ok := h.current.Load().(InvoicingConfig); ok {
		return cfg
	}
	return DefaultInvoicingConfig()
}

// Store replaces the active policy. Exposed for tests.
func (h *InvoicingConfigHolder) Store(cfg InvoicingConfig) {
	h.current.Store(cfg)
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if cfg.DefaultDueDays < 0 {
		return errors.New("invoicing.defaultDueDays must not be negative")
	}
	return nil
}
