package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoicingConfigHolderDefaults(t *testing.T) {
	var holder *InvoicingConfigHolder

	cfg := holder.Current()
	assert.False(t, cfg.StrictReferences)
	assert.Equal(t, 30, cfg.DefaultDueDays)
}

func TestInvoicingConfigHolderStore(t *testing.T) {
	holder := &InvoicingConfigHolder{}
	holder.Store(InvoicingConfig{StrictReferences: true, DefaultDueDays: 14})

	cfg := holder.Current()
	assert.True(t, cfg.StrictReferences)
	assert.Equal(t, 14, cfg.DefaultDueDays)
}

func TestValidateInvoicingConfig(t *testing.T) {
	require.NoError(t, validateInvoicingConfig(DefaultInvoicingConfig()))
	assert.Error(t, validateInvoicingConfig(InvoicingConfig{DefaultDueDays: -1}))
}
