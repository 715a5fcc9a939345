package payments

import (
	"context"
	"testing"
	"unicode/utf8"

	"ticketbooth/internal/shared/config"
	"ticketbooth/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyRegistry() *Registry {
	return NewRegistry(&config.Config{}, logger.New())
}

func TestRegistryResolvesKnownMethods(t *testing.T) {
	registry := emptyRegistry()

	cases := map[int]string{
		MethodPayPal:    "paypal",
		MethodBillplz:   "billplz",
		MethodCard:      "stripe",
		MethodToyyibPay: "toyyibpay",
	}
	for method, name := range cases {
		adapter := registry.Resolve(method)
		require.NotNil(t, adapter, "method %d", method)
		assert.Equal(t, name, adapter.Name())
	}
}

func TestRegistryUnknownMethod(t *testing.T) {
	registry := emptyRegistry()

	assert.Nil(t, registry.Resolve(0))
	assert.Nil(t, registry.Resolve(99))
}

func TestUnconfiguredAdaptersRefuseToCharge(t *testing.T) {
	// Adapters stay registered without secrets so the orchestrator can map
	// the failure to a generic message instead of a routing error.
	registry := emptyRegistry()
	order := Order{CommonOrder: "175000000042", Amount: 10}

	for _, method := range []int{MethodPayPal, MethodBillplz, MethodCard, MethodToyyibPay} {
		adapter := registry.Resolve(method)
		_, err := adapter.CreatePayment(context.Background(), order, "USD", Customer{Name: "a", Email: "a@b.c"})
		assert.ErrorIs(t, err, ErrConfigMissing, "method %d", method)

		_, err = adapter.VerifyStatus(context.Background(), "ref")
		assert.ErrorIs(t, err, ErrConfigMissing, "method %d", method)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 30))

	// A multi-byte title at the limit must not be cut mid rune.
	title := "Fête de la Musique — Köln Açık Hava Konseri"
	cut := truncate(title, 30)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 30, len([]rune(cut)))
}
