package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("ACCESS_TOKEN_SECRET", "access")

	cfg := Load()

	assert.Equal(t, 3000, cfg.ServerPort)
	assert.Equal(t, 3*time.Second, cfg.PaymentTimeout)
	assert.True(t, cfg.Production())
	assert.Equal(t, []byte("access"), cfg.AccessSecret)
	assert.Equal(t, "products", cfg.ESIndex)
}
