package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("CACHE_DRIVER", "noop")
	t.Setenv("MESSAGING_ENABLED", "false")

	cfg, err := New()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.True(t, decimal.RequireFromString("0.15").Equal(cfg.Commission.JuniorRate))
	assert.True(t, decimal.RequireFromString("0.20").Equal(cfg.Commission.MainRate))
	assert.True(t, decimal.RequireFromString("0.10").Equal(cfg.Commission.RushBonusRate))
	assert.Equal(t, "@every 5m", cfg.Jobs.DeadlineSweepSchedule)
	assert.Equal(t, "X-User-ID", cfg.Auth.UserHeader)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.Equal(t, 1.0, cfg.Observability.TraceSampling)
}

func TestNew_TraceSampling(t *testing.T) {
	t.Setenv("CACHE_DRIVER", "noop")

	t.Setenv("OBS_TRACE_SAMPLING", "0.25")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Observability.TraceSampling)

	t.Setenv("OBS_TRACE_SAMPLING", "1.5")
	_, err = New()
	assert.Error(t, err)
}

func TestNew_CommissionOverrides(t *testing.T) {
	t.Setenv("CACHE_DRIVER", "noop")
	t.Setenv("COMMISSION_JUNIOR_RATE", "0.12")

	cfg, err := New()

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.12").Equal(cfg.Commission.JuniorRate))
}

func TestNew_RejectsMalformedCommission(t *testing.T) {
	t.Setenv("COMMISSION_MAIN_RATE", "twenty percent")

	_, err := New()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMMISSION_MAIN_RATE")
}

func TestNew_MessagingDrivers(t *testing.T) {
	t.Run("should accept rabbitmq", func(t *testing.T) {
		t.Setenv("MESSAGING_DRIVER", "rabbitmq")
		t.Setenv("RABBITMQ_PREFETCH", "0")

		cfg, err := New()

		require.NoError(t, err)
		assert.Equal(t, "rabbitmq", cfg.Messaging.Driver)
		assert.Equal(t, 1, cfg.Messaging.RabbitMQ.Prefetch)
	})

	t.Run("should reject unknown drivers", func(t *testing.T) {
		t.Setenv("MESSAGING_DRIVER", "carrier-pigeon")

		_, err := New()

		assert.Error(t, err)
	})
}

func TestGetEnvAsStringSlice(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")

	assert.Equal(t, []string{"a:9092", "b:9092"}, getEnvAsStringSlice("KAFKA_BROKERS", nil))
	assert.Equal(t, []string{"x"}, getEnvAsStringSlice("MISSING_BROKERS", []string{"x"}))
}
