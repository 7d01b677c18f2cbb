package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "moneytracker-transactions-worker", cfg.Consumer.Group)
	assert.Equal(t, "transaction.created", cfg.Topics.TransactionCreated)
	assert.Equal(t, "transaction.created.dlq", cfg.Topics.DeadLetter)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, BrokerRabbitMQ, cfg.Broker.Driver)
	assert.Contains(t, cfg.Database.URL, "moneytracker:secret@localhost:5432")
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BROKER_DRIVER", "redis")
	t.Setenv("CONSUMER_CONCURRENCY", "4")
	t.Setenv("CONSUMER_POLL_TIMEOUT", "3")
	t.Setenv("CONSUMER_INITIAL_BACKOFF", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BrokerRedis, cfg.Broker.Driver)
	assert.Equal(t, 4, cfg.Consumer.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.Consumer.PollTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Consumer.InitialBackoff)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("BROKER_DRIVER", "kafka")
	t.Setenv("CONSUMER_CONCURRENCY", "0")
	t.Setenv("TOPIC_DEAD_LETTER", "transaction.created")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"STORAGE_DRIVER", "BROKER_DRIVER", "CONSUMER_CONCURRENCY", "TOPIC_DEAD_LETTER"} {
		assert.Contains(t, err.Error(), key)
	}
}
