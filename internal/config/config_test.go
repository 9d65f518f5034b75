package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	content := `
server:
  port: 8080

mysql:
  host: localhost
  port: 3306
  user: root
  database: crowdfund

kafka:
  brokers:
    - localhost:9092
  topic:
    transfer_request: transfer.request
    fund_event: fund.event

business:
  manager: ops.admin
  platform_address: ops.treasury
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := LoadConfig(path)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "crowdfund", cfg.MySQL.Database)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "transfer.request", cfg.Kafka.Topic.TransferRequest)

	// 显式配置覆盖默认值
	assert.Equal(t, "ops.admin", cfg.Business.Manager)
	assert.Equal(t, "ops.treasury", cfg.Business.PlatformAddress)

	// 未写的业务项落到默认值
	assert.Equal(t, 3, cfg.Business.MaxRetryCount)
	assert.Equal(t, 60, cfg.Business.ReconcileIntervalSeconds)
}
