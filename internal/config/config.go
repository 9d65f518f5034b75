package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	TransferRequest string `mapstructure:"transfer_request"`
	FundEvent       string `mapstructure:"fund_event"`
}

// BusinessConfig 业务配置
//
// Manager 和 PlatformAddress 是两个固定身份：前者是唯一有权执行
// 管理操作（建/删活动、冻结、退款、结算、平台提款）的管理员，
// 后者是平台资金提取的收款地址。部署后不提供任何修改入口
type BusinessConfig struct {
	Manager                  string `mapstructure:"manager"`
	PlatformAddress          string `mapstructure:"platform_address"`
	MaxRetryCount            int    `mapstructure:"max_retry_count"`
	ReconcileIntervalSeconds int    `mapstructure:"reconcile_interval_seconds"`
}

var GlobalConfig *Config

// LoadConfig 加载配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("business.manager", "fund.manager")
	viper.SetDefault("business.platform_address", "platform.treasury")
	viper.SetDefault("business.max_retry_count", 3)
	viper.SetDefault("business.reconcile_interval_seconds", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	GlobalConfig = config
	return config
}
