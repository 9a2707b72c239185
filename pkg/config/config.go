package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	DB      DBConfig      `mapstructure:"db"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	MQ      MQConfig      `mapstructure:"mq"`
	Chain   ChainConfig   `mapstructure:"chain"`
	Monitor MonitorConfig `mapstructure:"monitor"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

type MQConfig struct {
	Backend string `mapstructure:"backend"` // "redis" or "kafka"
	Topic   string `mapstructure:"topic"`
}

type ChainConfig struct {
	RpcUrl                string `mapstructure:"rpc_url"`
	WsUrl                 string `mapstructure:"ws_url"`
	ChainID               int64  `mapstructure:"chain_id"`
	RequiredConfirmations int    `mapstructure:"required_confirmations"`
	BlockTimeSeconds      int    `mapstructure:"block_time_seconds"`
}

type MonitorConfig struct {
	ConfirmInterval time.Duration `mapstructure:"confirm_interval"`
	ReorgInterval   time.Duration `mapstructure:"reorg_interval"`
	ReorgBatchSize  int           `mapstructure:"reorg_batch_size"`
	SnapshotRefresh time.Duration `mapstructure:"snapshot_refresh"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
}

var Global Config

func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error reading config file: %s", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode config into struct: %v", err)
	}

	log.Printf("Configuration loaded. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "deposit_user")
	viper.SetDefault("db.password", "deposit_password")
	viper.SetDefault("db.name", "deposit_db")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})

	viper.SetDefault("mq.backend", "redis")
	viper.SetDefault("mq.topic", "deposit_events")

	viper.SetDefault("chain.rpc_url", "http://localhost:8545")
	viper.SetDefault("chain.ws_url", "ws://localhost:8546")
	viper.SetDefault("chain.chain_id", 11155111) // Sepolia
	viper.SetDefault("chain.required_confirmations", 12)
	viper.SetDefault("chain.block_time_seconds", 12)

	viper.SetDefault("monitor.confirm_interval", 15*time.Second)
	viper.SetDefault("monitor.reorg_interval", 60*time.Second)
	viper.SetDefault("monitor.reorg_batch_size", 100)
	viper.SetDefault("monitor.snapshot_refresh", 5*time.Minute)
	viper.SetDefault("monitor.retry_backoff", 5*time.Second)
}
