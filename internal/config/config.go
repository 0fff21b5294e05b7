package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Pool     PoolConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// PoolConfig holds ticket pool engine configuration
type PoolConfig struct {
	TicketCodeLength  int // Fixed length of generated ticket codes
	ClaimMaxAttempts  int // Bounded retries for claim transaction conflicts
	ClaimBackoffMs    int // Initial backoff between claim retries, doubled per attempt
	ClaimWindowDays   int // Days a winner has to resolve a prize fulfillment
	StatsCacheSeconds int // TTL for the cached pool stats view
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; environment variables cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017/?replicaSet=rs0")
	viper.SetDefault("MongoDB.Database", "primedraws")
	viper.SetDefault("Redis.Addr", "localhost:6379")
	viper.SetDefault("Redis.Password", "")
	viper.SetDefault("Redis.DB", 0)
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("LogLevel", "info")
	viper.SetDefault("Pool.TicketCodeLength", 8)
	viper.SetDefault("Pool.ClaimMaxAttempts", 5)
	viper.SetDefault("Pool.ClaimBackoffMs", 20)
	viper.SetDefault("Pool.ClaimWindowDays", 14)
	viper.SetDefault("Pool.StatsCacheSeconds", 5)
}
