package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Storage      StorageConfig
	Redis        RedisConfig
	Log          LogConfig
	App          AppConfig
	Registration RegistrationConfig
	Signature    SignatureConfig
	Cipher       CipherConfig
	Admin        AdminConfig
	Worker       WorkerConfig
	Pagination   PaginationConfig
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	ShutdownPeriod time.Duration `mapstructure:"shutdownPeriod"`
	CORSOrigins    []string      `mapstructure:"corsOrigins"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cacheTTL"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AppConfig struct {
	UTCOffsetHours int  `mapstructure:"utcOffsetHours"`
	NetworkAuth    bool `mapstructure:"networkAuth"`
}

type RegistrationConfig struct {
	TrialEnabled bool `mapstructure:"trialEnabled"`
	TrialMinutes int  `mapstructure:"trialMinutes"`
}

// SignatureConfig controls login request authentication. MaxSkew and
// ReplayGuard are off by default, which keeps the plain digest scheme.
type SignatureConfig struct {
	Secret      string        `mapstructure:"secret"`
	MaxSkew     time.Duration `mapstructure:"maxSkew"`
	ReplayGuard bool          `mapstructure:"replayGuard"`
}

type CipherConfig struct {
	DefaultKey string `mapstructure:"defaultKey"`
	DefaultIV  string `mapstructure:"defaultIV"`
}

type AdminConfig struct {
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	JWTSecret  string        `mapstructure:"jwtSecret"`
	SessionTTL time.Duration `mapstructure:"sessionTTL"`
	Debug      bool          `mapstructure:"debug"`
}

type WorkerConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ReconcileSchedule string `mapstructure:"reconcileSchedule"`
	Concurrency       int    `mapstructure:"concurrency"`
}

type PaginationConfig struct {
	DefaultPageSize int `mapstructure:"defaultPageSize"`
}

func LoadConfig(configPath string) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables and config file")
	}

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("Warning: could not read config file: %s. Error: %v\n", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8081")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownPeriod", 15*time.Second)
	v.SetDefault("server.corsOrigins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 5*time.Minute)
	v.SetDefault("database.autoMigrate", true)

	v.SetDefault("storage.driver", StorageDriverPostgres)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cacheTTL", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("app.utcOffsetHours", 8)
	v.SetDefault("app.networkAuth", true)

	v.SetDefault("registration.trialEnabled", false)
	v.SetDefault("registration.trialMinutes", 60)

	v.SetDefault("signature.secret", "rrm652gz4atq7jqc")
	v.SetDefault("signature.maxSkew", time.Duration(0))
	v.SetDefault("signature.replayGuard", false)

	v.SetDefault("cipher.defaultKey", "vqwn3p22uics8xv8")
	v.SetDefault("cipher.defaultIV", "s0Q~ioZ(AYJxyvLQ")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.jwtSecret", "")
	v.SetDefault("admin.sessionTTL", 12*time.Hour)
	v.SetDefault("admin.debug", false)

	v.SetDefault("worker.enabled", false)
	v.SetDefault("worker.reconcileSchedule", "@every 1h")
	v.SetDefault("worker.concurrency", 2)

	v.SetDefault("pagination.defaultPageSize", 20)
}
