package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string   `mapstructure:"http_address"`
	RPCAddress     string   `mapstructure:"rpc_address"`
	HealthAddress  string   `mapstructure:"health_address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimit      float64  `mapstructure:"rate_limit"`
	RateBurst      int      `mapstructure:"rate_burst"`
	// Heartbeat 客户端超过两个心跳周期无消息即断开
	Heartbeat time.Duration `mapstructure:"heartbeat"`
	SendQueue int           `mapstructure:"send_queue"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type GameConfig struct {
	WordFile        string        `mapstructure:"word_file"`
	DefaultDuration int           `mapstructure:"default_duration"`
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	IdleRoomTTL     time.Duration `mapstructure:"idle_room_ttl"`
	RoomCodeLength  int           `mapstructure:"room_code_length"`
}

type DatabaseConfig struct {
	// Driver 取值: memory, postgres (lib/pq), gorm
	Driver        string         `mapstructure:"driver"`
	HistoryBuffer int            `mapstructure:"history_buffer"`
	Postgres      PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":9090")
	v.SetDefault("server.health_address", ":9091")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.heartbeat", 30*time.Second)
	v.SetDefault("server.send_queue", 256)

	v.SetDefault("log.level", "info")

	v.SetDefault("game.word_file", "words.txt")
	v.SetDefault("game.default_duration", 60)
	v.SetDefault("game.tick_interval", time.Second)
	v.SetDefault("game.idle_room_ttl", time.Duration(0))
	v.SetDefault("game.room_code_length", 6)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.history_buffer", 256)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "werewords")
}

// LoadConfig reads config.yaml from path when it exists and overlays
// WEREWORDS_* environment variables, e.g. WEREWORDS_SERVER_HTTP_ADDRESS.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("werewords")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
