package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"TTT_LOG_LEVEL" env-default:"info"`
	HTTPPort   string  `yaml:"http-port" env:"TTT_HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"TTT_SOCKET_PORT" env-default:"8080"`
	Storage    Storage `yaml:"storage"`
	Redis      Redis   `yaml:"redis"`
	Bot        Bot     `yaml:"bot"`
}

type Storage struct {
	Driver     string        `yaml:"driver" env:"TTT_STORAGE_DRIVER" env-default:"memory"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"TTT_SESSION_TTL" env-default:"1h"`
}

type Redis struct {
	Host string `yaml:"host" env:"TTT_REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"TTT_REDIS_PORT" env-default:"6379"`
}

// Bot controls the reply the websocket server schedules after a human move in AI mode.
// DisableAutoReply leaves AI requests to the client.
type Bot struct {
	ReplyDelay       time.Duration `yaml:"reply-delay" env:"TTT_BOT_REPLY_DELAY" env-default:"500ms"`
	DisableAutoReply bool          `yaml:"disable-auto-reply" env:"TTT_BOT_DISABLE_AUTO_REPLY"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
