package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type WorkerConfig struct {
	Port                 string `yaml:"port"`
	SweepIntervalMinutes int    `yaml:"sweep_interval_minutes"`
}

// EngineConfig carries the pacing engine thresholds. The defaults mirror the
// hand-tuned reference values; they are configuration, not inherent constants.
type EngineConfig struct {
	BehindScheduleRatio     float64 `yaml:"behind_schedule_ratio"`
	SeverityHighRatio       float64 `yaml:"severity_high_ratio"`
	StressAdjustThreshold   float64 `yaml:"stress_adjust_threshold"`
	StressMajorThreshold    float64 `yaml:"stress_major_threshold"`
	StressModerateThreshold float64 `yaml:"stress_moderate_threshold"`
	StressExtremeThreshold  float64 `yaml:"stress_extreme_threshold"`
	ForecastCacheTTLSeconds int     `yaml:"forecast_cache_ttl_seconds"`
	BehaviorLogCapacity     int     `yaml:"behavior_log_capacity"`
}

type Config struct {
	DB     DBConfig     `yaml:"db"`
	MQ     MQConfig     `yaml:"mq"`
	Redis  RedisConfig  `yaml:"redis"`
	Server ServerConfig `yaml:"server"`
	Worker WorkerConfig `yaml:"worker"`
	Engine EngineConfig `yaml:"engine"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BehindScheduleRatio:     0.3,
		SeverityHighRatio:       0.6,
		StressAdjustThreshold:   0.6,
		StressMajorThreshold:    0.7,
		StressModerateThreshold: 0.5,
		StressExtremeThreshold:  0.8,
		ForecastCacheTTLSeconds: 300,
		BehaviorLogCapacity:     200,
	}
}

func Load() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode %s: %v", path, err)
	}

	applyEngineDefaults(&cfg.Engine)
	if cfg.Worker.SweepIntervalMinutes <= 0 {
		cfg.Worker.SweepIntervalMinutes = 15
	}

	overrideFromEnv(&cfg)

	return &cfg
}

func applyEngineDefaults(cfg *EngineConfig) {
	def := DefaultEngineConfig()
	if cfg.BehindScheduleRatio <= 0 {
		cfg.BehindScheduleRatio = def.BehindScheduleRatio
	}
	if cfg.SeverityHighRatio <= 0 {
		cfg.SeverityHighRatio = def.SeverityHighRatio
	}
	if cfg.StressAdjustThreshold <= 0 {
		cfg.StressAdjustThreshold = def.StressAdjustThreshold
	}
	if cfg.StressMajorThreshold <= 0 {
		cfg.StressMajorThreshold = def.StressMajorThreshold
	}
	if cfg.StressModerateThreshold <= 0 {
		cfg.StressModerateThreshold = def.StressModerateThreshold
	}
	if cfg.StressExtremeThreshold <= 0 {
		cfg.StressExtremeThreshold = def.StressExtremeThreshold
	}
	if cfg.ForecastCacheTTLSeconds <= 0 {
		cfg.ForecastCacheTTLSeconds = def.ForecastCacheTTLSeconds
	}
	if cfg.BehaviorLogCapacity <= 0 {
		cfg.BehaviorLogCapacity = def.BehaviorLogCapacity
	}
}

// overrideFromEnv applies environment variable overrides for deployments.
func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if port := os.Getenv("WORKER_PORT"); port != "" {
		cfg.Worker.Port = port
	}
}
