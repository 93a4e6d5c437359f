package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Optimizer OptimizerConfig
	Annealing AnnealingConfig
	Fallback  FallbackConfig
	Overlay   OverlayConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// OptimizerConfig describes the external optimizing service. Endpoints are
// tried in order; the first reachable one wins.
type OptimizerConfig struct {
	Enabled   bool
	Endpoints []string
	Timeout   time.Duration
}

// AnnealingConfig carries the default tunables for the annealing allocator.
type AnnealingConfig struct {
	MaxIterations         int
	InitialTemperature    float64
	CoolingRate           float64
	TunnelingProbability  float64
	AccessibilityPriority bool
	Seed                  int64
}

// FallbackConfig carries the constraint configuration for the deterministic
// fallback allocator.
type FallbackConfig struct {
	ActiveDays          []int
	OnlineDays          []int
	LunchMode           string
	LunchStart          string
	LunchEnd            string
	StrictRoomTypes     bool
	MaxClassesPerDay    int
	MinCourseDayGap     int
	MaxConsecutiveHours int
	AllowSplitSessions  bool
	NightThreshold      string
	LateStartThreshold  string
}

// OverlayConfig tunes the live weekly overlay layer.
type OverlayConfig struct {
	RenderCacheTTL      time.Duration
	NotificationChannel string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Optimizer = OptimizerConfig{
		Enabled:   v.GetBool("OPTIMIZER_ENABLED"),
		Endpoints: splitAndTrim(v.GetString("OPTIMIZER_ENDPOINTS")),
		Timeout:   parseDuration(v.GetString("OPTIMIZER_TIMEOUT"), 10*time.Second),
	}

	cfg.Annealing = AnnealingConfig{
		MaxIterations:         v.GetInt("ANNEALING_MAX_ITERATIONS"),
		InitialTemperature:    v.GetFloat64("ANNEALING_INITIAL_TEMPERATURE"),
		CoolingRate:           v.GetFloat64("ANNEALING_COOLING_RATE"),
		TunnelingProbability:  v.GetFloat64("ANNEALING_TUNNELING_PROBABILITY"),
		AccessibilityPriority: v.GetBool("ANNEALING_ACCESSIBILITY_PRIORITY"),
		Seed:                  v.GetInt64("ANNEALING_SEED"),
	}

	cfg.Fallback = FallbackConfig{
		ActiveDays:          parseDayList(v.GetString("FALLBACK_ACTIVE_DAYS")),
		OnlineDays:          parseDayList(v.GetString("FALLBACK_ONLINE_DAYS")),
		LunchMode:           v.GetString("FALLBACK_LUNCH_MODE"),
		LunchStart:          v.GetString("FALLBACK_LUNCH_START"),
		LunchEnd:            v.GetString("FALLBACK_LUNCH_END"),
		StrictRoomTypes:     v.GetBool("FALLBACK_STRICT_ROOM_TYPES"),
		MaxClassesPerDay:    v.GetInt("FALLBACK_MAX_CLASSES_PER_DAY"),
		MinCourseDayGap:     v.GetInt("FALLBACK_MIN_COURSE_DAY_GAP"),
		MaxConsecutiveHours: v.GetInt("FALLBACK_MAX_CONSECUTIVE_HOURS"),
		AllowSplitSessions:  v.GetBool("FALLBACK_ALLOW_SPLIT_SESSIONS"),
		NightThreshold:      v.GetString("FALLBACK_NIGHT_THRESHOLD"),
		LateStartThreshold:  v.GetString("FALLBACK_LATE_START_THRESHOLD"),
	}

	cfg.Overlay = OverlayConfig{
		RenderCacheTTL:      parseDuration(v.GetString("OVERLAY_RENDER_CACHE_TTL"), 5*time.Minute),
		NotificationChannel: v.GetString("OVERLAY_NOTIFICATION_CHANNEL"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OPTIMIZER_ENABLED", true)
	v.SetDefault("OPTIMIZER_ENDPOINTS", "")
	v.SetDefault("OPTIMIZER_TIMEOUT", "10s")

	v.SetDefault("ANNEALING_MAX_ITERATIONS", 2000)
	v.SetDefault("ANNEALING_INITIAL_TEMPERATURE", 100.0)
	v.SetDefault("ANNEALING_COOLING_RATE", 0.995)
	v.SetDefault("ANNEALING_TUNNELING_PROBABILITY", 0.02)
	v.SetDefault("ANNEALING_ACCESSIBILITY_PRIORITY", false)
	v.SetDefault("ANNEALING_SEED", 0)

	v.SetDefault("FALLBACK_ACTIVE_DAYS", "1,2,3,4,5")
	v.SetDefault("FALLBACK_ONLINE_DAYS", "")
	v.SetDefault("FALLBACK_LUNCH_MODE", "fixed")
	v.SetDefault("FALLBACK_LUNCH_START", "12:00")
	v.SetDefault("FALLBACK_LUNCH_END", "13:00")
	v.SetDefault("FALLBACK_STRICT_ROOM_TYPES", true)
	v.SetDefault("FALLBACK_MAX_CLASSES_PER_DAY", 4)
	v.SetDefault("FALLBACK_MIN_COURSE_DAY_GAP", 2)
	v.SetDefault("FALLBACK_MAX_CONSECUTIVE_HOURS", 5)
	v.SetDefault("FALLBACK_ALLOW_SPLIT_SESSIONS", true)
	v.SetDefault("FALLBACK_NIGHT_THRESHOLD", "19:00")
	v.SetDefault("FALLBACK_LATE_START_THRESHOLD", "10:00")

	v.SetDefault("OVERLAY_RENDER_CACHE_TTL", "5m")
	v.SetDefault("OVERLAY_NOTIFICATION_CHANNEL", "notify:absences")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func parseDayList(raw string) []int {
	var days []int
	for _, part := range splitAndTrim(raw) {
		switch part {
		case "1", "2", "3", "4", "5", "6", "7":
			days = append(days, int(part[0]-'0'))
		}
	}
	return days
}
