package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/example/roombook/internal/domain/booking"
)

type Config struct {
	ListenAddr  string
	BaseURL     string
	DatabaseURL string // empty selects the in-memory store
	RedisURL    string // empty disables the snapshot cache
	CacheTTL    time.Duration
	NATSURL     string // empty disables events

	CookieHashKey  []byte
	CookieBlockKey []byte
	ContactKey     []byte // AES key sealing grant contacts in Postgres; empty stores plaintext

	RefreshInterval time.Duration // zero disables the cache refresher

	LogLevel  string
	LogFormat string

	// booking policy
	MinParticipants       int
	MaxDurationMinutes    int
	MinDurationMinutes    int
	DailyCapMinutes       int
	WeeklyGrantCapMinutes int
	SoloWindowEnd         string
	BookingHorizonDays    int
	CheckPreviousDay      bool

	SerializeWrites bool
	FailClosedReads bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", "15s")
	v.SetDefault("nats_url", "")
	v.SetDefault("cookie_hash_key", "")
	v.SetDefault("cookie_block_key", "")
	v.SetDefault("contact_key", "")
	v.SetDefault("refresh_interval", "10s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	p := booking.DefaultPolicy()
	v.SetDefault("min_participants", p.MinParticipants)
	v.SetDefault("max_duration_minutes", p.MaxDuration)
	v.SetDefault("min_duration_minutes", p.MinDuration)
	v.SetDefault("daily_cap_minutes", p.DailyCap)
	v.SetDefault("weekly_grant_cap_minutes", p.WeeklyGrantCap)
	v.SetDefault("solo_window_end", "")
	v.SetDefault("booking_horizon_days", 21)
	v.SetDefault("check_previous_day", false)
	v.SetDefault("serialize_writes", false)
	v.SetDefault("fail_closed_reads", false)
}

// FromEnv loads .env (if present), an optional roombook.yaml, then the environment.
// Environment variables win.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("roombook")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	v.AutomaticEnv()
	return Load(v)
}

// Load builds a Config from an already populated viper instance.
func Load(v *viper.Viper) (Config, error) {
	setDefaults(v)

	cfg := Config{
		ListenAddr:  v.GetString("listen_addr"),
		BaseURL:     v.GetString("base_url"),
		DatabaseURL: v.GetString("database_url"),
		RedisURL:    v.GetString("redis_url"),
		CacheTTL:    v.GetDuration("cache_ttl"),
		NATSURL:     v.GetString("nats_url"),

		RefreshInterval: v.GetDuration("refresh_interval"),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		LogFormat:       strings.ToLower(v.GetString("log_format")),

		MinParticipants:       v.GetInt("min_participants"),
		MaxDurationMinutes:    v.GetInt("max_duration_minutes"),
		MinDurationMinutes:    v.GetInt("min_duration_minutes"),
		DailyCapMinutes:       v.GetInt("daily_cap_minutes"),
		WeeklyGrantCapMinutes: v.GetInt("weekly_grant_cap_minutes"),
		SoloWindowEnd:         strings.TrimSpace(v.GetString("solo_window_end")),
		BookingHorizonDays:    v.GetInt("booking_horizon_days"),
		CheckPreviousDay:      v.GetBool("check_previous_day"),

		SerializeWrites: v.GetBool("serialize_writes"),
		FailClosedReads: v.GetBool("fail_closed_reads"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	var err error
	if cfg.CookieHashKey, err = decodeB64(v.GetString("cookie_hash_key")); err != nil {
		return Config{}, fmt.Errorf("COOKIE_HASH_KEY: %w", err)
	}
	if cfg.CookieBlockKey, err = decodeB64(v.GetString("cookie_block_key")); err != nil {
		return Config{}, fmt.Errorf("COOKIE_BLOCK_KEY: %w", err)
	}
	if cfg.ContactKey, err = decodeB64(v.GetString("contact_key")); err != nil {
		return Config{}, fmt.Errorf("CONTACT_KEY: %w", err)
	}
	switch len(cfg.ContactKey) {
	case 0, 16, 24, 32:
	default:
		return Config{}, fmt.Errorf("CONTACT_KEY: want 16, 24 or 32 bytes, got %d", len(cfg.ContactKey))
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MinParticipants < 1 {
		return fmt.Errorf("invalid MIN_PARTICIPANTS: must be >= 1")
	}
	if c.MinDurationMinutes < 0 || c.MaxDurationMinutes < c.MinDurationMinutes {
		return fmt.Errorf("invalid MIN_DURATION_MINUTES/MAX_DURATION_MINUTES: %d/%d", c.MinDurationMinutes, c.MaxDurationMinutes)
	}
	if c.DailyCapMinutes < 0 || c.WeeklyGrantCapMinutes < 0 {
		return fmt.Errorf("caps must not be negative")
	}
	if c.BookingHorizonDays < 0 {
		return fmt.Errorf("invalid BOOKING_HORIZON_DAYS")
	}
	if c.CacheTTL < 0 || c.RefreshInterval < 0 {
		return fmt.Errorf("CACHE_TTL and REFRESH_INTERVAL must not be negative")
	}
	if c.SoloWindowEnd != "" {
		if _, err := booking.ParseClock(c.SoloWindowEnd); err != nil {
			return fmt.Errorf("invalid SOLO_WINDOW_END: %w", err)
		}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT %q: want text or json", c.LogFormat)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// Policy maps the policy keys onto the validator configuration.
func (c Config) Policy() booking.Policy {
	p := booking.Policy{
		MinParticipants:  c.MinParticipants,
		MaxDuration:      c.MaxDurationMinutes,
		MinDuration:      c.MinDurationMinutes,
		DailyCap:         c.DailyCapMinutes,
		WeeklyGrantCap:   c.WeeklyGrantCapMinutes,
		CheckPreviousDay: c.CheckPreviousDay,
	}
	if c.SoloWindowEnd != "" {
		p.SoloWindowEnd, _ = booking.ParseClock(c.SoloWindowEnd)
	}
	return p
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		l.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// decodeB64 accepts the key itself or a path to a file holding it (k8s secret mounts).
// An empty value decodes to nil.
func decodeB64(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if b, err := os.ReadFile(s); err == nil {
		s = string(b)
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}
