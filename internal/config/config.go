// Package config は環境変数ベースのアプリケーション設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge        int
	SessionPurgeInterval time.Duration

	// Notification
	WebhookURLs    []string
	WebhookTimeout time.Duration

	// Scheduled tasks
	ExpiryWindowDays int
	CleanupHourUTC   int
	ReportWeekday    time.Weekday
	ReportHourUTC    int

	// Registrar sync
	RegistrarAPIKey       string
	RegistrarSecretKey    string
	RegistrarSyncInterval time.Duration

	// Mailer
	SuppressEmails bool
	SMTPAddr       string
	SMTPFrom       string
	ReportEmailTo  string

	// Rate Limit
	RateLimitGeneral int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionPurgeInterval = getEnvDuration("SESSION_PURGE_INTERVAL", time.Hour)
	cfg.WebhookURLs = getEnvStringList("WEBHOOK_URLS")
	cfg.WebhookTimeout = getEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second)
	cfg.ExpiryWindowDays = getEnvInt("EXPIRY_WINDOW_DAYS", 30)
	cfg.CleanupHourUTC = getEnvInt("CLEANUP_HOUR_UTC", 2)
	cfg.ReportWeekday = getEnvWeekday("REPORT_WEEKDAY", time.Friday)
	cfg.ReportHourUTC = getEnvInt("REPORT_HOUR_UTC", 8)
	cfg.RegistrarAPIKey = os.Getenv("REGISTRAR_API_KEY")
	cfg.RegistrarSecretKey = os.Getenv("REGISTRAR_SECRET_KEY")
	cfg.RegistrarSyncInterval = getEnvDuration("REGISTRAR_SYNC_INTERVAL", 6*time.Hour)
	cfg.SuppressEmails = getEnvBool("SUPPRESS_EMAILS", true)
	cfg.SMTPAddr = getEnvString("SMTP_ADDR", "")
	cfg.SMTPFrom = getEnvString("SMTP_FROM", "")
	cfg.ReportEmailTo = getEnvString("REPORT_EMAIL_TO", "")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.CleanupHourUTC < 0 || cfg.CleanupHourUTC > 23 {
		return nil, fmt.Errorf("CLEANUP_HOUR_UTC must be between 0 and 23: %d", cfg.CleanupHourUTC)
	}
	if cfg.ReportHourUTC < 0 || cfg.ReportHourUTC > 23 {
		return nil, fmt.Errorf("REPORT_HOUR_UTC must be between 0 and 23: %d", cfg.ReportHourUTC)
	}
	if cfg.ExpiryWindowDays <= 0 {
		return nil, fmt.Errorf("EXPIRY_WINDOW_DAYS must be positive: %d", cfg.ExpiryWindowDays)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvStringList はカンマ区切りの環境変数を空白を除去したスライスとして返す。
// 空要素は除外する。
func getEnvStringList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var list []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			list = append(list, s)
		}
	}
	return list
}

// getEnvWeekday は曜日名（英語、先頭3文字以上）の環境変数を解釈する。
// 解釈できない場合はデフォルト値を返す。
func getEnvWeekday(key string, defaultVal time.Weekday) time.Weekday {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	weekdays := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	for name, wd := range weekdays {
		if v == name || (len(v) >= 3 && strings.HasPrefix(name, v)) {
			return wd
		}
	}
	return defaultVal
}
