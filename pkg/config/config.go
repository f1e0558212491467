package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the strictly-typed process configuration. It is loaded exactly
// once at startup and passed explicitly to every component that needs it.
// No module-level state, no untyped passthrough.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AuthCode  AuthCodeConfig
	RateLimit RateLimitConfig
	Tenant    TenantConfig
	Social    SocialConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins string
	LogLevel    string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns the host:port address of the redis server.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type AuthCodeConfig struct {
	// Pepper is the server-side key mixed into the authorization-code hash.
	// Raw codes are never persisted.
	Pepper string
	TTL    time.Duration
}

type RateLimitConfig struct {
	// Requests allowed per window for the guarded mutation endpoints
	// (create-organisation, add-member, create-team).
	Limit  int
	Window time.Duration
}

// SocialConfig maps social-login provider names to their userinfo endpoints.
type SocialConfig struct {
	// Providers is parsed from SOCIAL_PROVIDERS, a comma-separated list of
	// name=url pairs.
	Providers map[string]string
}

// TenantConfig carries the per-domain defaults served by the static domain
// config resolver: feature flags, capacity limits and the org-role allow-list.
type TenantConfig struct {
	MultiTenantEnabled bool
	GroupsEnabled      bool

	MaxOrgMembers   int
	MaxTeams        int
	MaxTeamMembers  int
	MaxGroups       int
	MaxGroupMembers int
	MaxTeamsPerUser int

	// AllowedOrgRoles always contains "owner"; Load enforces it.
	AllowedOrgRoles []string
}

// Load reads the full configuration from the environment.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "idforge"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "idforge"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Issuer: getEnv("JWT_ISSUER", "idforge"),
			TTL:    getEnvDuration("JWT_TTL", 15*time.Minute),
		},
		AuthCode: AuthCodeConfig{
			Pepper: getEnv("AUTH_CODE_PEPPER", ""),
			TTL:    getEnvDuration("AUTH_CODE_TTL", time.Minute),
		},
		RateLimit: RateLimitConfig{
			Limit:  getEnvInt("RATE_LIMIT", 30),
			Window: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Tenant: TenantConfig{
			MultiTenantEnabled: getEnvBool("TENANT_MULTI_TENANT_ENABLED", true),
			GroupsEnabled:      getEnvBool("TENANT_GROUPS_ENABLED", false),
			MaxOrgMembers:      getEnvInt("TENANT_MAX_ORG_MEMBERS", 100),
			MaxTeams:           getEnvInt("TENANT_MAX_TEAMS", 50),
			MaxTeamMembers:     getEnvInt("TENANT_MAX_TEAM_MEMBERS", 100),
			MaxGroups:          getEnvInt("TENANT_MAX_GROUPS", 25),
			MaxGroupMembers:    getEnvInt("TENANT_MAX_GROUP_MEMBERS", 100),
			MaxTeamsPerUser:    getEnvInt("TENANT_MAX_TEAMS_PER_USER", 25),
			AllowedOrgRoles:    getEnvStringSlice("TENANT_ALLOWED_ORG_ROLES", []string{"owner", "admin", "member"}),
		},
		Social: SocialConfig{
			Providers: getEnvStringMap("SOCIAL_PROVIDERS"),
		},
	}

	// The reserved owner role must always be a legal org role.
	if !contains(cfg.Tenant.AllowedOrgRoles, "owner") {
		cfg.Tenant.AllowedOrgRoles = append(cfg.Tenant.AllowedOrgRoles, "owner")
	}

	return cfg
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvStringMap(key string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(os.Getenv(key), ",") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && name != "" && url != "" {
			out[name] = url
		}
	}
	return out
}

func getEnvStringSlice(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
