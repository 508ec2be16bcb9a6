package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	CORSAllowOrigins string

	DatabaseDriver string
	DatabaseURL    string
	RedisURL       string

	JWTSecret              string
	SessionTTL             time.Duration
	SessionSweepInterval   time.Duration
	OptimisticRole         string
	ConfirmTimeout         time.Duration
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapAdminName     string

	AuditWorkers    int
	AuditBuffer     int
	AuditMaxRetries int

	ChecklistStateTTL time.Duration
	PruneStaleIDs     bool

	NATSURL           string
	NATSSubjectPrefix string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	StorageLocalDir        string
	StoragePublicBaseURL   string
	UploadMaxMB            int

	AIBaseURL      string
	AIAPIKey       string
	AIModel        string
	AISystemPrompt string

	GeoGeocodeURL string
	GeoRouteURL   string
	GeoCacheTTL   time.Duration
	GeoUserAgent  string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("OCC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "OCC Console API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("auth.session_ttl", "12h")
	v.SetDefault("auth.sweep_interval", "1m")
	v.SetDefault("auth.optimistic_role", "INSTRUCTOR")
	v.SetDefault("auth.confirm_timeout", "10s")
	v.SetDefault("auth.bootstrap_admin_name", "Administrator")
	v.SetDefault("audit.workers", 2)
	v.SetDefault("audit.buffer", 256)
	v.SetDefault("audit.max_retries", 3)
	v.SetDefault("checklist.state_ttl", "0s")
	v.SetDefault("checklist.prune_stale_ids", false)
	v.SetDefault("nats.subject_prefix", "occ")
	v.SetDefault("cloudinary.folder", "occ/files")
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("storage.public_base_url", "/static/files")
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.system_prompt", "You are the operations assistant for a team-activity company. Answer briefly and practically.")
	v.SetDefault("geo.geocode_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geo.route_url", "https://router.project-osrm.org")
	v.SetDefault("geo.cache_ttl", "168h")
	v.SetDefault("geo.user_agent", "occ-console-api")

	durations := map[string]time.Duration{}
	for _, key := range []string{"auth.session_ttl", "auth.sweep_interval", "auth.confirm_timeout", "checklist.state_ttl", "geo.cache_ttl"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		DatabaseDriver:         strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		SessionTTL:             durations["auth.session_ttl"],
		SessionSweepInterval:   durations["auth.sweep_interval"],
		OptimisticRole:         strings.ToUpper(strings.TrimSpace(v.GetString("auth.optimistic_role"))),
		ConfirmTimeout:         durations["auth.confirm_timeout"],
		BootstrapAdminEmail:    v.GetString("auth.bootstrap_admin_email"),
		BootstrapAdminPassword: v.GetString("auth.bootstrap_admin_password"),
		BootstrapAdminName:     v.GetString("auth.bootstrap_admin_name"),
		AuditWorkers:           v.GetInt("audit.workers"),
		AuditBuffer:            v.GetInt("audit.buffer"),
		AuditMaxRetries:        v.GetInt("audit.max_retries"),
		ChecklistStateTTL:      durations["checklist.state_ttl"],
		PruneStaleIDs:          v.GetBool("checklist.prune_stale_ids"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubjectPrefix:      v.GetString("nats.subject_prefix"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		StorageLocalDir:        v.GetString("storage.local_dir"),
		StoragePublicBaseURL:   v.GetString("storage.public_base_url"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
		AIBaseURL:              v.GetString("ai.base_url"),
		AIAPIKey:               v.GetString("ai.api_key"),
		AIModel:                v.GetString("ai.model"),
		AISystemPrompt:         v.GetString("ai.system_prompt"),
		GeoGeocodeURL:          v.GetString("geo.geocode_url"),
		GeoRouteURL:            v.GetString("geo.route_url"),
		GeoCacheTTL:            durations["geo.cache_ttl"],
		GeoUserAgent:           v.GetString("geo.user_agent"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.AuditWorkers <= 0 {
		cfg.AuditWorkers = 1
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 10
	}

	return cfg, nil
}
