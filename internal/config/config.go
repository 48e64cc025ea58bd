package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service. It is constructed once at
// startup and injected into the router and dispatcher components.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port       int `mapstructure:"port"`
		HealthPort int `mapstructure:"healthPort"`
	} `mapstructure:"server"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Company struct {
		ID string `mapstructure:"id"`
	} `mapstructure:"company"`
	WhatsApp struct {
		APIBaseURL    string        `mapstructure:"apiBaseURL"`
		AccessToken   string        `mapstructure:"accessToken"`
		PhoneNumberID string        `mapstructure:"phoneNumberID"`
		VerifyToken   string        `mapstructure:"verifyToken"`
		Timeout       time.Duration `mapstructure:"timeout"`
	} `mapstructure:"whatsapp"`
	Routing RoutingConfig `mapstructure:"routing"`
	NATS    struct {
		URL     string `mapstructure:"url"`
		Stream  string `mapstructure:"stream"`
		Subject string `mapstructure:"subject"` // base subject, e.g. v1.messages.inbound
		MaxAge  int64  `mapstructure:"maxAge"`  // stream retention in days
	} `mapstructure:"nats"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	Phone       PhonePlan                 `mapstructure:"phone"`
	WorkerPools struct {
		Scheduled ScheduledWorkerPoolConfig `mapstructure:"scheduled"`
	} `mapstructure:"workerPools"`
}

// RoutingConfig holds the static routing tables consulted by the conversation
// router and the outbound dispatcher.
type RoutingConfig struct {
	// Inboxes maps an inbound inbox/phone-number-id to a business area.
	Inboxes map[string]string `mapstructure:"inboxes"`
	// InboxLines maps an inbound inbox/phone-number-id to the origin line
	// recorded on conversations it creates.
	InboxLines map[string]string `mapstructure:"inboxLines"`
	// Lines maps an origin line to its transport mode: "cloud" or "webhook".
	Lines map[string]string `mapstructure:"lines"`
	// AreaWebhooks maps an area to its automation webhook URL.
	AreaWebhooks map[string]string `mapstructure:"areaWebhooks"`
	// WebhookSecret is an optional shared-secret header sent on automation webhook calls.
	WebhookSecret string `mapstructure:"webhookSecret"`
	// DefaultArea is used when the inbox has no explicit mapping.
	DefaultArea string `mapstructure:"defaultArea"`
	// DefaultLine is the baseline origin line for new conversations.
	DefaultLine string `mapstructure:"defaultLine"`
	// WebhookTimeout bounds automation webhook calls.
	WebhookTimeout time.Duration `mapstructure:"webhookTimeout"`
}

// PhonePlan describes one country's mobile numbering plan for the phone
// normalizer. Defaults cover the Argentine plan.
type PhonePlan struct {
	CountryCode string `mapstructure:"countryCode"` // e.g. "54"
	MobileDigit string `mapstructure:"mobileDigit"` // e.g. "9", prefixed on mobile numbers
	LocalLength int    `mapstructure:"localLength"` // digits in a bare local number
	MinLength   int    `mapstructure:"minLength"`   // acceptable total digits, lower bound
	MaxLength   int    `mapstructure:"maxLength"`   // acceptable total digits, upper bound
}

// ScheduledWorkerPoolConfig holds configuration for the scheduled-message worker pool
type ScheduledWorkerPoolConfig struct {
	PoolSize     int           `mapstructure:"poolSize"`     // Number of workers
	PollInterval time.Duration `mapstructure:"pollInterval"` // How often due messages are scanned
	BatchSize    int           `mapstructure:"batchSize"`    // Max due rows claimed per scan
	MaxBlock     time.Duration `mapstructure:"maxBlock"`     // Max time to block when submitting if pool is full
	ExpiryTime   time.Duration `mapstructure:"expiryTime"`   // Idle worker expiry time
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.healthPort", 8081)
	v.SetDefault("metrics.enabled", true)

	v.SetDefault("whatsapp.apiBaseURL", "https://graph.facebook.com/v19.0")
	v.SetDefault("whatsapp.timeout", 10*time.Second)

	v.SetDefault("routing.defaultArea", "ventas")
	v.SetDefault("routing.defaultLine", "wsp1")
	v.SetDefault("routing.webhookTimeout", 10*time.Second)

	v.SetDefault("nats.stream", "crmcom_events")
	v.SetDefault("nats.subject", "v1.messages.inbound")
	v.SetDefault("nats.maxAge", 7)

	// Argentine numbering plan defaults
	v.SetDefault("phone.countryCode", "54")
	v.SetDefault("phone.mobileDigit", "9")
	v.SetDefault("phone.localLength", 10)
	v.SetDefault("phone.minLength", 11)
	v.SetDefault("phone.maxLength", 13)

	// WorkerPools Defaults
	v.SetDefault("workerPools.scheduled.poolSize", 4)
	v.SetDefault("workerPools.scheduled.pollInterval", 30*time.Second)
	v.SetDefault("workerPools.scheduled.batchSize", 50)
	v.SetDefault("workerPools.scheduled.maxBlock", time.Second)
	v.SetDefault("workerPools.scheduled.expiryTime", time.Minute)

	// Config file settings
	v.SetConfigName("default")
	v.SetConfigType("yaml")

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("/etc/centralwap-router")

	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map environment variables to config fields
	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		v.Set("database.postgresDSN", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if company := os.Getenv("COMPANY_ID"); company != "" {
		v.Set("company.id", company)
	}
	if token := os.Getenv("WHATSAPP_ACCESS_TOKEN"); token != "" {
		v.Set("whatsapp.accessToken", token)
	}
	if token := os.Getenv("WHATSAPP_VERIFY_TOKEN"); token != "" {
		v.Set("whatsapp.verifyToken", token)
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		v.Set("nats.url", url)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(parts, tag)
		key := strings.Join(path, ".")

		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(key)
	}
}
