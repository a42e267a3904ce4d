package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile    = "site.config.yaml"
	defaultEnvFile       = ".env"
	defaultPort          = "8080"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 15 * time.Second
	defaultIdleTimeout   = 60 * time.Second
	defaultTimeZone      = "Europe/Prague"
	defaultLocale        = "cs"
	defaultFallback      = "false"
	defaultContentDir    = "content"
	defaultPublicDir     = "public"
	defaultCMSTimeout    = 5 * time.Second
	defaultCMSCacheTTL   = 5 * time.Minute
	defaultEnvironment   = "production"
	developmentEnv       = "development"
	defaultProgressColor = "#00B5EC"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Env     string
	Server  ServerConfig
	Site    SiteConfig
	I18n    I18nConfig
	CMS     CMSConfig
	GTM     GTMConfig
	SSG     SSGConfig
	Preview PreviewConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TemplatesDir string
	PublicDir    string
}

// SiteConfig describes the rendered site.
type SiteConfig struct {
	Hostname      string
	TimeZone      string
	ContentDir    string
	ProgressColor string
}

// I18nConfig lists the locales served by the site.
type I18nConfig struct {
	Locales         []string
	DefaultLocale   string
	LocaleDetection bool
}

// CMSConfig points at the headless CMS. An empty BaseURL selects the local content store.
type CMSConfig struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// GTMConfig holds the Google Tag Manager container code.
type GTMConfig struct {
	Code string
}

// SSGConfig toggles static generation.
type SSGConfig struct {
	StaticGeneration bool
	Fallback         string
	Revalidate       time.Duration
}

// PreviewConfig controls preview mode.
type PreviewConfig struct {
	Secret     string
	SigningKey string
	GridHelper bool
}

// IsDevelopment reports whether the site runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == developmentEnv
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// fileConfig mirrors the on-disk site configuration.
type fileConfig struct {
	Env string `yaml:"env"`
	GTM struct {
		Code string `yaml:"code"`
	} `yaml:"gtm"`
	TZ  string `yaml:"tz"`
	SSG struct {
		StaticGeneration *bool        `yaml:"staticGeneration"`
		Fallback         string        `yaml:"fallback"`
		Revalidate       time.Duration `yaml:"revalidate"`
	} `yaml:"ssg"`
	I18n struct {
		Locales         []string `yaml:"locales"`
		DefaultLocale   string   `yaml:"defaultLocale"`
		LocaleDetection bool     `yaml:"localeDetection"`
	} `yaml:"i18n"`
	Site struct {
		Hostname      string `yaml:"hostname"`
		ContentDir    string `yaml:"contentDir"`
		ProgressColor string `yaml:"progressColor"`
	} `yaml:"site"`
	CMS struct {
		URL      string        `yaml:"url"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cacheTTL"`
	} `yaml:"cms"`
	Preview struct {
		GridHelper bool `yaml:"gridHelper"`
	} `yaml:"preview"`
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	configFile   string
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithConfigFile overrides the YAML site configuration path. An empty path skips the file.
func WithConfigFile(path string) Option {
	return func(o *loaderOptions) {
		o.configFile = path
	}
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, the YAML site config file,
// .env overrides and environment variables, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		configFile:   defaultConfigFile,
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	file, err := readFileConfig(options.configFile)
	if err != nil {
		return Config{}, err
	}
	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	staticGeneration := true
	if file.SSG.StaticGeneration != nil {
		staticGeneration = *file.SSG.StaticGeneration
	}

	port := stringWithDefault(lookup, "PORT", defaultPort)
	cfg := Config{
		Env: strings.ToLower(stringWithDefault(lookup, "WEB_ENV", firstNonEmpty(file.Env, defaultEnvironment))),
		Server: ServerConfig{
			Addr:         stringWithDefault(lookup, "WEB_ADDR", ":"+port),
			ReadTimeout:  durationWithDefault(lookup, "WEB_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "WEB_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "WEB_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			TemplatesDir: stringWithDefault(lookup, "WEB_TEMPLATES_DIR", ""),
			PublicDir:    stringWithDefault(lookup, "WEB_PUBLIC_DIR", defaultPublicDir),
		},
		Site: SiteConfig{
			Hostname:      strings.TrimRight(stringWithDefault(lookup, "WEB_HOSTNAME", file.Site.Hostname), "/"),
			TimeZone:      stringWithDefault(lookup, "WEB_TZ", firstNonEmpty(file.TZ, defaultTimeZone)),
			ContentDir:    stringWithDefault(lookup, "WEB_CONTENT_DIR", firstNonEmpty(file.Site.ContentDir, defaultContentDir)),
			ProgressColor: firstNonEmpty(file.Site.ProgressColor, defaultProgressColor),
		},
		I18n: I18nConfig{
			Locales:         csvWithDefault(lookup, "WEB_LOCALES", file.I18n.Locales),
			DefaultLocale:   strings.ToLower(stringWithDefault(lookup, "WEB_DEFAULT_LOCALE", firstNonEmpty(file.I18n.DefaultLocale, defaultLocale))),
			LocaleDetection: boolWithDefault(lookup, "WEB_LOCALE_DETECTION", file.I18n.LocaleDetection),
		},
		CMS: CMSConfig{
			BaseURL:  strings.TrimRight(stringWithDefault(lookup, "WEB_CMS_URL", file.CMS.URL), "/"),
			Token:    stringWithDefault(lookup, "WEB_CMS_TOKEN", ""),
			Timeout:  durationWithDefault(lookup, "WEB_CMS_TIMEOUT", positiveOr(file.CMS.Timeout, defaultCMSTimeout)),
			CacheTTL: durationWithDefault(lookup, "WEB_CMS_CACHE_TTL", positiveOr(file.CMS.CacheTTL, defaultCMSCacheTTL)),
		},
		GTM: GTMConfig{
			Code: strings.TrimSpace(stringWithDefault(lookup, "WEB_GTM_CODE", file.GTM.Code)),
		},
		SSG: SSGConfig{
			StaticGeneration: boolWithDefault(lookup, "WEB_SSG_STATIC_GENERATION", staticGeneration),
			Fallback:         strings.ToLower(stringWithDefault(lookup, "WEB_SSG_FALLBACK", firstNonEmpty(file.SSG.Fallback, defaultFallback))),
			Revalidate:       durationWithDefault(lookup, "WEB_SSG_REVALIDATE", file.SSG.Revalidate),
		},
		Preview: PreviewConfig{
			Secret:     stringWithDefault(lookup, "WEB_PREVIEW_SECRET", ""),
			SigningKey: stringWithDefault(lookup, "WEB_PREVIEW_SIGNING_KEY", ""),
			GridHelper: boolWithDefault(lookup, "WEB_PREVIEW_GRID_HELPER", file.Preview.GridHelper),
		},
	}
	if len(cfg.I18n.Locales) == 0 {
		cfg.I18n.Locales = []string{cfg.I18n.DefaultLocale}
	}
	for i, l := range cfg.I18n.Locales {
		cfg.I18n.Locales[i] = strings.ToLower(l)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string
	if cfg.Server.Addr == "" {
		invalid = append(invalid, "Server.Addr")
	}
	if cfg.I18n.DefaultLocale == "" || !slices.Contains(cfg.I18n.Locales, cfg.I18n.DefaultLocale) {
		invalid = append(invalid, "I18n.DefaultLocale")
	}
	if _, err := time.LoadLocation(cfg.Site.TimeZone); err != nil {
		invalid = append(invalid, "Site.TimeZone")
	}
	switch cfg.SSG.Fallback {
	case "false", "blocking", "true":
	default:
		invalid = append(invalid, "SSG.Fallback")
	}
	if cfg.SSG.Revalidate < 0 {
		invalid = append(invalid, "SSG.Revalidate")
	}
	if cfg.Preview.Secret != "" && cfg.Preview.SigningKey == "" && cfg.Env != developmentEnv {
		invalid = append(invalid, "Preview.SigningKey")
	}
	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func readFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fc, nil
	}
	if err != nil {
		return fc, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return fc, nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return append([]string(nil), fallback...)
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func positiveOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
