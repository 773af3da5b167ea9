package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the variable that points at an optional YAML file.
const ConfigFileEnv = "RESEARCH_CONFIG"

// Defaults.
const (
	DefaultLLMProvider         = "openai"
	DefaultLLMModel            = "gpt-4o"
	DefaultLLMBaseURL          = "https://api.openai.com/v1"
	DefaultBraveSearchURL      = "https://api.search.brave.com/res/v1/web/search"
	DefaultAppEnv              = "development"
	DefaultLogLevel            = "INFO"
	DefaultLogFormat           = "text"
	DefaultSearchRatePerSecond = 1.0
	DefaultSearchMaxRetries    = 3
	DefaultSearchTimeout       = 30 * time.Second
	DefaultLLMTimeout          = 60 * time.Second
	DefaultLLMMaxRetries       = 3
	DefaultAgentMaxIterations  = 8
)

// SupportedLLMProviders lists the values accepted for LLM_PROVIDER.
var SupportedLLMProviders = []string{"openai"}

// Settings holds the runtime configuration. Values come from, in increasing
// precedence: built-in defaults, the YAML file, the process environment
// (including .env).
type Settings struct {
	LLMProvider string `env:"LLM_PROVIDER" yaml:"llm_provider" validate:"required"`
	LLMAPIKey   string `env:"LLM_API_KEY" yaml:"llm_api_key" validate:"apikey"`
	LLMModel    string `env:"LLM_MODEL" yaml:"llm_model" validate:"required"`
	LLMBaseURL  string `env:"LLM_BASE_URL" yaml:"llm_base_url" validate:"required,url"`

	BraveAPIKey    string `env:"BRAVE_API_KEY" yaml:"brave_api_key" validate:"apikey"`
	BraveSearchURL string `env:"BRAVE_SEARCH_URL" yaml:"brave_search_url" validate:"required,url"`

	AppEnv    string `env:"APP_ENV" yaml:"app_env"`
	LogLevel  string `env:"LOG_LEVEL" yaml:"log_level" validate:"oneof=TRACE DEBUG INFO WARN WARNING ERROR trace debug info warn warning error"`
	LogFormat string `env:"LOG_FORMAT" yaml:"log_format" validate:"oneof=text json TEXT JSON"`
	Debug     bool   `env:"DEBUG" yaml:"debug"`

	SearchRatePerSecond float64       `env:"SEARCH_RATE_PER_SECOND" yaml:"search_rate_per_second" validate:"gt=0"`
	SearchMaxRetries    int           `env:"SEARCH_MAX_RETRIES" yaml:"search_max_retries" validate:"gte=0,lte=10"`
	SearchTimeout       time.Duration `env:"SEARCH_TIMEOUT" yaml:"search_timeout" validate:"gt=0"`
	LLMTimeout          time.Duration `env:"LLM_TIMEOUT" yaml:"llm_timeout" validate:"gt=0"`
	LLMMaxRetries       int           `env:"LLM_MAX_RETRIES" yaml:"llm_max_retries" validate:"gte=0,lte=10"`
	AgentMaxIterations  int           `env:"AGENT_MAX_ITERATIONS" yaml:"agent_max_iterations" validate:"gte=1,lte=50"`

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string `env:"METRICS_ADDR" yaml:"metrics_addr"`
}

type loadOptions struct {
	file        string
	dotenvFiles []string
	environ     []string
}

type Option func(*loadOptions)

// WithFile reads YAML settings from path. It overrides RESEARCH_CONFIG.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithDotEnv loads the given .env files instead of ./.env.
func WithDotEnv(files ...string) Option {
	return func(o *loadOptions) {
		o.dotenvFiles = files
	}
}

// WithEnviron replaces os.Environ() as the variable source. .env files are
// not read when this option is set.
func WithEnviron(environ []string) Option {
	return func(o *loadOptions) {
		o.environ = environ
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("apikey", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Load builds Settings from .env, the optional YAML file and the environment,
// then validates them. Errors name the offending variables but never echo
// their values.
func Load(opts ...Option) (*Settings, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.environ == nil {
		// A missing .env is fine; godotenv never overrides variables already set.
		if err := godotenv.Load(o.dotenvFiles...); err != nil && len(o.dotenvFiles) > 0 {
			return nil, fmt.Errorf("failed to load settings: read env file: %w", err)
		}
		o.environ = os.Environ()
	}

	environment := upperKeys(env.ToMap(o.environ))

	settings := &Settings{}

	file := o.file
	if file == "" {
		file = environment[ConfigFileEnv]
	}
	if file != "" {
		if err := settings.loadFile(file); err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
	}

	if err := env.ParseWithOptions(settings, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings.applyDefaults()

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Settings) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, s); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// upperKeys makes variable lookup case-insensitive. On conflicts the
// upper-case spelling wins.
func upperKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		upper := strings.ToUpper(k)
		if _, exists := out[upper]; exists && k != upper {
			continue
		}
		out[upper] = v
	}
	return out
}

func (s *Settings) applyDefaults() {
	if s.LLMProvider == "" {
		s.LLMProvider = DefaultLLMProvider
	}
	if s.LLMModel == "" {
		s.LLMModel = DefaultLLMModel
	}
	if s.LLMBaseURL == "" {
		s.LLMBaseURL = DefaultLLMBaseURL
	}
	if s.BraveSearchURL == "" {
		s.BraveSearchURL = DefaultBraveSearchURL
	}
	if s.AppEnv == "" {
		s.AppEnv = DefaultAppEnv
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if s.LogFormat == "" {
		s.LogFormat = DefaultLogFormat
	}
	if s.SearchRatePerSecond == 0 {
		s.SearchRatePerSecond = DefaultSearchRatePerSecond
	}
	if s.SearchMaxRetries == 0 {
		s.SearchMaxRetries = DefaultSearchMaxRetries
	}
	if s.SearchTimeout == 0 {
		s.SearchTimeout = DefaultSearchTimeout
	}
	if s.LLMTimeout == 0 {
		s.LLMTimeout = DefaultLLMTimeout
	}
	if s.LLMMaxRetries == 0 {
		s.LLMMaxRetries = DefaultLLMMaxRetries
	}
	if s.AgentMaxIterations == 0 {
		s.AgentMaxIterations = DefaultAgentMaxIterations
	}
}

// Validate checks every field. A blank API key produces
// "API key cannot be empty" together with a hint naming the variable.
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	var problems, hints []string
	for _, fe := range fieldErrs {
		name := envName(fe.StructField())
		switch fe.Tag() {
		case "apikey":
			problems = append(problems, name+": API key cannot be empty")
			hints = append(hints, fmt.Sprintf("Make sure to set %s in your .env file", name))
		case "required":
			problems = append(problems, name+": value is required")
		default:
			// fe.Value() is deliberately not printed; it may be a secret.
			problems = append(problems, fmt.Sprintf("%s: failed %q validation", name, fe.Tag()))
		}
	}

	msg := "failed to load settings: " + strings.Join(problems, "; ")
	if len(hints) > 0 {
		msg += "\n" + strings.Join(hints, "\n")
	}
	return errors.New(msg)
}

func envName(field string) string {
	f, ok := reflect.TypeOf(Settings{}).FieldByName(field)
	if !ok {
		return field
	}
	if name := f.Tag.Get("env"); name != "" {
		return name
	}
	return field
}

// IsProduction reports whether APP_ENV is "production".
func (s *Settings) IsProduction() bool {
	return strings.EqualFold(s.AppEnv, "production")
}

// ModelInfo describes the configured model without any secret.
type ModelInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
	AppEnv   string `json:"app_env"`
	Debug    bool   `json:"debug"`
}

func (s *Settings) ModelInfo() ModelInfo {
	return ModelInfo{
		Provider: s.LLMProvider,
		Model:    s.LLMModel,
		BaseURL:  s.LLMBaseURL,
		AppEnv:   s.AppEnv,
		Debug:    s.Debug,
	}
}

// ValidateLLMConfiguration checks that the configured LLM can be reached with
// the current settings: supported provider, non-blank key, model and URL.
func (s *Settings) ValidateLLMConfiguration() error {
	supported := false
	for _, p := range SupportedLLMProviders {
		if strings.EqualFold(s.LLMProvider, p) {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported LLM provider %q (supported: %s)", s.LLMProvider, strings.Join(SupportedLLMProviders, ", "))
	}
	if strings.TrimSpace(s.LLMAPIKey) == "" {
		return errors.New("LLM_API_KEY: API key cannot be empty")
	}
	if strings.TrimSpace(s.LLMModel) == "" {
		return errors.New("LLM_MODEL cannot be empty")
	}
	if strings.TrimSpace(s.LLMBaseURL) == "" {
		return errors.New("LLM_BASE_URL cannot be empty")
	}
	return nil
}

// LogValue keeps API keys out of log records.
func (s *Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("llm_provider", s.LLMProvider),
		slog.String("llm_model", s.LLMModel),
		slog.String("llm_base_url", s.LLMBaseURL),
		slog.String("llm_api_key", redact(s.LLMAPIKey)),
		slog.String("brave_api_key", redact(s.BraveAPIKey)),
		slog.String("brave_search_url", s.BraveSearchURL),
		slog.String("app_env", s.AppEnv),
		slog.String("log_level", s.LogLevel),
		slog.Bool("debug", s.Debug),
		slog.Float64("search_rate_per_second", s.SearchRatePerSecond),
		slog.String("metrics_addr", s.MetricsAddr),
	)
}

// String mirrors LogValue so fmt verbs do not print secrets either.
func (s *Settings) String() string {
	return s.LogValue().String()
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[REDACTED]"
}
