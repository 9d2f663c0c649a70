// Package config loads the settings of the converter processes.
package config

import (
	"errors"
	"fmt"
	"go-price-converter/domain"
	"go-price-converter/http"
	"go-price-converter/locate"
	"go-price-converter/logging"
	"go-price-converter/ratesource"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "PRICECVT_"

// Config settings shared by the server and the command line
type Config struct {
	Listen      string             `yaml:"listen"`
	LogLevel    string             `yaml:"log_level"`
	Rates       Rates              `yaml:"rates"`
	Sessions    Sessions           `yaml:"sessions"`
	Preferences domain.Preferences `yaml:"preferences"`
	Locator     locate.Config      `yaml:"locator"`
}

// Rates where rate tables come from and how long they are kept
type Rates struct {
	URLs    []string        `yaml:"urls"`
	Base    domain.Currency `yaml:"base"`
	TTL     time.Duration   `yaml:"ttl"`
	Timeout time.Duration   `yaml:"timeout"`
}

// Sessions how long the server keeps the conversions of idle documents, and how many
type Sessions struct {
	TTL time.Duration `yaml:"ttl"`
	Max int           `yaml:"max"`
}

// Default the settings used when nothing overrides them
func Default() Config {
	return Config{
		Listen:   ":8080",
		LogLevel: "info",
		Rates: Rates{
			URLs:    []string{ratesource.PrimaryURL, ratesource.BackupURL},
			Base:    "USD",
			TTL:     30 * time.Minute,
			Timeout: 5 * time.Second,
		},
		Sessions: Sessions{
			TTL: http.DefaultSessionTTL,
			Max: http.DefaultMaxSessions,
		},
		Preferences: domain.DefaultPreferences(),
		Locator:     locate.DefaultConfig(),
	}
}

// Load builds the configuration from the defaults, then the YAML file at path (skipped when
// path is empty), then the environment. Variables in envFiles are added to the environment
// first without replacing those already set; missing env files are ignored.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %v: %w", path, err)
		}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %v: %w", file, err)
		}
	}

	if err := cfg.fromEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// fromEnv applies the PRICECVT_* variables that are set
func (c *Config) fromEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	currency := func(name string, dst *domain.Currency) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = domain.Currency(v)
		}
	}

	var errs []error
	duration := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%v%v: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%v%v: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%v%v: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("LISTEN", &c.Listen)
	str("LOG_LEVEL", &c.LogLevel)
	if v, ok := os.LookupEnv(EnvPrefix + "RATES_URLS"); ok {
		c.Rates.URLs = strings.Split(v, ",")
	}
	currency("RATES_BASE", &c.Rates.Base)
	duration("RATES_TTL", &c.Rates.TTL)
	duration("RATES_TIMEOUT", &c.Rates.Timeout)
	duration("SESSION_TTL", &c.Sessions.TTL)
	integer("MAX_SESSIONS", &c.Sessions.Max)
	currency("SOURCE_CURRENCY", &c.Preferences.Source)
	currency("TARGET_CURRENCY", &c.Preferences.Target)
	boolean("SHOW_ORIGINAL", &c.Preferences.ShowOriginal)
	str("EMPHASIS_COLOR", &c.Preferences.EmphasisColor)
	str("LOCALE", &c.Preferences.Locale)
	integer("CONTEXT_WINDOW", &c.Locator.ContextWindow)
	integer("MAX_CONTEXT_DIGITS", &c.Locator.MaxContextDigits)

	return errors.Join(errs...)
}

var code = regexp.MustCompile(`^[A-Za-z]{3}$`)

// Validate reports every invalid setting
func (c Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if !slices.Contains(logging.Levels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("log level %q is not one of %v", c.LogLevel, logging.Levels))
	}
	if len(c.Rates.URLs) == 0 {
		errs = append(errs, errors.New("no rate source urls"))
	}
	if !code.MatchString(string(c.Rates.Base)) {
		errs = append(errs, fmt.Errorf("rate base %q is not a currency code", c.Rates.Base))
	}
	if c.Rates.TTL <= 0 {
		errs = append(errs, fmt.Errorf("rate ttl %v must be positive", c.Rates.TTL))
	}
	if c.Rates.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("rate timeout %v must be positive", c.Rates.Timeout))
	}
	if c.Sessions.TTL < 0 || c.Sessions.Max < 0 {
		errs = append(errs, fmt.Errorf("session ttl %v and max %v must not be negative", c.Sessions.TTL, c.Sessions.Max))
	}
	if !c.Preferences.Source.IsAuto() && !code.MatchString(string(c.Preferences.Source)) {
		errs = append(errs, fmt.Errorf("source currency %q is neither auto nor a currency code", c.Preferences.Source))
	}
	if !code.MatchString(string(c.Preferences.Target)) {
		errs = append(errs, fmt.Errorf("target currency %q is not a currency code", c.Preferences.Target))
	}
	if c.Locator.ContextWindow < 0 || c.Locator.MaxContextDigits < 0 {
		errs = append(errs, fmt.Errorf("locator window %v and digits %v must not be negative", c.Locator.ContextWindow, c.Locator.MaxContextDigits))
	}
	return errors.Join(errs...)
}
