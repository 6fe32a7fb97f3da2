// Package config loads pagecraft settings with Viper from, in order of
// precedence: flags, PAGECRAFT_* environment variables (a .env file may
// supply them), the YAML config file, and built-in defaults.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PAGECRAFT_SERVER_PORT.
const EnvPrefix = "PAGECRAFT"

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Editor  EditorConfig  `mapstructure:"editor" yaml:"editor"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type EditorConfig struct {
	HistoryCapacity int           `mapstructure:"history_capacity" yaml:"history_capacity"`
	CheckpointDelay time.Duration `mapstructure:"checkpoint_delay" yaml:"checkpoint_delay"`
	// InitialDocument is a path to a document JSON file opened at startup.
	InitialDocument string `mapstructure:"initial_document" yaml:"initial_document"`
}

type ExportConfig struct {
	Title string `mapstructure:"title" yaml:"title"`
	Lang  string `mapstructure:"lang" yaml:"lang"`
}

type StorageConfig struct {
	// LayoutsDB is the SQLite file for saved layouts; empty keeps them in
	// memory.
	LayoutsDB string `mapstructure:"layouts_db" yaml:"layouts_db"`
}

type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Token   string        `mapstructure:"token" yaml:"token"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers every key with its default. Registering keys is
// also what lets AutomaticEnv find overrides during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("editor.history_capacity", 50)
	v.SetDefault("editor.checkpoint_delay", time.Second)
	v.SetDefault("editor.initial_document", "")
	v.SetDefault("export.title", "Craft Page")
	v.SetDefault("export.lang", "en")
	v.SetDefault("storage.layouts_db", ".pagecraft/layouts.db")
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// BindEnv enables PAGECRAFT_SECTION_KEY overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads KEY=value pairs from files into the environment
// without overriding variables that are already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom applies defaults to v, unmarshals and validates.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Comma-separated origins from the environment may keep their spaces.
	if len(config.Server.AllowedOrigins) > 0 {
		config.Server.AllowedOrigins = splitList(strings.Join(config.Server.AllowedOrigins, ","))
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Addr is the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Editor),
		validation.Field(&c.Export),
		validation.Field(&c.Storage),
		validation.Field(&c.Backend),
		validation.Field(&c.Log),
	)
}

var dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}

// noShellChars rejects values that would be dangerous if they reached a
// shell or a URL unescaped.
var noShellChars = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	for _, char := range dangerousChars {
		if strings.Contains(s, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}
	return nil
})

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		// 0 lets the OS pick a port, which tests rely on.
		validation.Field(&s.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&s.Host, noShellChars),
		validation.Field(&s.AllowedOrigins, validation.Each(validation.Required)),
	)
}

func (e EditorConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.HistoryCapacity, validation.Required, validation.Min(1), validation.Max(1000)),
		validation.Field(&e.CheckpointDelay, validation.Min(time.Duration(0))),
	)
}

func (e ExportConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Title, validation.Length(0, 200)),
		validation.Field(&e.Lang, validation.Required, validation.Length(2, 35)),
	)
}

func (s StorageConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.LayoutsDB, noShellChars),
	)
}

func (b BackendConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.BaseURL, is.URL),
		validation.Field(&b.Timeout, validation.Min(time.Duration(0))),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}
