package config

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	XDGName = "jobsify"

	DefaultPath = "~/.jobsify.yaml"
)

var ErrUnknownEntity = errors.New("unknown entity")

//go:embed default_config.yaml
var defaultConfig []byte

type Config struct {
	API      API      `yaml:"api"`
	UI       UI       `yaml:"ui"`
	Logging  Logging  `yaml:"logging"`
	Metrics  Metrics  `yaml:"metrics"`
	Entities []Entity `yaml:"entities" validate:"required,unique=Name,dive"`
}

type API struct {
	BaseURL string `yaml:"baseURL" validate:"required,url"`
	// Token is sent as a bearer token when set.
	Token string `yaml:"token"`
	// Timeout of every request, 0 for none.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

type UI struct {
	PageSize             int           `yaml:"pageSize" validate:"oneof=10 25 50"`
	FilterDebounce       time.Duration `yaml:"filterDebounce" validate:"gte=0"`
	Matcher              string        `yaml:"matcher" validate:"oneof=substring fuzzy"`
	Language             string        `yaml:"language" validate:"required,bcp47_language_tag"`
	StatusMessageTimeout time.Duration `yaml:"statusMessageTimeout" validate:"gte=0"`
}

type Logging struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
	// File overrides where the TUI writes its log.
	File string `yaml:"file"`
}

type Metrics struct {
	// Listen is the address of the metrics and pprof listener, off when
	// empty.
	Listen string `yaml:"listen"`
}

// Entity is one REST resource and how it is listed and edited.
type Entity struct {
	Name  string `yaml:"name" validate:"required"`
	Label string `yaml:"label"`
	// Envelope is the key holding the array in list responses, the entity
	// name when empty.
	Envelope  string   `yaml:"envelope"`
	IDField   string   `yaml:"idField"`
	Reconcile string   `yaml:"reconcile" validate:"omitempty,oneof=optimistic refetch"`
	Columns   []Column `yaml:"columns" validate:"required,min=1,unique=Key,dive"`
	Form      []Field  `yaml:"form" validate:"unique=Name,dive"`
	// Required fields are enforced by the mock server.
	Required []string `yaml:"required,omitempty" validate:"unique"`
}

type Column struct {
	Key        string `yaml:"key" validate:"required"`
	Header     string `yaml:"header"`
	Searchable bool   `yaml:"searchable"`
	Sortable   bool   `yaml:"sortable"`
	Format     string `yaml:"format" validate:"omitempty,oneof=text number money date relative bool holiday badge"`
	Width      int    `yaml:"width" validate:"gte=0"`
}

type Field struct {
	Name    string `yaml:"name" validate:"required"`
	Label   string `yaml:"label"`
	Kind    string `yaml:"kind" validate:"omitempty,oneof=string number bool date"`
	Rules   string `yaml:"rules"`
	Default string `yaml:"default"`
}

// DisplayLabel is the singular name shown to the user.
func (e Entity) DisplayLabel() string {
	if e.Label != "" {
		return e.Label
	}
	return e.Name
}

func (e Entity) EnvelopeKey() string {
	if e.Envelope != "" {
		return e.Envelope
	}
	return e.Name
}

func (c *Config) Entity(name string) (Entity, error) {
	for _, e := range c.Entities {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return Entity{}, errors.Wrap(ErrUnknownEntity, name)
}

func (c *Config) EntityNames() []string {
	out := make([]string, len(c.Entities))
	for i, e := range c.Entities {
		out[i] = e.Name
	}
	return out
}

// Default returns the built in configuration.
func Default() *Config {
	c, err := decode(bytes.NewReader(defaultConfig), Config{})
	if err != nil {
		panic(errors.Wrap(err, "embedded default config"))
	}
	return c
}

func decode(r io.Reader, base Config) (*Config, error) {
	c := base
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config")
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal config")
	}
	return &c, nil
}

// NewFromReader reads r over the defaults. A file that lists entities
// replaces the default entity set.
func NewFromReader(r io.Reader) (*Config, error) {
	base := *Default()
	base.Entities = nil
	c, err := decode(r, base)
	if err != nil {
		return nil, err
	}
	if len(c.Entities) == 0 {
		c.Entities = Default().Entities
	}
	return c, nil
}

// Load reads the config file at path, if there is one, then applies .env
// and JOBSIFY_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "expand %s", path)
	}

	var c *Config
	f, err := os.Open(expanded)
	switch {
	case err == nil:
		defer f.Close()
		if c, err = NewFromReader(f); err != nil {
			return nil, errors.Wrapf(err, "config %s", expanded)
		}
	case os.IsNotExist(err):
		c = Default()
	default:
		return nil, errors.Wrapf(err, "open %s", expanded)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}
	if err := c.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

type overrides struct {
	APIURL        string `env:"JOBSIFY_API_URL"`
	APIToken      string `env:"JOBSIFY_API_TOKEN"`
	LogLevel      string `env:"JOBSIFY_LOG_LEVEL"`
	Matcher       string `env:"JOBSIFY_MATCHER"`
	MetricsListen string `env:"JOBSIFY_METRICS_LISTEN"`
}

// ApplyEnv overrides settings from environ, or from the process
// environment when environ is nil.
func (c *Config) ApplyEnv(environ map[string]string) error {
	var o overrides
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return errors.Wrap(err, "parse environment")
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.API.BaseURL, o.APIURL)
	set(&c.API.Token, o.APIToken)
	set(&c.Logging.Level, o.LogLevel)
	set(&c.UI.Matcher, o.Matcher)
	set(&c.Metrics.Listen, o.MetricsListen)
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "config validation error")
	}
	return nil
}

// LogFile is where the TUI writes its log unless logging.file is set.
func (c *Config) LogFile() (string, error) {
	if c.Logging.File != "" {
		return homedir.Expand(c.Logging.File)
	}
	return StateFile("jobsify.log")
}
