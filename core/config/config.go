package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	DefaultEventLog   = "events.log"
)

// Values of the color setting.
const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configFs  afero.Fs
	configDir string

	ShellName    string   `json:"shell_name" validate:"required"`
	Prompt       string   `json:"prompt"`
	Color        string   `json:"color" validate:"oneof=always auto never"`
	HistoryFile  string   `json:"history_file"`
	HistoryLimit int      `json:"history_limit" validate:"gte=-1"`
	ExtraPath    []string `json:"extra_path" validate:"dive,required"`
	EventLog     string   `json:"event_log"`
	Debug        bool     `json:"debug"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewOsFs()
	}
	return c.configFs
}

// Fs returns the filesystem the configuration was loaded from.
func (c *Configuration) Fs() afero.Fs {
	return c.fs()
}

// resolve makes relative paths relative to the configuration directory.
func (c *Configuration) resolve(name string) string {
	if filepath.IsAbs(name) || c.configDir == "" {
		return name
	}
	return filepath.Join(c.configDir, name)
}

// HistoryPath returns the history file with a leading ~/ expanded, or the
// empty string if history isn't persisted.
func (c *Configuration) HistoryPath() string {
	path := c.HistoryFile
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.eventLogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.eventLogPath(), os.O_RDONLY, 0600)
}

func (c *Configuration) eventLogPath() string {
	name := c.EventLog
	if name == "" {
		name = DefaultEventLog
	}
	return c.resolve(name)
}

// Default returns the built-in configuration.
func Default() *Configuration {
	out, err := parse(defaultConfigData)
	if err != nil {
		panic(err)
	}
	return out
}

func parse(data []byte) (*Configuration, error) {
	var out Configuration
	if err := yaml.UnmarshalStrict(data, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
