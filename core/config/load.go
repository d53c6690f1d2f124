package config

import (
	"errors"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs loads the configuration from a directory of the given filesystem.
func LoadFs(configFs afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := afero.ReadFile(configFs, filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}
	out, err := parse(configContents)
	if err != nil {
		return nil, err
	}
	out.configFs = configFs
	out.configDir = path
	return out, nil
}

// LoadOrDefault loads the configuration from the directory, falling back to
// the built-in configuration if there isn't one.
func LoadOrDefault(path string) (*Configuration, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		cfg.configDir = path
		return cfg, nil
	}
	return cfg, err
}

// Initialize writes the default configuration to dir unless one already
// exists and loads it.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	return InitializeFs(afero.NewOsFs(), dir, logger)
}

// InitializeFs is Initialize on the given filesystem.
func InitializeFs(configFs afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	if err := configFs.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, ConfigurationName)
	switch _, err := configFs.Stat(configPath); {
	case err == nil:
		logger.Printf("Configuration already exists: %s\n", configPath)
	case errors.Is(err, fs.ErrNotExist):
		logger.Printf("Writing default configuration: %s\n", configPath)
		if err := afero.WriteFile(configFs, configPath, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return LoadFs(configFs, dir)
}
