package config

import (
	"path"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/kochabx/authguard/errors"
)

// FileLoader loads configuration from a file, with environment variables
// overriding file values (SESSION_MAXAGE overrides session.maxAge).
type FileLoader struct {
	viper    *viper.Viper
	validate *validator.Validate
	name     string
	paths    []string
}

// NewFileLoader creates a loader for the named file searched across paths.
func NewFileLoader(name string, paths []string, v *viper.Viper, validate *validator.Validate) *FileLoader {
	configType := strings.TrimPrefix(path.Ext(name), ".")

	for _, configPath := range paths {
		v.AddConfigPath(configPath)
	}
	v.SetConfigName(name)
	v.SetConfigType(configType)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &FileLoader{
		viper:    v,
		paths:    paths,
		name:     name,
		validate: validate,
	}
}

// Load implements Loader. Defaults are applied before unmarshalling so
// fields absent from the file keep their tagged values.
func (l *FileLoader) Load(target any) error {
	if err := applyDefaults(target); err != nil {
		return err
	}

	if err := l.viper.ReadInConfig(); err != nil {
		return errors.Configuration("config file not found: %v", err)
	}

	if err := l.viper.Unmarshal(target); err != nil {
		return errors.Configuration("config parse error: %v", err)
	}

	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return errors.Configuration("config validation failed: %v", err)
		}
	}

	return nil
}

// Watch implements Loader.
func (l *FileLoader) Watch(callback func()) error {
	l.viper.OnConfigChange(func(e fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})

	l.viper.WatchConfig()
	return nil
}
