package config

import (
	"errors"
	"os"
	"path"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "PASSRESET_"

var (
	configFilePaths = []string{
		"/etc/lumeweb/passreset/config.yaml",
		"/etc/lumeweb/passreset/config.yml",
		"$HOME/.lumeweb/passreset/config.yaml",
		"$HOME/.lumeweb/passreset/config.yml",
		"./passreset.yaml",
		"./passreset.yml",
	}
	errConfigFileNotFound = errors.New("config file not found")
)

var _ Manager = (*ManagerDefault)(nil)

type ManagerDefault struct {
	config     *koanf.Koanf
	root       *Config
	configFile string
	changes    bool
}

// NewManager loads configFile, or the first file found on the search path when configFile is empty.
// A missing file is not an error: defaults are written to it on Init.
func NewManager(configFile string) (*ManagerDefault, error) {
	if configFile == "" {
		configFile = findConfigFile()
	}

	k, err := newConfig(configFile)
	if err != nil && !errors.Is(err, errConfigFileNotFound) {
		return nil, err
	}

	return &ManagerDefault{
		config:     k,
		configFile: configFile,
		changes:    err != nil,
	}, nil
}

func (m *ManagerDefault) hooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		cacheConfigHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	}
}

func (m *ManagerDefault) Init() error {
	root := &Config{}

	err := m.setDefaultsForObject(&root.Core, "core")
	if err != nil {
		return err
	}
	err = m.maybeSave()
	if err != nil {
		return err
	}

	// Environment overrides are merged into a copy so they never end up in the saved file.
	merged := m.config.Copy()
	err = merged.Load(env.Provider(envPrefix, ".", envKey), nil)
	if err != nil {
		return err
	}

	err = merged.UnmarshalWithConf("", root, koanf.UnmarshalConf{
		Tag: "mapstructure",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.ComposeDecodeHookFunc(m.hooks()...),
			Metadata:         nil,
			Result:           root,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return err
	}

	err = m.validateObject(root)
	if err != nil {
		return err
	}

	m.root = root

	return nil
}

// envKey maps PASSRESET_CORE__RESET__COOLDOWN to core.reset.cooldown.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

func (m *ManagerDefault) setDefaultsForObject(obj any, prefix string) error {
	objValue := reflect.ValueOf(obj)
	objType := reflect.TypeOf(obj)

	if objValue.Kind() == reflect.Ptr {
		objValue = objValue.Elem()
		objType = objType.Elem()
	}

	if setter, ok := obj.(Defaults); ok {
		err := m.applyDefaults(setter, prefix)
		if err != nil {
			return err
		}
	}

	for i := 0; i < objValue.NumField(); i++ {
		field := objValue.Field(i)
		fieldType := objType.Field(i)

		if !field.CanInterface() {
			continue
		}

		mapstructureTag := fieldType.Tag.Get("mapstructure")

		newPrefix := prefix
		if mapstructureTag != "" && mapstructureTag != "-" {
			if newPrefix != "" {
				newPrefix += "."
			}
			newPrefix += mapstructureTag
		}

		// Only plain struct fields carry defaults; optional pointer sections stay unset.
		if field.Kind() == reflect.Struct && field.CanAddr() {
			err := m.setDefaultsForObject(field.Addr().Interface(), newPrefix)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (m *ManagerDefault) validateObject(obj any) error {
	objValue := reflect.ValueOf(obj)

	if objValue.Kind() == reflect.Ptr {
		if objValue.IsNil() {
			return nil
		}
		objValue = objValue.Elem()
	}

	if validator, ok := obj.(Validator); ok {
		err := validator.Validate()
		if err != nil {
			return err
		}
	}

	if objValue.Kind() != reflect.Struct {
		return nil
	}

	for i := 0; i < objValue.NumField(); i++ {
		field := objValue.Field(i)

		if !field.CanInterface() {
			continue
		}

		switch {
		case field.Kind() == reflect.Struct && field.CanAddr():
			if err := m.validateObject(field.Addr().Interface()); err != nil {
				return err
			}
		case field.Kind() == reflect.Ptr && !field.IsNil() && field.Elem().Kind() == reflect.Struct:
			if err := m.validateObject(field.Interface()); err != nil {
				return err
			}
		}
	}

	return nil
}

func (m *ManagerDefault) applyDefaults(setter Defaults, prefix string) error {
	for key, value := range setter.Defaults() {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		set, err := m.setDefault(fullKey, value)
		if err != nil {
			return err
		}

		if set {
			m.changes = true
		}
	}

	return nil
}

func (m *ManagerDefault) setDefault(key string, value any) (bool, error) {
	if !m.config.Exists(key) {
		err := m.config.Set(key, value)
		if err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

func (m *ManagerDefault) maybeSave() error {
	if !m.changes {
		return nil
	}

	data, err := m.config.Marshal(yaml.Parser())
	if err != nil {
		return err
	}

	configFile := m.configFile
	if configFile == "" {
		configFile = defaultConfigFile()
	}

	err = os.MkdirAll(path.Dir(configFile), 0755)
	if err != nil {
		return err
	}

	err = os.WriteFile(configFile, data, 0600)
	if err != nil {
		return err
	}

	m.configFile = configFile
	m.changes = false

	return nil
}

func (m *ManagerDefault) Config() *Config {
	return m.root
}

func (m *ManagerDefault) Save() error {
	m.changes = true
	return m.maybeSave()
}

func (m *ManagerDefault) ConfigFile() string {
	return m.configFile
}

func newConfig(configFile string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if configFile == "" {
		return k, errConfigFileNotFound
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return k, errConfigFileNotFound
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, err
	}

	return k, nil
}

func findConfigFile() string {
	for _, _path := range configFilePaths {
		expandedPath := os.ExpandEnv(_path)
		if _, err := os.Stat(expandedPath); err == nil {
			return expandedPath
		}
	}

	return ""
}

// defaultConfigFile picks the first search path whose directory exists, falling back to the working directory.
func defaultConfigFile() string {
	for _, _path := range configFilePaths {
		expandedPath := os.ExpandEnv(_path)
		if _, err := os.Stat(path.Dir(expandedPath)); err == nil {
			return expandedPath
		}
	}

	return configFilePaths[len(configFilePaths)-2]
}
