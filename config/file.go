package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"imageoptimize/logger"
)

// File is the optional YAML configuration. Every value maps onto one
// environment variable; a variable that is already set wins over the file.
type File struct {
	DataDir      string `yaml:"data_dir"`
	ServeDir     string `yaml:"serve_dir"`
	OriginalsDir string `yaml:"originals_dir"`
	Listen       string `yaml:"listen"`
	BaseURL      string `yaml:"base_url"`
	JWTSecret    string `yaml:"jwt_secret"`
	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file"`
	// GenerateTransformsBeforePageLoad is the host's eager-generation default
	GenerateTransformsBeforePageLoad *bool `yaml:"generate_transforms_before_page_load"`
	Field                            struct {
		Handle        string `yaml:"handle"`
		VariantsFile  string `yaml:"variants_file"`
		FailurePolicy string `yaml:"failure_policy"`
	} `yaml:"field"`
}

// LoadDotEnv loads a .env file from the working directory if there is one
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads and parses the configuration file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &f, nil
}

// Apply exports the file's values as environment defaults
func (f *File) Apply() {
	set := func(key, value string) {
		if value == "" {
			return
		}
		if _, exists := os.LookupEnv(key); exists {
			logger.Debugf("config: %s set in environment, ignoring file value", key)
			return
		}
		os.Setenv(key, value)
	}
	set("IMAGEOPTIMIZE_DATA_DIR", f.DataDir)
	set("IMAGEOPTIMIZE_SERVE_DIR", f.ServeDir)
	set("IMAGEOPTIMIZE_ORIGINALS_DIR", f.OriginalsDir)
	set("IMAGEOPTIMIZE_LISTEN", f.Listen)
	set("IMAGEOPTIMIZE_BASE_URL", f.BaseURL)
	set("IMAGEOPTIMIZE_JWT_SECRET", f.JWTSecret)
	set("IMAGEOPTIMIZE_LOG_LEVEL", f.LogLevel)
	set("IMAGEOPTIMIZE_LOG_FILE", f.LogFile)
	set("IMAGEOPTIMIZE_FIELD_HANDLE", f.Field.Handle)
	set("IMAGEOPTIMIZE_VARIANTS_FILE", f.Field.VariantsFile)
	set("IMAGEOPTIMIZE_FAILURE_POLICY", f.Field.FailurePolicy)
	if f.GenerateTransformsBeforePageLoad != nil {
		set("IMAGEOPTIMIZE_EAGER_TRANSFORMS", strconv.FormatBool(*f.GenerateTransformsBeforePageLoad))
	}
}

// Bootstrap loads .env and then the YAML file named by IMAGEOPTIMIZE_CONFIG (or path, if given)
func Bootstrap(path string) error {
	if err := LoadDotEnv(); err != nil {
		return err
	}
	if path == "" {
		path = os.Getenv("IMAGEOPTIMIZE_CONFIG")
	}
	if path == "" {
		return nil
	}
	f, err := Load(path)
	if err != nil {
		return err
	}
	f.Apply()
	logger.Infof("Loaded configuration from %s", path)
	return nil
}
