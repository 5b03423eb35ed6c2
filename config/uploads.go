package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// uploadsConfigYAML overrides upload policy fields when config/uploads.yaml exists.
type uploadsConfigYAML struct {
	MaxFileSize      int64    `yaml:"max_file_size"`
	AllowedFileTypes []string `yaml:"allowed_file_types"`
}

func uploadsConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("UPLOADS_CONFIG_FILE")); p != "" {
		return p
	}
	return "config/uploads.yaml"
}

func applyUploadsYAML(path string, c *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var y uploadsConfigYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return err
	}
	if y.MaxFileSize > 0 {
		c.UploadMaxSize = y.MaxFileSize
	}
	if len(y.AllowedFileTypes) > 0 {
		c.UploadAllowedTypes = y.AllowedFileTypes
	}
	return nil
}
