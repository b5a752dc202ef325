package adb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config 配置文件内容
type Config struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Timeout   time.Duration `yaml:"timeout"`
	ChunkSize int           `yaml:"chunk_size"`
	LogLevel  string        `yaml:"log_level"`
}

// DefaultConfigPath 默认配置文件路径: ~/.adbsock.yaml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".adbsock.yaml"
	}
	return filepath.Join(home, ".adbsock.yaml")
}

// LoadConfig 读取YAML配置，文件不存在时返回默认值
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Host:      DefaultHost,
		Port:      DefaultPort,
		Timeout:   DefaultTimeout,
		ChunkSize: DefaultChunkSize,
		LogLevel:  "info",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, nil
}

// Options 转换为连接配置
func (c *Config) Options(logger logrus.FieldLogger) *Options {
	return &Options{
		Host:      c.Host,
		Port:      c.Port,
		Timeout:   c.Timeout,
		ChunkSize: c.ChunkSize,
		Logger:    logger,
	}
}
