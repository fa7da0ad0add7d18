// Package config 加载服务与前端的配置: 默认值 -> YAML文件 -> .env -> 环境变量
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"bikebuyers/logger"
)

// Config 顶层配置
type Config struct {
	Service ServiceConfig `yaml:"service"`
	UI      UIConfig      `yaml:"ui"`
	Log     logger.Config `yaml:"log"`
}

// ServiceConfig 推理服务配置
type ServiceConfig struct {
	HTTP struct {
		Host           string        `yaml:"host"`
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Model struct {
		Type      string `yaml:"type"`
		Path      string `yaml:"path"`
		CacheSize int    `yaml:"cache_size"`
	} `yaml:"model"`
	Database struct {
		Path string `yaml:"path"` // 为空时不记录预测
	} `yaml:"database"`
	Kafka struct {
		Brokers []string `yaml:"brokers"` // 为空时不发送事件
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
}

// UIConfig 前端配置
type UIConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	APIURL          string        `yaml:"api_url"`
	APITimeout      time.Duration `yaml:"api_timeout"`
	SchemaPath      string        `yaml:"schema_path"`
	BackgroundImage string        `yaml:"background_image"`
}

// Default 默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.Service.HTTP.Port = 8000
	cfg.Service.HTTP.Timeout = 30 * time.Second
	cfg.Service.HTTP.AllowedOrigins = []string{"*"}
	cfg.Service.Model.Type = "decision_tree"
	cfg.Service.Model.Path = "models/bike_buyers_tree.json"
	cfg.Service.Kafka.Topic = "bike-buyer-predictions"

	cfg.UI.Port = 8501
	cfg.UI.APIURL = "http://localhost:8000/predict"
	cfg.UI.APITimeout = 30 * time.Second
	cfg.UI.SchemaPath = "configs/ui_config.json"
	cfg.UI.BackgroundImage = "assets/bike_bg.jpg"

	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

// Load 加载配置. path为空或文件不存在时使用默认值
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	// .env只补充尚未设置的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Service.HTTP.Host = v
		cfg.UI.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Service.HTTP.Port = port
		cfg.UI.Port = port
	}
	if v := os.Getenv("MODEL_TYPE"); v != "" {
		cfg.Service.Model.Type = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.Service.Model.Path = v
	}
	if v := os.Getenv("PREDICTION_DB_PATH"); v != "" {
		cfg.Service.Database.Path = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Service.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PREDICT_API_URL"); v != "" {
		cfg.UI.APIURL = v
	}
	if v := os.Getenv("UI_CONFIG_PATH"); v != "" {
		cfg.UI.SchemaPath = v
	}
	if v := os.Getenv("BG_IMAGE_PATH"); v != "" {
		cfg.UI.BackgroundImage = v
	}
	if v := os.Getenv("API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid API_TIMEOUT %q: %w", v, err)
		}
		cfg.UI.APITimeout = d
	}
	return nil
}
