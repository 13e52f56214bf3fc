// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	logconf "github.com/yahyatoubali/Crashwise-sub001/pkg/logger/conf"
)

const (
	defaultHTTPPort       = 8000
	defaultUploadMaxBytes = int64(10) << 30
	defaultCacheSizeGiB   = 20.0
	defaultRetrySeconds   = 5.0
	defaultRetryCapSecs   = 60.0
)

type Config struct {
	Server     ServerConfig       `yaml:"server"`
	Temporal   TemporalConfig     `yaml:"temporal"`
	S3         S3Config           `yaml:"s3"`
	Cache      CacheConfig        `yaml:"cache"`
	Workflows  WorkflowsConfig    `yaml:"workflows"`
	Bootstrap  BootstrapConfig    `yaml:"bootstrap"`
	Worker     WorkerConfig       `yaml:"worker"`
	Log        *logconf.LogConfig `yaml:"log"`
	Middleware MiddlewareConfig   `yaml:"middleware"`
}

type ServerConfig struct {
	HttpPort       int    `yaml:"httpPort"`
	UploadMaxBytes int64  `yaml:"uploadMaxBytes"`
	HostRoot       string `yaml:"hostRoot"`
}

func (cfg ServerConfig) GetListenAddr() string {
	port := cfg.HttpPort
	if port == 0 {
		port = defaultHTTPPort
	}
	return fmt.Sprintf(":%d", port)
}

func (cfg ServerConfig) GetUploadMaxBytes() int64 {
	if cfg.UploadMaxBytes <= 0 {
		return defaultUploadMaxBytes
	}
	return cfg.UploadMaxBytes
}

type TemporalConfig struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
}

func (cfg TemporalConfig) GetAddress() string {
	if cfg.Address == "" {
		return "localhost:7233"
	}
	return cfg.Address
}

func (cfg TemporalConfig) GetNamespace() string {
	if cfg.Namespace == "" {
		return "default"
	}
	return cfg.Namespace
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    *bool  `yaml:"useSSL"`
}

func (cfg S3Config) GetEndpoint() string {
	if cfg.Endpoint == "" {
		return "localhost:9000"
	}
	return cfg.Endpoint
}

func (cfg S3Config) GetBucket() string {
	if cfg.Bucket == "" {
		return "crashwise"
	}
	return cfg.Bucket
}

func (cfg S3Config) IsSSLEnabled() bool {
	if cfg.UseSSL == nil {
		return false
	}
	return *cfg.UseSSL
}

type CacheConfig struct {
	Dir         string  `yaml:"dir"`
	MaxSizeGiB  float64 `yaml:"maxSizeGiB"`
	JanitorCron string  `yaml:"janitorCron"`
}

func (cfg CacheConfig) GetDir() string {
	if cfg.Dir == "" {
		return filepath.Join(os.TempDir(), "crashwise-cache")
	}
	return cfg.Dir
}

func (cfg CacheConfig) GetMaxSizeBytes() int64 {
	size := cfg.MaxSizeGiB
	if size <= 0 {
		size = defaultCacheSizeGiB
	}
	return int64(size * float64(int64(1)<<30))
}

func (cfg CacheConfig) GetJanitorCron() string {
	if cfg.JanitorCron == "" {
		return "@every 10m"
	}
	return cfg.JanitorCron
}

type WorkflowsConfig struct {
	Dir string `yaml:"dir"`
}

func (cfg WorkflowsConfig) GetDir() string {
	if cfg.Dir == "" {
		return "workflows"
	}
	return cfg.Dir
}

type BootstrapConfig struct {
	RetrySeconds    float64 `yaml:"retrySeconds"`
	RetryMaxSeconds float64 `yaml:"retryMaxSeconds"`
}

func (cfg BootstrapConfig) GetRetryInterval() time.Duration {
	secs := cfg.RetrySeconds
	if secs <= 0 {
		secs = defaultRetrySeconds
	}
	return time.Duration(secs * float64(time.Second))
}

func (cfg BootstrapConfig) GetRetryMaxInterval() time.Duration {
	secs := cfg.RetryMaxSeconds
	if secs <= 0 {
		secs = defaultRetryCapSecs
	}
	return time.Duration(secs * float64(time.Second))
}

type WorkerConfig struct {
	Vertical                string `yaml:"vertical"`
	TaskQueue               string `yaml:"taskQueue"`
	MaxConcurrentActivities int    `yaml:"maxConcurrentActivities"`
}

// GetTaskQueue derives the queue name from the vertical unless explicitly
// overridden.
func (cfg WorkerConfig) GetTaskQueue() string {
	if cfg.TaskQueue != "" {
		return cfg.TaskQueue
	}
	if cfg.Vertical != "" {
		return cfg.Vertical + "-queue"
	}
	return ""
}

func (cfg WorkerConfig) GetMaxConcurrentActivities() int {
	if cfg.MaxConcurrentActivities <= 0 {
		return 10
	}
	return cfg.MaxConcurrentActivities
}

// MiddlewareConfig middleware configuration
type MiddlewareConfig struct {
	EnableLogging *bool `yaml:"enableLogging"`
	EnableCORS    *bool `yaml:"enableCORS"`
}

// IsLoggingEnabled returns whether logging middleware is enabled, default enabled
func (m MiddlewareConfig) IsLoggingEnabled() bool {
	if m.EnableLogging == nil {
		return true
	}
	return *m.EnableLogging
}

// IsCORSEnabled returns whether the CORS middleware is enabled, default enabled
func (m MiddlewareConfig) IsCORSEnabled() bool {
	if m.EnableCORS == nil {
		return true
	}
	return *m.EnableCORS
}

var config *Config

// LoadConfig reads the optional YAML file at CONFIG_PATH and applies the
// environment overrides on top. A missing file is not an error: the service
// must come up from environment variables alone.
func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg := &Config{}
	configFile, err := os.Open(configPath)
	if err == nil {
		defer configFile.Close()
		decoder := yaml.NewDecoder(configFile)
		if err = decoder.Decode(cfg); err != nil {
			return nil, errors.NewError().
				WithKind(errors.KindValidationError).
				WithMessage("failed to parse config file").
				WithError(err)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.NewError().
			WithKind(errors.KindValidationError).
			WithMessage("failed to open config file").
			WithError(err)
	}
	applyEnvOverrides(cfg)
	if cfg.Log == nil {
		cfg.Log = logconf.DefaultConfig()
	}
	config = cfg
	return config, nil
}

func GetConfig() *Config {
	return config
}

func SetConfig(cfg *Config) {
	config = cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TEMPORAL_ADDRESS"); v != "" {
		cfg.Temporal.Address = v
	}
	if v := os.Getenv("TEMPORAL_NAMESPACE"); v != "" {
		cfg.Temporal.Namespace = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.S3.Region = v
	}
	if v := os.Getenv("S3_USE_SSL"); v != "" {
		if useSSL, err := strconv.ParseBool(v); err == nil {
			cfg.S3.UseSSL = &useSSL
		}
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("CACHE_MAX_SIZE"); v != "" {
		if size, err := strconv.ParseFloat(v, 64); err == nil && size > 0 {
			cfg.Cache.MaxSizeGiB = size
		}
	}
	if v := os.Getenv("CRASHWISE_HOST_ROOT"); v != "" {
		cfg.Server.HostRoot = v
	}
	if v := os.Getenv("CRASHWISE_STARTUP_RETRY_SECONDS"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			cfg.Bootstrap.RetrySeconds = secs
		}
	}
	if v := os.Getenv("CRASHWISE_STARTUP_RETRY_MAX_SECONDS"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			cfg.Bootstrap.RetryMaxSeconds = secs
		}
	}
	if v := os.Getenv("WORKER_VERTICAL"); v != "" {
		cfg.Worker.Vertical = v
	}
	if v := os.Getenv("WORKER_TASK_QUEUE"); v != "" {
		cfg.Worker.TaskQueue = v
	}
	if v := os.Getenv("MAX_CONCURRENT_ACTIVITIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Worker.MaxConcurrentActivities = n
		}
	}
	if v := os.Getenv("WORKFLOWS_DIR"); v != "" {
		cfg.Workflows.Dir = v
	}
}
