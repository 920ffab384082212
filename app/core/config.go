package core

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf, err := ParseConfig(path, raw)
	if err != nil {
		panic(err)
	}
	return conf
}

// ParseConfig 根据扩展名选择解析格式，.yaml/.yml 走 yaml，其余按 toml 解析
func ParseConfig(path string, raw []byte) (CoreConfig, error) {
	conf := CoreConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &conf); err != nil {
			return conf, err
		}
	default:
		if err := toml.Unmarshal(raw, &conf); err != nil {
			return conf, err
		}
	}
	conf.FillDefaults()
	return conf, nil
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	c.FillDefaults()
	return c
}

type CoreConfig struct {
	Addr     string      `toml:"addr" yaml:"addr"`
	Log      Log         `toml:"log" yaml:"log"`
	Postgres PGConfig    `toml:"postgres" yaml:"postgres"`
	Redis    RedisConfig `toml:"redis" yaml:"redis"`
	Storage  Storage     `toml:"storage" yaml:"storage"`

	Worker WorkerConfig `toml:"worker" yaml:"worker"`
	Vision VisionConfig `toml:"vision" yaml:"vision"`
	MinerU MinerUConfig `toml:"mineru" yaml:"mineru"`
	Limit  LimitConfig  `toml:"limit" yaml:"limit"`
}

func (c *CoreConfig) FillDefaults() {
	if c.Addr == "" {
		c.Addr = ":1717"
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "./local-db"
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 2
	}
	if c.Worker.StaleTaskMinutes <= 0 {
		c.Worker.StaleTaskMinutes = 30
	}
	if c.Vision.GlobalMaxConcurrency <= 0 {
		c.Vision.GlobalMaxConcurrency = 10
	}
	if c.Limit.GeneratePerMinute <= 0 {
		c.Limit.GeneratePerMinute = 60
	}
}

// Storage 项目文件保存在 <root>/<projectId>/files 下，配置 s3 时同步一份到对象存储
type Storage struct {
	Root string    `toml:"root" yaml:"root"`
	S3   *S3Config `toml:"s3" yaml:"s3"`
}

type S3Config struct {
	Bucket       string `toml:"bucket" yaml:"bucket"`
	Region       string `toml:"region" yaml:"region"`
	Endpoint     string `toml:"endpoint" yaml:"endpoint"`
	AccessKey    string `toml:"access_key" yaml:"access_key"`
	SecretKey    string `toml:"secret_key" yaml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style" yaml:"use_path_style"`
}

type WorkerConfig struct {
	Concurrency      int `toml:"concurrency" yaml:"concurrency"`               // asynq worker 并发数
	StaleTaskMinutes int `toml:"stale_task_minutes" yaml:"stale_task_minutes"` // 超过该时间未更新的 running 任务视为中断
}

type VisionConfig struct {
	GlobalMaxConcurrency int `toml:"global_max_concurrency" yaml:"global_max_concurrency"`
}

type MinerUConfig struct {
	Endpoint string `toml:"endpoint" yaml:"endpoint"`
}

type LimitConfig struct {
	GeneratePerMinute int `toml:"generate_per_minute" yaml:"generate_per_minute"`
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("EDS_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Redis.FromENV()
	c.Storage.Root = os.Getenv("EDS_STORAGE_ROOT")
	c.MinerU.Endpoint = os.Getenv("EDS_MINERU_ENDPOINT")
	c.Worker.Concurrency = envInt("EDS_WORKER_CONCURRENCY")
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

type PGConfig struct {
	DSN string `toml:"dsn" yaml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("EDS_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type RedisConfig struct {
	// 单机模式配置
	Addr     string `toml:"addr" yaml:"addr"`
	Password string `toml:"password" yaml:"password"`
	DB       int    `toml:"db" yaml:"db"`

	// 集群模式配置
	Cluster      bool     `toml:"cluster" yaml:"cluster"`
	ClusterAddrs []string `toml:"cluster_addrs" yaml:"cluster_addrs"`

	// Redis键前缀，用于隔离不同环境
	KeyPrefix string `toml:"key_prefix" yaml:"key_prefix"`
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv("EDS_REDIS_ADDR")
	r.Password = os.Getenv("EDS_REDIS_PASSWORD")
	r.DB = envInt("EDS_REDIS_DB")
	r.KeyPrefix = os.Getenv("EDS_REDIS_KEY_PREFIX")
}

func (r RedisConfig) Prefix() string {
	if r.KeyPrefix == "" {
		return "eds"
	}
	return r.KeyPrefix
}

type Log struct {
	Level string `toml:"level" yaml:"level"`
	Path  string `toml:"path" yaml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("EDS_LOG_LEVEL")
	l.Path = os.Getenv("EDS_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
