// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/thingspace/thingspace-notes/internal/dao"
	"github.com/thingspace/thingspace-notes/internal/middleware"
	"github.com/thingspace/thingspace-notes/internal/service"
	pkgapp "github.com/thingspace/thingspace-notes/pkg/app"
	"github.com/thingspace/thingspace-notes/pkg/embedding"
	"github.com/thingspace/thingspace-notes/pkg/limiter"
	"github.com/thingspace/thingspace-notes/pkg/logger"
	"github.com/thingspace/thingspace-notes/pkg/util"
	"github.com/thingspace/thingspace-notes/pkg/workerpool"
	"github.com/thingspace/thingspace-notes/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File       string                 `yaml:"-"` // 配置文件路径，不序列化
	Server     ServerConfig           `yaml:"server"`
	Log        logger.Config          `yaml:"log"`
	Database   dao.DatabaseConfig     `yaml:"database"`
	Security   SecurityConfig         `yaml:"security"`
	Embedding  embedding.Config       `yaml:"embedding"`
	Search     service.SearchConfig   `yaml:"search"`
	Backfill   service.BackfillConfig `yaml:"backfill"`
	WriteQueue writequeue.Config      `yaml:"write-queue"`
	WorkerPool workerpool.Config      `yaml:"worker-pool"`
	Tracer     TracerConfig           `yaml:"tracer"`
	Limiter    LimiterConfig          `yaml:"limiter"`
	Cors       middleware.CorsConfig  `yaml:"cors"`
	Tasks      TasksConfig            `yaml:"tasks"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式 debug / release
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时
	ReadTimeout time.Duration `yaml:"read-timeout" default:"60s"`
	// WriteTimeout 写入超时
	WriteTimeout time.Duration `yaml:"write-timeout" default:"60s"`
	// ContextTimeout bounds a single API request
	ContextTimeout time.Duration `yaml:"context-timeout" default:"30s"`
	// PrivateHttpListen 私有 HTTP 监听地址，为空时不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:9001"`
	// PrivateAuthToken protects the private router when set
	PrivateAuthToken string `yaml:"private-auth-token"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"thingspace-notes-auth-token"`
	// TokenExpiry Token 过期时间，支持格式：7d（天）、24h（小时）、30m（分钟）
	TokenExpiry string `yaml:"token-expiry" default:"7d"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled reports spans to jaeger; the trace id header works either way
	Enabled bool `yaml:"enabled" default:"false"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header       string  `yaml:"header" default:"X-Trace-ID"`
	ServiceName  string  `yaml:"service-name" default:"thingspace-notes"`
	AgentHost    string  `yaml:"agent-host" default:"127.0.0.1:6831"`
	SamplerType  string  `yaml:"sampler-type" default:"const"`
	SamplerParam float64 `yaml:"sampler-param" default:"1"`
}

// LimiterConfig 限流配置
type LimiterConfig struct {
	Enabled bool                 `yaml:"enabled" default:"true"`
	Rules   []limiter.BucketRule `yaml:"rules"`
}

// TasksConfig 定时任务配置
type TasksConfig struct {
	// Backfill cron expression for the embedding backfill, empty disables it
	Backfill string `yaml:"backfill" default:"@every 5m"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	c, err := ParseConfig(file)
	if err != nil {
		return nil, realpath, err
	}
	c.File = realpath
	return c, realpath, nil
}

// ParseConfig 解析 YAML 配置内容并填充默认值
func ParseConfig(data []byte) (*AppConfig, error) {
	c := new(AppConfig)

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "re-set default config failed")
	}

	if c.Search.SemanticWeight < 0 || c.Search.LexicalWeight < 0 {
		return nil, errors.New("search weights must not be negative")
	}
	if _, err := util.ParseDuration(c.Security.TokenExpiry); err != nil {
		return nil, errors.Wrapf(err, "invalid security.token-expiry %q", c.Security.TokenExpiry)
	}

	return c, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil {
		return expiry
	}
	return 7 * 24 * time.Hour // 理论上不会走到这里，因为有默认值
}

// GetTokenConfig 获取 Token 管理器配置
func (c *AppConfig) GetTokenConfig() pkgapp.TokenConfig {
	return pkgapp.TokenConfig{
		SecretKey: c.Security.AuthTokenKey,
		Expiry:    c.GetTokenExpiry(),
		Issuer:    pkgapp.DefaultTokenIssuer,
	}
}

// GetServiceConfig 提取 Service 层需要的配置
func (c *AppConfig) GetServiceConfig() *service.ServiceConfig {
	return &service.ServiceConfig{
		Search:   c.Search,
		Backfill: c.Backfill,
	}
}

// GetLimiterRules returns the configured buckets or default rules for the
// search and create routes. Keys are "METHOD route".
func (c *AppConfig) GetLimiterRules() []limiter.BucketRule {
	if len(c.Limiter.Rules) > 0 {
		return c.Limiter.Rules
	}
	return []limiter.BucketRule{
		{Key: "GET /notes", FillInterval: time.Second, Capacity: 200, Quantum: 200},
		{Key: "POST /notes", FillInterval: time.Second, Capacity: 100, Quantum: 100},
	}
}
