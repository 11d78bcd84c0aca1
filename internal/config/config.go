package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"github.com/wfunc/dream-slot/internal/game/slot"
	"go.uber.org/zap"
)

// Config 全局配置结构体
type Config struct {
	Server     ServerConfig       `mapstructure:"server"`
	Database   DatabaseConfig     `mapstructure:"database"`
	WebSocket  WebSocketConfig    `mapstructure:"websocket"`
	Log        LogConfig          `mapstructure:"log"`
	Machine    slot.MachineConfig `mapstructure:"machine"`
	Simulation SimulationConfig   `mapstructure:"simulation"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// WebSocketConfig WebSocket配置
type WebSocketConfig struct {
	Path            string        `mapstructure:"path"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	SendQueueSize   int           `mapstructure:"send_queue_size"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// SimulationConfig 批量模拟配置
type SimulationConfig struct {
	Spins   int    `mapstructure:"spins"`   // 旋转次数
	Workers int    `mapstructure:"workers"` // 并发数
	Seed    uint64 `mapstructure:"seed"`    // 随机种子，0 表示使用加密随机源
	Record  bool   `mapstructure:"record"`  // 是否记录到数据库
	Verbose bool   `mapstructure:"verbose"` // 是否逐次输出盘面
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化全局配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		var loaded *Config
		v, loaded, err = load(configPath)
		if err != nil {
			return
		}
		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})

	return err
}

// Load 读取配置文件（不影响全局配置）
func Load(configPath string) (*Config, error) {
	_, c, err := load(configPath)
	return c, err
}

func load(configPath string) (*viper.Viper, *Config, error) {
	vp := viper.New()

	// 设置配置文件路径
	if configPath != "" {
		vp.SetConfigFile(configPath)
	} else {
		vp.SetConfigName("config")
		vp.SetConfigType("yaml")
		vp.AddConfigPath("./config")
		vp.AddConfigPath(".")
	}

	// 设置环境变量前缀
	vp.SetEnvPrefix("DREAM_SLOT")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	// 设置默认值
	setDefaults(vp)

	// 读取配置文件
	if err := vp.ReadInConfig(); err != nil {
		// 如果配置文件不存在，使用默认配置
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case errors.Is(err, fs.ErrNotExist):
			return nil, nil, apperrors.New(apperrors.ErrConfigMissing, configPath).WithCause(err)
		default:
			return nil, nil, apperrors.Wrap(err, apperrors.ErrConfigLoad, "读取配置文件失败")
		}
	}

	c, err := decode(vp)
	if err != nil {
		return nil, nil, err
	}
	return vp, c, nil
}

// decode 解析配置到结构体
func decode(vp *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := vp.Unmarshal(c); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConfigParse, "解析配置失败")
	}

	// 未配置机器时使用预设
	if len(c.Machine.Reels) == 0 {
		preset := slot.GetConfigByID(c.Machine.MachineID)
		c.Machine = *preset
	}
	if err := slot.ValidateConfig(&c.Machine); err != nil {
		return nil, apperrors.New(apperrors.ErrConfigValidate, err.Error()).WithCause(err)
	}

	return c, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// 数据库默认配置
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/dream-slot.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// WebSocket默认配置
	v.SetDefault("websocket.path", "/ws/spins")
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.max_message_size", 8192)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.send_queue_size", 256)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "dream-slot.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)

	// 机器默认配置
	v.SetDefault("machine.machine_id", "dream_slot")

	// 模拟默认配置
	v.SetDefault("simulation.spins", 100)
	v.SetDefault("simulation.workers", 1)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.record", false)
	v.SetDefault("simulation.verbose", true)
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化，新配置校验失败时保留旧配置
func Watch(log *zap.Logger, callback func(*Config)) {
	if v == nil {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg, err := decode(v)
		if err != nil {
			log.Error("配置重载失败，继续使用旧配置",
				zap.String("file", e.Name),
				zap.Int("code", int(apperrors.GetCode(err))),
				zap.Error(err))
			return
		}

		mu.Lock()
		cfg = newCfg
		mu.Unlock()

		if callback != nil {
			callback(newCfg)
		}
	})
	v.WatchConfig()
}
