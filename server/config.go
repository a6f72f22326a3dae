package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultNetHz worker 与权威循环的默认 Tick 频率
	DefaultNetHz = 1000
	// envPrefix 环境变量前缀，如 GRIDSYNC_PEERS=4
	envPrefix = "GRIDSYNC_"
)

// Config 会话配置
type Config struct {
	Addr              string
	Peers             int // 固定的玩家数，满员即开局
	NetHz             int
	BusCapacity       int
	GridWidth         int
	GridHeight        int
	BlankGrid         bool // true 时不使用随机地形
	LogFile           string
	HandshakeTimeout  time.Duration
	CompressThreshold int // 超过该字节数的帧做 lz4 压缩
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Addr:              ":9495",
		Peers:             2,
		NetHz:             DefaultNetHz,
		BusCapacity:       DefaultBusCapacity,
		GridWidth:         640,
		GridHeight:        480,
		LogFile:           "app.log",
		HandshakeTimeout:  5 * time.Second,
		CompressThreshold: 512,
	}
}

// TickInterval 每个 Tick 的间隔
func (c Config) TickInterval() time.Duration {
	if c.NetHz <= 0 {
		return time.Second / DefaultNetHz
	}
	return time.Second / time.Duration(c.NetHz)
}

// Validate 检查配置是否可用
func (c Config) Validate() error {
	if c.Peers < 1 {
		return fmt.Errorf("peers must be >= 1, got %d", c.Peers)
	}
	if c.NetHz < 1 {
		return fmt.Errorf("net hz must be >= 1, got %d", c.NetHz)
	}
	if c.BusCapacity < 1 {
		return fmt.Errorf("bus capacity must be >= 1, got %d", c.BusCapacity)
	}
	if c.GridWidth < 0 || c.GridHeight < 0 {
		return fmt.Errorf("grid size must be non-negative, got %dx%d", c.GridWidth, c.GridHeight)
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("handshake timeout must be positive, got %s", c.HandshakeTimeout)
	}
	return nil
}

// LoadConfig 默认值 <- .env 文件（可选）<- GRIDSYNC_* 环境变量
// 命令行参数由 main 在此基础上再覆盖
func LoadConfig(envFiles ...string) (Config, error) {
	cfg := DefaultConfig()
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("load env: %w", err)
	}

	if v, ok := lookup("ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := lookup("LOG_FILE"); ok {
		cfg.LogFile = v
	}
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"PEERS", &cfg.Peers},
		{"NET_HZ", &cfg.NetHz},
		{"BUS_CAPACITY", &cfg.BusCapacity},
		{"GRID_WIDTH", &cfg.GridWidth},
		{"GRID_HEIGHT", &cfg.GridHeight},
		{"COMPRESS_THRESHOLD", &cfg.CompressThreshold},
	} {
		v, ok := lookup(f.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s%s: %w", envPrefix, f.key, err)
		}
		*f.dst = n
	}
	if v, ok := lookup("BLANK_GRID"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%sBLANK_GRID: %w", envPrefix, err)
		}
		cfg.BlankGrid = b
	}
	if v, ok := lookup("HANDSHAKE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%sHANDSHAKE_TIMEOUT: %w", envPrefix, err)
		}
		cfg.HandshakeTimeout = d
	}
	return cfg, nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
