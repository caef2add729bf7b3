package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		CORS            bool          `yaml:"cors" default:"true"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logger struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"json"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"100"`
		MaxBackups int    `yaml:"max_backups" default:"5"`
		MaxAgeDays int    `yaml:"max_age_days" default:"14"`
		Compress   bool   `yaml:"compress"`
		Collector  struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic" default:"alphafusion.logs"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"logger"`
	Backend struct {
		// Type selects the result sink: kafka, clickhouse, both or none.
		Type         string        `yaml:"type" default:"none"`
		BatchSize    int           `yaml:"batch_size" default:"50"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"2s"`
		BufferSize   int           `yaml:"buffer_size" default:"1000"`
		MaxRetries   int           `yaml:"max_retries" default:"3"`
		BackoffMin   time.Duration `yaml:"backoff_min" default:"100ms"`
		BackoffMax   time.Duration `yaml:"backoff_max" default:"5s"`
		// MinInterval drops a symbol's result when the previous one was
		// accepted less than this long ago. Zero disables the throttle.
		MinInterval time.Duration `yaml:"min_interval"`
	} `yaml:"backend"`
	Scoring struct {
		// Weights overrides the base weights; it must name all 13 features.
		Weights        map[string]float64 `yaml:"weights"`
		TrendThreshold float64            `yaml:"trend_threshold" default:"25"`
		TrendCutoff    float64            `yaml:"trend_cutoff" default:"0.3"`
		TrendBoost     float64            `yaml:"trend_boost" default:"0.5"`
		BollDamp       float64            `yaml:"boll_damp" default:"0.8"`
		BollFloor      float64            `yaml:"boll_floor" default:"0.4"`
		RangeBollBoost float64            `yaml:"range_boll_boost" default:"0.8"`
		RangeRSIBoost  float64            `yaml:"range_rsi_boost" default:"0.3"`
		VolumeSpikeZ   float64            `yaml:"volume_spike_z" default:"1.5"`
		AnomalyZ       float64            `yaml:"anomaly_z" default:"3.0"`
		ConfidenceGate float64            `yaml:"confidence_gate" default:"0.35"`
		EWMAAlpha      float64            `yaml:"ewma_alpha" default:"0.25"`
	} `yaml:"scoring"`
	Poller struct {
		Enabled     bool          `yaml:"enabled" default:"true"`
		Interval    time.Duration `yaml:"interval" default:"60s"`
		Concurrency int           `yaml:"concurrency" default:"8"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
		Indices     []string      `yaml:"indices"`
		Symbols     []string      `yaml:"symbols"`
		// LatestMaxSize bounds the in-process store of latest results.
		LatestMaxSize int `yaml:"latest_max_size" default:"5000"`
	} `yaml:"poller"`
	Market struct {
		Timezone string   `yaml:"timezone" default:"Asia/Kolkata"`
		Open     string   `yaml:"open" default:"09:15"`
		Close    string   `yaml:"close" default:"15:30"`
		Holidays []string `yaml:"holidays"`
	} `yaml:"market"`
	MarketData struct {
		// Backend is yahoo or clickhouse.
		Backend         string        `yaml:"backend" default:"yahoo"`
		BaseURL         string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		UserAgent       string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; alphafusion/1.0)"`
		Timeout         time.Duration `yaml:"timeout" default:"10s"`
		Retries         int           `yaml:"retries" default:"3"`
		HistoryBars     int           `yaml:"history_bars" default:"700"`
		MinBars         int           `yaml:"min_bars" default:"200"`
		LiveInterval    string        `yaml:"live_interval" default:"1m"`
		LiveRange       string        `yaml:"live_range" default:"7d"`
		HistoryInterval string        `yaml:"history_interval" default:"1d"`
		HistoryRange    string        `yaml:"history_range" default:"1y"`
	} `yaml:"marketdata"`
	Smoothing struct {
		// Backend is memory or redis.
		Backend   string        `yaml:"backend" default:"memory"`
		KeyPrefix string        `yaml:"key_prefix" default:"alphafusion:smooth"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"smoothing"`
	HTTPCache struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		TTL     time.Duration `yaml:"ttl" default:"15s"`
		MaxSize int           `yaml:"max_size" default:"1000"`
	} `yaml:"http_cache"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled" default:"true"`
		RPS     float64 `yaml:"rps" default:"5"`
		Burst   int     `yaml:"burst" default:"10"`
	} `yaml:"rate_limit"`
	WebSocket struct {
		Enabled      bool          `yaml:"enabled" default:"true"`
		SendBuffer   int           `yaml:"send_buffer" default:"64"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
		PongTimeout  time.Duration `yaml:"pong_timeout" default:"60s"`
	} `yaml:"websocket"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Host     string        `yaml:"host" default:"localhost"`
		Port     int           `yaml:"port" default:"6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		PoolSize int           `yaml:"pool_size" default:"10"`
		Timeout  time.Duration `yaml:"timeout" default:"3s"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		ResultsTopic  string   `yaml:"results_topic" default:"alphafusion.analysis"`
		RequestsTopic string   `yaml:"requests_topic" default:"alphafusion.requests"`
		RequiredAcks  int      `yaml:"required_acks" default:"1"`
		Compression   string   `yaml:"compression" default:"snappy"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"alphafusion"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"100"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"alphafusion.requests.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"default"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		CandlesTable     string        `yaml:"candles_table" default:"candles"`
		ResultsTable     string        `yaml:"results_table" default:"analysis_results"`
	} `yaml:"clickhouse"`
}

// Load reads a YAML configuration file, applies defaults and validates it.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	// Defaults go first so an explicit false or zero in the file wins.
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env files (when present), then the YAML config, and
// overrides it with environment variables.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Poller.Symbols = splitList(v)
	}
	if v := os.Getenv("INDICES"); v != "" {
		c.Poller.Indices = splitList(v)
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_RESULTS_TOPIC"); v != "" {
		c.Kafka.ResultsTopic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		c.Poller.Interval = d
	}
	if v := os.Getenv("EWMA_ALPHA"); v != "" {
		a, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("EWMA_ALPHA: %w", err)
		}
		c.Scoring.EWMAAlpha = a
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case "kafka", "clickhouse", "both", "none":
	default:
		return fmt.Errorf("backend.type must be one of kafka, clickhouse, both, none, got '%s'", c.Backend.Type)
	}
	if c.UsesKafka() && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is used")
	}
	switch c.MarketData.Backend {
	case "yahoo", "clickhouse":
	default:
		return fmt.Errorf("marketdata.backend must be 'yahoo' or 'clickhouse', got '%s'", c.MarketData.Backend)
	}
	switch c.Smoothing.Backend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("smoothing.backend 'redis' requires redis.enabled")
		}
	default:
		return fmt.Errorf("smoothing.backend must be 'memory' or 'redis', got '%s'", c.Smoothing.Backend)
	}
	if a := c.Scoring.EWMAAlpha; !(a > 0 && a <= 1) {
		return fmt.Errorf("scoring.ewma_alpha must be in (0, 1], got %v", a)
	}
	if g := c.Scoring.ConfidenceGate; g < 0 || g > 1 {
		return fmt.Errorf("scoring.confidence_gate must be in [0, 1], got %v", g)
	}
	if c.Scoring.AnomalyZ <= 0 {
		return fmt.Errorf("scoring.anomaly_z must be positive")
	}
	for k, v := range c.Scoring.Weights {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("scoring.weights.%s must be non-negative", k)
		}
	}
	if c.Backend.MinInterval < 0 {
		return fmt.Errorf("backend.min_interval cannot be negative")
	}
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be positive")
	}
	if c.Poller.Concurrency <= 0 {
		return fmt.Errorf("poller.concurrency must be positive")
	}
	if c.Poller.LatestMaxSize <= 0 {
		return fmt.Errorf("poller.latest_max_size must be positive")
	}
	if c.MarketData.HistoryBars <= 0 {
		return fmt.Errorf("marketdata.history_bars must be positive")
	}
	return nil
}

// UsesKafka reports whether any component needs a Kafka connection.
func (c *Config) UsesKafka() bool {
	return c.PublishesResults() || c.Kafka.Consumer.Enabled || c.Logger.Collector.Enabled
}

// UsesClickHouse reports whether any component needs a ClickHouse connection.
func (c *Config) UsesClickHouse() bool {
	return c.Backend.Type == "clickhouse" || c.Backend.Type == "both" || c.MarketData.Backend == "clickhouse"
}

// StoresResults reports whether results go to ClickHouse.
func (c *Config) StoresResults() bool {
	return c.Backend.Type == "clickhouse" || c.Backend.Type == "both"
}

// PublishesResults reports whether results go to Kafka.
func (c *Config) PublishesResults() bool {
	return c.Backend.Type == "kafka" || c.Backend.Type == "both"
}
