package network

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Protocol identification sent in the init control message.
var ProtocolVersion = [3]int{2, 2140, 12}

// Config collects every tunable of the connection core. Zero values are
// filled from DefaultConfig by Validate.
type Config struct {
	// Endpoints is the ordered WebSocket URI pool, rotated round-robin.
	Endpoints []string

	ClientName  string
	BrowserName string

	ConnectTimeout    time.Duration
	KeepAliveInterval time.Duration
	PongTimeout       time.Duration
	ResponseTimeout   time.Duration
	SweepInterval     time.Duration

	BackoffBase time.Duration
	BackoffCap  time.Duration
	JitterMax   time.Duration
	MaxAttempts int

	AutoReconnect bool

	// SendInterval/SendBurst bound the outbound rate: at most one queued
	// message is dispatched every SendInterval/SendBurst.
	SendInterval time.Duration
	SendBurst    int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ClientName:        "Veltalk",
		BrowserName:       "Chrome",
		ConnectTimeout:    20 * time.Second,
		KeepAliveInterval: 20 * time.Second,
		PongTimeout:       5 * time.Second,
		ResponseTimeout:   30 * time.Second,
		SweepInterval:     5 * time.Second,
		BackoffBase:       2 * time.Second,
		BackoffCap:        30 * time.Second,
		JitterMax:         time.Second,
		MaxAttempts:       5,
		AutoReconnect:     true,
		SendInterval:      time.Second,
		SendBurst:         20,
	}
}

// Validate fills unset fields from the defaults and rejects unusable
// values.
func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return ErrNoEndpoints
	}

	def := DefaultConfig()
	if c.ClientName == "" {
		c.ClientName = def.ClientName
	}
	if c.BrowserName == "" {
		c.BrowserName = def.BrowserName
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = def.KeepAliveInterval
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = def.PongTimeout
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = def.ResponseTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = def.BackoffBase
	}
	if c.BackoffCap < c.BackoffBase {
		c.BackoffCap = def.BackoffCap
	}
	if c.JitterMax < 0 {
		c.JitterMax = def.JitterMax
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.SendInterval <= 0 {
		c.SendInterval = def.SendInterval
	}
	if c.SendBurst <= 0 {
		c.SendBurst = def.SendBurst
	}
	return nil
}

// dispatchTick is the interval between outbound dispatches.
func (c *Config) dispatchTick() time.Duration {
	tick := c.SendInterval / time.Duration(c.SendBurst)
	if tick <= 0 {
		tick = time.Millisecond
	}
	return tick
}

type fileConfig struct {
	Endpoints         []string `toml:"endpoints"`
	ClientName        string   `toml:"client_name"`
	BrowserName       string   `toml:"browser_name"`
	ConnectTimeout    string   `toml:"connect_timeout"`
	KeepAliveInterval string   `toml:"keepalive_interval"`
	PongTimeout       string   `toml:"pong_timeout"`
	ResponseTimeout   string   `toml:"response_timeout"`
	SweepInterval     string   `toml:"sweep_interval"`
	BackoffBase       string   `toml:"backoff_base"`
	BackoffCap        string   `toml:"backoff_cap"`
	JitterMax         string   `toml:"jitter_max"`
	MaxAttempts       int      `toml:"max_attempts"`
	AutoReconnect     bool     `toml:"auto_reconnect"`
	SendInterval      string   `toml:"send_interval"`
	SendBurst         int      `toml:"send_burst"`
}

// LoadConfig decodes a TOML file over the defaults. Durations are
// strings in time.ParseDuration syntax.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("endpoints") {
		for _, e := range raw.Endpoints {
			if e = strings.TrimSpace(e); e != "" {
				cfg.Endpoints = append(cfg.Endpoints, e)
			}
		}
	}
	if meta.IsDefined("client_name") {
		cfg.ClientName = strings.TrimSpace(raw.ClientName)
	}
	if meta.IsDefined("browser_name") {
		cfg.BrowserName = strings.TrimSpace(raw.BrowserName)
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
		{"keepalive_interval", raw.KeepAliveInterval, &cfg.KeepAliveInterval},
		{"pong_timeout", raw.PongTimeout, &cfg.PongTimeout},
		{"response_timeout", raw.ResponseTimeout, &cfg.ResponseTimeout},
		{"sweep_interval", raw.SweepInterval, &cfg.SweepInterval},
		{"backoff_base", raw.BackoffBase, &cfg.BackoffBase},
		{"backoff_cap", raw.BackoffCap, &cfg.BackoffCap},
		{"jitter_max", raw.JitterMax, &cfg.JitterMax},
		{"send_interval", raw.SendInterval, &cfg.SendInterval},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.value))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if meta.IsDefined("max_attempts") {
		cfg.MaxAttempts = raw.MaxAttempts
	}
	if meta.IsDefined("auto_reconnect") {
		cfg.AutoReconnect = raw.AutoReconnect
	}
	if meta.IsDefined("send_burst") {
		cfg.SendBurst = raw.SendBurst
	}

	return cfg, nil
}
