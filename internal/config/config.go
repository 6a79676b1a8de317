package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		IdleTimeout  time.Duration `yaml:"idleTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		MaxUploadMB  int64         `yaml:"maxUploadMB"`
	} `yaml:"server"`

	Gemini   Provider `yaml:"gemini"`
	Groq     Provider `yaml:"groq"`
	Cerebras Provider `yaml:"cerebras"`

	Detector struct {
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"detector"`

	Media Media `yaml:"media"`

	Storage struct {
		UploadDir string `yaml:"uploadDir"`
	} `yaml:"storage"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	Extension struct {
		// ExposeKeys enables GET /api/extension/keys, which returns the
		// vendor keys in plaintext to any caller allowed by CORS.
		ExposeKeys bool `yaml:"exposeKeys"`
	} `yaml:"extension"`

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
}

// Provider is the per-vendor section handed to an adapter constructor.
type Provider struct {
	APIKey       string  `yaml:"apiKey"`
	BaseURL      string  `yaml:"baseURL"`
	APIVersion   string  `yaml:"apiVersion"`
	DefaultModel string  `yaml:"defaultModel"`
	Temperature  float32 `yaml:"temperature"`
}

// Media configures the multimodal preprocessor.
type Media struct {
	PdftoppmPath string `yaml:"pdftoppmPath"`
	MaxPages     int    `yaml:"maxPages"`
	DPI          int    `yaml:"dpi"`
	MaxPageWidth uint   `yaml:"maxPageWidth"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var c Config
	c.Server.Port = 5001
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.MaxUploadMB = 20

	c.Gemini = Provider{
		BaseURL:      "https://generativelanguage.googleapis.com",
		APIVersion:   "v1beta",
		DefaultModel: "gemini-2.0-flash",
		Temperature:  0.1,
	}
	c.Groq = Provider{
		BaseURL:      "https://api.groq.com/openai/v1",
		DefaultModel: "llama3-70b-8192",
		Temperature:  0.2,
	}
	c.Cerebras = Provider{
		BaseURL:      "https://api.cerebras.ai/v1",
		DefaultModel: "llama3.1-70b",
		Temperature:  0.2,
	}

	c.Detector.Model = "gemini-2.0-flash"
	c.Detector.Timeout = 10 * time.Second

	c.Media = Media{
		PdftoppmPath: "pdftoppm",
		MaxPages:     5,
		DPI:          150,
		MaxPageWidth: 1600,
	}

	c.Storage.UploadDir = "/tmp/vectora_uploads"
	c.CORS.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	return c
}

// Load reads the YAML file at path on top of Default and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, err
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.Media.MaxPages <= 0 || cfg.Media.MaxPages > 5 {
		cfg.Media.MaxPages = 5
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Groq.APIKey = v
	}
	if v := os.Getenv("CEREBRAS_API_KEY"); v != "" {
		c.Cerebras.APIKey = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.Storage.UploadDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// MaxUploadBytes is the request body limit for /process.
func (c Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
