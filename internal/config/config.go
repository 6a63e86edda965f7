// Package config loads procdoc settings from procdoc.yaml, a .env file and
// PROCDOC_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/procdoc/internal/system"
)

// DefaultFile is read when no config path is given. It is optional.
const DefaultFile = "procdoc.yaml"

type Config struct {
	FFmpeg         string        `yaml:"ffmpeg"`
	FFprobe        string        `yaml:"ffprobe"`
	Workers        int           `yaml:"workers"`
	ExtractTimeout time.Duration `yaml:"extract_timeout"`
	MaxFrameWidth  int           `yaml:"max_frame_width"`
	Detector       string        `yaml:"detector"` // "" or "none" keeps blank frames
	OutputDir      string        `yaml:"output_dir"`
	AssetsDir      string        `yaml:"assets_dir"`
	SessionDB      string        `yaml:"session_db"`
	SourceLink     string        `yaml:"source_link"`
}

func Default() *Config {
	return &Config{
		FFmpeg:         "ffmpeg",
		FFprobe:        "ffprobe",
		ExtractTimeout: 20 * time.Second,
		MaxFrameWidth:  1600,
		OutputDir:      "output",
		AssetsDir:      "assets",
	}
}

// Load reads path over the defaults, then applies the environment. A missing
// DefaultFile is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[!] .env: %v", err)
		}
		return
	}
	log.Println("[*] Loaded environment variables from .env")
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PROCDOC_FFMPEG"); v != "" {
		c.FFmpeg = v
	}
	if v := getenv("PROCDOC_FFPROBE"); v != "" {
		c.FFprobe = v
	}
	if v := getenv("PROCDOC_DB"); v != "" {
		c.SessionDB = v
	}
	if v := getenv("PROCDOC_SOURCE_LINK"); v != "" {
		c.SourceLink = v
	}
	if v := getenv("PROCDOC_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROCDOC_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

func (c *Config) normalize() {
	if c.Workers <= 0 {
		c.Workers = system.DefaultWorkers()
	}
	if c.ExtractTimeout <= 0 {
		c.ExtractTimeout = Default().ExtractTimeout
	}
	if c.SessionDB == "" {
		c.SessionDB = DefaultDBPath()
	}
}

// DefaultDBPath is ~/.procdoc/sessions.db.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".procdoc", "sessions.db")
}
