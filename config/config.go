package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"themedmark/model"
	"themedmark/scheme"
	"themedmark/storage"
)

const FileName = "themedmark.config"

type Config struct {
	DataDir      string              `json:"data_dir"`
	ListenAddr   string              `json:"listen_addr"`
	PollInterval string              `json:"poll_interval,omitempty"` // Go duration, e.g. "1s"
	Store        storage.Kind        `json:"store,omitempty"`
	LogLevel     string              `json:"log_level,omitempty"`
	Schemes      []model.ColorScheme `json:"schemes"`
}

func Default() Config {
	return Config{
		DataDir:      ".",
		ListenAddr:   ":8080",
		PollInterval: "1s",
		Store:        storage.KindFS,
		LogLevel:     "info",
		Schemes:      []model.ColorScheme{},
	}
}

// Path is the config file location inside dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// fileConfig reads the scheme list separately so a bad list does not fail the whole load.
type fileConfig struct {
	Config
	Schemes json.RawMessage `json:"schemes"`
}

// Load reads the config from dataDir. A missing file yields the defaults; a file that
// cannot be read or parsed is an error. A schemes value of the wrong shape is replaced by
// an empty list, and individual schemes that fail validation are dropped. Both are logged.
func Load(dataDir string) (Config, error) {
	f, err := os.Open(Path(dataDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.DataDir = dataDir
			return cfg, nil
		}
		return Config{}, err
	}
	defer f.Close()

	var fc fileConfig
	if err := json.NewDecoder(f).Decode(&fc); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", Path(dataDir), err)
	}
	cfg := fc.Config
	cfg.Schemes = loadSchemes(fc.Schemes, Path(dataDir))

	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.PollInterval == "" {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.Store == "" {
		cfg.Store = def.Store
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}

	return cfg, nil
}

func loadSchemes(raw json.RawMessage, path string) []model.ColorScheme {
	out := []model.ColorScheme{}
	if len(raw) == 0 || string(raw) == "null" {
		return out
	}

	var in []model.ColorScheme
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Warn("ignoring malformed scheme list", "path", path, "err", err)
		return out
	}
	for _, s := range in {
		if err := scheme.Validate(s); err != nil {
			log.Warn("skipping invalid scheme", "path", path, "name", s.Name, "err", err)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Interval parses PollInterval, falling back to one second for empty or non-positive values.
func (c Config) Interval() (time.Duration, error) {
	if c.PollInterval == "" {
		return time.Second, nil
	}
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("poll_interval: %w", err)
	}
	if d <= 0 {
		return time.Second, nil
	}
	return d, nil
}

// Save writes cfg to its data directory, replacing the file atomically.
func Save(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(Path(cfg.DataDir), append(data, '\n'))
}

// Persister writes scheme changes back to the config file. Its Save method is a registry
// update hook: failures are logged, never propagated, and the last one is kept for Err.
type Persister struct {
	mu  sync.Mutex
	cfg Config
	log *log.Logger
	err error
}

func NewPersister(cfg Config, logger *log.Logger) *Persister {
	if logger == nil {
		logger = log.Default()
	}
	return &Persister{cfg: cfg, log: logger}
}

func (p *Persister) Save(schemes []model.ColorScheme) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.Schemes = schemes
	p.err = Save(p.cfg)
	if p.err != nil {
		p.log.Error("failed to save settings", "path", Path(p.cfg.DataDir), "err", p.err)
	}
}

// Err returns the result of the most recent Save.
func (p *Persister) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
