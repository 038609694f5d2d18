// Package config loads taskdeck settings from defaults, an optional YAML file
// and TASKDECK_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. TASKDECK_API_BASE_URL
const EnvPrefix = "TASKDECK"

// Config is the full taskdeck configuration
type Config struct {
	API API `yaml:"api" mapstructure:"api"`

	// Author pre-fills the author field of new comments
	Author string `yaml:"author" mapstructure:"author"`

	// MarkdownStyle is the glamour style of task descriptions: auto, dark,
	// light, notty, ascii, dracula, pink or tokyo-night
	MarkdownStyle string `yaml:"markdown_style" mapstructure:"markdown_style"`

	// LogFile receives diagnostics while the TUI owns the terminal
	LogFile string `yaml:"log_file" mapstructure:"log_file"`

	Server Server `yaml:"server" mapstructure:"server"`
}

// API configures the client side
type API struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// Server configures `taskdeck serve`
type Server struct {
	Addr   string `yaml:"addr" mapstructure:"addr"`
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
	Seed   bool   `yaml:"seed" mapstructure:"seed"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: API{
			BaseURL: "http://localhost:5000/api",
		},
		MarkdownStyle: "auto",
		LogFile:       filepath.Join(stateDir(), "taskdeck", "taskdeck.log"),
		Server: Server{
			Addr: ":5000",
			// empty selects the XDG data directory
			DBPath: "",
		},
	}
}

// Load reads the configuration. An empty path uses DefaultPath, which may be
// missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if explicit || !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// every key needs a default so AutomaticEnv can see it during Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("author", cfg.Author)
	v.SetDefault("markdown_style", cfg.MarkdownStyle)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.db_path", cfg.Server.DBPath)
	v.SetDefault("server.seed", cfg.Server.Seed)
}

// DefaultPath returns the path of the user's config file
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "taskdeck", "config.yaml")
}

func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state")
}

// WriteDefault writes a commented default configuration to path
func WriteDefault(path string) error {
	content := `# taskdeck configuration

# REST service the client talks to
api:
  base_url: http://localhost:5000/api

# Pre-fills the author of new comments
# author: Jane Smith

# Style of task descriptions: auto, dark, light, notty, ascii, dracula, pink, tokyo-night
markdown_style: auto

# Diagnostics written while the TUI is running
# log_file: ~/.local/state/taskdeck/taskdeck.log

# taskdeck serve
server:
  addr: ":5000"
  # db_path: ~/.local/share/taskdeck/taskdeck.db
  seed: false
`
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
