// Package config resolves pipeline configuration from a YAML file,
// environment variables, and CLI flags, in that precedence order
// (flags win).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	DBPath     string            `yaml:"db_path"`
	ListenAddr string            `yaml:"listen_addr"`
	LLM        LLM               `yaml:"llm"`
	Tokens     map[string]string `yaml:"tokens"`
	Collect    Collect           `yaml:"collect"`
}

// LLM holds completion-endpoint settings.
type LLM struct {
	Provider    string `yaml:"provider"` // openrouter, openai, deepseek, ollama, custom
	Model       string `yaml:"model"`
	APIKey      string `yaml:"api_key"`
	Endpoint    string `yaml:"endpoint"` // empty = provider default
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Collect holds collector/runner tunables.
type Collect struct {
	PageSize int `yaml:"page_size"`
	Workers  int `yaml:"workers"`
}

// DefaultPath is where the config file lives unless overridden.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".defectflow", "config.yaml")
}

// Resolve loads the file at path (missing file = defaults), then applies
// environment overrides and provider defaults.
func Resolve(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}

	cfg := Config{
		ListenAddr: ":8000",
		LLM: LLM{
			Provider:    "openrouter",
			Model:       "openai/gpt-4o-mini",
			TimeoutSecs: 30,
		},
		Collect: Collect{PageSize: 100, Workers: 1},
		Tokens:  map[string]string{},
	}

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
		if cfg.Tokens == nil {
			cfg.Tokens = map[string]string{}
		}
	}

	cfg.applyEnv()
	cfg.applyProviderDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	applyEnv(&c.DBPath, "DEFECTFLOW_DB")
	applyEnv(&c.ListenAddr, "DEFECTFLOW_LISTEN")
	applyEnv(&c.LLM.Provider, "DEFECTFLOW_LLM_PROVIDER")
	applyEnv(&c.LLM.Model, "DEFECTFLOW_LLM_MODEL")
	applyEnv(&c.LLM.Endpoint, "DEFECTFLOW_LLM_ENDPOINT")
	applyEnv(&c.LLM.APIKey, "DEFECTFLOW_LLM_API_KEY")

	if v := strings.TrimSpace(os.Getenv("DEFECTFLOW_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Collect.Workers = n
		}
	}

	// Platform tokens: env wins over the config file; the token store in
	// the database wins over both at run time.
	for env, platform := range map[string]string{
		"GITHUB_TOKEN": "github",
		"GITEE_TOKEN":  "gitee",
		"GITLAB_TOKEN": "gitlab",
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			c.Tokens[platform] = v
		}
	}
}

// applyProviderDefaults fills the endpoint and API key from the provider
// choice when they weren't set explicitly.
func (c *Config) applyProviderDefaults() {
	if c.LLM.Endpoint == "" {
		switch strings.ToLower(c.LLM.Provider) {
		case "openrouter":
			c.LLM.Endpoint = "https://openrouter.ai/api/v1/chat/completions"
		case "openai":
			c.LLM.Endpoint = "https://api.openai.com/v1/chat/completions"
		case "deepseek":
			c.LLM.Endpoint = "https://api.deepseek.com/v1/chat/completions"
		case "ollama":
			c.LLM.Endpoint = "http://localhost:11434/v1/chat/completions"
		}
	}
	if c.LLM.APIKey == "" {
		switch strings.ToLower(c.LLM.Provider) {
		case "openrouter":
			c.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "deepseek":
			c.LLM.APIKey = os.Getenv("DEEPSEEK_API_KEY")
		}
	}
}

func applyEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
