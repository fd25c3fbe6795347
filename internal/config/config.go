// Package config loads the board configuration: which lifecycle columns the
// kanban shows, which actions each status offers, branding and ui
// preferences, and where the order API lives.
//
// The configuration is data, not code. A missing file, a partial document,
// or a malformed one all degrade to the embedded defaults; nothing here is
// a hard failure.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rodri-oliveira/atendeja/internal/order"
)

const (
	// DefaultPath is where the loader looks when no path is given.
	DefaultPath = "atendeja.yaml"

	defaultAppTitle        = "Operations Board"
	defaultListLimit       = 50
	defaultPollSeconds     = 100
	defaultMutationSeconds = 10
)

// Column is one board column: a lifecycle status plus its header title.
type Column struct {
	Status string `yaml:"status"`
	Title  string `yaml:"title"`
}

// Action is one transition offered from a status.
type Action struct {
	Label string `yaml:"label"`
	Next  string `yaml:"next"`
}

// Branding carries presentation-only strings.
type Branding struct {
	AppTitle string `yaml:"app_title"`
}

// UI holds ephemeral display preferences.
type UI struct {
	CompactDefault bool `yaml:"compact_default"`
	ColumnWidth    int  `yaml:"column_width"`
}

// API points the client at the order service.
type API struct {
	BaseURL                string `yaml:"base_url"`
	MutationTimeoutSeconds int    `yaml:"mutation_timeout_seconds"`
}

// Board groups the lifecycle description.
type Board struct {
	PollIntervalSeconds int                 `yaml:"poll_interval_seconds"`
	DefaultLimit        int                 `yaml:"default_limit"`
	Columns             []Column            `yaml:"columns"`
	Actions             map[string][]Action `yaml:"actions"`
}

// Config is the full document consumed at startup.
type Config struct {
	Version  int      `yaml:"version"`
	Branding Branding `yaml:"branding"`
	API      API      `yaml:"api"`
	Board    Board    `yaml:"board"`
	UI       UI       `yaml:"ui"`
}

// Default returns the embedded lifecycle configuration: every status gets a
// column, and each non-terminal status offers its forward step plus cancel.
func Default() *Config {
	cfg := &Config{
		Version:  1,
		Branding: Branding{AppTitle: defaultAppTitle},
		API: API{
			BaseURL:                "http://localhost:8000",
			MutationTimeoutSeconds: defaultMutationSeconds,
		},
		Board: Board{
			PollIntervalSeconds: defaultPollSeconds,
			DefaultLimit:        defaultListLimit,
			Actions: map[string][]Action{
				string(order.StatusDraft): {
					{Label: "Confirm", Next: string(order.StatusPendingPayment)},
					{Label: "Cancel", Next: string(order.StatusCanceled)},
				},
				string(order.StatusPendingPayment): {
					{Label: "Mark paid", Next: string(order.StatusPaid)},
					{Label: "Cancel", Next: string(order.StatusCanceled)},
				},
				string(order.StatusPaid): {
					{Label: "Start preparing", Next: string(order.StatusInKitchen)},
					{Label: "Cancel", Next: string(order.StatusCanceled)},
				},
				string(order.StatusInKitchen): {
					{Label: "Out for delivery", Next: string(order.StatusOutForDelivery)},
					{Label: "Cancel", Next: string(order.StatusCanceled)},
				},
				string(order.StatusOutForDelivery): {
					{Label: "Deliver", Next: string(order.StatusDelivered)},
					{Label: "Cancel", Next: string(order.StatusCanceled)},
				},
			},
		},
		UI: UI{ColumnWidth: 32},
	}
	for _, s := range order.Statuses() {
		cfg.Board.Columns = append(cfg.Board.Columns, Column{
			Status: string(s),
			Title:  s.DisplayName(),
		})
	}
	return cfg
}

// Load reads the yaml document at path. The returned Config is always
// usable; the error, when non-nil, explains which parts fell back to the
// defaults so the caller can log it.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		cfg.applyEnvOverrides()
		cfg.normalize()
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		cfg.applyEnvOverrides()
		cfg.normalize()
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.merge(parsed)
	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg, nil
}

// merge overlays the parsed document on the defaults, field by field.
// Absent sections keep their default values.
func (c *Config) merge(parsed Config) {
	if parsed.Version != 0 {
		c.Version = parsed.Version
	}
	if strings.TrimSpace(parsed.Branding.AppTitle) != "" {
		c.Branding.AppTitle = parsed.Branding.AppTitle
	}
	if strings.TrimSpace(parsed.API.BaseURL) != "" {
		c.API.BaseURL = parsed.API.BaseURL
	}
	if parsed.API.MutationTimeoutSeconds > 0 {
		c.API.MutationTimeoutSeconds = parsed.API.MutationTimeoutSeconds
	}
	if parsed.Board.PollIntervalSeconds > 0 {
		c.Board.PollIntervalSeconds = parsed.Board.PollIntervalSeconds
	}
	if parsed.Board.DefaultLimit > 0 {
		c.Board.DefaultLimit = parsed.Board.DefaultLimit
	}
	if len(parsed.Board.Columns) > 0 {
		c.Board.Columns = parsed.Board.Columns
	}
	if parsed.Board.Actions != nil {
		c.Board.Actions = parsed.Board.Actions
	}
	if parsed.UI.ColumnWidth > 0 {
		c.UI.ColumnWidth = parsed.UI.ColumnWidth
	}
	c.UI.CompactDefault = c.UI.CompactDefault || parsed.UI.CompactDefault
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("ATENDEJA_API_BASE_URL")); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ATENDEJA_POLL_INTERVAL_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Board.PollIntervalSeconds = parsed
		}
	}
}

// normalize drops entries the board cannot render: columns whose status is
// not in the lifecycle and actions whose target is unknown. A subset
// configuration is legitimate; silently invalid data is not.
func (c *Config) normalize() {
	if c.Version == 0 {
		c.Version = 1
	}
	if strings.TrimSpace(c.Branding.AppTitle) == "" {
		c.Branding.AppTitle = defaultAppTitle
	}
	c.API.BaseURL = strings.TrimSpace(c.API.BaseURL)
	if c.API.MutationTimeoutSeconds <= 0 {
		c.API.MutationTimeoutSeconds = defaultMutationSeconds
	}
	if c.Board.PollIntervalSeconds <= 0 {
		c.Board.PollIntervalSeconds = defaultPollSeconds
	}
	if c.Board.DefaultLimit <= 0 {
		c.Board.DefaultLimit = defaultListLimit
	}

	columns := make([]Column, 0, len(c.Board.Columns))
	for _, col := range c.Board.Columns {
		status, err := order.ParseStatus(strings.TrimSpace(col.Status))
		if err != nil {
			continue
		}
		title := strings.TrimSpace(col.Title)
		if title == "" {
			title = status.DisplayName()
		}
		columns = append(columns, Column{Status: string(status), Title: title})
	}
	if len(columns) == 0 {
		columns = Default().Board.Columns
	}
	c.Board.Columns = columns

	actions := map[string][]Action{}
	for rawStatus, specs := range c.Board.Actions {
		status, err := order.ParseStatus(strings.TrimSpace(rawStatus))
		if err != nil || status.Terminal() {
			continue
		}
		kept := make([]Action, 0, len(specs))
		for _, spec := range specs {
			next, err := order.ParseStatus(strings.TrimSpace(spec.Next))
			if err != nil {
				continue
			}
			label := strings.TrimSpace(spec.Label)
			if label == "" {
				label = next.DisplayName()
			}
			kept = append(kept, Action{Label: label, Next: string(next)})
		}
		if len(kept) > 0 {
			actions[string(status)] = kept
		}
	}
	c.Board.Actions = actions
}

// ActionsFor returns the configured transitions offered from a status.
// Terminal statuses never offer any.
func (c *Config) ActionsFor(s order.Status) []Action {
	if s.Terminal() {
		return nil
	}
	return c.Board.Actions[string(s)]
}

// PollInterval returns the refresh cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Board.PollIntervalSeconds) * time.Second
}

// MutationTimeout returns the write deadline as a duration.
func (c *Config) MutationTimeout() time.Duration {
	return time.Duration(c.API.MutationTimeoutSeconds) * time.Second
}
