package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Tools     Tools      `yaml:"tools"`
	Results   Results    `yaml:"results"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// Tools names the five collaborator CLIs the harness drives. Each is invoked
// by binary name; PATH resolution is left to the environment.
type Tools struct {
	Supervisor string `yaml:"supervisor"`
	Bus        string `yaml:"bus"`
	Tracker    string `yaml:"tracker"`
	Review     string `yaml:"review"`
	Workspace  string `yaml:"workspace"`
}

type Scenario struct {
	Name                  string  `yaml:"name"`
	Channel               string  `yaml:"channel"`
	TriggerLabel          string  `yaml:"trigger_label"`
	TriggerBody           string  `yaml:"trigger_body"`
	MissionLabel          string  `yaml:"mission_label"`
	TimeoutMinutes        int     `yaml:"timeout_minutes"`
	PollIntervalSeconds   int     `yaml:"poll_interval_seconds"`
	StuckThresholdSeconds int     `yaml:"stuck_threshold_seconds"`
	GracePolls            int     `yaml:"grace_polls"`
	GraceIntervalSeconds  int     `yaml:"grace_interval_seconds"`
	Sandbox               Sandbox `yaml:"sandbox"`
}

// Sandbox describes the optional dockerized mesh the setup step launches.
// An empty image means the mesh is already running outside the harness.
type Sandbox struct {
	Image   string `yaml:"image"`
	EnvFile string `yaml:"env_file"`
}

type Results struct {
	Dir string `yaml:"dir"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Tools.Supervisor == "" {
		cfg.Tools.Supervisor = "overseer"
	}
	if cfg.Tools.Bus == "" {
		cfg.Tools.Bus = "relay"
	}
	if cfg.Tools.Tracker == "" {
		cfg.Tools.Tracker = "bead"
	}
	if cfg.Tools.Review == "" {
		cfg.Tools.Review = "crit"
	}
	if cfg.Tools.Workspace == "" {
		cfg.Tools.Workspace = "ws"
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "./results"
	}
	if len(cfg.Scenarios) == 0 {
		return fmt.Errorf("no scenarios defined")
	}
	seen := map[string]bool{}
	for i := range cfg.Scenarios {
		s := &cfg.Scenarios[i]
		if s.Name == "" {
			return fmt.Errorf("scenario %d: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("scenario %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
		if s.Channel == "" {
			return fmt.Errorf("scenario %q: channel is required", s.Name)
		}
		if s.TriggerBody == "" {
			return fmt.Errorf("scenario %q: trigger_body is required", s.Name)
		}
		if s.TriggerLabel == "" {
			s.TriggerLabel = "mission-request"
		}
		if s.MissionLabel == "" {
			s.MissionLabel = "mission"
		}
		if s.TimeoutMinutes < 1 {
			s.TimeoutMinutes = 30
		}
		if s.PollIntervalSeconds < 1 {
			s.PollIntervalSeconds = 10
		}
		if s.StuckThresholdSeconds < 1 {
			s.StuckThresholdSeconds = 300
		}
		if s.GracePolls < 1 {
			s.GracePolls = 6
		}
		if s.GraceIntervalSeconds < 1 {
			s.GraceIntervalSeconds = 5
		}
	}
	return nil
}

// Find returns the named scenario or an error listing what exists.
func (c *Config) Find(name string) (*Scenario, error) {
	for i := range c.Scenarios {
		if c.Scenarios[i].Name == name {
			return &c.Scenarios[i], nil
		}
	}
	var names []string
	for _, s := range c.Scenarios {
		names = append(names, s.Name)
	}
	return nil, fmt.Errorf("scenario %q not found (have: %v)", name, names)
}
