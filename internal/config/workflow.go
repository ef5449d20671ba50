package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/JaimeStill/accord/internal/scheduling"
	"github.com/JaimeStill/accord/internal/workflow"
)

const (
	EnvWorkflowSessionTTL      = "ACCORD_WORKFLOW_SESSION_TTL"
	EnvWorkflowSweepInterval   = "ACCORD_WORKFLOW_SWEEP_INTERVAL"
	EnvWorkflowCalendarBaseURL = "ACCORD_WORKFLOW_CALENDAR_BASE_URL"
	EnvWorkflowMeetingRooms    = "ACCORD_WORKFLOW_MEETING_ROOMS"
)

// WorkflowConfig holds session retention and meeting scheduling settings.
// A SessionTTL of "0" keeps sessions until the process exits.
type WorkflowConfig struct {
	SessionTTL      string   `toml:"session_ttl"`
	SweepInterval   string   `toml:"sweep_interval"`
	CalendarBaseURL string   `toml:"calendar_base_url"`
	MeetingRooms    []string `toml:"meeting_rooms"`
}

// SessionTTLDuration returns SessionTTL as a time.Duration.
func (c *WorkflowConfig) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}

// SweepIntervalDuration returns SweepInterval as a time.Duration.
func (c *WorkflowConfig) SweepIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SweepInterval)
	return d
}

// Registry returns the session registry parameters.
func (c *WorkflowConfig) Registry() workflow.RegistryConfig {
	return workflow.RegistryConfig{
		SessionTTL:    c.SessionTTLDuration(),
		SweepInterval: c.SweepIntervalDuration(),
	}
}

// Scheduling returns the meeting scheduler parameters.
func (c *WorkflowConfig) Scheduling() scheduling.Config {
	return scheduling.Config{
		Rooms:       c.MeetingRooms,
		CalendarURL: c.CalendarBaseURL,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.SessionTTL != "" {
		c.SessionTTL = overlay.SessionTTL
	}
	if overlay.SweepInterval != "" {
		c.SweepInterval = overlay.SweepInterval
	}
	if overlay.CalendarBaseURL != "" {
		c.CalendarBaseURL = overlay.CalendarBaseURL
	}
	if len(overlay.MeetingRooms) > 0 {
		c.MeetingRooms = overlay.MeetingRooms
	}
}

func (c *WorkflowConfig) loadDefaults() {
	if c.SessionTTL == "" {
		c.SessionTTL = "24h"
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "5m"
	}
	if c.CalendarBaseURL == "" {
		c.CalendarBaseURL = scheduling.DefaultCalendarURL
	}
	if len(c.MeetingRooms) == 0 {
		c.MeetingRooms = scheduling.DefaultRooms
	}
}

func (c *WorkflowConfig) loadEnv() {
	if v := os.Getenv(EnvWorkflowSessionTTL); v != "" {
		c.SessionTTL = v
	}
	if v := os.Getenv(EnvWorkflowSweepInterval); v != "" {
		c.SweepInterval = v
	}
	if v := os.Getenv(EnvWorkflowCalendarBaseURL); v != "" {
		c.CalendarBaseURL = v
	}
	if v := os.Getenv(EnvWorkflowMeetingRooms); v != "" {
		var rooms []string
		for room := range strings.SplitSeq(v, ",") {
			if room = strings.TrimSpace(room); room != "" {
				rooms = append(rooms, room)
			}
		}
		if len(rooms) > 0 {
			c.MeetingRooms = rooms
		}
	}
}

func (c *WorkflowConfig) validate() error {
	ttl, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return fmt.Errorf("invalid session_ttl: %w", err)
	}
	if ttl < 0 {
		return fmt.Errorf("invalid session_ttl: must not be negative")
	}
	sweep, err := time.ParseDuration(c.SweepInterval)
	if err != nil {
		return fmt.Errorf("invalid sweep_interval: %w", err)
	}
	if sweep <= 0 {
		return fmt.Errorf("invalid sweep_interval: must be positive")
	}
	u, err := url.Parse(c.CalendarBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid calendar_base_url: %q", c.CalendarBaseURL)
	}
	return nil
}
