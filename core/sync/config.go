package sync

import "fmt"

// Config defines the reconciliation cadence and notification retention.
type Config struct {
	// IntervalSeconds is the period of the full-state refresh.
	IntervalSeconds int `json:"interval_seconds"`
	// RetentionHours is how long delivered notifications are kept.
	RetentionHours int `json:"retention_hours"`
	// PurgeIntervalMinutes is the period of the retention sweep.
	PurgeIntervalMinutes int `json:"purge_interval_minutes"`
}

// SetDefaults applies the reference cadence: 5s refresh, 24h retention
// purged hourly.
func (c *Config) SetDefaults() {
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 5
	}
	if c.RetentionHours == 0 {
		c.RetentionHours = 24
	}
	if c.PurgeIntervalMinutes == 0 {
		c.PurgeIntervalMinutes = 60
	}
}

// Validate checks the cadence values.
func (c Config) Validate() error {
	if c.IntervalSeconds < 0 || c.RetentionHours < 0 || c.PurgeIntervalMinutes < 0 {
		return fmt.Errorf("sync: negative interval")
	}
	return nil
}
