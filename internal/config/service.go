package config

import "time"

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	ClientURL   string `yaml:"client_url"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Output      string `yaml:"output"`
	FilePath    string `yaml:"file_path"`
	Development bool   `yaml:"development"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// ReferralConfig holds the attribution policy knobs.
type ReferralConfig struct {
	// CooldownDays is the window after an attribution assignment or a denied
	// change request during which new change requests are refused.
	CooldownDays int `yaml:"cooldown_days"`

	// DeniedConsumesAllowance controls whether a denied change request uses up
	// the customer's lifetime change allowance. When false, a customer may try
	// again after a denial once the cooldown has passed.
	DeniedConsumesAllowance bool `yaml:"denied_consumes_allowance"`

	// PendingTTL is how long a cookie-held pending attribution stays valid
	// between an anonymous link visit and account confirmation.
	PendingTTL time.Duration `yaml:"pending_ttl"`

	// VisitRateLimit caps link visits per session within VisitRateWindow.
	// Visits over the cap are still logged but flagged for abuse review.
	VisitRateLimit  int           `yaml:"visit_rate_limit"`
	VisitRateWindow time.Duration `yaml:"visit_rate_window"`
}

func (c *ReferralConfig) ApplyDefaults() {
	if c.CooldownDays <= 0 {
		c.CooldownDays = 14
	}
	if c.PendingTTL <= 0 {
		c.PendingTTL = 30 * 24 * time.Hour
	}
	if c.VisitRateLimit <= 0 {
		c.VisitRateLimit = 30
	}
	if c.VisitRateWindow <= 0 {
		c.VisitRateWindow = time.Hour
	}
}

// Cooldown returns the cooldown window as a duration.
func (c *ReferralConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownDays) * 24 * time.Hour
}
