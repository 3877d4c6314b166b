package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GamificationConfig is the externally tunable reward table.
type GamificationConfig struct {
	Points map[string]int    `mapstructure:"points"`
	Badges []BadgeThresholds `mapstructure:"badges"`
}

// BadgeThresholds are the counter values that unlock each tier of a badge type.
type BadgeThresholds struct {
	Type   string `mapstructure:"type"`
	Bronze int64  `mapstructure:"bronze"`
	Silver int64  `mapstructure:"silver"`
	Gold   int64  `mapstructure:"gold"`
}

func DefaultGamificationConfig() GamificationConfig {
	return GamificationConfig{
		Points: map[string]int{
			"create_report":        10,
			"comment":              5,
			"new_follower":         3,
			"confirmation_vote":    8,
			"report_closed":        25,
			"resolution_confirmed": 15,
			"badge_unlocked":       10,
		},
		Badges: []BadgeThresholds{
			{Type: "spotter", Bronze: 1, Silver: 5, Gold: 15},
			{Type: "kampung_hero", Bronze: 5, Silver: 15, Gold: 50},
			{Type: "closer", Bronze: 2, Silver: 5, Gold: 15},
		},
	}
}

// PointsFor returns the configured value for action and whether it is known.
func (c GamificationConfig) PointsFor(action string) (int, bool) {
	value, ok := c.Points[strings.ToLower(strings.TrimSpace(action))]
	return value, ok
}

// ThresholdsFor returns the tier thresholds for a badge type.
func (c GamificationConfig) ThresholdsFor(badgeType string) (BadgeThresholds, bool) {
	for _, b := range c.Badges {
		if strings.EqualFold(b.Type, badgeType) {
			return b, true
		}
	}
	return BadgeThresholds{}, false
}

type GamificationConfigHolder struct {
	current atomic.Value // holds GamificationConfig
}

// NewStaticGamificationConfigHolder wraps a fixed table without file watching.
func NewStaticGamificationConfigHolder(cfg GamificationConfig) (*GamificationConfigHolder, error) {
	if err := validateGamificationConfig(cfg); err != nil {
		return nil, err
	}
	holder := &GamificationConfigHolder{}
	holder.current.Store(cfg)
	return holder, nil
}

func NewGamificationConfigHolder(log *zap.Logger) (*GamificationConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.gamification")

	v := viper.New()

	v.SetConfigName("gamification")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/civicpulse/config")
	v.AddConfigPath("/etc/civicpulse")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CIVICPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGamificationConfig()
	v.SetDefault("gamification.points", defaults.Points)
	v.SetDefault("gamification.badges", defaults.Badges)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodeGamificationConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &GamificationConfigHolder{}
	holder.current.Store(cfg)

	if !fileFound {
		log.Info("gamification config file not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeGamificationConfig(v)
		if err != nil {
			log.Warn("gamification config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("gamification config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *GamificationConfigHolder) Get() GamificationConfig {
	return h.current.Load().(GamificationConfig)
}

func decodeGamificationConfig(v *viper.Viper) (GamificationConfig, error) {
	var cfg GamificationConfig
	if err := v.UnmarshalKey("gamification", &cfg); err != nil {
		return GamificationConfig{}, err
	}
	// A partial file only overrides the actions it names.
	merged := DefaultGamificationConfig()
	for action, points := range cfg.Points {
		merged.Points[strings.ToLower(strings.TrimSpace(action))] = points
	}
	if len(cfg.Badges) > 0 {
		merged.Badges = cfg.Badges
	}
	if err := validateGamificationConfig(merged); err != nil {
		return GamificationConfig{}, err
	}
	return merged, nil
}

func validateGamificationConfig(cfg GamificationConfig) error {
	if len(cfg.Points) == 0 {
		return errors.New("gamification.points cannot be empty")
	}
	for action, points := range cfg.Points {
		if points < 0 {
			return fmt.Errorf("gamification.points.%s must not be negative", action)
		}
	}
	if len(cfg.Badges) == 0 {
		return errors.New("gamification.badges cannot be empty")
	}
	seen := map[string]struct{}{}
	for _, b := range cfg.Badges {
		name := strings.TrimSpace(b.Type)
		if name == "" {
			return errors.New("gamification.badges.type is required")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("gamification.badges.%s is duplicated", name)
		}
		seen[name] = struct{}{}
		if b.Bronze <= 0 || b.Silver <= b.Bronze || b.Gold <= b.Silver {
			return fmt.Errorf("gamification.badges.%s thresholds must be positive and increasing", name)
		}
	}
	return nil
}
