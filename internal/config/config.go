// Package config holds server settings and the tunable game policy. Values
// come from defaults, then an optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GeminiConfig configures the outbound text-generation call
type GeminiConfig struct {
	APIKey          string  `yaml:"-"` // env only, never from file
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// DurationStep maps an active-player count to a discussion length
type DurationStep struct {
	MaxPlayers int `yaml:"max_players"`
	Seconds    int `yaml:"seconds"`
}

// Policy collects the tunable game constants. The step table, label pool
// size and probabilities are policy, not structural contracts.
type Policy struct {
	Shapes    []string       `yaml:"shapes"`
	MinHumans int            `yaml:"min_humans"`
	MaxHumans int            `yaml:"max_humans"`
	Durations []DurationStep `yaml:"durations"`

	SwapChance         float64 `yaml:"swap_chance"`          // label reshuffle after resolution
	SpeakChance        float64 `yaml:"speak_chance"`         // AI speaks on an unprompted turn
	AccusedSpeakChance float64 `yaml:"accused_speak_chance"` // AI speaks when just accused
	MobJoinChance      float64 `yaml:"mob_join_chance"`
	RetaliateChance    float64 `yaml:"retaliate_chance"`

	MessageCooldownMs int `yaml:"message_cooldown_ms"`
	MaxMessageLen     int `yaml:"max_message_len"`
	RepeatWindow      int `yaml:"repeat_window"`       // AI's own messages checked for loops
	PrefixGuardLen    int `yaml:"prefix_guard_len"`    // leading chars compared exactly
	RecentWindow      int `yaml:"recent_window"`       // chat lines fed to the AI
	EarlyGameMessages int `yaml:"early_game_messages"` // fewer than this = early game
	EarlyGameSeconds  int `yaml:"early_game_seconds"`
	MinTurnSecondsLeft int `yaml:"min_turn_seconds_left"` // AI stays quiet near the deadline

	FirstTurnDelaySec int `yaml:"first_turn_delay_sec"` // first AI check after round start
	ReadDelayPerCharMs int `yaml:"read_delay_per_char_ms"`
	TurnJitterMinMs   int `yaml:"turn_jitter_min_ms"`
	TurnJitterMaxMs   int `yaml:"turn_jitter_max_ms"`
	VoteDelayMinMs    int `yaml:"vote_delay_min_ms"`
	VoteDelayMaxMs    int `yaml:"vote_delay_max_ms"`

	Images     []string          `yaml:"images"`
	ImageHints map[string]string `yaml:"image_hints"`
}

// Config is the full server configuration
type Config struct {
	Addr      string       `yaml:"addr"`
	PublicURL string       `yaml:"public_url"` // base for join links and QR codes
	Gemini    GeminiConfig `yaml:"gemini"`
	Policy    Policy       `yaml:"policy"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Addr:      ":8080",
		PublicURL: "http://localhost:8080",
		Gemini: GeminiConfig{
			Model:           "gemini-flash-lite-latest",
			Temperature:     0.9,
			MaxOutputTokens: 65,
		},
		Policy: Policy{
			Shapes: []string{
				"Circle", "Triangle", "Square", "Pentagon",
				"Star", "Diamond", "Hexagon", "Octagon",
			},
			MinHumans: 3,
			MaxHumans: 7,
			Durations: []DurationStep{
				{MaxPlayers: 4, Seconds: 45},
				{MaxPlayers: 6, Seconds: 60},
				{MaxPlayers: 8, Seconds: 90},
			},
			SwapChance:         0.5,
			SpeakChance:        0.55,
			AccusedSpeakChance: 0.9,
			MobJoinChance:      0.7,
			RetaliateChance:    0.6,
			MessageCooldownMs:  1500,
			MaxMessageLen:      80,
			RepeatWindow:       3,
			PrefixGuardLen:     10,
			RecentWindow:       20,
			EarlyGameMessages:  4,
			EarlyGameSeconds:   10,
			MinTurnSecondsLeft: 3,
			FirstTurnDelaySec:  8,
			ReadDelayPerCharMs: 60,
			TurnJitterMinMs:    1500,
			TurnJitterMaxMs:    4000,
			VoteDelayMinMs:     2000,
			VoteDelayMaxMs:     5000,
			Images: []string{
				"https://images.saatchiart.com/saatchi/17870/art/8725564/7789081-HSC00923-7.jpg",
				"https://thumbs.dreamstime.com/b/street-art-contemporary-painting-wall-abstract-geometric-background-photo-79313354.jpg",
				"https://thumbs.dreamstime.com/b/colorful-abstract-painting-texture-mixed-media-alcohol-ink-amazing-like-contemporary-modern-artwork-76156748.jpg",
			},
			ImageHints: map[string]string{
				"https://images.saatchiart.com/saatchi/17870/art/8725564/7789081-HSC00923-7.jpg":                                                           "sharp geometric shapes, definitely red tones",
				"https://thumbs.dreamstime.com/b/street-art-contemporary-painting-wall-abstract-geometric-background-photo-79313354.jpg":                   "messy abstract colors, lots of blue and yellow",
				"https://thumbs.dreamstime.com/b/colorful-abstract-painting-texture-mixed-media-alcohol-ink-amazing-like-contemporary-modern-artwork-76156748.jpg": "water colors with little purple, white in middle and red",
			},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv("ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		c.PublicURL = v
	}
}

func (c *Config) validate() error {
	// The label pool must cover every seat including the AI
	if len(c.Policy.Shapes) < c.Policy.MaxHumans+1 {
		return fmt.Errorf("config: shape pool (%d) smaller than max seats (%d)",
			len(c.Policy.Shapes), c.Policy.MaxHumans+1)
	}
	if c.Policy.MinHumans < 2 {
		return fmt.Errorf("config: min_humans must be at least 2")
	}
	if len(c.Policy.Durations) == 0 {
		return fmt.Errorf("config: empty duration table")
	}
	return nil
}

// RoundDuration picks a discussion length from the active-player count via
// the monotone step table
func (p *Policy) RoundDuration(activePlayers int) time.Duration {
	for _, step := range p.Durations {
		if activePlayers <= step.MaxPlayers {
			return time.Duration(step.Seconds) * time.Second
		}
	}
	last := p.Durations[len(p.Durations)-1]
	return time.Duration(last.Seconds) * time.Second
}

// MessageCooldown returns the per-player send cooldown
func (p *Policy) MessageCooldown() time.Duration {
	return time.Duration(p.MessageCooldownMs) * time.Millisecond
}

// HintFor returns the persona hint for an image, with a generic fallback
func (p *Policy) HintFor(image string) string {
	if hint, ok := p.ImageHints[image]; ok {
		return hint
	}
	return "random geometric shapes"
}
