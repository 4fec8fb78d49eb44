// Package config provides configuration loading and access for the renderer.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/fields/charges"
	"github.com/pthm-cable/fields/field"
	"github.com/pthm-cable/fields/render"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Field     FieldConfig     `yaml:"field"`
	Palette   PaletteConfig   `yaml:"palette"`
	Charges   ChargesConfig   `yaml:"charges"`
	Render    RenderConfig    `yaml:"render"`
	Wallpaper WallpaperConfig `yaml:"wallpaper"`
	Export    ExportConfig    `yaml:"export"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// FieldConfig selects the potential function.
type FieldConfig struct {
	EvaluatorKind string  `yaml:"evaluator_kind"` // linear | inverse_square
	Baseline      float64 `yaml:"baseline"`
}

// PaletteConfig holds color mapping parameters and the panel slider limits.
type PaletteConfig struct {
	ColorStrategy string  `yaml:"color_strategy"` // hsv | bitpacked
	Density       float64 `yaml:"density"`
	Hues          float64 `yaml:"hues"`
	Saturation    float64 `yaml:"saturation"`
	Brightness    float64 `yaml:"brightness"`

	MinDensity float64 `yaml:"min_density"`
	MaxDensity float64 `yaml:"max_density"`
	MinHues    float64 `yaml:"min_hues"`
	MaxHues    float64 `yaml:"max_hues"`
}

// ChargesConfig holds registry limits and editing parameters.
type ChargesConfig struct {
	MaxCharges           int              `yaml:"max_charges"`
	MinCharges           int              `yaml:"min_charges"`
	SameChargeDistancePx int              `yaml:"same_charge_distance_px"`
	RandomSizeMax        float64          `yaml:"random_size_max"`
	WheelScaleStep       float64          `yaml:"wheel_scale_step"`
	Initial              []charges.Charge `yaml:"initial"`
}

// RenderConfig holds render controller options.
type RenderConfig struct {
	StartDelayMS  int    `yaml:"start_delay_ms"`
	ClearOnFinish bool   `yaml:"clear_on_finish"`
	Repaint       string `yaml:"repaint"` // row | pass
	EventBuffer   int    `yaml:"event_buffer"`
}

// WallpaperConfig holds the unattended mode overrides.
type WallpaperConfig struct {
	Saturation     float64 `yaml:"saturation"`
	Brightness     float64 `yaml:"brightness"`
	RestartDelayMS int     `yaml:"restart_delay_ms"`
	ClearOnFinish  bool    `yaml:"clear_on_finish"`
}

// ExportConfig holds raster export settings.
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png | bmp | tiff
	Prefix string `yaml:"prefix"`
}

// ServerConfig holds HTTP control surface settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// TelemetryConfig holds render statistics settings.
type TelemetryConfig struct {
	PerfWindow int  `yaml:"perf_window"` // renders in the rolling perf window
	LogPasses  bool `yaml:"log_passes"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	EvaluatorKind  field.EvaluatorKind
	ColorStrategy  field.ColorStrategy
	Repaint        field.RepaintMode
	StartDelay     time.Duration
	WallpaperDelay time.Duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks value ranges and enum names.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Screen.Width > 0 && c.Screen.Height > 0, "screen: size %dx%d must be positive", c.Screen.Width, c.Screen.Height)

	if _, err := field.ParseEvaluatorKind(c.Field.EvaluatorKind); err != nil {
		errs = append(errs, fmt.Errorf("field: %w", err))
	}
	if _, err := field.ParseColorStrategy(c.Palette.ColorStrategy); err != nil {
		errs = append(errs, fmt.Errorf("palette: %w", err))
	}
	if _, err := field.ParseRepaintMode(c.Render.Repaint); err != nil {
		errs = append(errs, fmt.Errorf("render: %w", err))
	}

	p := c.Palette
	check(p.Density > 0, "palette: density %g must be positive", p.Density)
	check(p.Hues > 0, "palette: hues %g must be positive", p.Hues)
	check(p.Saturation >= 0 && p.Saturation <= 1, "palette: saturation %g outside [0,1]", p.Saturation)
	check(p.Brightness >= 0 && p.Brightness <= 1, "palette: brightness %g outside [0,1]", p.Brightness)
	check(p.MinDensity > 0 && p.MinDensity <= p.MaxDensity, "palette: density limits [%g,%g] invalid", p.MinDensity, p.MaxDensity)
	check(p.MinHues > 0 && p.MinHues <= p.MaxHues, "palette: hue limits [%g,%g] invalid", p.MinHues, p.MaxHues)

	ch := c.Charges
	check(ch.MaxCharges >= 1, "charges: max_charges %d must be at least 1", ch.MaxCharges)
	check(ch.MinCharges >= 1 && ch.MinCharges < ch.MaxCharges, "charges: min_charges %d must be in [1,max_charges)", ch.MinCharges)
	check(ch.SameChargeDistancePx >= 0, "charges: same_charge_distance_px %d is negative", ch.SameChargeDistancePx)
	check(ch.RandomSizeMax > 0, "charges: random_size_max %g must be positive", ch.RandomSizeMax)
	check(ch.WheelScaleStep > 0 && ch.WheelScaleStep < 1, "charges: wheel_scale_step %g outside (0,1)", ch.WheelScaleStep)
	check(len(ch.Initial) <= ch.MaxCharges, "charges: %d initial charges exceed max_charges %d", len(ch.Initial), ch.MaxCharges)

	check(c.Render.StartDelayMS >= 0, "render: start_delay_ms %d is negative", c.Render.StartDelayMS)
	check(c.Wallpaper.RestartDelayMS >= 0, "wallpaper: restart_delay_ms %d is negative", c.Wallpaper.RestartDelayMS)
	check(c.Wallpaper.Saturation >= 0 && c.Wallpaper.Saturation <= 1, "wallpaper: saturation %g outside [0,1]", c.Wallpaper.Saturation)
	check(c.Wallpaper.Brightness >= 0 && c.Wallpaper.Brightness <= 1, "wallpaper: brightness %g outside [0,1]", c.Wallpaper.Brightness)

	switch c.Export.Format {
	case "png", "bmp", "tiff":
	default:
		errs = append(errs, fmt.Errorf("export: unknown format %q", c.Export.Format))
	}

	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
// Enum names have already been checked by Validate.
func (c *Config) computeDerived() {
	c.Derived.EvaluatorKind, _ = field.ParseEvaluatorKind(c.Field.EvaluatorKind)
	c.Derived.ColorStrategy, _ = field.ParseColorStrategy(c.Palette.ColorStrategy)
	c.Derived.Repaint, _ = field.ParseRepaintMode(c.Render.Repaint)
	c.Derived.StartDelay = time.Duration(c.Render.StartDelayMS) * time.Millisecond
	c.Derived.WallpaperDelay = time.Duration(c.Wallpaper.RestartDelayMS) * time.Millisecond

	if c.Render.EventBuffer <= 0 {
		c.Render.EventBuffer = render.DefaultEventBuffer
	}
	if c.Screen.TargetFPS <= 0 {
		c.Screen.TargetFPS = 60
	}
	if c.Telemetry.PerfWindow <= 0 {
		c.Telemetry.PerfWindow = 30
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "."
	}
}

// FieldPalette returns the configured color mapping.
func (c *Config) FieldPalette() field.Palette {
	return field.Palette{
		Strategy:   c.Derived.ColorStrategy,
		Density:    c.Palette.Density,
		Hues:       c.Palette.Hues,
		Saturation: c.Palette.Saturation,
		Brightness: c.Palette.Brightness,
	}
}

// RenderOptions returns the controller options for an interactive render.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Evaluator:     field.Evaluator{Kind: c.Derived.EvaluatorKind, Baseline: c.Field.Baseline},
		Palette:       c.FieldPalette(),
		Repaint:       c.Derived.Repaint,
		StartDelay:    c.Derived.StartDelay,
		ClearOnFinish: c.Render.ClearOnFinish,
	}
}

// WallpaperOptions returns RenderOptions with the wallpaper overrides applied.
func (c *Config) WallpaperOptions() render.Options {
	opts := c.RenderOptions()
	opts.Palette.Saturation = c.Wallpaper.Saturation
	opts.Palette.Brightness = c.Wallpaper.Brightness
	opts.ClearOnFinish = c.Wallpaper.ClearOnFinish
	opts.StartDelay = c.Derived.WallpaperDelay
	return opts
}

// RandomOptions returns the bounds for random charge sets.
func (c *Config) RandomOptions() charges.RandomOptions {
	return charges.RandomOptions{
		MinCharges: c.Charges.MinCharges,
		MaxCharges: c.Charges.MaxCharges,
		SizeMax:    c.Charges.RandomSizeMax,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
