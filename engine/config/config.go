// Package config loads the YAML configuration of a space background scene.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-space/common"
	"gopkg.in/yaml.v3"
)

// Window holds the host window settings.
type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Scene holds surface and loop settings.
type Scene struct {
	Background string   `yaml:"background"`  // hex color, e.g. "#0a0a0a"
	FogColor   string   `yaml:"fog_color"`   // hex color of the distance fog
	FogDensity *float64 `yaml:"fog_density"` // 0 disables fog
	PixelRatio float32  `yaml:"pixel_ratio"` // 0 = derive from the display
	FrameLimit float64  `yaml:"frame_limit"` // frames per second for the ticker scheduler
	Profiling  bool     `yaml:"profiling"`
	LogLevel   string   `yaml:"log_level"`
}

// Camera holds the perspective camera settings.
type Camera struct {
	Fov      float32    `yaml:"fov"` // vertical field of view in degrees
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Position [3]float32 `yaml:"position"`
}

// Particles holds the drifting particle field settings.
type Particles struct {
	Count          int     `yaml:"count"`
	HalfWidth      float64 `yaml:"half_width"`
	Seed           *int64   `yaml:"seed"`
	Speed          *float64 `yaml:"speed"` // 0 freezes the field
	Color          string   `yaml:"color"`
	Opacity        float32  `yaml:"opacity"`
	Size           float32  `yaml:"size"`
	Texture        string   `yaml:"texture,omitempty"`
	TextureRetries int      `yaml:"texture_retries"`
}

// Stars holds the rotating background starfield settings.
type Stars struct {
	Enabled   *bool    `yaml:"enabled"`
	Count     int      `yaml:"count"`
	HalfWidth float64  `yaml:"half_width"`
	Seed      *int64   `yaml:"seed"`
	Rate      *float64 `yaml:"rate"` // radians per second about the y axis
	Color     string   `yaml:"color"`
	Opacity   float32  `yaml:"opacity"`
	Size      float32  `yaml:"size"`
}

// Config is the root configuration document.
type Config struct {
	Window    Window    `yaml:"window"`
	Scene     Scene     `yaml:"scene"`
	Camera    Camera    `yaml:"camera"`
	Particles Particles `yaml:"particles"`
	Stars     Stars     `yaml:"stars"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a YAML document, fills unset fields with defaults and validates the result.
// An empty document yields the default configuration.
func Parse(r io.Reader) (*Config, error) {
	var c Config
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyDefaults replaces zero values with the defaults of the original space background.
func (c *Config) ApplyDefaults() {
	c.Window.Title = common.Coalesce(c.Window.Title, "oxy-space")
	c.Window.Width = common.Coalesce(c.Window.Width, 1280)
	c.Window.Height = common.Coalesce(c.Window.Height, 720)

	c.Scene.Background = common.Coalesce(c.Scene.Background, "#0a0a0a")
	c.Scene.FogColor = common.Coalesce(c.Scene.FogColor, "#090909")
	c.Scene.FogDensity = common.CoalescePtr(c.Scene.FogDensity, 0.001)
	c.Scene.FrameLimit = common.Coalesce(c.Scene.FrameLimit, 60)
	c.Scene.LogLevel = common.Coalesce(c.Scene.LogLevel, "info")

	c.Camera.Fov = common.Coalesce(c.Camera.Fov, 75)
	c.Camera.Near = common.Coalesce(c.Camera.Near, 0.1)
	c.Camera.Far = common.Coalesce(c.Camera.Far, 1000)
	c.Camera.Position = common.Coalesce(c.Camera.Position, [3]float32{0, 0, 50})

	c.Particles.Count = common.Coalesce(c.Particles.Count, 200)
	c.Particles.HalfWidth = common.Coalesce(c.Particles.HalfWidth, 20)
	c.Particles.Seed = common.CoalescePtr(c.Particles.Seed, 42)
	c.Particles.Speed = common.CoalescePtr(c.Particles.Speed, 0.01)
	c.Particles.Color = common.Coalesce(c.Particles.Color, "#00ffcc")
	c.Particles.Opacity = common.Coalesce(c.Particles.Opacity, 0.6)
	c.Particles.Size = common.Coalesce(c.Particles.Size, 0.15)
	c.Particles.TextureRetries = common.Coalesce(c.Particles.TextureRetries, 2)

	c.Stars.Enabled = common.CoalescePtr(c.Stars.Enabled, true)
	c.Stars.Count = common.Coalesce(c.Stars.Count, 10000)
	c.Stars.HalfWidth = common.Coalesce(c.Stars.HalfWidth, 1000)
	c.Stars.Seed = common.CoalescePtr(c.Stars.Seed, 7)
	c.Stars.Rate = common.CoalescePtr(c.Stars.Rate, 0.012)
	c.Stars.Color = common.Coalesce(c.Stars.Color, "#ffffff")
	c.Stars.Opacity = common.Coalesce(c.Stars.Opacity, 1)
	c.Stars.Size = common.Coalesce(c.Stars.Size, 0.1)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width < 0 || c.Window.Height < 0:
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	case c.Scene.PixelRatio < 0:
		return fmt.Errorf("pixel_ratio must not be negative, got %v", c.Scene.PixelRatio)
	case c.Scene.FrameLimit < 0:
		return fmt.Errorf("frame_limit must not be negative, got %v", c.Scene.FrameLimit)
	case c.Camera.Fov <= 0 || c.Camera.Fov >= 180:
		return fmt.Errorf("camera fov must be in (0, 180) degrees, got %v", c.Camera.Fov)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("camera planes must satisfy 0 < near < far, got near=%v far=%v", c.Camera.Near, c.Camera.Far)
	case c.Particles.Count < 0:
		return fmt.Errorf("particle count must not be negative, got %d", c.Particles.Count)
	case c.Particles.HalfWidth < 0:
		return fmt.Errorf("particle half_width must not be negative, got %v", c.Particles.HalfWidth)
	case c.Particles.Opacity < 0 || c.Particles.Opacity > 1:
		return fmt.Errorf("particle opacity must be in [0, 1], got %v", c.Particles.Opacity)
	case c.Particles.TextureRetries < 0:
		return fmt.Errorf("texture_retries must not be negative, got %d", c.Particles.TextureRetries)
	case c.Scene.FogDensity != nil && *c.Scene.FogDensity < 0:
		return fmt.Errorf("fog_density must not be negative, got %v", *c.Scene.FogDensity)
	case c.Stars.Count < 0:
		return fmt.Errorf("star count must not be negative, got %d", c.Stars.Count)
	case c.Stars.HalfWidth < 0:
		return fmt.Errorf("star half_width must not be negative, got %v", c.Stars.HalfWidth)
	case c.Stars.Opacity < 0 || c.Stars.Opacity > 1:
		return fmt.Errorf("star opacity must be in [0, 1], got %v", c.Stars.Opacity)
	}
	if _, err := common.ParseHexColor(c.Scene.FogColor); err != nil {
		return fmt.Errorf("scene fog_color: %w", err)
	}
	if _, err := common.ParseHexColor(c.Stars.Color); err != nil {
		return fmt.Errorf("star color: %w", err)
	}
	if _, err := common.ParseHexColor(c.Scene.Background); err != nil {
		return fmt.Errorf("scene background: %w", err)
	}
	if _, err := common.ParseHexColor(c.Particles.Color); err != nil {
		return fmt.Errorf("particle color: %w", err)
	}
	return nil
}
