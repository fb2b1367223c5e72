package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Window  WindowConfig  `toml:"window"`
	Host    HostConfig    `toml:"host"`
	Physics PhysicsConfig `toml:"physics"`
	Scene   SceneConfig   `toml:"scene"`
	Stream  StreamConfig  `toml:"stream"`
	Logging LoggingConfig `toml:"logging"`
}

type WindowConfig struct {
	Width  int    `toml:"width"` // framebuffer pixels
	Height int    `toml:"height"`
	Scale  int    `toml:"scale"` // window pixels per framebuffer pixel
	Title  string `toml:"title"`
}

type HostConfig struct {
	Mode   string `toml:"mode"` // "window", "headless" or "terminal"
	Hz     int    `toml:"hz"`
	Frames uint64 `toml:"frames"` // 0 runs until closed
}

type PhysicsConfig struct {
	Step             float32    `toml:"step"`
	Gravity          [3]float32 `toml:"gravity"`
	Ground           bool       `toml:"ground"`
	GroundY          float32    `toml:"ground_y"`
	Restitution      float32    `toml:"restitution"`
	Friction         float32    `toml:"friction"`
	SolverIterations int        `toml:"solver_iterations"`
}

type SceneConfig struct {
	BoxPosition        [3]float32 `toml:"box_position"`
	BoxAngularVelocity [3]float32 `toml:"box_angular_velocity"`
	BoxAngularDamping  float32    `toml:"box_angular_damping"`

	Vehicle         bool       `toml:"vehicle"`
	VehicleModel    string     `toml:"vehicle_model"`
	VehiclePosition [3]float32 `toml:"vehicle_position"` // model placement until the chassis drives it
	VehicleRotation [3]float32 `toml:"vehicle_rotation"`
	VehicleScale    float32    `toml:"vehicle_scale"`
	ChassisPosition [3]float32 `toml:"chassis_position"`
	ChassisSpin     [3]float32 `toml:"chassis_spin"`

	AssetDir     string        `toml:"asset_dir"`
	AssetTimeout time.Duration `toml:"asset_timeout"`
	AssetDelay   time.Duration `toml:"asset_delay"`
	Script       string        `toml:"script"`

	Wireframe bool `toml:"wireframe"`
	HUD       bool `toml:"hud"`
}

type StreamConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	if d := c.Scene.BoxAngularDamping; d < 0 || d > 1 {
		return fmt.Errorf("scene.box_angular_damping must be in [0,1], got %v", d)
	}
	if c.Physics.Step < 0 {
		return fmt.Errorf("physics.step must not be negative, got %v", c.Physics.Step)
	}
	return nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  320,
			Height: 240,
			Scale:  3,
			Title:  "tumble",
		},
		Host: HostConfig{
			Mode: "window",
			Hz:   60,
		},
		Physics: PhysicsConfig{
			Step:             1.0 / 60.0,
			Gravity:          [3]float32{0, -9.82, 0},
			Ground:           true,
			GroundY:          -1,
			Restitution:      0.3,
			Friction:         0.4,
			SolverIterations: 10,
		},
		Scene: SceneConfig{
			BoxPosition:        [3]float32{0, 3, -4},
			BoxAngularVelocity: [3]float32{0, 10, 0},
			BoxAngularDamping:  0.5,
			Vehicle:            true,
			VehicleModel:       "models/ae86.yaml",
			VehiclePosition:    [3]float32{2, 0, 8},
			VehicleRotation:    [3]float32{0, 3.14159265, 0},
			VehicleScale:       0.3,
			ChassisPosition:    [3]float32{0, 4, 0},
			ChassisSpin:        [3]float32{0, 0.5, 0},
			AssetDir:           "assets",
			AssetTimeout:       10 * time.Second,
			Script:             "scripts/scene.lua",
			HUD:                true,
		},
		Stream: StreamConfig{
			Addr: "127.0.0.1:8089",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
