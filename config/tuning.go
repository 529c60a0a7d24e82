package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/swdee/go-autopark"
	"github.com/swdee/go-autopark/planner"
)

// Tuning holds the optional overrides for planner and session tunables.
// Fields omitted from the JSON file keep the package defaults.
type Tuning struct {
	// Session params
	TickInterval      *string  `json:"tick_interval,omitempty"` // duration string like "20ms"
	DetectEvery       *int     `json:"detect_every,omitempty"`
	GoForwardDistance *float64 `json:"go_forward_distance,omitempty"`
	GoForwardRatio    *float64 `json:"go_forward_ratio,omitempty"`
	MaxJump           *float64 `json:"max_jump,omitempty"`
	BirdsEyeSize      *int     `json:"birds_eye_size,omitempty"`
	SmoothGuide       *bool    `json:"smooth_guide,omitempty"`

	// Planner params
	ForwardMargin   *float64 `json:"forward_margin,omitempty"`
	ForwardSteps    *int     `json:"forward_steps,omitempty"`
	ReverseSteps    *int     `json:"reverse_steps,omitempty"`
	CurveRatio      *float64 `json:"curve_ratio,omitempty"`
	FrontOffset     *float64 `json:"front_offset,omitempty"`
	CurveSideOffset *float64 `json:"curve_side_offset,omitempty"`
}

// LoadTuning loads a Tuning from a JSON file.  The file must have a .json
// extension and be under 1MB.
func LoadTuning(path string) (*Tuning, error) {

	cleanPath := filepath.Clean(path)

	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)

	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	const maxFileSize = 1 * 1024 * 1024

	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)",
			fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Tuning{}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid
func (c *Tuning) Validate() error {

	if c.TickInterval != nil && *c.TickInterval != "" {
		d, err := time.ParseDuration(*c.TickInterval)

		if err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}

		if d <= 0 {
			return fmt.Errorf("tick_interval must be positive, got %s", d)
		}
	}

	if c.DetectEvery != nil && *c.DetectEvery < 1 {
		return fmt.Errorf("detect_every must be at least 1, got %d", *c.DetectEvery)
	}

	if c.GoForwardDistance != nil && *c.GoForwardDistance < 0 {
		return fmt.Errorf("go_forward_distance must be non-negative, got %f", *c.GoForwardDistance)
	}

	if c.GoForwardRatio != nil && (*c.GoForwardRatio <= 0 || *c.GoForwardRatio > 1) {
		return fmt.Errorf("go_forward_ratio must be in (0, 1], got %f", *c.GoForwardRatio)
	}

	if c.MaxJump != nil && *c.MaxJump < 0 {
		return fmt.Errorf("max_jump must be non-negative, got %f", *c.MaxJump)
	}

	if c.BirdsEyeSize != nil && *c.BirdsEyeSize < 16 {
		return fmt.Errorf("birds_eye_size must be at least 16, got %d", *c.BirdsEyeSize)
	}

	if c.ForwardSteps != nil && *c.ForwardSteps < 2 {
		return fmt.Errorf("forward_steps must be at least 2, got %d", *c.ForwardSteps)
	}

	if c.ReverseSteps != nil && *c.ReverseSteps < 2 {
		return fmt.Errorf("reverse_steps must be at least 2, got %d", *c.ReverseSteps)
	}

	if c.CurveRatio != nil && (*c.CurveRatio <= 0 || *c.CurveRatio >= 1) {
		return fmt.Errorf("curve_ratio must be in (0, 1), got %f", *c.CurveRatio)
	}

	return nil
}

// GetTickInterval returns the worker tick interval or the default
func (c *Tuning) GetTickInterval() time.Duration {

	def := autopark.DefaultOptions().TickInterval

	if c.TickInterval == nil || *c.TickInterval == "" {
		return def
	}

	d, err := time.ParseDuration(*c.TickInterval)

	if err != nil {
		return def
	}

	return d
}

// GetDetectEvery returns the detection period in decoded frames or the
// default
func (c *Tuning) GetDetectEvery() int {
	if c.DetectEvery == nil {
		return autopark.DefaultOptions().DetectEvery
	}
	return *c.DetectEvery
}

// GetGoForwardDistance returns the go-forward travel in pixels or the
// default
func (c *Tuning) GetGoForwardDistance() float64 {
	if c.GoForwardDistance == nil {
		return autopark.DefaultOptions().GoForwardDistance
	}
	return *c.GoForwardDistance
}

// GetGoForwardRatio returns the share of remaining front frames used for
// the go-forward animation or the default
func (c *Tuning) GetGoForwardRatio() float64 {
	if c.GoForwardRatio == nil {
		return autopark.DefaultOptions().GoForwardRatio
	}
	return *c.GoForwardRatio
}

// GetMaxJump returns the continuity distance threshold or the default
func (c *Tuning) GetMaxJump() float64 {
	if c.MaxJump == nil {
		return autopark.DefaultOptions().MaxJump
	}
	return *c.MaxJump
}

// ApplyPlanner overlays the planner values that are set onto p
func (c *Tuning) ApplyPlanner(p *planner.Params) {

	if c.ForwardMargin != nil {
		p.ForwardMargin = *c.ForwardMargin
	}

	if c.ForwardSteps != nil {
		p.ForwardSteps = *c.ForwardSteps
	}

	if c.ReverseSteps != nil {
		p.ReverseSteps = *c.ReverseSteps
	}

	if c.CurveRatio != nil {
		p.CurveRatio = *c.CurveRatio
	}

	if c.FrontOffset != nil {
		p.FrontOffset = *c.FrontOffset
	}

	if c.CurveSideOffset != nil {
		p.CurveSideOffset = *c.CurveSideOffset
	}
}

// ApplySession overlays the session values, including the planner values,
// onto o
func (c *Tuning) ApplySession(o *autopark.Options) {

	o.TickInterval = c.GetTickInterval()
	o.DetectEvery = c.GetDetectEvery()
	o.GoForwardDistance = c.GetGoForwardDistance()
	o.GoForwardRatio = c.GetGoForwardRatio()
	o.MaxJump = c.GetMaxJump()

	if c.SmoothGuide != nil {
		o.SmoothGuide = *c.SmoothGuide
	}

	if c.BirdsEyeSize != nil {
		o.BirdsEye.Width = *c.BirdsEyeSize
		o.BirdsEye.Height = *c.BirdsEyeSize
	}

	c.ApplyPlanner(&o.Planner)
}
