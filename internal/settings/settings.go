// Package settings persists the chart's tunables as a YAML file.
package settings

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/traceviewer/tracechart/internal/colors"
	"github.com/traceviewer/tracechart/internal/observability"
	"github.com/traceviewer/tracechart/internal/pipeline"
	"github.com/traceviewer/tracechart/internal/samplebudget"
	"github.com/traceviewer/tracechart/internal/viewport"
)

const (
	FileName = "tracechart.yaml"

	DefaultDebounceMS     = 500
	DefaultPollIntervalMS = 1000

	minPollIntervalMS = 50
)

// Config stores the application configuration.
type Config struct {
	// Zoom factors applied per zoom step. ZoomRateIn must be in (0,1),
	// ZoomRateOut greater than 1.
	ZoomRateIn  float64 `yaml:"zoom_rate_in"`
	ZoomRateOut float64 `yaml:"zoom_rate_out"`

	// PanFactor is the fraction of the view moved per pan step.
	PanFactor float64 `yaml:"pan_factor"`

	// DebounceMS is the quiet period before a fetch, never below 500.
	DebounceMS int `yaml:"debounce_ms"`

	// Sample budget.
	MinBarPx        int `yaml:"min_bar_px"`
	IntraGapPx      int `yaml:"intra_gap_px"`
	InterGroupGapPx int `yaml:"inter_group_gap_px"`
	MinSamples      int `yaml:"min_samples"`
	MaxSamples      int `yaml:"max_samples"`
	SampleStep      int `yaml:"sample_step"`

	// PollIntervalMS paces re-requests while the server is still analyzing.
	PollIntervalMS int `yaml:"poll_interval_ms"`

	// CacheSize is the number of completed responses kept. Zero disables
	// the cache.
	CacheSize int `yaml:"cache_size"`

	ColorScheme string `yaml:"color_scheme"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	vp := viewport.DefaultOptions()
	sb := samplebudget.DefaultParams()
	return Config{
		ZoomRateIn:      vp.ZoomRateIn,
		ZoomRateOut:     vp.ZoomRateOut,
		PanFactor:       vp.PanFactor,
		DebounceMS:      DefaultDebounceMS,
		MinBarPx:        sb.MinBarPx,
		IntraGapPx:      sb.IntraGapPx,
		InterGroupGapPx: sb.InterGroupGapPx,
		MinSamples:      sb.MinSamples,
		MaxSamples:      sb.MaxSamples,
		SampleStep:      sb.Step,
		PollIntervalMS:  DefaultPollIntervalMS,
		CacheSize:       pipeline.DefaultCacheSize,
		ColorScheme:     colors.DefaultScheme,
	}
}

// ViewportOptions returns the zoom and pan rates.
func (c Config) ViewportOptions() viewport.Options {
	return viewport.Options{
		ZoomRateIn:  c.ZoomRateIn,
		ZoomRateOut: c.ZoomRateOut,
		PanFactor:   c.PanFactor,
	}
}

// BudgetParams returns the sample-budget parameters.
func (c Config) BudgetParams() samplebudget.Params {
	return samplebudget.Params{
		MinBarPx:        c.MinBarPx,
		IntraGapPx:      c.IntraGapPx,
		InterGroupGapPx: c.InterGroupGapPx,
		MinSamples:      c.MinSamples,
		MaxSamples:      c.MaxSamples,
		Step:            c.SampleStep,
	}
}

func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// PipelineCacheSize maps CacheSize onto pipeline.Params, where a negative
// size disables the cache.
func (c Config) PipelineCacheSize() int {
	if c.CacheSize == 0 {
		return -1
	}
	return c.CacheSize
}

// normalize replaces out-of-range values with defaults or clamps them.
func (c *Config) normalize() {
	def := Defaults()

	if !(c.ZoomRateIn > 0 && c.ZoomRateIn < 1) {
		c.ZoomRateIn = def.ZoomRateIn
	}
	if !(c.ZoomRateOut > 1) || math.IsInf(c.ZoomRateOut, 0) {
		c.ZoomRateOut = def.ZoomRateOut
	}
	if !(c.PanFactor > 0 && c.PanFactor <= 1) {
		c.PanFactor = def.PanFactor
	}
	c.DebounceMS = max(c.DebounceMS, DefaultDebounceMS)

	// The budget controller owns the rules for its parameters.
	budget := samplebudget.New(c.BudgetParams()).Params()
	c.MinBarPx = budget.MinBarPx
	c.IntraGapPx = budget.IntraGapPx
	c.InterGroupGapPx = budget.InterGroupGapPx
	c.MinSamples = budget.MinSamples
	c.MaxSamples = budget.MaxSamples
	c.SampleStep = budget.Step

	c.PollIntervalMS = max(c.PollIntervalMS, minPollIntervalMS)
	c.CacheSize = max(c.CacheSize, 0)

	if _, ok := colors.Schemes[c.ColorScheme]; !ok {
		c.ColorScheme = def.ColorScheme
	}
}

// Manager gives thread-safe access to the configuration and writes every
// change back to disk.
type Manager struct {
	mu     sync.RWMutex
	fs     afero.Fs
	path   string
	config Config
	logger *observability.CoreLogger
}

// DefaultPath returns the config location under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(dir, "tracechart", FileName)
}

// NewManager loads the configuration at path, creating it with defaults if
// it does not exist.
//
// Load errors are logged and leave the defaults in effect.
func NewManager(
	fs afero.Fs,
	path string,
	logger *observability.CoreLogger,
) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = observability.NewNoOpLogger()
	}
	m := &Manager{
		fs:     fs,
		path:   path,
		config: Defaults(),
		logger: logger,
	}
	if err := m.loadOrCreate(); err != nil {
		m.logger.Error(fmt.Sprintf("settings: error loading or creating: %v", err))
	}
	return m
}

func (m *Manager) loadOrCreate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := afero.ReadFile(m.fs, m.path)
	if errors.Is(err, os.ErrNotExist) {
		if dir := filepath.Dir(m.path); dir != "" {
			_ = m.fs.MkdirAll(dir, 0o755)
		}
		return m.save()
	}
	if err != nil {
		return err
	}

	config := Defaults()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return err
	}
	config.normalize()
	m.config = config
	return nil
}

// save writes the configuration to disk.
//
// Must be called while holding the lock.
func (m *Manager) save() error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	tempPath := m.path + ".tmp"
	if err := afero.WriteFile(m.fs, tempPath, data, 0o644); err != nil {
		return fmt.Errorf("settings: failed to write temp file: %v", err)
	}
	if err := m.fs.Rename(tempPath, m.path); err != nil {
		return fmt.Errorf("settings: failed to rename temp file: %v", err)
	}
	return nil
}

// Path returns the on-disk config path.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Snapshot returns a copy of the current config.
func (m *Manager) Snapshot() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *Manager) ColorScheme() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ColorScheme
}

func (m *Manager) SetColorScheme(scheme string) error {
	if _, ok := colors.Schemes[scheme]; !ok {
		return fmt.Errorf("unknown color scheme: %q", scheme)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.ColorScheme = scheme
	return m.save()
}

// SetZoomRates sets the zoom-in and zoom-out factors.
func (m *Manager) SetZoomRates(in, out float64) error {
	if !(in > 0 && in < 1) {
		return fmt.Errorf("zoom_rate_in must be in (0, 1), got %v", in)
	}
	if !(out > 1) || math.IsInf(out, 0) {
		return fmt.Errorf("zoom_rate_out must be greater than 1, got %v", out)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.ZoomRateIn = in
	m.config.ZoomRateOut = out
	return m.save()
}

// SetDebounce sets the fetch debounce delay.
func (m *Manager) SetDebounce(d time.Duration) error {
	ms := int(d / time.Millisecond)
	if ms < DefaultDebounceMS {
		return fmt.Errorf("debounce must be at least %dms, got %v", DefaultDebounceMS, d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.DebounceMS = ms
	return m.save()
}
