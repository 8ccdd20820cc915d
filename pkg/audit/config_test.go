package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

func TestConfigFromYaml(t *testing.T) {
	y := `
chart_type: gray12
audit_color_space: lab-d50
tolerance_delta_e: 1.5
sampling_inset_ratio: 0.25
min_valid_patches: 10
solver_max_iterations: 500
solver_convergence_tolerance: 0.000001
robust_mean: median
as_shot_neutral: [0.5, 1.0, 0.7]
`
	cfg, err := NewConfigFromYaml([]byte(y))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, chart.Gray12, cfg.ChartType)
	assert.Equal(t, "lab-d50", cfg.AuditColorSpace)
	assert.Equal(t, 1.5, *cfg.ToleranceDeltaE)
	assert.Equal(t, 10, cfg.MinValidPatches)
	assert.Equal(t, 500, cfg.SolverConfig().MaxIterations)
	assert.Equal(t, 1e-6, cfg.SolverConfig().Tolerance)
	assert.Equal(t, emath.Vec3{0.5, 1.0, 0.7}, cfg.AsShotNeutral)

	// Untouched keys keep their defaults
	assert.Equal(t, 9, cfg.MinPatchPixels)
	assert.Equal(t, "linear-srgb", cfg.SourceColorSpace)

	ch, _ := chart.Lookup(cfg.ChartType)
	assert.Equal(t, 0.25, cfg.InsetRatio(ch.Layout))

	again, err := NewConfigFromYaml([]byte(cfg.AsYaml()))
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, NewConfig().Validate(), "no tolerance")
	assert.NoError(t, testConfig().Validate())

	tests := map[string]func(c *Config){
		"chart":      func(c *Config) { c.ChartType = "it8" },
		"space":      func(c *Config) { c.AuditColorSpace = "acescg" },
		"tolerance":  func(c *Config) { c.ToleranceDeltaE = Float64(-1) },
		"inset":      func(c *Config) { c.SamplingInsetRatio = Float64(0.5) },
		"pixels":     func(c *Config) { c.MinPatchPixels = 0 },
		"robustmean": func(c *Config) { c.RobustMean = "mode" },
		"tonemapper": func(c *Config) { c.QCTonemapper = "hable" },
		"trim":       func(c *Config) { c.TrimRatio = 0.6 },
		"iterations": func(c *Config) { c.SolverMaxIterations = 0 },
		"solver tol": func(c *Config) { c.SolverConvergenceTolerance = 0 },
	}
	for name, mutate := range tests {
		c := testConfig()
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}

func TestInsetDefaultsToChart(t *testing.T) {
	ch, _ := chart.Lookup(chart.Macbeth24)
	assert.Equal(t, ch.Layout.InsetRatio, testConfig().InsetRatio(ch.Layout))
}

func TestConfigClone(t *testing.T) {
	c := testConfig()
	c.SamplingInsetRatio = Float64(0.1)

	clone := c.Clone()
	assert.Equal(t, c, clone)
	*clone.ToleranceDeltaE = 9
	*clone.SamplingInsetRatio = 0.3
	assert.Equal(t, 2.0, *c.ToleranceDeltaE)
	assert.Equal(t, 0.1, *c.SamplingInsetRatio)

	assert.Nil(t, NewConfig().Clone().ToleranceDeltaE)
}
