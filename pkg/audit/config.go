package audit

import (
	"fmt"
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"

	"github.com/ggvfx/precision-color-auditor/pkg/cdl"
	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/ecolor"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

type Config struct {
	Verbosity int `yaml:"verbosity"`

	ChartType        string `yaml:"chart_type"`
	SourceColorSpace string `yaml:"source_color_space"`
	AuditColorSpace  string `yaml:"audit_color_space"`

	// No default; Validate refuses a config without one.
	ToleranceDeltaE *float64 `yaml:"tolerance_delta_e"`

	// Geometry
	RectifiedWidth float64 `yaml:"rectified_width"`
	MinQuadArea    float64 `yaml:"min_quad_area"` // square pixels
	ReorderCorners bool    `yaml:"reorder_corners"`

	// Sampling. A nil inset uses the chart's own default.
	SamplingInsetRatio *float64 `yaml:"sampling_inset_ratio"`
	MinPatchPixels     int      `yaml:"min_patch_pixels"`
	MaxPatchVariation  float64  `yaml:"max_patch_variation"` // relative std dev of luminance; 0 disables
	RobustMean         string   `yaml:"robust_mean"`
	TrimRatio          float64  `yaml:"trim_ratio"`

	// Audit
	MinValidPatches   int `yaml:"min_valid_patches"`
	MinNeutralPatches int `yaml:"min_neutral_patches"`

	// CDL solve
	SolverMaxIterations        int     `yaml:"solver_max_iterations"`
	SolverConvergenceTolerance float64 `yaml:"solver_convergence_tolerance"`

	QCTonemapper string `yaml:"qc_tonemapper"` // How QC overlays render HDR pixels

	// Only used when source_color_space is "camera"
	AsShotNeutral emath.Vec3 `yaml:"as_shot_neutral"` // A white/neutral color in camera native RGB space
	ForwardMatrix emath.Mat3 `yaml:"forward_matrix"`  // Maps white-balanced camera native RGB into XYZ(D50).
}

func NewConfig() Config {
	return Config{
		ChartType:                  chart.Macbeth24,
		SourceColorSpace:           string(ecolor.LinearSRGB),
		AuditColorSpace:            string(ecolor.LinearSRGB),
		RectifiedWidth:             600,
		MinQuadArea:                100,
		MinPatchPixels:             9,
		MaxPatchVariation:          0.2,
		RobustMean:                 "trimmed",
		TrimRatio:                  0.1,
		MinValidPatches:            6,
		MinNeutralPatches:          3,
		SolverMaxIterations:        2000,
		SolverConvergenceTolerance: 1e-10,
		QCTonemapper:               "clip",
	}
}

func NewConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}
	return NewConfigFromYaml(contents)
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

func (c Config) Validate() error {
	if _, err := chart.Lookup(c.ChartType); err != nil {
		return fmt.Errorf("chart_type: %w", err)
	}
	if _, err := ecolor.ParseSpace(c.SourceColorSpace); err != nil {
		return fmt.Errorf("source_color_space: %w", err)
	}
	if _, err := ecolor.ParseSpace(c.AuditColorSpace); err != nil {
		return fmt.Errorf("audit_color_space: %w", err)
	}
	if _, err := c.Tolerance(); err != nil {
		return err
	}
	if c.SamplingInsetRatio != nil && (*c.SamplingInsetRatio < 0 || *c.SamplingInsetRatio >= 0.5) {
		return fmt.Errorf("sampling_inset_ratio %f not in [0, 0.5)", *c.SamplingInsetRatio)
	}
	if c.RectifiedWidth <= 0 {
		return fmt.Errorf("rectified_width must be positive")
	}
	if c.MinPatchPixels < 1 {
		return fmt.Errorf("min_patch_pixels must be at least 1")
	}
	if c.MaxPatchVariation < 0 {
		return fmt.Errorf("max_patch_variation must not be negative")
	}
	if _, err := c.GetAggregator(); err != nil {
		return err
	}
	if c.MinValidPatches < 1 || c.MinNeutralPatches < 0 {
		return fmt.Errorf("min_valid_patches must be at least 1, min_neutral_patches at least 0")
	}
	if !validTonemapper(c.QCTonemapper) {
		return fmt.Errorf("qc_tonemapper %q not one of %s", c.QCTonemapper, ListTonemappers())
	}
	return c.SolverConfig().Validate()
}

func (c Config) Tolerance() (float64, error) {
	if c.ToleranceDeltaE == nil {
		return 0, fmt.Errorf("tolerance_delta_e must be configured")
	}
	if *c.ToleranceDeltaE < 0 {
		return 0, fmt.Errorf("tolerance_delta_e %f is negative", *c.ToleranceDeltaE)
	}
	return *c.ToleranceDeltaE, nil
}

func (c Config) InsetRatio(l chart.Layout) float64 {
	if c.SamplingInsetRatio != nil {
		return *c.SamplingInsetRatio
	}
	return l.InsetRatio
}

func (c Config) GetAggregator() (Aggregator, error) {
	switch c.RobustMean {
	case "trimmed", "":
		if c.TrimRatio < 0 || c.TrimRatio >= 0.5 {
			return nil, fmt.Errorf("trim_ratio %f not in [0, 0.5)", c.TrimRatio)
		}
		return TrimmedMean(c.TrimRatio), nil
	case "median":
		return Median, nil
	case "mean":
		return Mean, nil
	default:
		return nil, fmt.Errorf("no robust_mean strategy named '%s'", c.RobustMean)
	}
}

// GetTransformer returns the color backend, primed with the camera matrices.
func (c Config) GetTransformer() ecolor.Transformer {
	return &ecolor.Builtin{
		AsShotNeutral: c.AsShotNeutral,
		ForwardMatrix: c.ForwardMatrix,
	}
}

func (c Config) SolverConfig() cdl.Config {
	return cdl.Config{
		MaxIterations: c.SolverMaxIterations,
		Tolerance:     c.SolverConvergenceTolerance,
	}
}

func (c Config) Spaces() (ecolor.Space, ecolor.Space, error) {
	src, err := ecolor.ParseSpace(c.SourceColorSpace)
	if err != nil {
		return "", "", err
	}
	dst, err := ecolor.ParseSpace(c.AuditColorSpace)
	return src, dst, err
}

// Clone returns a copy that shares no pointers with c. yaml.v2 decodes
// through pointers that are already set, so anything unmarshalled on top
// of a shared base must start from a clone.
func (c Config) Clone() Config {
	if c.ToleranceDeltaE != nil {
		c.ToleranceDeltaE = Float64(*c.ToleranceDeltaE)
	}
	if c.SamplingInsetRatio != nil {
		c.SamplingInsetRatio = Float64(*c.SamplingInsetRatio)
	}
	return c
}

// Float64 is a helper for filling in the optional fields.
func Float64(f float64) *float64 { return &f }
