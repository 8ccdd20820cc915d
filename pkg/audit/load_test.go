package audit

import (
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/ecolor"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

func TestLoadJobs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "day1")
	require.NoError(t, os.Mkdir(sub, 0755))

	job := `
name: shot-010
image: shot-010.tif
corners: [[100, 100], [500, 100], [500, 500], [100, 500]]
config:
  chart_type: gray12
  tolerance_delta_e: 3.0
`
	require.NoError(t, ioutil.WriteFile(filepath.Join(sub, "shot-010.yaml"), []byte(job), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(sub, "notes.txt"), []byte("ignored"), 0644))

	base := NewConfig()
	base.MinPatchPixels = 20

	jobs, err := LoadJobs(base, dir)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	j := jobs[0]
	assert.Equal(t, "shot-010", j.Name)
	assert.Equal(t, filepath.Join(sub, "shot-010.tif"), j.Filename)
	assert.Equal(t, squareCorners, j.Corners)
	assert.Equal(t, chart.Gray12, j.Config.ChartType)
	assert.Equal(t, 3.0, *j.Config.ToleranceDeltaE)
	assert.Equal(t, 20, j.Config.MinPatchPixels, "base config carries through")
}

func TestLoadJobsKeepOverridesPerJob(t *testing.T) {
	dir := t.TempDir()
	plain := "image: a.tif\ncorners: [[100, 100], [500, 100], [500, 500], [100, 500]]\n"
	override := plain + "config:\n  tolerance_delta_e: 50\n  sampling_inset_ratio: 0.45\n"
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "a.yaml"), []byte(plain), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "b.yaml"), []byte(override), 0644))

	base := testConfig()
	base.SamplingInsetRatio = Float64(0.1)

	jobs, err := LoadJobs(base, dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	byName := map[string]Job{}
	for _, j := range jobs {
		byName[j.Name] = j
	}
	assert.Equal(t, 2.0, *byName["a"].Config.ToleranceDeltaE)
	assert.Equal(t, 0.1, *byName["a"].Config.SamplingInsetRatio)
	assert.Equal(t, 50.0, *byName["b"].Config.ToleranceDeltaE)
	assert.Equal(t, 0.45, *byName["b"].Config.SamplingInsetRatio)

	assert.Equal(t, 2.0, *base.ToleranceDeltaE, "base config untouched")
	assert.Equal(t, 0.1, *base.SamplingInsetRatio)
}

func TestLoadJobFileErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, ioutil.WriteFile(bad, []byte("image: x.tif\ncorners: [[1, 2]]\n"), 0644))
	_, err := LoadJobFile(bad, NewConfig())
	assert.Error(t, err)

	_, err = LoadJobs(NewConfig(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.RGBA{255, 0, 0, 255})

	filename := filepath.Join(t.TempDir(), "swatch.png")
	f, err := os.Create(filename)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	li, err := LoadImage(filename)
	require.NoError(t, err)
	assert.Equal(t, ecolor.SRGB, li.Space)
	assert.Equal(t, emath.Vec3{1, 0, 0}, li.Buffer.RGB(2, 1))

	_, err = LoadImage(filepath.Join(t.TempDir(), "scan.exr"))
	assert.Error(t, err)
}

func TestLoadHDR(t *testing.T) {
	buf := NewBuffer(image.Rect(0, 0, 4, 4))
	buf.Fill(buf.Rect, emath.Vec3{1.5, 1.5, 1.5})
	filename := filepath.Join(t.TempDir(), "plate.hdr")
	require.NoError(t, WriteToHDR(buf, filename))

	li, err := LoadImage(filename)
	require.NoError(t, err)
	assert.Equal(t, ecolor.LinearSRGB, li.Space)
	assert.InDelta(t, 1.5, li.Buffer.RGB(1, 1)[1], 0.02)
}

func TestResolveSpace(t *testing.T) {
	cfg := testConfig()
	cfg.SourceColorSpace = AutoSpace

	got, err := LoadedImage{Filename: "a.png", Space: ecolor.SRGB}.ResolveSpace(cfg)
	require.NoError(t, err)
	assert.Equal(t, "srgb", got.SourceColorSpace)

	_, err = LoadedImage{Filename: "a.tif"}.ResolveSpace(cfg)
	assert.Error(t, err)

	cfg.SourceColorSpace = "xyz-d65"
	got, err = LoadedImage{Filename: "a.png", Space: ecolor.SRGB}.ResolveSpace(cfg)
	require.NoError(t, err)
	assert.Equal(t, "xyz-d65", got.SourceColorSpace, "explicit spaces win")
}
