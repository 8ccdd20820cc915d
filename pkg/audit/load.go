package audit

import (
	"fmt"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/paulmach/orb"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v2"

	"github.com/ggvfx/precision-color-auditor/pkg/ecolor"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// A LoadedImage is a decoded file, plus what we could tell about its
// color space from the container.
type LoadedImage struct {
	Filename string
	Buffer   *Buffer
	Space    ecolor.Space // Best guess, "" if the file doesn't say
	ISO      int64
}

// AutoSpace as a source_color_space means "whatever the file says".
const AutoSpace = "auto"

// ResolveSpace fills in an AutoSpace source color space from the file.
func (li LoadedImage) ResolveSpace(cfg Config) (Config, error) {
	if cfg.SourceColorSpace != AutoSpace {
		return cfg, nil
	}
	if li.Space == "" {
		return cfg, fmt.Errorf("%s: can't guess the source color space, set it explicitly", li.Filename)
	}
	cfg.SourceColorSpace = string(li.Space)
	if cfg.Verbosity > 0 {
		log.Printf("%s: guessed source color space %s\n", li.Filename, li.Space)
	}
	return cfg, nil
}

// LoadImage decodes TIFF, Radiance HDR and PNG files. Anything fancier
// (EXR, camera raw) needs converting first.
func LoadImage(filename string) (LoadedImage, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		return loadTIFF(filename)
	case ".hdr":
		return loadHDR(filename)
	case ".png":
		return loadPNG(filename)
	default:
		return LoadedImage{}, fmt.Errorf("load %s: unsupported image format", filename)
	}
}

func loadTIFF(filename string) (LoadedImage, error) {
	li := LoadedImage{Filename: filename}

	// First, try to load the EXIF metadata. Plenty of TIFFs have none.
	if reader, err := os.Open(filename); err != nil {
		return li, fmt.Errorf("open+r exif '%s': %v", filename, err)

	} else {
		defer reader.Close()
		if ex, err := exif.Decode(reader); err == nil {
			if tag, err := ex.Get(exif.ColorSpace); err == nil {
				if val, err := tag.Int(0); err == nil && val == 1 {
					li.Space = ecolor.SRGB
				}
			}
			if tag, err := ex.Get(exif.ISOSpeedRatings); err == nil {
				if val, err := tag.Int64(0); err == nil {
					li.ISO = val
				}
			}
		}
	}

	// Re-open the file, now for the image data
	if reader, err := os.Open(filename); err != nil {
		return li, fmt.Errorf("open+r img '%s': %v", filename, err)
	} else {
		defer reader.Close()
		img, err := tiff.Decode(reader)
		if err != nil {
			return li, fmt.Errorf("tiff loading '%s': %v", filename, err)
		}
		li.Buffer = NewBufferFromImage(img)
	}

	return li, nil
}

func loadHDR(filename string) (LoadedImage, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return LoadedImage{}, fmt.Errorf("open+r hdr '%s': %v", filename, err)
	}
	defer reader.Close()

	img, err := rgbe.Decode(reader)
	if err != nil {
		return LoadedImage{}, fmt.Errorf("rgbe loading '%s': %v", filename, err)
	}
	return LoadedImage{Filename: filename, Buffer: NewBufferFromImage(img), Space: ecolor.LinearSRGB}, nil
}

func loadPNG(filename string) (LoadedImage, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return LoadedImage{}, fmt.Errorf("open+r png '%s': %v", filename, err)
	}
	defer reader.Close()

	img, err := png.Decode(reader)
	if err != nil {
		return LoadedImage{}, fmt.Errorf("png loading '%s': %v", filename, err)
	}
	return LoadedImage{Filename: filename, Buffer: NewBufferFromImage(img), Space: ecolor.SRGB}, nil
}

// A JobFile describes one image to audit. Corners come from whatever found
// the chart (or a human); Config overrides the base configuration.
type JobFile struct {
	Name    string       `yaml:"name"`
	Image   string       `yaml:"image"` // Relative to the job file
	Corners [][2]float64 `yaml:"corners"`
	Config  Config       `yaml:"config"`
}

func (jf JobFile) Quad() (emath.Quad, error) {
	q := emath.Quad{}
	if len(jf.Corners) != 4 {
		return q, fmt.Errorf("need 4 corners, have %d", len(jf.Corners))
	}
	for i, c := range jf.Corners {
		q[i] = orb.Point{c[0], c[1]}
	}
	return q, nil
}

func LoadJobFile(filename string, base Config) (Job, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Job{}, fmt.Errorf("job read %s: %v", filename, err)
	}

	jf := JobFile{Config: base.Clone()}
	if err := yaml.Unmarshal(contents, &jf); err != nil {
		return Job{}, fmt.Errorf("job parse %s: %v", filename, err)
	}
	if jf.Image == "" {
		return Job{}, fmt.Errorf("job %s: no image", filename)
	}
	q, err := jf.Quad()
	if err != nil {
		return Job{}, fmt.Errorf("job %s: %v", filename, err)
	}

	img := jf.Image
	if !filepath.IsAbs(img) {
		img = filepath.Join(filepath.Dir(filename), img)
	}
	name := jf.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	return Job{Name: name, Filename: img, Corners: q, Config: jf.Config}, nil
}

// LoadJobs finds every job file (.yaml, .yml) in the args, recursing into
// directories. Other files are ignored.
func LoadJobs(base Config, args ...string) ([]Job, error) {
	jobs := []Job{}

	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {
		case err != nil:
			return nil, fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := ioutil.ReadDir(arg)
			if err != nil {
				return nil, fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				more, err := LoadJobs(base, filepath.Join(arg, content.Name()))
				if err != nil {
					return nil, fmt.Errorf("load %s: %v", arg, err)
				}
				jobs = append(jobs, more...)
			}

		default:
			switch strings.ToLower(filepath.Ext(arg)) {
			case ".yaml", ".yml":
				job, err := LoadJobFile(arg, base)
				if err != nil {
					return nil, err
				}
				if base.Verbosity > 0 {
					log.Printf("Loaded job %s from %s\n", job.Name, arg)
				}
				jobs = append(jobs, job)
			}
		}
	}

	return jobs, nil
}
