// Package job describes wafer mask jobs and loads them from TOML files.
//
// A job file names the wafer, its partition and one [[section]] table per
// configured section:
//
//	name = "mask"
//	size = 100
//	margin = 5
//	rows = 2
//	cols = 2
//
//	[[section]]
//	number = 1
//	structure = "Pillars"
//	distance = 20
//	radius = 5
package job

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/errors"
)

// Default values for new jobs.
const (
	DefaultName      = "mask"
	DefaultSize      = wafer.Size4Inch
	DefaultMargin    = 5.0
	DefaultUnit      = "um"
	DefaultPrecision = "nm"
)

// Job is a complete wafer mask description.
type Job struct {
	// Name is the output base name (without extension).
	Name string `toml:"name" json:"name" bson:"name"`

	// Cell is the layout cell name. Empty means wafer.DefaultCellName.
	Cell string `toml:"cell,omitempty" json:"cell,omitempty" bson:"cell,omitempty"`

	Size      wafer.SizeClass `toml:"size" json:"size" bson:"size"`
	Margin    float64         `toml:"margin" json:"margin" bson:"margin"`
	Unit      string          `toml:"unit" json:"unit" bson:"unit"`
	Precision string          `toml:"precision" json:"precision" bson:"precision"`
	Rows      int             `toml:"rows" json:"rows" bson:"rows"`
	Cols      int             `toml:"cols" json:"cols" bson:"cols"`

	// MaxPoints is the soft vertex cap for clipped shapes. Nil means the
	// default; zero disables fracturing.
	MaxPoints *int `toml:"max_points,omitempty" json:"max_points,omitempty" bson:"max_points,omitempty"`

	Sections []Section `toml:"section" json:"sections" bson:"sections"`
}

// Section is the setup of one numbered section.
type Section struct {
	Number    int             `toml:"number" json:"number" bson:"number"`
	Structure wafer.Structure `toml:"structure" json:"structure" bson:"structure"`
	Distance  float64         `toml:"distance" json:"distance" bson:"distance"`
	Radius    float64         `toml:"radius" json:"radius" bson:"radius"`
}

// Setup returns the wafer setup of s.
func (s Section) Setup() wafer.Setup {
	return wafer.Setup{Distance: s.Distance, Radius: s.Radius, Structure: s.Structure}
}

// Default returns a single-section job on a 4 inch wafer with no setups.
func Default() *Job {
	return &Job{
		Name:      DefaultName,
		Size:      DefaultSize,
		Margin:    DefaultMargin,
		Unit:      DefaultUnit,
		Precision: DefaultPrecision,
		Rows:      1,
		Cols:      1,
	}
}

// Parse decodes a TOML job. Missing fields take their default values and
// unknown keys are rejected.
func Parse(data []byte) (*Job, error) {
	j := Default()
	meta, err := toml.Decode(string(data), j)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidJob, err, "decode job")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidJob, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// ParseJSON decodes a JSON job. Missing fields take their default values
// and unknown fields are rejected.
func ParseJSON(data []byte) (*Job, error) {
	j := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(j); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidJob, err, "decode job")
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// Load reads and parses a TOML job file.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "job file %s", path)
		}
		return nil, err
	}
	j, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return j, nil
}

// Marshal encodes j as TOML with sections sorted by number.
func Marshal(j *Job) ([]byte, error) {
	out := *j
	out.Sections = j.SortedSections()
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode job")
	}
	return buf.Bytes(), nil
}

// Save writes j to path as TOML.
func Save(path string, j *Job) error {
	data, err := Marshal(j)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SortedSections returns a copy of the sections ordered by number.
func (j *Job) SortedSections() []Section {
	out := append([]Section(nil), j.Sections...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Number < out[b].Number })
	return out
}

// SetSection stores s, replacing any section with the same number.
func (j *Job) SetSection(s Section) {
	for i := range j.Sections {
		if j.Sections[i].Number == s.Number {
			j.Sections[i] = s
			return
		}
	}
	j.Sections = append(j.Sections, s)
}

// RemoveSection deletes the section with the given number and reports
// whether it existed.
func (j *Job) RemoveSection(n int) bool {
	for i, s := range j.Sections {
		if s.Number == n {
			j.Sections = append(j.Sections[:i], j.Sections[i+1:]...)
			return true
		}
	}
	return false
}

// Section returns the section with the given number.
func (j *Job) Section(n int) (Section, bool) {
	for _, s := range j.Sections {
		if s.Number == n {
			return s, true
		}
	}
	return Section{}, false
}

// Units parses the unit and precision fields.
func (j *Job) Units() (wafer.Units, error) {
	u, err := wafer.ParseUnit(j.Unit)
	if err != nil {
		return wafer.Units{}, err
	}
	p, err := wafer.ParseUnit(j.Precision)
	if err != nil {
		return wafer.Units{}, err
	}
	return wafer.Units{Unit: u, Precision: p}, nil
}
