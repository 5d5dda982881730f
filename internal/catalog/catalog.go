// Package catalog holds the static table of supernovae, their raw files and
// the magnitude system of each file. The table is data, loaded from YAML.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every catalogue validation failure.
var ErrInvalid = errors.New("invalid catalog")

//go:embed catalog.yaml
var defaultCatalog []byte

type fileDoc struct {
	Name      string            `yaml:"name"`
	Format    string            `yaml:"format"`
	MagSystem string            `yaml:"mag_system"`
	Bands     map[string]string `yaml:"bands"`
}

// UnmarshalYAML accepts a bare file name as shorthand for {name: ...}.
func (f *fileDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Name = node.Value
		return nil
	}
	type plain fileDoc
	return node.Decode((*plain)(f))
}

type supernovaDoc struct {
	Name      string    `yaml:"name"`
	MagSystem string    `yaml:"mag_system"`
	RA        *float64  `yaml:"ra"`
	Dec       *float64  `yaml:"dec"`
	Redshift  float64   `yaml:"redshift"`
	MWEBV     float64   `yaml:"mwebv"`
	Files     []fileDoc `yaml:"files"`
}

type document struct {
	MagSystem  string            `yaml:"mag_system"`
	Bands      map[string]string `yaml:"bands"`
	Supernovae []supernovaDoc    `yaml:"supernovae"`
}

// Catalog is the validated, immutable supernova table.
type Catalog struct {
	entries []domain.SupernovaEntry
	index   map[string]int
	bands   map[string]string
}

// Default returns the embedded catalogue.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalogue from path. An empty path loads the embedded default.
func Load(fsys afero.Fs, path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and structurally validates a YAML catalogue.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalid, err)
	}

	defaultSys := domain.MagSystemVega
	if doc.MagSystem != "" {
		sys, err := domain.ParseMagSystem(doc.MagSystem)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		defaultSys = sys
	}

	c := &Catalog{
		index: make(map[string]int, len(doc.Supernovae)),
		bands: make(map[string]string, len(domain.DefaultBandMap)+len(doc.Bands)),
	}
	for raw, canon := range domain.DefaultBandMap {
		c.bands[raw] = canon
	}
	var problems []error
	for raw, canon := range doc.Bands {
		label, target, err := bandEntry(raw, canon)
		if err != nil {
			problems = append(problems, fmt.Errorf("bands: %w", err))
			continue
		}
		c.bands[label] = target
	}

	for _, sd := range doc.Supernovae {
		entry, errs := buildEntry(sd, defaultSys)
		if len(errs) > 0 {
			problems = append(problems, errs...)
			continue
		}
		if _, dup := c.index[entry.Name]; dup {
			problems = append(problems, fmt.Errorf("supernova %q listed twice", entry.Name))
			continue
		}
		c.index[entry.Name] = len(c.entries)
		c.entries = append(c.entries, entry)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(problems...))
	}
	return c, nil
}

func buildEntry(sd supernovaDoc, defaultSys domain.MagSystem) (domain.SupernovaEntry, []error) {
	var errs []error
	name := strings.TrimSpace(sd.Name)
	if name == "" {
		return domain.SupernovaEntry{}, []error{errors.New("supernova with empty name")}
	}
	if len(sd.Files) == 0 {
		errs = append(errs, fmt.Errorf("%s: no files", name))
	}

	snSys := defaultSys
	if sd.MagSystem != "" {
		sys, err := domain.ParseMagSystem(sd.MagSystem)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		snSys = sys
	}

	entry := domain.SupernovaEntry{
		Name: name,
		Meta: domain.Metadata{RA: sd.RA, Dec: sd.Dec, Redshift: sd.Redshift, MWEBV: sd.MWEBV},
	}
	for _, fd := range sd.Files {
		ref, err := buildFile(fd, snSys)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		entry.Files = append(entry.Files, ref)
	}
	return entry, errs
}

func buildFile(fd fileDoc, snSys domain.MagSystem) (domain.RawFileRef, error) {
	name := strings.TrimSpace(fd.Name)
	if name == "" {
		return domain.RawFileRef{}, errors.New("file with empty name")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return domain.RawFileRef{}, fmt.Errorf("file %q must be a plain file name", name)
	}

	sys := snSys
	if fd.MagSystem != "" {
		s, err := domain.ParseMagSystem(fd.MagSystem)
		if err != nil {
			return domain.RawFileRef{}, fmt.Errorf("file %s: %w", name, err)
		}
		sys = s
	}

	var bands map[string]string
	if len(fd.Bands) > 0 {
		bands = make(map[string]string, len(fd.Bands))
		for raw, canon := range fd.Bands {
			label, target, err := bandEntry(raw, canon)
			if err != nil {
				return domain.RawFileRef{}, fmt.Errorf("file %s: %w", name, err)
			}
			bands[label] = target
		}
	}

	return domain.RawFileRef{
		Name:      name,
		Format:    strings.TrimSpace(fd.Format),
		MagSystem: sys,
		Bands:     bands,
	}, nil
}

// bandEntry cleans one raw→canonical mapping. Targets end up as SNANA band
// tokens, so they must be a single non-empty word other than UNKNOWN.
func bandEntry(raw, canon string) (string, string, error) {
	label := domain.CleanBand(raw)
	target := strings.TrimSpace(canon)
	switch {
	case label == "":
		return "", "", fmt.Errorf("empty band label mapped to %q", canon)
	case target == "" || strings.ContainsAny(target, " \t\r\n"):
		return "", "", fmt.Errorf("band %q: target %q must be a single token", label, canon)
	case target == domain.UnknownBand:
		return "", "", fmt.Errorf("band %q: target %s is reserved", label, domain.UnknownBand)
	}
	return label, target, nil
}

// Validate checks every file's parser hint against knownFormats. Files
// without a declared format and an unrecognised extension are accepted: they
// are tried against every parser.
func (c *Catalog) Validate(knownFormats []string) error {
	var problems []error
	for _, e := range c.entries {
		for _, f := range e.Files {
			if f.Format != "" && !slices.Contains(knownFormats, f.Format) {
				problems = append(problems, fmt.Errorf("%s/%s: unknown format %q", e.Name, f.Name, f.Format))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(problems...))
	}
	return nil
}

// Entries returns every supernova in configured order.
func (c *Catalog) Entries() []domain.SupernovaEntry {
	return slices.Clone(c.entries)
}

// Lookup returns the entry for name.
func (c *Catalog) Lookup(name string) (domain.SupernovaEntry, bool) {
	i, ok := c.index[name]
	if !ok {
		return domain.SupernovaEntry{}, false
	}
	return c.entries[i], true
}

// Len reports the number of configured supernovae.
func (c *Catalog) Len() int { return len(c.entries) }

// BandMap returns the global band map: the built-in labels plus the
// catalogue's bands section. Per-file override targets count as canonical.
func (c *Catalog) BandMap() *domain.BandMap {
	var extra []string
	for _, e := range c.entries {
		for _, f := range e.Files {
			for _, target := range f.Bands {
				extra = append(extra, target)
			}
		}
	}
	return domain.NewBandMap(c.bands, extra...)
}
