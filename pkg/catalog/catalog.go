package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/mailroom/pkg/email"
)

// ErrInvalid is returned for catalogs that cannot be imported.
var ErrInvalid = errors.New("catalog: invalid")

// Catalog describes fragments and kinds to import. File references are
// relative to the directory of the catalog file.
type Catalog struct {
	Fragments []Fragment `yaml:"fragments"`
	Kinds     []Kind     `yaml:"kinds"`

	dir string
}

// Fragment is a fragment entry of a catalog.
type Fragment struct {
	DefaultContext map[string]any `yaml:"default_context"`
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description"`
	Content        string         `yaml:"content"`
	ContentFile    string         `yaml:"content_file"`
	Images         []Image        `yaml:"images"`
	Plain          bool           `yaml:"plain"`
}

// Kind is a kind entry of a catalog.
type Kind struct {
	DefaultContext    map[string]any `yaml:"default_context"`
	Name              string         `yaml:"name"`
	Language          string         `yaml:"language"`
	Description       string         `yaml:"description"`
	Template          string         `yaml:"template"`
	TemplateFile      string         `yaml:"template_file"`
	PlainTemplate     string         `yaml:"plain_template"`
	PlainTemplateFile string         `yaml:"plain_template_file"`
	DefaultSender     string         `yaml:"default_sender"`
	DefaultRecipients string         `yaml:"default_recipients"`
	DefaultSubject    string         `yaml:"default_subject"`
	DefaultReplyTo    string         `yaml:"default_reply_to"`
	Fragments         []string       `yaml:"fragments"`
	Images            []Image        `yaml:"images"`
	Active            *bool          `yaml:"active"`
}

// Image maps a template placeholder to an image file.
type Image struct {
	Placeholder string `yaml:"placeholder"`
	File        string `yaml:"file"`
}

// Load reads the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	cat.dir = filepath.Dir(path)
	return cat, nil
}

// Parse decodes a catalog document. File references resolve against the
// working directory.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks names, languages and placeholder uniqueness. Fragment
// references must point to a fragment in the catalog or already stored.
func (c *Catalog) Validate() error {
	var errs []error

	for i, f := range c.Fragments {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("fragment #%d: name is required", i+1))
		}
		if f.Content != "" && f.ContentFile != "" {
			errs = append(errs, fmt.Errorf("fragment %s: content and content_file are exclusive", f.Name))
		}
		errs = append(errs, validateImages("fragment "+f.Name, f.Images)...)
	}

	seen := make(map[string]bool, len(c.Kinds))
	for i, k := range c.Kinds {
		id := k.Name + "/" + k.Language
		if len(k.Name) < email.MinNameLength {
			errs = append(errs, fmt.Errorf("kind #%d: name %q is shorter than %d", i+1, k.Name, email.MinNameLength))
		}
		if _, err := email.ParseLanguage(k.Language); err != nil {
			errs = append(errs, fmt.Errorf("kind %s: %w", id, err))
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("kind %s: duplicated", id))
		}
		seen[id] = true
		if k.Template != "" && k.TemplateFile != "" {
			errs = append(errs, fmt.Errorf("kind %s: template and template_file are exclusive", id))
		}
		if k.PlainTemplate != "" && k.PlainTemplateFile != "" {
			errs = append(errs, fmt.Errorf("kind %s: plain_template and plain_template_file are exclusive", id))
		}
		errs = append(errs, validateImages("kind "+id, k.Images)...)
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalid}, errs...)...)
	}
	return nil
}

func validateImages(owner string, images []Image) []error {
	var errs []error
	seen := make(map[string]bool, len(images))
	for _, img := range images {
		if img.Placeholder == "" || img.File == "" {
			errs = append(errs, fmt.Errorf("%s: image needs placeholder and file", owner))
			continue
		}
		if seen[img.Placeholder] {
			errs = append(errs, fmt.Errorf("%s: placeholder %q duplicated", owner, img.Placeholder))
		}
		seen[img.Placeholder] = true
	}
	return errs
}

// path resolves a file reference of the catalog.
func (c *Catalog) path(name string) string {
	if filepath.IsAbs(name) || c.dir == "" {
		return name
	}
	return filepath.Join(c.dir, name)
}

func (c *Catalog) text(inline, file string) (string, error) {
	if file == "" {
		return inline, nil
	}
	data, err := os.ReadFile(c.path(file))
	if err != nil {
		return "", fmt.Errorf("catalog: read %s: %w", file, err)
	}
	return string(data), nil
}
