package domain

import "strings"

// Toc is a decoded table-of-contents file.
type Toc struct {
	// Path is the normalized location of the toc file. It is not part of the file format.
	Path  NormalizedPath `yaml:"-"`
	Title string         `yaml:"title,omitempty"`
	Href  string         `yaml:"href,omitempty"`
	Items []*TocItem     `yaml:"items,omitempty"`
}

// TocItem is one node of the toc tree.
type TocItem struct {
	Name    string      `yaml:"name,omitempty"`
	Href    string      `yaml:"href,omitempty"`
	Items   []*TocItem  `yaml:"items,omitempty"`
	Include *TocInclude `yaml:"include,omitempty"`
}

// TocInclude references another toc or a generator source.
type TocInclude struct {
	Path      string         `yaml:"path"`
	Mode      string         `yaml:"mode,omitempty"`
	Includers []IncluderSpec `yaml:"includers,omitempty"`
}

// IncluderSpec configures one includer run for a generator include.
type IncluderSpec map[string]any

// Name returns the includer name.
func (s IncluderSpec) Name() string {
	name, _ := s["name"].(string)
	return name
}

// Walk visits every item depth-first, parents before children.
func (t *Toc) Walk(fn func(item *TocItem)) {
	var walk func(items []*TocItem)
	walk = func(items []*TocItem) {
		for _, item := range items {
			if item == nil {
				continue
			}
			fn(item)
			walk(item.Items)
		}
	}
	walk(t.Items)
}

// IsExternalHref reports whether href points outside the project (URLs, mail links, anchors).
func IsExternalHref(href string) bool {
	switch {
	case href == "":
		return true
	case strings.Contains(href, "://"), strings.HasPrefix(href, "//"):
		return true
	case strings.HasPrefix(href, "mailto:"), strings.HasPrefix(href, "#"):
		return true
	default:
		return false
	}
}

// IsTocFile reports whether the path names a toc file.
func IsTocFile(p NormalizedPath) bool {
	return p.Base() == TocFileName
}

// IsPresetsFile reports whether the path names a presets file.
func IsPresetsFile(p NormalizedPath) bool {
	return p.Base() == PresetsFileName
}

const (
	// TocFileName is the file name of table-of-contents files.
	TocFileName = "toc.yaml"
	// PresetsFileName is the file name of variable presets files.
	PresetsFileName = "presets.yaml"
)
