// Package inifile serializes merged configuration trees into the INI
// dialect OSKAR consumes: named sections whose keys are slash-joined paths
// through the nested settings, case preserved.
package inifile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/ini.v1"

	"github.com/radioforge/oskarflow/pkg/settings"
)

func init() {
	// OSKAR expects plain key=value lines, not column-aligned output.
	ini.PrettyFormat = false
}

// Section is one named INI section backed by a (possibly nested) tree.
type Section struct {
	Name string
	Tree settings.Tree
}

// Document is an ordered sequence of sections. Section order is fixed at
// construction so repeated serialization is byte-identical.
type Document struct {
	sections []Section
}

// FromTree builds a document from a merged tree whose top-level keys are
// section names. Sections named in order come first, in that order; any
// remaining sections follow sorted by name. Top-level scalars are not valid
// sections and are dropped.
func FromTree(t settings.Tree, order []string) *Document {
	doc := &Document{}
	used := make(map[string]bool, len(t))

	for _, name := range order {
		if sub, ok := t[name].(map[string]any); ok {
			doc.sections = append(doc.sections, Section{Name: name, Tree: sub})
			used[name] = true
		}
	}

	var rest []string
	for name, v := range t {
		if used[name] {
			continue
		}
		if _, ok := v.(map[string]any); ok {
			rest = append(rest, name)
		}
	}
	for _, name := range settings.SortedKeys(stringSet(rest)) {
		doc.sections = append(doc.sections, Section{Name: name, Tree: t[name].(map[string]any)})
	}
	return doc
}

func stringSet(names []string) map[string]string {
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[n] = n
	}
	return m
}

// Sections returns the section names in serialization order.
func (d *Document) Sections() []string {
	names := make([]string, len(d.sections))
	for i, s := range d.sections {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the flattened value at key within a section, for callers
// that need to inspect a generated document.
func (d *Document) Lookup(section, key string) (string, bool) {
	for _, s := range d.sections {
		if s.Name == section {
			v, ok := settings.Flatten(s.Tree)[key]
			return v, ok
		}
	}
	return "", false
}

// Bytes serializes the document. Keys within a section are written in
// lexical order.
func (d *Document) Bytes() ([]byte, error) {
	f := ini.Empty()
	for _, s := range d.sections {
		sec, err := f.NewSection(s.Name)
		if err != nil {
			return nil, fmt.Errorf("creating section %q: %w", s.Name, err)
		}
		flat := settings.Flatten(s.Tree)
		for _, key := range settings.SortedKeys(flat) {
			if _, err := sec.NewKey(key, flat[key]); err != nil {
				return nil, fmt.Errorf("writing key %s/%s: %w", s.Name, key, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serializing ini document: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile serializes the document to path, replacing any existing file.
func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
