package inifile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/radioforge/oskarflow/pkg/settings"
)

func testTree() settings.Tree {
	return settings.Tree{
		"General":   settings.Tree{"app": "oskar_sim_beam_pattern", "version": "2.8.3"},
		"simulator": settings.Tree{"use_gpus": true, "double_precision": false},
		"telescope": settings.Tree{
			"input_directory": "../telescope_model",
			"aperture_array": settings.Tree{
				"array_pattern": settings.Tree{"element": settings.Tree{"x_gain": 1.0}},
			},
		},
	}
}

func TestFromTree_SectionOrder(t *testing.T) {
	doc := FromTree(testTree(), []string{"General", "simulator"})

	want := []string{"General", "simulator", "telescope"}
	got := doc.Sections()
	if len(got) != len(want) {
		t.Fatalf("Expected %d sections, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Section %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDocument_Bytes(t *testing.T) {
	doc := FromTree(testTree(), []string{"General", "simulator", "telescope"})
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	text := string(data)
	for _, want := range []string{
		"[General]",
		"app=oskar_sim_beam_pattern",
		"use_gpus=true",
		"double_precision=false",
		"aperture_array/array_pattern/element/x_gain=1",
		"input_directory=../telescope_model",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestDocument_BytesDeterministic(t *testing.T) {
	doc := FromTree(testTree(), []string{"General"})
	first, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	second, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("Expected repeated serialization to be byte-identical")
	}
}

func TestDocument_WriteFile(t *testing.T) {
	doc := FromTree(testTree(), []string{"General"})
	path := filepath.Join(t.TempDir(), "beam.ini")

	if err := doc.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading written file: %v", err)
	}
	if !strings.Contains(string(data), "[General]") {
		t.Errorf("Written file missing [General] section")
	}
}

func TestDocument_Lookup(t *testing.T) {
	doc := FromTree(testTree(), nil)

	if v, ok := doc.Lookup("telescope", "aperture_array/array_pattern/element/x_gain"); !ok || v != "1" {
		t.Errorf("Lookup returned (%q, %v), want (\"1\", true)", v, ok)
	}
	if _, ok := doc.Lookup("telescope", "missing"); ok {
		t.Errorf("Expected miss for unknown key")
	}
}
