package layout

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/shadowtext/dsl"
)

func mustParse(t *testing.T, src string) *dsl.Document {
	t.Helper()
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return doc
}

func TestBuildAppliesDefaultsAndBinding(t *testing.T) {
	doc := mustParse(t, `
banners demo v1 {
  defaults {
    font: "Go Mono"
  }
  banner hello {
    message: "Hello, ${user.name|guest}!"
    size: 20pt
    quality: 90
  }
  banner bye {
    message: "Bye ${user.name}"
    font: Go
    out: "custom/bye.jpg"
  }
}
`)
	var data any
	if err := json.Unmarshal([]byte(`{"user":{"name":"Ada"}}`), &data); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	jobs, err := Build(doc, data, BuildOptions{OutDir: "out"})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	hello := jobs[0]
	if hello.Request.Message != "Hello, Ada!" || hello.Request.Family != "Go Mono" || hello.Request.Size != 20 {
		t.Fatalf("unexpected hello request: %+v", hello.Request)
	}
	if hello.Out != filepath.Join("out", "hello.jpg") || hello.Quality != 90 {
		t.Fatalf("unexpected hello job: %+v", hello)
	}

	bye := jobs[1]
	if bye.Request.Family != "Go" || bye.Request.Size != defaultBannerSize {
		t.Fatalf("unexpected bye request: %+v", bye.Request)
	}
	if bye.Out != filepath.Join("out", "custom", "bye.jpg") {
		t.Fatalf("unexpected bye out: %s", bye.Out)
	}
}

func TestBuildRejectsEmptyMessage(t *testing.T) {
	doc := mustParse(t, `banners x v1 { banner a { size: 10 } }`)
	_, err := Build(doc, nil, BuildOptions{})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestBuildRejectsUnknownKey(t *testing.T) {
	doc := mustParse(t, `banners x v1 { banner a { message: "x"; colour: red } }`)
	_, err := Build(doc, nil, BuildOptions{})
	if err == nil || !strings.Contains(err.Error(), "colour") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestBuildRejectsDuplicateBanner(t *testing.T) {
	doc := mustParse(t, `banners x v1 {
  banner a { message: "1" }
  banner a { message: "2" }
}`)
	if _, err := Build(doc, nil, BuildOptions{}); err == nil {
		t.Fatalf("expected duplicate banner error")
	}
}

func TestBuildRejectsBadQualityAndSize(t *testing.T) {
	for _, src := range []string{
		`banners x v1 { banner a { message: "1"; quality: 0 } }`,
		`banners x v1 { banner a { message: "1"; size: 0 } }`,
		`banners x v1 { banner a { message: "1"; size: huge } }`,
	} {
		if _, err := Build(mustParse(t, src), nil, BuildOptions{}); err == nil {
			t.Fatalf("expected error for %s", src)
		}
	}
}

func TestBuildRequiresBanner(t *testing.T) {
	doc := mustParse(t, `banners x v1 { defaults { size: 12 } }`)
	if _, err := Build(doc, nil, BuildOptions{}); err == nil {
		t.Fatalf("expected missing banner error")
	}
	if _, err := Build(nil, nil, BuildOptions{}); err == nil {
		t.Fatalf("expected nil document error")
	}
}
