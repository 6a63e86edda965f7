// Package renderer writes a resolved document as Markdown with its
// screenshots stored next to it.
package renderer

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"text/template"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/procdoc/internal/document"
	"github.com/ivlev/procdoc/internal/engine"
)

const (
	DefaultAssetsDir = "assets"
	QRCodeName       = "recording_qr.png"
	qrCodeSize       = 256
)

//go:embed templates/procedure.md.tmpl
var procedureTemplate string

var tmpl = template.Must(template.New("procedure").Parse(procedureTemplate))

// Markdown renders resolved nodes. Image links point into AssetsDir,
// relative to the document.
type Markdown struct {
	AssetsDir  string
	SourceLink string
}

func NewMarkdown(sourceLink string) *Markdown {
	return &Markdown{AssetsDir: DefaultAssetsDir, SourceLink: sourceLink}
}

type block struct {
	Kind     string
	Text     string
	Number   int
	Missing  bool
	Alt      string
	Image    string
	Caption  string
	Navigate string
}

type page struct {
	Blocks     []block
	SourceLink string
	QRCode     string
}

func (r *Markdown) assetsDir() string {
	if r.AssetsDir == "" {
		return DefaultAssetsDir
	}
	return r.AssetsDir
}

// Render writes the Markdown for nodes to w. Steps are numbered from 1 and
// the count restarts at every title and section.
func (r *Markdown) Render(w io.Writer, nodes []document.ResolvedNode) error {
	p := page{SourceLink: r.SourceLink}
	if r.SourceLink != "" {
		p.QRCode = path.Join(r.assetsDir(), QRCodeName)
	}

	step := 0
	for _, n := range nodes {
		b := block{Kind: n.Kind.String(), Text: n.Text}
		switch n.Kind {
		case document.KindTitle, document.KindSection:
			step = 0
		case document.KindStep:
			step++
			b.Number = step
		case document.KindScreenshot:
			b.Number = n.Index + 1
			if n.Missing || n.Frame == nil {
				b.Missing = true
				break
			}
			r.describeFrame(&b, n)
		}
		p.Blocks = append(p.Blocks, b)
	}

	return tmpl.Execute(w, p)
}

func (r *Markdown) describeFrame(b *block, n document.ResolvedNode) {
	m := n.Frame.Moment
	b.Image = path.Join(r.assetsDir(), engine.FrameFileName(n.Frame.Ordinal))
	b.Caption = m.Time.String()
	if m.Description != "" {
		b.Caption += " " + m.Description
	}
	b.Navigate = m.DisplayPath()

	switch {
	case n.Text != "":
		b.Alt = n.Text
	case m.Description != "":
		b.Alt = m.Description
	default:
		b.Alt = fmt.Sprintf("Screenshot %d", b.Number)
	}
}

// WriteAssets stores every bound frame as PNG under outDir/AssetsDir, plus
// the recording QR code when a source link is set.
func (r *Markdown) WriteAssets(outDir string, nodes []document.ResolvedNode) error {
	dir := filepath.Join(outDir, r.assetsDir())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	written := 0
	for _, n := range nodes {
		if n.Kind != document.KindScreenshot || n.Frame == nil {
			continue
		}
		if err := engine.WriteFramePNG(filepath.Join(dir, engine.FrameFileName(n.Frame.Ordinal)), *n.Frame); err != nil {
			return err
		}
		written++
	}

	if r.SourceLink != "" {
		if err := qrcode.WriteFile(r.SourceLink, qrcode.Medium, qrCodeSize, filepath.Join(dir, QRCodeName)); err != nil {
			return fmt.Errorf("qr code for %s: %w", r.SourceLink, err)
		}
	}

	log.Printf("[*] Wrote %d screenshots to %s", written, dir)
	return nil
}

// WriteFile renders nodes into outDir/name together with their assets and
// returns the document path and its content.
func (r *Markdown) WriteFile(outDir, name string, nodes []document.ResolvedNode) (string, []byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, nodes); err != nil {
		return "", nil, fmt.Errorf("render: %w", err)
	}
	if err := r.WriteAssets(outDir, nodes); err != nil {
		return "", nil, err
	}

	out := filepath.Join(outDir, name)
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return "", nil, err
	}
	return out, buf.Bytes(), nil
}
