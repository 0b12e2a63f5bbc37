/* file holds the level document model & the Tiled JSON decoder.
 */
package tilepack

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Document is a single level as exported by the level editor.
type Document struct {
	Width  int      `json:"width"`  // in tiles
	Height int      `json:"height"` // in tiles
	Layers []*Layer `json:"layers"`
}

// Layer is a named grid of tile codes, row major from the top left.
// Layers with no tile data (eg. object groups) have an empty Data.
type Layer struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}

// Layer returns the layer called `name`.
// If more than one layer shares a name the last one wins.
func (d *Document) Layer(name string) (*Layer, bool) {
	lut := map[string]*Layer{}
	for _, l := range d.Layers {
		lut[l.Name] = l
	}
	l, ok := lut[name]
	return l, ok
}

// check the document dimensions are sane
func (d *Document) check() error {
	if d.Width < 0 || d.Height < 0 {
		return fmt.Errorf("invalid dimensions %dx%d", d.Width, d.Height)
	}
	return nil
}

// jsonLayer is a Tiled JSON layer. Tiled writes `data` either as an array
// of gids or, for base64 encoding, a string.
type jsonLayer struct {
	Name        string          `json:"name"`
	Encoding    string          `json:"encoding"`
	Compression string          `json:"compression"`
	Data        json.RawMessage `json:"data"`
}

// Decode reads a Tiled JSON level document.
func Decode(r io.Reader) (*Document, error) {
	var raw *struct {
		Width  int          `json:"width"`
		Height int          `json:"height"`
		Layers []*jsonLayer `json:"layers"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("document is null")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after document")
	}

	doc := &Document{
		Width:  raw.Width,
		Height: raw.Height,
		Layers: make([]*Layer, 0, len(raw.Layers)),
	}

	for _, jl := range raw.Layers {
		tiles, err := jl.decode()
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", jl.Name, err)
		}
		doc.Layers = append(doc.Layers, &Layer{Name: jl.Name, Data: tiles})
	}

	return doc, doc.check()
}

// decode the json layer data, which may be absent, an array or a string
func (l *jsonLayer) decode() ([]int, error) {
	data := strings.TrimSpace(string(l.Data))
	if data == "" || data == "null" {
		return []int{}, nil
	}

	if strings.HasPrefix(data, "\"") {
		var s string
		if err := json.Unmarshal(l.Data, &s); err != nil {
			return nil, err
		}
		enc := l.Encoding
		if enc == "" {
			enc = EncodingBase64
		}
		td := &tmxData{Encoding: enc, Compression: l.Compression, RawData: []byte(s)}
		return td.decode()
	}

	tiles := []int{}
	if err := json.Unmarshal(l.Data, &tiles); err != nil {
		return nil, err
	}
	return tiles, nil
}

// Open reads the level document at ref.Path. TMX files are detected by
// extension, anything else is read as Tiled JSON.
func Open(ref LevelRef) (*Document, error) {
	f, err := os.Open(ref.Path)
	if os.IsNotExist(err) {
		return nil, &DocumentNotFoundError{Level: ref, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("level %d: opening document: %w", ref.Index, err)
	}
	defer f.Close()

	var doc *Document
	if strings.EqualFold(filepath.Ext(ref.Path), ".tmx") {
		doc, err = DecodeTMX(f)
	} else {
		doc, err = Decode(f)
	}
	if err != nil {
		return nil, &DocumentParseError{Level: ref, Err: err}
	}

	return doc, nil
}
