/* this file is a simplified set of structs for reading TMX level files.

We only need the map dimensions and the tile layers, so that's all we bother
to parse. Tile data may be CSV or base64 (optionally gzip / zlib compressed),
the same encodings Tiled uses for its JSON export.
*/
package tilepack

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"io/ioutil"
	"strconv"
	"strings"
)

const (
	// Data encodings
	// see doc.mapeditor.org/en/stable/reference/tmx-map-format/#data
	EncodingCSV    = "csv"
	EncodingBase64 = "base64"
)

// tmxMap is the TMX file structure representing the map as a whole.
type tmxMap struct {
	XMLName     xml.Name    `xml:"map"`
	Orientation string      `xml:"orientation,attr"`
	Width       int         `xml:"width,attr"`  // in tiles
	Height      int         `xml:"height,attr"` // in tiles
	TileLayers  []*tmxLayer `xml:"layer"`
}

// tmxLayer is a TMX tile layer.
type tmxLayer struct {
	ID     uint    `xml:"id,attr"`
	Name   string  `xml:"name,attr"`
	Width  int     `xml:"width,attr"`
	Height int     `xml:"height,attr"`
	Data   tmxData `xml:"data"`
}

// tmxData is a TMX file structure holding encoded tile data.
type tmxData struct {
	Encoding    string `xml:"encoding,attr"`
	Compression string `xml:"compression,attr"`
	RawData     []byte `xml:",innerxml"`
}

// DecodeTMX reads a TMX map XML into a Document.
func DecodeTMX(r io.Reader) (*Document, error) {
	m := &tmxMap{}
	if err := xml.NewDecoder(r).Decode(m); err != nil {
		return nil, err
	}

	doc := &Document{
		Width:  m.Width,
		Height: m.Height,
		Layers: make([]*Layer, 0, len(m.TileLayers)),
	}

	for _, tl := range m.TileLayers {
		tiles, err := tl.Data.decode()
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", tl.Name, err)
		}
		doc.Layers = append(doc.Layers, &Layer{Name: tl.Name, Data: tiles})
	}

	return doc, doc.check()
}

// decode the layer data according to it's encoding
func (d *tmxData) decode() ([]int, error) {
	switch d.Encoding {
	case EncodingCSV:
		return d.decodeCSV()
	case EncodingBase64:
		return d.decodeBase64()
	case "":
		return nil, fmt.Errorf("xml <tile> data is not supported, use csv or base64")
	}
	return nil, fmt.Errorf("unknown data encoding %q", d.Encoding)
}

// decodeCSV reads csv encoded tile data
func (d *tmxData) decodeCSV() ([]int, error) {
	cleaner := func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '-' {
			return r
		}
		return -1
	}

	rawDataClean := strings.Map(cleaner, string(d.RawData))
	if rawDataClean == "" {
		return []int{}, nil
	}

	str := strings.Split(rawDataClean, ",")

	gids := make([]int, len(str))
	for i, s := range str {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		gids[i] = int(v)
	}
	return gids, nil
}

// decodeBase64 reads base64 encoded little endian uint32 tile data
func (d *tmxData) decodeBase64() ([]int, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(d.RawData)))
	if err != nil {
		return nil, err
	}

	var rdr io.Reader = bytes.NewReader(raw)
	switch d.Compression {
	case "":
	case "gzip":
		rdr, err = gzip.NewReader(rdr)
	case "zlib":
		rdr, err = zlib.NewReader(rdr)
	default:
		return nil, fmt.Errorf("unsupported data compression %q", d.Compression)
	}
	if err != nil {
		return nil, err
	}

	buf, err := ioutil.ReadAll(rdr)
	if err != nil {
		return nil, err
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("base64 tile data is %d bytes, not a multiple of 4", len(buf))
	}

	gids := make([]int, len(buf)/4)
	for i := range gids {
		gids[i] = int(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return gids, nil
}
