package tilepack

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsondata = `{
  "width": 3,
  "height": 2,
  "tilewidth": 32,
  "tileheight": 32,
  "layers": [
    {"name": "map", "type": "tilelayer", "width": 3, "height": 2, "data": [1, 2, 3, 4, 5, 6]},
    {"name": "monsters", "type": "objectgroup", "objects": []},
    {"name": "hints", "type": "tilelayer", "data": [0, 0, 0, 0, 0, 9]}
  ]
}`

const tmxdata = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.0" orientation="orthogonal" width="3" height="2" tilewidth="32" tileheight="32">
 <tileset firstgid="1" name="default" tilewidth="32" tileheight="32"/>
 <layer id="1" name="map" width="3" height="2">
  <data encoding="csv">
1,2,3,
4,5,6
</data>
 </layer>
 <layer id="2" name="empty" width="3" height="2">
  <data encoding="csv"></data>
 </layer>
</map>`

func TestDecode(t *testing.T) {
	doc, err := Decode(strings.NewReader(jsondata))

	require.Nil(t, err)
	assert.Equal(t, 3, doc.Width)
	assert.Equal(t, 2, doc.Height)
	assert.Equal(t, 3, len(doc.Layers))

	l, ok := doc.Layer("map")
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, l.Data)

	l, ok = doc.Layer("monsters")
	assert.True(t, ok)
	assert.Equal(t, 0, len(l.Data))

	_, ok = doc.Layer("Map")
	assert.False(t, ok)
}

func TestDecodeBase64(t *testing.T) {
	raw := make([]byte, 4*4)
	for i, v := range []uint32{1, 2, 3, 400} {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}
	zipped := bytes.Buffer{}
	zw := gzip.NewWriter(&zipped)
	zw.Write(raw)
	zw.Close()

	in := `{"width": 2, "height": 2, "layers": [
	  {"name": "map", "encoding": "base64", "data": "` + base64.StdEncoding.EncodeToString(raw) + `"},
	  {"name": "zipped", "encoding": "base64", "compression": "gzip", "data": "` + base64.StdEncoding.EncodeToString(zipped.Bytes()) + `"}
	]}`

	doc, err := Decode(strings.NewReader(in))

	require.Nil(t, err)
	l, _ := doc.Layer("map")
	assert.Equal(t, []int{1, 2, 3, 400}, l.Data)
	l, _ = doc.Layer("zipped")
	assert.Equal(t, []int{1, 2, 3, 400}, l.Data)
}

func TestDecodeInvalid(t *testing.T) {
	for name, in := range map[string]string{
		"truncated":    `{"width": 3, "layers": [`,
		"not json":     `<map></map>`,
		"string data":  `{"width": 1, "height": 1, "layers": [{"name": "map", "data": "!!"}]}`,
		"negative":     `{"width": -1, "height": 1, "layers": []}`,
		"bad encoding": `{"width": 1, "height": 1, "layers": [{"name": "map", "encoding": "hex", "data": "00"}]}`,
		"trailing":     `{"width": 1, "height": 1, "layers": [{"name": "map", "data": [1]}]} }}} not json`,
		"second value": `{"width": 1, "height": 1, "layers": []} {}`,
		"null":         `null`,
	} {
		_, err := Decode(strings.NewReader(in))
		assert.NotNil(t, err, name)
	}
}

func TestDecodeLastLayerWins(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"width": 1, "height": 1, "layers": [
	  {"name": "map", "data": [1]},
	  {"name": "map", "data": [2]}
	]}`))

	require.Nil(t, err)
	l, _ := doc.Layer("map")
	assert.Equal(t, []int{2}, l.Data)
}

func TestDecodeTMX(t *testing.T) {
	doc, err := DecodeTMX(strings.NewReader(tmxdata))

	require.Nil(t, err)
	assert.Equal(t, 3, doc.Width)
	assert.Equal(t, 2, doc.Height)

	l, ok := doc.Layer("map")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, l.Data)

	l, ok = doc.Layer("empty")
	require.True(t, ok)
	assert.Equal(t, 0, len(l.Data))
}

func TestDecodeTMXNegative(t *testing.T) {
	in := strings.Replace(tmxdata, "4,5,6", "4,-5,6", 1)

	doc, err := DecodeTMX(strings.NewReader(in))

	require.Nil(t, err)
	l, _ := doc.Layer("map")
	assert.Equal(t, []int{1, 2, 3, 4, -5, 6}, l.Data)

	_, err = Project(LevelRef{Index: 1}, doc, l, 4, false)
	rerr, ok := err.(*TileRangeError)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, -5, rerr.Code)
	assert.Equal(t, 1, rerr.Row)
	assert.Equal(t, 1, rerr.Col)
}

func TestOpenUnreadable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "levels")
	require.Nil(t, ioutil.WriteFile(blocker, []byte("not a directory"), 0644))

	_, err := Open(LevelRef{Index: 2, Path: filepath.Join(blocker, "level-2.json")})

	require.NotNil(t, err)
	_, ok := err.(*DocumentNotFoundError)
	assert.False(t, ok, "got %v", err)
	assert.False(t, os.IsNotExist(errors.Unwrap(err)))
	assert.Contains(t, err.Error(), "level 2")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	jpath := filepath.Join(dir, "level-1.json")
	tpath := filepath.Join(dir, "level-2.TMX")
	bpath := filepath.Join(dir, "level-3.json")
	require.Nil(t, ioutil.WriteFile(jpath, []byte(jsondata), 0644))
	require.Nil(t, ioutil.WriteFile(tpath, []byte(tmxdata), 0644))
	require.Nil(t, ioutil.WriteFile(bpath, []byte(tmxdata), 0644))

	j, err := Open(LevelRef{Index: 1, Path: jpath})
	require.Nil(t, err)
	tm, err := Open(LevelRef{Index: 2, Path: tpath})
	require.Nil(t, err)
	assert.Equal(t, j.Width, tm.Width)
	assert.Equal(t, j.Layers[0].Data, tm.Layers[0].Data)

	_, err = Open(LevelRef{Index: 3, Path: bpath})
	perr, ok := err.(*DocumentParseError)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, 3, perr.Level.Index)
	assert.Equal(t, "parse", Stage(err))

	_, err = Open(LevelRef{Index: 4, Path: filepath.Join(dir, "level-4.json")})
	nerr, ok := err.(*DocumentNotFoundError)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, 4, nerr.Level.Index)
	assert.Equal(t, "load", Stage(err))
}
