package tilepack

import (
	"bufio"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Stats summarises a successful run.
type Stats struct {
	Levels int
	Bytes  int64
}

// Packer converts level documents into one flat binary of canonical grids.
type Packer struct {
	cfg    *Config
	logger *log.Logger
}

// NewPacker returns a packer for the given config. A nil logger discards
// progress output.
func NewPacker(cfg *Config, logger *log.Logger) *Packer {
	if logger == nil {
		logger = log.New(ioutil.Discard)
	}
	return &Packer{cfg: cfg, logger: logger}
}

// Pack every level from src into the configured output file.
//
// Blocks are written to a temporary file alongside the output which is only
// renamed into place once every level has been packed, so a failed run never
// leaves a partial (or clobbered) output behind.
func (p *Packer) Pack(src Source) (*Stats, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	out := p.cfg.OutputPath
	tmp, err := ioutil.TempFile(filepath.Dir(out), "."+filepath.Base(out)+".*")
	if err != nil {
		return nil, &IOWriteError{Path: out, Err: err}
	}
	published := false
	defer func() {
		if !published {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	stats, err := p.PackTo(buf, src)
	if err != nil {
		return nil, err
	}

	if err = buf.Flush(); err != nil {
		return nil, &IOWriteError{Path: out, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return nil, &IOWriteError{Path: out, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return nil, &IOWriteError{Path: out, Err: err}
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return nil, &IOWriteError{Path: out, Err: err}
	}
	if err = os.Rename(tmp.Name(), out); err != nil {
		return nil, &IOWriteError{Path: out, Err: err}
	}
	published = true

	p.logger.Info("wrote map data", "path", out, "levels", stats.Levels, "bytes", stats.Bytes)
	return stats, nil
}

// PackTo writes one canonical grid per level from src to w, in order.
// The first error aborts the run; blocks already written to w stay there.
func (p *Packer) PackTo(w io.Writer, src Source) (*Stats, error) {
	refs, err := src.Levels()
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, ref := range refs {
		g, err := p.packLevel(src, ref)
		if err != nil {
			return nil, err
		}

		n, err := g.WriteTo(w)
		stats.Bytes += n
		if err != nil {
			return nil, &IOWriteError{Path: p.cfg.OutputPath, Err: err}
		}
		stats.Levels++

		p.logger.Infof("processed level %d", ref.Index)
	}

	return stats, nil
}

// packLevel loads a single level & projects it's layer onto a canonical grid
func (p *Packer) packLevel(src Source, ref LevelRef) (*Grid, error) {
	doc, err := src.Load(ref)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("loaded level", "index", ref.Index, "width", doc.Width, "height", doc.Height, "layers", len(doc.Layers))

	l, ok := doc.Layer(p.cfg.LayerName)
	if !ok {
		return nil, &LayerNotFoundError{Level: ref, Layer: p.cfg.LayerName}
	}

	return Project(ref, doc, l, p.cfg.CanonicalSize, p.cfg.MaskTiles)
}
