package tilepack

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	sqlUpdateLevel  = `INSERT INTO levels (idx, path, width, height) VALUES (:idx, :path, :width, :height) ON CONFLICT (idx) DO UPDATE SET path=EXCLUDED.path, width=EXCLUDED.width, height=EXCLUDED.height;`
	sqlDeleteLayers = `DELETE FROM layers WHERE level_idx=?;`
	sqlInsertLayers = `INSERT INTO layers (level_idx, pos, name, data) VALUES (:level_idx, :pos, :name, :data);`
)

// Archive holds imported level documents in a single sqlite database so a
// batch can be re-packed without the editor exports at hand.
type Archive struct {
	filename string
	db       *sqlx.DB
}

// OpenArchive given it's filename (database file) on disk.
// Will create if it doesn't exist.
func OpenArchive(fname string) (*Archive, error) {
	db, err := sqlx.Open("sqlite3", fname)
	if err != nil {
		return nil, err
	}

	a := &Archive{db: db, filename: fname}
	if err := a.init(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// Filename returns the path to the archive on disk
func (a *Archive) Filename() string {
	return a.filename
}

// Close the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}

// Import stores `doc` as level `ref`, replacing any level with the same index.
func (a *Archive) Import(ref LevelRef, doc *Document) error {
	layers := make([]dbLayer, 0, len(doc.Layers))
	for i, l := range doc.Layers {
		dl, err := newDBLayer(ref.Index, i, l)
		if err != nil {
			return err
		}
		layers = append(layers, dl)
	}

	txn, err := a.db.Beginx()
	if err != nil {
		return err
	}

	_, err = txn.NamedExec(sqlUpdateLevel, dbLevel{Idx: ref.Index, Path: ref.Path, Width: doc.Width, Height: doc.Height})
	if err != nil {
		txn.Rollback()
		return err
	}

	_, err = txn.Exec(sqlDeleteLayers, ref.Index)
	if err != nil {
		txn.Rollback()
		return err
	}

	if len(layers) > 0 {
		_, err = txn.NamedExec(sqlInsertLayers, layers)
		if err != nil {
			txn.Rollback()
			return err
		}
	}

	return txn.Commit()
}

// ImportFrom copies every level of `src` into the archive, returning the
// number of levels imported. It stops at the first level that fails to load.
func (a *Archive) ImportFrom(src Source) (int, error) {
	refs, err := src.Levels()
	if err != nil {
		return 0, err
	}

	for i, ref := range refs {
		doc, err := src.Load(ref)
		if err != nil {
			return i, err
		}
		if err := a.Import(ref, doc); err != nil {
			return i, err
		}
	}

	return len(refs), nil
}

// Levels returns all archived levels ordered by index.
func (a *Archive) Levels() ([]LevelRef, error) {
	rows := []dbLevel{}
	err := a.db.Select(&rows, "SELECT idx, path, width, height FROM levels ORDER BY idx;")
	if err != nil {
		return nil, err
	}

	refs := make([]LevelRef, len(rows))
	for i, r := range rows {
		refs[i] = LevelRef{Index: r.Idx, Path: r.Path}
	}
	return refs, nil
}

// Load rebuilds the archived document for `ref` (matched on index).
func (a *Archive) Load(ref LevelRef) (*Document, error) {
	lvl := dbLevel{}
	err := a.db.Get(&lvl, "SELECT idx, path, width, height FROM levels WHERE idx=? LIMIT 1;", ref.Index)
	if err == sql.ErrNoRows {
		return nil, &DocumentNotFoundError{Level: ref, Err: fmt.Errorf("level not in archive %s", a.filename)}
	}
	if err != nil {
		return nil, err
	}

	layers := []dbLayer{}
	err = a.db.Select(&layers, "SELECT level_idx, pos, name, data FROM layers WHERE level_idx=? ORDER BY pos;", ref.Index)
	if err != nil {
		return nil, err
	}

	doc := &Document{Width: lvl.Width, Height: lvl.Height, Layers: make([]*Layer, 0, len(layers))}
	for _, dl := range layers {
		tiles := []int{}
		if err := json.Unmarshal([]byte(dl.Data), &tiles); err != nil {
			return nil, &DocumentParseError{Level: ref, Err: fmt.Errorf("layer %q: %w", dl.Name, err)}
		}
		doc.Layers = append(doc.Layers, &Layer{Name: dl.Name, Data: tiles})
	}

	return doc, nil
}

// init creates some DB tables for us if they don't exist
func (a *Archive) init() error {
	createLevels := `CREATE TABLE IF NOT EXISTS levels(
		idx INTEGER PRIMARY KEY,
		path TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL
	    );`
	_, err := a.db.Exec(createLevels)
	if err != nil {
		return err
	}

	createLayers := `CREATE TABLE IF NOT EXISTS layers(
		level_idx INTEGER NOT NULL,
		pos INTEGER NOT NULL,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (level_idx, pos)
	    );`

	_, err = a.db.Exec(createLayers)
	return err
}

// dbLevel encodes a single level's header.
type dbLevel struct {
	Idx    int    `db:"idx"`
	Path   string `db:"path"`
	Width  int    `db:"width"`
	Height int    `db:"height"`
}

// dbLayer encodes a single layer. Tile data is stored as a JSON array.
type dbLayer struct {
	LevelIdx int    `db:"level_idx"`
	Pos      int    `db:"pos"`
	Name     string `db:"name"`
	Data     string `db:"data"`
}

// newDBLayer crafts a dbLayer struct given it's inputs
func newDBLayer(idx, pos int, l *Layer) (dbLayer, error) {
	tiles := l.Data
	if tiles == nil {
		tiles = []int{}
	}
	databytes, err := json.Marshal(tiles)
	if err != nil {
		return dbLayer{}, err
	}
	return dbLayer{LevelIdx: idx, Pos: pos, Name: l.Name, Data: string(databytes)}, nil
}
