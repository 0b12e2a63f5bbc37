package tilepack

import (
	"sort"
)

// Source supplies level documents to the packer in order.
type Source interface {
	// Levels returns every level, in packing order
	Levels() ([]LevelRef, error)

	// Load reads a single level document
	Load(ref LevelRef) (*Document, error)
}

// FileSource reads level documents from disk.
type FileSource struct {
	cfg *Config
}

// NewFileSource returns a source over the documents named by cfg.
func NewFileSource(cfg *Config) *FileSource {
	return &FileSource{cfg: cfg}
}

// Levels returns the configured level documents.
func (s *FileSource) Levels() ([]LevelRef, error) {
	return s.cfg.Sources()
}

// Load the level document from disk.
func (s *FileSource) Load(ref LevelRef) (*Document, error) {
	return Open(ref)
}

// sortRefs orders levels by index, low -> high
func sortRefs(refs []LevelRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Index < refs[j].Index
	})
}
