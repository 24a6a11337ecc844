// Package cache is the Cache Layer: persists and restores the symbol
// index, bidirectional graph, per-file content hashes, and project-config
// hash, and detects stale files on startup (spec.md §4.6/§6).
//
// The on-disk artifacts are a literal external contract (four named JSON
// files under .blastradius/), so they are written with stdlib
// encoding/json rather than a KV store — see DESIGN.md. A separate
// in-memory badger index (name_index.go) backs fast fuzzy symbol/token
// lookups for the Intent Pipeline and Staged-Diff Mapper; it is never
// persisted, and each of those consumers builds a fresh one from the
// in-memory symbol index it is handed.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/dhivijit/ripplecheck/internal/apperr"
	"github.com/dhivijit/ripplecheck/internal/graph"
	"github.com/dhivijit/ripplecheck/internal/symbol"
)

const (
	DefaultDirName = ".blastradius"
	graphFile      = "graph.json"
	symbolsFile    = "symbols.json"
	hashesFile     = "fileHashes.json"
	metadataFile   = "metadata.json"

	Version = "1.0.0"
)

// Metadata is the persisted metadata.json artifact.
type Metadata struct {
	ProjectHash string    `json:"projectHash"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     string    `json:"version"`
}

// Store reads and writes the cache directory's four artifacts.
type Store struct {
	dir string
}

// New returns a Store rooted at <projectRoot>/<dirName>. dirName defaults
// to DefaultDirName when empty.
func New(projectRoot, dirName string) *Store {
	if dirName == "" {
		dirName = DefaultDirName
	}
	return &Store{dir: filepath.Join(projectRoot, dirName)}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// ContentHash is the fast, non-cryptographic per-file digest used for
// staleness detection (security is not a requirement here, per spec.md
// §4.6).
func ContentHash(content []byte) string {
	return hex.EncodeToString(uint64ToBytes(xxhash.Sum64(content)))
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// ProjectHash is the cryptographic hash of the project-configuration text
// (e.g. tsconfig.json contents).
func ProjectHash(configText []byte) string {
	sum := sha256.Sum256(configText)
	return hex.EncodeToString(sum[:])
}

// Exists reports whether every artifact file is present.
func (s *Store) Exists() bool {
	for _, f := range []string{graphFile, symbolsFile, hashesFile, metadataFile} {
		if _, err := os.Stat(s.path(f)); err != nil {
			return false
		}
	}
	return true
}

// Load reads all four artifacts. Per the §7 error policy, any unreadable
// or corrupted artifact is reported (not surfaced as a hard failure) so
// the caller can fall back to a full rebuild.
func (s *Store) Load() (idx map[string]*symbol.Symbol, g *graph.Graph, hashes map[string]string, meta *Metadata, err error) {
	idx, err = s.loadSymbols()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	g, err = s.loadGraph()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	hashes, err = s.loadHashes()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	meta, err = s.loadMetadata()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return idx, g, hashes, meta, nil
}

func (s *Store) loadSymbols() (map[string]*symbol.Symbol, error) {
	data, err := os.ReadFile(s.path(symbolsFile))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCacheCorrupt, "cannot read symbols.json", s.path(symbolsFile), err)
	}
	var idx map[string]*symbol.Symbol
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, apperr.Wrap(apperr.KindCacheCorrupt, "corrupt symbols.json", s.path(symbolsFile), err)
	}
	return idx, nil
}

func (s *Store) loadGraph() (*graph.Graph, error) {
	data, err := os.ReadFile(s.path(graphFile))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCacheCorrupt, "cannot read graph.json", s.path(graphFile), err)
	}
	g := graph.New()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, apperr.Wrap(apperr.KindCacheCorrupt, "corrupt graph.json", s.path(graphFile), err)
	}
	return g, nil
}

func (s *Store) loadHashes() (map[string]string, error) {
	data, err := os.ReadFile(s.path(hashesFile))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCacheCorrupt, "cannot read fileHashes.json", s.path(hashesFile), err)
	}
	var hashes map[string]string
	if err := json.Unmarshal(data, &hashes); err != nil {
		return nil, apperr.Wrap(apperr.KindCacheCorrupt, "corrupt fileHashes.json", s.path(hashesFile), err)
	}
	return hashes, nil
}

func (s *Store) loadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(s.path(metadataFile))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCacheCorrupt, "cannot read metadata.json", s.path(metadataFile), err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, apperr.Wrap(apperr.KindCacheCorrupt, "corrupt metadata.json", s.path(metadataFile), err)
	}
	return &meta, nil
}

// Save persists all four artifacts. symbols.json and metadata.json are
// pretty-printed (human-inspectable); fileHashes.json is compact (it can
// be large) per spec.md §6.
func (s *Store) Save(idx map[string]*symbol.Symbol, g *graph.Graph, hashes map[string]string, projectHash string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return apperr.Wrap(apperr.KindCacheCorrupt, "cannot create cache directory", s.dir, err)
	}

	if err := writePretty(s.path(symbolsFile), idx); err != nil {
		return err
	}

	graphData, err := json.Marshal(g)
	if err != nil {
		return apperr.Wrap(apperr.KindCacheCorrupt, "cannot marshal graph", s.path(graphFile), err)
	}
	if err := os.WriteFile(s.path(graphFile), graphData, 0o644); err != nil {
		return apperr.Wrap(apperr.KindCacheCorrupt, "cannot write graph.json", s.path(graphFile), err)
	}

	hashData, err := json.Marshal(hashes)
	if err != nil {
		return apperr.Wrap(apperr.KindCacheCorrupt, "cannot marshal file hashes", s.path(hashesFile), err)
	}
	if err := os.WriteFile(s.path(hashesFile), hashData, 0o644); err != nil {
		return apperr.Wrap(apperr.KindCacheCorrupt, "cannot write fileHashes.json", s.path(hashesFile), err)
	}

	meta := Metadata{ProjectHash: projectHash, CreatedAt: time.Now().UTC(), Version: Version}
	if err := writePretty(s.path(metadataFile), meta); err != nil {
		return err
	}

	return nil
}

func writePretty(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.KindCacheCorrupt, "cannot marshal cache artifact", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperr.Wrap(apperr.KindCacheCorrupt, "cannot write cache artifact", path, err)
	}
	return nil
}

// Status is the supplemented `status` report (SPEC_FULL.md §4): a
// structured summary of cache staleness surfaced by the startup policy but
// never given its own operation name in the distilled spec.
type Status struct {
	Exists       bool
	ProjectHash  string
	StoredHash   string
	StaleFiles   []string
	GhostCount   int
	LastBuild    time.Time
	SymbolCount  int
}
