package cache

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/dhivijit/ripplecheck/internal/apperr"
	"github.com/dhivijit/ripplecheck/internal/symbol"
)

// Key prefixes follow the internal/index/storage.go scheme
// (PrefixName/PrefixType key-builder convention), narrowed to the two
// lookups the Intent Pipeline and Staged-Diff Mapper actually need: by
// simple name token and by file path.
const (
	prefixName = "n:"
	prefixFile = "f:"
)

func nameKey(token, id string) []byte {
	return []byte(fmt.Sprintf("%s%s\x00%s", prefixName, token, id))
}

func fileKey(filePath, id string) []byte {
	return []byte(fmt.Sprintf("%s%s\x00%s", prefixFile, filePath, id))
}

// NameIndex is an in-memory (never persisted to disk) badger instance used
// for fast prefix scans over symbol name tokens and file paths. Each
// consumer (intent.NewResolver, vcsdiff.Analyze) builds a fresh one from
// the symbol index it is handed; spec.md's on-disk cache contract is the
// four JSON files in cache.go, not this index.
type NameIndex struct {
	db *badger.DB
}

// OpenNameIndex opens an in-memory badger database (no files touch disk).
func OpenNameIndex() (*NameIndex, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCacheCorrupt, "cannot open in-memory name index", "", err)
	}
	return &NameIndex{db: db}, nil
}

func (n *NameIndex) Close() error {
	return n.db.Close()
}

// Rebuild clears and repopulates the index from the current symbol table.
func (n *NameIndex) Rebuild(symbols map[string]*symbol.Symbol) error {
	if err := n.db.DropAll(); err != nil {
		return apperr.Wrap(apperr.KindCacheCorrupt, "cannot clear name index", "", err)
	}
	wb := n.db.NewWriteBatch()
	defer wb.Cancel()
	for id, sym := range symbols {
		for _, tok := range NameTokens(sym.QualifiedName) {
			if err := wb.Set(nameKey(tok, id), nil); err != nil {
				return apperr.Wrap(apperr.KindCacheCorrupt, "name index write failed", sym.FilePath, err)
			}
		}
		if err := wb.Set(fileKey(sym.FilePath, id), nil); err != nil {
			return apperr.Wrap(apperr.KindCacheCorrupt, "name index write failed", sym.FilePath, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return apperr.Wrap(apperr.KindCacheCorrupt, "name index flush failed", "", err)
	}
	return nil
}

// LookupByToken returns every symbol ID indexed under a name token (exact
// match on the token, not a prefix scan — callers combine this with their
// own fuzzy-scoring pass over the candidate set).
func (n *NameIndex) LookupByToken(token string) ([]string, error) {
	return n.scan(nameKey(token, ""))
}

// LookupByFile returns every symbol ID belonging to filePath.
func (n *NameIndex) LookupByFile(filePath string) ([]string, error) {
	return n.scan(fileKey(filePath, ""))
}

func (n *NameIndex) scan(prefix []byte) ([]string, error) {
	var ids []string
	err := n.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			// key is <prefix><token>\x00<id>; split on the last \x00.
			for i := len(key) - 1; i >= 0; i-- {
				if key[i] == 0 {
					ids = append(ids, string(key[i+1:]))
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCacheCorrupt, "name index scan failed", "", err)
	}
	return ids, nil
}
