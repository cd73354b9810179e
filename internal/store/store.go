// Package store persists a finished scan in a bbolt file so an unchanged
// source tree can skip parsing.
package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/phobologic/symctx/internal/graph"
	"github.com/phobologic/symctx/internal/lexical"
	"github.com/phobologic/symctx/internal/model"
	"github.com/phobologic/symctx/internal/scan"
)

var (
	// ErrNoSnapshot is returned by Load when path holds no snapshot.
	ErrNoSnapshot = errors.New("no snapshot")
	// ErrStale is returned by Load when the file set or the scan settings
	// changed since Save.
	ErrStale = errors.New("snapshot is stale")
)

const schemaVersion = 1

var (
	bucketMeta    = []byte("meta")
	bucketSymbols = []byte("symbols")
	bucketLexical = []byte("lexical")
	bucketFiles   = []byte("files")

	keyVersion  = []byte("version")
	keyScanID   = []byte("scan_id")
	keyCreated  = []byte("created_at")
	keyUnits    = []byte("units")
	keyFailed   = []byte("failed")
	keySettings = []byte("settings")
)

// Fingerprint identifies one source file's content by size and mtime.
type Fingerprint struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"` // Unix nanoseconds
}

// Snapshot is the persisted form of a scan.
type Snapshot struct {
	ScanID    string
	CreatedAt time.Time
	Symbols   []model.Symbol // table registration order
	Lexical   []lexical.Entry
	Units     []string
	Failed    []string
	Files     []Fingerprint
	Settings  string // digest of the scan settings
}

// Digest returns a stable hex digest of v's JSON encoding.
func Digest(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// FromResult captures res together with the fingerprints of the scanned
// file set and the digest of the settings it was scanned with.
func FromResult(res *scan.Result, files []Fingerprint, settings string) *Snapshot {
	failed := make([]string, len(res.Failed))
	for i, f := range res.Failed {
		failed[i] = f.Path
	}
	return &Snapshot{
		ScanID:    res.ID.String(),
		CreatedAt: time.Now().UTC(),
		Symbols:   res.Table.Symbols(),
		Lexical:   res.Lexical.Entries(),
		Units:     res.Units,
		Failed:    failed,
		Files:     files,
		Settings:  settings,
	}
}

// Table rebuilds the frozen symbol table.
func (s *Snapshot) Table() *graph.Table {
	t, _ := graph.Merge(s.Symbols)
	return t
}

// Cache rebuilds the lexical cache.
func (s *Snapshot) Cache() *lexical.Cache {
	return lexical.NewCache(s.Lexical)
}

// Save replaces the snapshot at path in a single transaction.
func Save(path string, snap *Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot dir: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open bolt db: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketSymbols, bucketLexical, bucketFiles} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return fmt.Errorf("failed to clear bucket %s: %w", name, err)
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyVersion, seqKey(schemaVersion)); err != nil {
			return err
		}
		if err := meta.Put(keyScanID, []byte(snap.ScanID)); err != nil {
			return err
		}
		created, err := snap.CreatedAt.MarshalText()
		if err != nil {
			return err
		}
		if err := meta.Put(keyCreated, created); err != nil {
			return err
		}
		if err := putJSON(meta, keyUnits, snap.Units); err != nil {
			return err
		}
		if err := putJSON(meta, keyFailed, snap.Failed); err != nil {
			return err
		}
		if err := meta.Put(keySettings, []byte(snap.Settings)); err != nil {
			return err
		}

		syms := tx.Bucket(bucketSymbols)
		for i, s := range snap.Symbols {
			if err := putJSON(syms, seqKey(uint64(i)), model.Wrap(s)); err != nil {
				return fmt.Errorf("storing %s: %w", model.KeyOf(s), err)
			}
		}
		lex := tx.Bucket(bucketLexical)
		for i, e := range snap.Lexical {
			if err := putJSON(lex, seqKey(uint64(i)), e); err != nil {
				return err
			}
		}
		files := tx.Bucket(bucketFiles)
		for _, f := range snap.Files {
			if err := putJSON(files, []byte(f.Path), f); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load reads the snapshot at path. It returns ErrStale unless the stored
// settings digest equals settings and the stored fingerprints match files
// exactly.
func Load(path string, files []Fingerprint, settings string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	defer db.Close()

	snap := &Snapshot{}
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return ErrNoSnapshot
		}
		if v := meta.Get(keyVersion); len(v) != 8 || binary.BigEndian.Uint64(v) != schemaVersion {
			return fmt.Errorf("%w: schema version changed", ErrStale)
		}
		if string(meta.Get(keySettings)) != settings {
			return fmt.Errorf("%w: scan settings changed", ErrStale)
		}
		snap.Settings = settings

		stored := make(map[string]Fingerprint)
		err := tx.Bucket(bucketFiles).ForEach(func(k, v []byte) error {
			var f Fingerprint
			if err := json.Unmarshal(v, &f); err != nil {
				return err
			}
			stored[string(k)] = f
			snap.Files = append(snap.Files, f)
			return nil
		})
		if err != nil {
			return err
		}
		if reason := compare(stored, files); reason != "" {
			return fmt.Errorf("%w: %s", ErrStale, reason)
		}

		snap.ScanID = string(meta.Get(keyScanID))
		if err := snap.CreatedAt.UnmarshalText(meta.Get(keyCreated)); err != nil {
			return err
		}
		if err := json.Unmarshal(meta.Get(keyUnits), &snap.Units); err != nil {
			return err
		}
		if err := json.Unmarshal(meta.Get(keyFailed), &snap.Failed); err != nil {
			return err
		}

		err = tx.Bucket(bucketSymbols).ForEach(func(_, v []byte) error {
			var env model.Envelope
			if err := json.Unmarshal(v, &env); err != nil {
				return err
			}
			snap.Symbols = append(snap.Symbols, env.Symbol)
			return nil
		})
		if err != nil {
			return fmt.Errorf("decoding symbols: %w", err)
		}
		return tx.Bucket(bucketLexical).ForEach(func(_, v []byte) error {
			var e lexical.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			snap.Lexical = append(snap.Lexical, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(snap.Files, func(i, j int) bool { return snap.Files[i].Path < snap.Files[j].Path })
	return snap, nil
}

// compare returns why current differs from stored, or "" if it does not.
func compare(stored map[string]Fingerprint, current []Fingerprint) string {
	if len(stored) != len(current) {
		return fmt.Sprintf("file count %d != %d", len(current), len(stored))
	}
	for _, f := range current {
		old, ok := stored[f.Path]
		switch {
		case !ok:
			return f.Path + " is new"
		case old.Size != f.Size || old.ModTime != f.ModTime:
			return f.Path + " changed"
		}
	}
	return ""
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// seqKey encodes n so bbolt's byte order matches numeric order.
func seqKey(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}
