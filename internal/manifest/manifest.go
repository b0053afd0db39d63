package manifest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/vectable/blobstore"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

const (
	ManifestFileName = "MANIFEST"
	CurrentFileName  = "CURRENT"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

// Manifest describes the committed state of one table at a point in time.
// Manifests are treated as immutable once saved; use Clone before editing.
type Manifest struct {
	Version        int
	ID             uint64
	CreatedAt      time.Time
	Schema         *schema.Schema
	NextRowID      model.RowID
	NextFragmentID model.FragmentID
	Fragments      []FragmentInfo
	Index          *IndexInfo
}

// New creates the manifest of an empty table.
func New(s *schema.Schema) *Manifest {
	return &Manifest{
		Version:        CurrentVersion,
		CreatedAt:      time.Now(),
		Schema:         s,
		NextFragmentID: 1,
	}
}

// FragmentInfo describes a committed fragment.
type FragmentInfo struct {
	ID         model.FragmentID
	FirstRowID model.RowID
	Rows       uint32
	Size       int64
	Path       string
	Deletions  DeletionInfo
}

// LastRowID returns the highest row id in the fragment.
func (f FragmentInfo) LastRowID() model.RowID {
	return f.FirstRowID + model.RowID(f.Rows) - 1
}

// Contains reports whether id falls into the fragment's row range.
func (f FragmentInfo) Contains(id model.RowID) bool {
	return f.Rows > 0 && id >= f.FirstRowID && id <= f.LastRowID()
}

// DeletionInfo points to the current tombstone file of a fragment.
// A zero value means no rows are deleted.
type DeletionInfo struct {
	Version uint64
	Count   uint32
	Path    string
}

// IndexInfo describes the persisted vector index.
type IndexInfo struct {
	Path       string
	Watermark  model.FragmentID
	Metric     string
	Partitions uint32
	Rows       uint64
	CreatedAt  time.Time
}

// Clone returns a copy that can be modified without affecting m.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.Fragments = slices.Clone(m.Fragments)
	if m.Index != nil {
		idx := *m.Index
		c.Index = &idx
	}
	return &c
}

// LiveRows returns the number of rows that are not deleted.
func (m *Manifest) LiveRows() uint64 {
	var n uint64
	for _, f := range m.Fragments {
		n += uint64(f.Rows) - uint64(f.Deletions.Count)
	}
	return n
}

// Fragment returns the fragment with the given id.
func (m *Manifest) Fragment(id model.FragmentID) (FragmentInfo, bool) {
	i, ok := slices.BinarySearchFunc(m.Fragments, id, func(f FragmentInfo, id model.FragmentID) int {
		switch {
		case f.ID < id:
			return -1
		case f.ID > id:
			return 1
		}
		return 0
	})
	if !ok {
		return FragmentInfo{}, false
	}
	return m.Fragments[i], true
}

func fileName(id uint64) string {
	return fmt.Sprintf("%s-%06d.bin", ManifestFileName, id)
}

// Store manages manifest versions and the CURRENT pointer of one table.
type Store struct {
	store blobstore.BlobStore
	mu    sync.Mutex
}

// NewStore creates a manifest store rooted at the table's blob namespace.
func NewStore(store blobstore.BlobStore) *Store {
	return &Store{store: store}
}

// Load loads the manifest CURRENT points to.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	return s.LoadVersion(ctx, 0)
}

// LoadVersion loads a specific version ID. 0 means latest.
func (s *Store) LoadVersion(ctx context.Context, versionID uint64) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := fileName(versionID)
	if versionID == 0 {
		current, err := blobstore.ReadAll(ctx, s.store, CurrentFileName)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		name = strings.TrimSpace(string(current))
	}

	data, err := blobstore.ReadAll(ctx, s.store, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s is missing", ErrCorrupt, name)
		}
		return nil, fmt.Errorf("manifest: read %s: %w", name, err)
	}

	return Unmarshal(data)
}

// Exists reports whether a CURRENT pointer is present.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	b, err := s.store.Open(ctx, CurrentFileName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	_ = b.Close()
	return true, nil
}

// ListVersions returns the IDs of all stored manifest versions in
// ascending order.
func (s *Store) ListVersions(ctx context.Context) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.store.List(ctx, ManifestFileName+"-")
	if err != nil {
		return nil, err
	}

	var ids []uint64
	for _, f := range files {
		num, ok := strings.CutPrefix(f, ManifestFileName+"-")
		if !ok {
			continue
		}
		num, ok = strings.CutSuffix(num, ".bin")
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(num, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Save commits m as the next version. The manifest blob is written first
// and the CURRENT pointer is swapped afterwards, so a failure at any point
// leaves the previous version current. On success m.ID holds the new
// version.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *m
	next.Version = CurrentVersion
	next.ID = m.ID + 1
	next.CreatedAt = time.Now()

	data, err := next.MarshalBinary()
	if err != nil {
		return err
	}

	name := fileName(next.ID)
	if err := s.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("manifest: write %s: %w", name, err)
	}

	if err := s.store.Put(ctx, CurrentFileName, []byte(name)); err != nil {
		return fmt.Errorf("manifest: update %s: %w", CurrentFileName, err)
	}

	*m = next
	return nil
}

// DeleteVersion deletes the manifest file for the given version.
func (s *Store) DeleteVersion(ctx context.Context, versionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Delete(ctx, fileName(versionID))
}
