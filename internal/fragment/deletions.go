package fragment

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/vectable/blobstore"
	"github.com/hupe1980/vectable/internal/hash"
	"github.com/hupe1980/vectable/model"
)

func dataPath(id model.FragmentID) string {
	return fmt.Sprintf("data/frag-%06d.vtf", id)
}

func deletionPath(id model.FragmentID, version uint64) string {
	return fmt.Sprintf("deletions/frag-%06d-v%06d.del", id, version)
}

// IndexPath returns the blob name of the index committed with the given
// manifest version.
func IndexPath(version uint64) string {
	return fmt.Sprintf("index/ivf-%06d.idx", version)
}

// encodeDeletions serializes a tombstone bitmap followed by a CRC32C of
// the bitmap bytes.
func encodeDeletions(bm *roaring.Bitmap) ([]byte, error) {
	data, err := bm.ToBytes()
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint32(data, hash.CRC32C(data)), nil
}

func decodeDeletions(data []byte) (*roaring.Bitmap, error) {
	if len(data) < 4 {
		return nil, ErrCorrupt
	}
	body := data[:len(data)-4]
	if err := hash.VerifyCRC32C(body, binary.LittleEndian.Uint32(data[len(body):])); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	bm := roaring.New()
	if err := bm.UnmarshalBinary(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return bm, nil
}

func loadDeletions(ctx context.Context, blobs blobstore.BlobStore, path string) (*roaring.Bitmap, error) {
	var bm *roaring.Bitmap
	err := blobstore.View(ctx, blobs, path, func(data []byte) error {
		var err error
		bm, err = decodeDeletions(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fragment: load %s: %w", path, err)
	}
	return bm, nil
}
