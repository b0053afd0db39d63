package fs

import (
	"errors"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to name so that readers observe either the old
// content or the complete new content, never a prefix.
//
// The data goes to a temp file in the same directory which is synced and
// renamed over name; the directory is synced afterwards so the rename is
// durable. On any failure the temp file is removed.
func WriteFileAtomic(fsys FileSystem, name string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(name)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := fsys.CreateTemp(dir, "."+filepath.Base(name)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = fsys.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = fsys.Chmod(tmpName, perm); err != nil {
		return err
	}
	if err = fsys.Rename(tmpName, name); err != nil {
		return err
	}
	return SyncDir(fsys, dir)
}

// SyncDir fsyncs a directory. Platforms that cannot open directories for
// syncing are ignored.
func SyncDir(fsys FileSystem, dir string) error {
	d, err := fsys.OpenFile(dir, os.O_RDONLY, 0)
	if err != nil {
		return nil
	}
	serr := d.Sync()
	cerr := d.Close()
	if serr != nil && !errors.Is(serr, os.ErrInvalid) {
		return serr
	}
	return cerr
}
