// Package backup packages the journal into a portable zip archive and
// restores from one. Archives hold a consistent database snapshot under
// diary.db plus the uploads tree under uploads/.
package backup

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wedsmoker/DiaryML/internal/store"
)

// DBEntryName is the archive path of the database snapshot.
const DBEntryName = "diary.db"

const uploadsPrefix = "uploads/"

// ErrInvalidArchive is returned by Restore for archives that do not
// contain a database snapshot.
var ErrInvalidArchive = errors.New("backup: archive has no diary.db")

// ArchiveName returns the conventional download filename for a backup
// taken at the given time.
func ArchiveName(now time.Time) string {
	return "DiaryML_Backup_" + now.Format("20060102_150405") + ".zip"
}

// WriteArchive streams a zip archive of the journal to w. The database
// is snapshotted with VACUUM INTO, so a live connection with pending WAL
// pages still produces a complete copy. A missing uploads directory is
// not an error.
func WriteArchive(w io.Writer, db *store.DB, uploadsDir string) error {
	tmp, err := os.CreateTemp("", "diaryml-snapshot-*.db")
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	snapshot := tmp.Name()
	tmp.Close()
	// VACUUM INTO refuses to overwrite, so hand it a fresh path.
	os.Remove(snapshot)
	defer os.Remove(snapshot)

	if err := db.VacuumInto(snapshot); err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	zw := zip.NewWriter(w)
	if err := addFile(zw, DBEntryName, snapshot); err != nil {
		return err
	}
	if err := addTree(zw, uploadsPrefix, uploadsDir); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("backup: close archive: %w", err)
	}
	return nil
}

// Restore unpacks an archive over the journal's data files. The current
// database and uploads are copied into backup_before_restore next to the
// database first, so a bad restore is recoverable. The restored database
// takes effect on the next server start.
func Restore(r io.ReaderAt, size int64, dbPath, uploadsDir string) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("restore: open archive: %w", err)
	}

	var dbEntry *zip.File
	for _, f := range zr.File {
		if f.Name == DBEntryName {
			dbEntry = f
			break
		}
	}
	if dbEntry == nil {
		return ErrInvalidArchive
	}

	if err := stashCurrent(dbPath, uploadsDir); err != nil {
		return err
	}

	if err := extractFile(dbEntry, dbPath); err != nil {
		return err
	}
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, uploadsPrefix) || f.FileInfo().IsDir() {
			continue
		}
		dest, err := safeJoin(uploadsDir, strings.TrimPrefix(f.Name, uploadsPrefix))
		if err != nil {
			return err
		}
		if err := extractFile(f, dest); err != nil {
			return err
		}
	}
	return nil
}

// stashCurrent copies the live database and uploads aside before they
// are overwritten.
func stashCurrent(dbPath, uploadsDir string) error {
	stash := filepath.Join(filepath.Dir(dbPath), "backup_before_restore")
	if err := os.MkdirAll(stash, 0o755); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if _, err := os.Stat(dbPath); err == nil {
		if err := copyFile(filepath.Join(stash, DBEntryName), dbPath); err != nil {
			return fmt.Errorf("restore: stash db: %w", err)
		}
	}
	if _, err := os.Stat(uploadsDir); err == nil {
		stashUploads := filepath.Join(stash, "uploads")
		os.RemoveAll(stashUploads)
		if err := copyTree(stashUploads, uploadsDir); err != nil {
			return fmt.Errorf("restore: stash uploads: %w", err)
		}
	}
	return nil
}

func addFile(zw *zip.Writer, name, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("backup: add %s: %w", name, err)
	}
	return nil
}

func addTree(zw *zip.Writer, prefix, dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return addFile(zw, prefix+filepath.ToSlash(rel), path)
	})
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("restore: open %s: %w", f.Name, err)
	}
	defer src.Close()

	// Write beside the target and rename, so a torn extract never
	// leaves a half-written database in place.
	tmp := dest + ".restore"
	dst, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return fmt.Errorf("restore: extract %s: %w", f.Name, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("restore: %w", err)
	}
	return os.Rename(tmp, dest)
}

// safeJoin joins an archive member name onto base, rejecting names that
// would escape it.
func safeJoin(base, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("restore: unsafe path %q in archive", name)
	}
	return filepath.Join(base, filepath.FromSlash(name)), nil
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyTree(dst, src string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return copyFile(filepath.Join(dst, rel), path)
	})
}
