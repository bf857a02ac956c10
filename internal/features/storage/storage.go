package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go-shareguard/internal/config"

	"go.uber.org/zap"
)

// ErrNotFound means the shared path does not exist in the store.
var ErrNotFound = errors.New("file not found in store")

// FileStorage abstracts the content store behind the share links. The
// orchestrator only needs to hand files to the scanner and to the backup
// area; everything else about the store stays out of scope.
type FileStorage interface {
	// Stat returns size in bytes, or ErrNotFound.
	Stat(ctx context.Context, repoID, path string) (int64, error)
	// ExportForScan materializes the file at the scanner's pickup point and
	// returns the exported path.
	ExportForScan(ctx context.Context, repoID, path string) (string, error)
	// CopyToBackup copies the file into the retention area under the given
	// name. Copying the same name twice overwrites; callers guard against
	// repeats with their own persisted flag.
	CopyToBackup(ctx context.Context, repoID, path, backupName string) error
}

// BackupName builds the retention filename for an approved link:
// <owner>-<timestamp>-<basename>.<token>. The token suffix keeps two
// approvals of the same file apart.
func BackupName(owner string, at time.Time, basename, token string) string {
	return fmt.Sprintf("%s-%s-%s.%s", owner, at.Format("2006-01-02-15-04-05"), basename, token)
}

// LocalStorage serves files from a directory tree laid out as
// <root>/<repo-id>/<path>, with the scanner pickup and retention areas as
// sibling directories.
type LocalStorage struct {
	root      string
	scanPoint string
	backupDir string
	logger    *zap.Logger
}

func NewLocalStorage(cfg *config.Config, logger *zap.Logger) FileStorage {
	return &LocalStorage{
		root:      cfg.StoreRoot,
		scanPoint: cfg.DLPScanPoint,
		backupDir: cfg.BackupDir,
		logger:    logger,
	}
}

func (s *LocalStorage) resolve(repoID, path string) string {
	return filepath.Join(s.root, repoID, filepath.FromSlash(path))
}

func (s *LocalStorage) Stat(ctx context.Context, repoID, path string) (int64, error) {
	info, err := os.Stat(s.resolve(repoID, path))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}

// ScanExportName is the filename a shared file gets at the scanner pickup
// point. The poll job recomputes it to query the scanner's incident log.
func ScanExportName(repoID, path string) string {
	return repoID + "-" + filepath.Base(path)
}

func (s *LocalStorage) ExportForScan(ctx context.Context, repoID, path string) (string, error) {
	dst := filepath.Join(s.scanPoint, ScanExportName(repoID, path))
	if err := s.copyFile(s.resolve(repoID, path), dst); err != nil {
		return "", err
	}
	s.logger.Debug("exported file for scan",
		zap.String("repo_id", repoID), zap.String("path", path), zap.String("dst", dst))
	return dst, nil
}

func (s *LocalStorage) CopyToBackup(ctx context.Context, repoID, path, backupName string) error {
	if err := os.MkdirAll(s.backupDir, 0o750); err != nil {
		return err
	}
	return s.copyFile(s.resolve(repoID, path), filepath.Join(s.backupDir, backupName))
}

func (s *LocalStorage) copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), ".copy-*")
	if err != nil {
		return err
	}
	tmp := out.Name()
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err = out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
