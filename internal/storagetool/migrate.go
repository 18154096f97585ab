// Package storagetool implements the storage-maintenance CLI verbs
// (migrate, forecast) spec.md §6.3 names, backing the
// cmd/autocapturectl "storage" subcommand group. Grounded on
// original_source/autocapture_nx/storage/retention.py's disk-pressure
// model and internal/atomicfile's durable-write discipline.
package storagetool

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ninjra/autocapture-prime-sub005/internal/atomicfile"
)

// FileResult is one migrated file's outcome.
type FileResult struct {
	RelPath  string `json:"rel_path"`
	Bytes    int64  `json:"bytes"`
	SrcSHA256 string `json:"src_sha256"`
	DstSHA256 string `json:"dst_sha256,omitempty"`
	Verified bool   `json:"verified"`
	Mismatch bool   `json:"mismatch"`
}

// MigrateReport summarizes a full src->dst tree migration.
type MigrateReport struct {
	DryRun      bool         `json:"dry_run"`
	FilesCopied int          `json:"files_copied"`
	BytesCopied int64        `json:"bytes_copied"`
	Mismatches  []string     `json:"mismatches,omitempty"`
	Files       []FileResult `json:"files"`
	OK          bool         `json:"ok"`
}

// Migrate walks every regular file under src, copying it to the same
// relative path under dst. When dryRun is set, no writes happen and
// only hashes are computed. Unless noVerify is set, each copied file
// is re-read from dst and its sha256 compared against the source's —
// any mismatch is recorded but does not stop the remaining copies.
func Migrate(src, dst string, dryRun, noVerify bool) (MigrateReport, error) {
	report := MigrateReport{DryRun: dryRun, OK: true}

	err := filepath.Walk(src, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("storagetool: read %s: %w", path, err)
		}
		srcSum := sha256Hex(data)
		result := FileResult{RelPath: rel, Bytes: int64(len(data)), SrcSHA256: srcSum, Verified: true}

		if !dryRun {
			dstPath := filepath.Join(dst, rel)
			if err := atomicfile.WriteBytes(dstPath, data); err != nil {
				return fmt.Errorf("storagetool: write %s: %w", dstPath, err)
			}
			if !noVerify {
				written, err := os.ReadFile(dstPath)
				if err != nil {
					return fmt.Errorf("storagetool: reread %s: %w", dstPath, err)
				}
				result.DstSHA256 = sha256Hex(written)
				result.Verified = result.DstSHA256 == srcSum
				if !result.Verified {
					result.Mismatch = true
					report.Mismatches = append(report.Mismatches, rel)
					report.OK = false
				}
			}
		}

		report.Files = append(report.Files, result)
		report.FilesCopied++
		report.BytesCopied += result.Bytes
		return nil
	})
	if err != nil {
		return MigrateReport{}, err
	}
	return report, nil
}

func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
