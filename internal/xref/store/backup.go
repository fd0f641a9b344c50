package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const backupStamp = "20060102_150405.000"

type backups struct {
	dir       string
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// create copies src to <dir>/<prefix>_<stamp>.csv.
func (b *backups) create(src string) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	name := fmt.Sprintf("%s_%s.csv", b.prefix, b.now().Format(backupStamp))
	dst := filepath.Join(b.dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	return dst, out.Close()
}

// prune deletes backups whose modification time is older than the retention.
func (b *backups) prune() (int, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return 0, err
	}
	cutoff := b.now().Add(-b.retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), b.prefix+"_") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(b.dir, e.Name())); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
