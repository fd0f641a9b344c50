package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	ImageAlvaris = "alvaris"
	ImageASK     = "ask"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrImageType     = errors.New("unknown image type")
)

// image folders relative to the catalog directory, in lookup order
var imageDirs = map[string][]string{
	ImageAlvaris: {
		"ALVARIS_CATALOG/alvaris-images",
		"ALVARIS_CATALOG/alvaris-item-images",
		"ALVARIS_CATALOG/alvaris-bosch-images",
		"alvaris-catalog/alvaris-bosch-images",
		"alvaris-catalog/alvaris-item-images",
	},
	ImageASK: {
		"ASK_CATALOG/ASKbosch-all-images",
		"ASK_CATALOG/ASKitem-all-images",
		"ASK-catalog/ASKbosch-all-images",
		"ASK-catalog/ASKitem-all-images",
	},
}

// FindImage returns the path of <artnr>.png for the given supplier.
func (s *Service) FindImage(kind, artnr string) (string, error) {
	dirs, ok := imageDirs[strings.ToLower(kind)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrImageType, kind)
	}
	artnr = strings.TrimSpace(artnr)
	if artnr == "" || strings.ContainsAny(artnr, `/\`) || strings.Contains(artnr, "..") {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, artnr)
	}
	for _, d := range dirs {
		p := filepath.Join(s.catalogDir, filepath.FromSlash(d), artnr+".png")
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrImageNotFound, kind, artnr)
}
