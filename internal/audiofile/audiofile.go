// Package audiofile validates uploaded audio content types and writes the
// bytes to disk without clobbering existing files.
package audiofile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var validContentTypes = map[string]struct{}{
	"audio/wav":   {},
	"audio/wave":  {},
	"audio/x-wav": {},
	"audio/mpeg":  {},
	"audio/mp3":   {},
	"audio/mp4":   {},
	"audio/x-m4a": {},
	"audio/m4a":   {},
	"audio/ogg":   {},
	"audio/webm":  {},
	"audio/flac":  {},
}

// ValidContentType reports whether ct is an accepted audio MIME type. The
// check is by declared type only; the content itself is not sniffed.
func ValidContentType(ct string) bool {
	_, ok := validContentTypes[strings.ToLower(ct)]
	return ok
}

// SupportedContentTypes returns the accepted MIME types in sorted order.
func SupportedContentTypes() []string {
	types := make([]string, 0, len(validContentTypes))
	for ct := range validContentTypes {
		types = append(types, ct)
	}
	sort.Strings(types)
	return types
}

// Save writes content under dir as filename, appending _1, _2, … before the
// extension while the name is taken. Each candidate is created with O_EXCL,
// so concurrent savers racing on the same name end up with distinct files.
func Save(content []byte, filename, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	name := filename
	for counter := 1; ; counter++ {
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				name = fmt.Sprintf("%s_%d%s", stem, counter, ext)
				continue
			}

			return "", fmt.Errorf("create file: %w", err)
		}

		if _, err := f.Write(content); err != nil {
			f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("write file: %w", err)
		}

		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close file: %w", err)
		}

		return path, nil
	}
}
