package chart

import (
	"encoding/base64"
	"os"
)

// Remove deletes the artifact file; a missing file is not an error.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether the artifact file is present.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EncodeBase64 reads the artifact fresh and returns it as a PNG data URI.
// The second return is false when the file is absent or unreadable.
func EncodeBase64(path string) (string, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), true
}
