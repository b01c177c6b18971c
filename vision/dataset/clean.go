package dataset

import (
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Clean removes files the training pipeline cannot use: segmentation masks
// (filenames containing "_mask") and images whose headers fail to decode.
// It returns the number of files removed.
func Clean(root string) (int, error) {
	removed := 0

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if !hasImageExtension(path) {
			return nil
		}

		if strings.Contains(strings.ToLower(entry.Name()), "_mask") || !decodable(path) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove %s: %v", path, err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, err
	}
	return removed, nil
}

func hasImageExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// decodable checks the image header without decoding pixel data.
func decodable(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	_, _, err = image.DecodeConfig(file)
	return err == nil
}
