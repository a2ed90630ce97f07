package input

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir lists candidate .txt description files in the data directory,
// sorted by name. A missing directory yields an empty result, not an
// error; loading decides what is fatal.
func ScanDir(dataDir string) ([]DiscoveredFile, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []DiscoveredFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, DiscoveredFile{
			Path:      filepath.Join(dataDir, e.Name()),
			Name:      e.Name(),
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Stem returns a filename without its extension, used to label run output.
func Stem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
