// Package build fingerprints the inputs of a font build so that watch mode
// can skip rebuilds when a burst of file events left every input unchanged.
//
// HashProvider hashes file contents with CRC32 Castagnoli and caches each
// hash under the file's metadata (path, modification time and size), so an
// unchanged file is never read twice.
package build

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

// HashProvider provides content hashes with a metadata-keyed cache.
type HashProvider struct {
	crcTable *crc32.Table

	mu    sync.RWMutex
	cache map[string]string
	hits  int
	miss  int
}

// NewHashProvider creates a new hash provider.
func NewHashProvider() *HashProvider {
	return &HashProvider{
		crcTable: crc32.MakeTable(crc32.Castagnoli),
		cache:    make(map[string]string),
	}
}

// FileHash returns the content hash of path.
func (hp *HashProvider) FileHash(path string) (string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	metadataKey := fmt.Sprintf("%s:%d:%d", path, stat.ModTime().UnixNano(), stat.Size())

	hp.mu.RLock()
	hash, found := hp.cache[metadataKey]
	hp.mu.RUnlock()
	if found {
		hp.mu.Lock()
		hp.hits++
		hp.mu.Unlock()
		return hash, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := crc32.New(hp.crcTable)
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	hash = strconv.FormatUint(uint64(h.Sum32()), 16)

	hp.mu.Lock()
	hp.cache[metadataKey] = hash
	hp.miss++
	hp.mu.Unlock()

	return hash, nil
}

// Fingerprint hashes the given files and the direct children of the given
// folders into one value. File names take part, so a rename changes the
// fingerprint. Paths that do not exist are recorded as absent.
func (hp *HashProvider) Fingerprint(dirs, files []string) (string, error) {
	var paths []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				paths = append(paths, dir)
				continue
			}
			return "", err
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}
	}
	paths = append(paths, files...)
	sort.Strings(paths)

	sum := crc32.New(hp.crcTable)
	for _, path := range paths {
		hash, err := hp.FileHash(path)
		if os.IsNotExist(err) {
			hash = "-"
		} else if err != nil {
			return "", err
		}
		fmt.Fprintf(sum, "%s\x00%s\n", path, hash)
	}

	return fmt.Sprintf("%08x:%d", sum.Sum32(), len(paths)), nil
}

// HashCacheStats reports how often FileHash avoided reading a file.
type HashCacheStats struct {
	Entries  int
	Hits     int
	Misses   int
	HitRatio float64
}

// GetCacheStats returns the cache statistics.
func (hp *HashProvider) GetCacheStats() HashCacheStats {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	stats := HashCacheStats{Entries: len(hp.cache), Hits: hp.hits, Misses: hp.miss}
	if total := hp.hits + hp.miss; total > 0 {
		stats.HitRatio = float64(hp.hits) / float64(total)
	}

	return stats
}
