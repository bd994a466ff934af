package store

import (
	"sort"
	"strings"
	"sync"
)

// HashIndex maps document names to their latest record in the log
type HashIndex struct {
	entries map[string]*IndexEntry
	mutex   sync.RWMutex
}

// NewHashIndex creates a new hash index
func NewHashIndex() *HashIndex {
	return &HashIndex{
		entries: make(map[string]*IndexEntry),
	}
}

// Put adds or updates the entry for name
func (idx *HashIndex) Put(name string, entry *IndexEntry) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.entries[name] = entry
}

// Get retrieves the entry for name
func (idx *HashIndex) Get(name string) (*IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	entry, exists := idx.entries[name]
	return entry, exists
}

// Delete removes name from the index
func (idx *HashIndex) Delete(name string) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	delete(idx.entries, name)
}

// Size returns the number of names in the index
func (idx *HashIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return len(idx.entries)
}

// KeysWithPrefix returns the names starting with prefix, sorted.
func (idx *HashIndex) KeysWithPrefix(prefix string) []string {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	keys := make([]string, 0)
	for key := range idx.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// BuildFromLog replays a log file from the start. It stops at the first
// error and returns it; entries read before that point are kept.
func (idx *HashIndex) BuildFromLog(reader *LogReader) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[string]*IndexEntry)

	if err := reader.SeekTo(0); err != nil {
		return err
	}

	iterator := reader.Iterator()
	defer iterator.Close()

	for iterator.Next() {
		record := iterator.Record()
		name := string(record.Name)
		if record.Tombstone() {
			delete(idx.entries, name)
			continue
		}
		idx.entries[name] = &IndexEntry{
			Offset:    reader.Offset() - int64(record.Size()),
			Size:      uint32(record.Size()),
			Timestamp: record.Timestamp,
		}
	}
	return iterator.Err()
}
