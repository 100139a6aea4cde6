package store

import (
	"sync"

	"github.com/cryptforge/forge-studio/internal/domain"
)

// Key layout:
//
//	asset:<category>:<id>                         asset record (JSON)
//	asset:<category>:idx:folder:<folderID>:<id>   asset-by-folder index
//	folder:<id>                                   folder record (JSON)
//	folder:idx:category:<category>:<id>           folder-by-category index
//	meta:<name>                                   engine metadata
const (
	assetPrefix  = "asset:"
	folderPrefix = "folder:"
	metaPrefix   = "meta:"
	indexMarker  = "idx:"
)

// assetKeyPrefix returns the key prefix for one category's records.
func assetKeyPrefix(c domain.Category) string {
	return assetPrefix + string(c) + ":"
}

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		// Category prefixes plus a 21 character nanoid fit comfortably.
		return make([]byte, 0, 128)
	},
}

// buildKey constructs prefix+id using a pooled buffer. Only for lookups:
// badger requires keys passed to Set or Delete to outlive the transaction.
// Callers MUST call releaseKey when done with the key.
func buildKey(prefix, id string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, id...)
	return buf
}

// indexKey constructs prefix+"idx:"+name+":"+value+":"+id. Indexes are
// non-unique, so the record id is part of the key and the value is empty.
func indexKey(prefix, name, value, id string) []byte {
	return []byte(indexScanPrefix(prefix, name, value) + id)
}

// indexScanPrefix is the prefix shared by every index entry for value.
func indexScanPrefix(prefix, name, value string) string {
	return prefix + indexMarker + name + ":" + value + ":"
}

// releaseKey returns a key buffer to the pool for reuse.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
