// Command dbinspect prints a read-only summary of a studio database.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/cryptforge/forge-studio/internal/domain"
)

type categoryStats struct {
	perFolder map[string]int
	total     int
	builtIn   int
}

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/ForgeStudio/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	folders := map[string]domain.Folder{}
	err = db.View(func(txn *badger.Txn) error {
		for _, c := range domain.AllCategories() {
			stats, err := inspectCategory(txn, c)
			if err != nil {
				return err
			}
			fmt.Printf("%-16s %4d records (%d built-in, %d custom)\n",
				c.Label(), stats.total, stats.builtIn, stats.total-stats.builtIn)
			printFolderCounts(stats.perFolder)
		}

		if err := eachValue(txn, "folder:", func(key string, val []byte) error {
			var f domain.Folder
			if err := json.Unmarshal(val, &f); err != nil {
				return fmt.Errorf("folder %s: %w", key, err)
			}
			folders[f.ID] = f
			return nil
		}); err != nil {
			return err
		}

		item, err := txn.Get([]byte("meta:last_sync"))
		if err == nil {
			return item.Value(func(val []byte) error {
				fmt.Printf("\nLast sync: %s\n", val)
				return nil
			})
		}
		if err == badger.ErrKeyNotFound {
			fmt.Println("\nLast sync: never")
			return nil
		}
		return err
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Folders ===")
	ids := make([]string, 0, len(folders))
	for id := range folders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		f := folders[id]
		fmt.Printf("%s  %-16s %s\n", f.ID, f.Category, f.Name)
	}
}

func inspectCategory(txn *badger.Txn, c domain.Category) (categoryStats, error) {
	stats := categoryStats{perFolder: map[string]int{}}
	err := eachValue(txn, "asset:"+string(c)+":", func(key string, val []byte) error {
		var meta domain.AssetMeta
		if err := json.Unmarshal(val, &meta); err != nil {
			return fmt.Errorf("asset %s: %w", key, err)
		}
		stats.total++
		if meta.BuiltIn {
			stats.builtIn++
		}
		folder := meta.FolderID
		if folder == "" {
			folder = "(uncategorized)"
		}
		stats.perFolder[folder]++
		return nil
	})
	return stats, err
}

// eachValue visits every record under prefix, skipping index entries.
func eachValue(txn *badger.Txn, prefix string, fn func(key string, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := string(item.Key())
		if strings.HasPrefix(strings.TrimPrefix(key, prefix), "idx:") {
			continue
		}
		if err := item.Value(func(val []byte) error { return fn(key, val) }); err != nil {
			return err
		}
	}
	return nil
}

func printFolderCounts(perFolder map[string]int) {
	keys := make([]string, 0, len(perFolder))
	for k := range perFolder {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("    %-24s %d\n", k, perFolder[k])
	}
}
