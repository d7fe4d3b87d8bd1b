// Package main prints record counts and a few sanity checks for a Badger data directory.
//
// Usage:
//
//	DB_PATH=~/ReadTrack/data/db go run ./cmd/dbinspect
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/readtrack/readtrack-server/internal/domain"
)

var prefixes = []struct {
	prefix string
	label  string
}{
	{"book:", "Books"},
	{"rs:", "Reading sessions"},
	{"goal:", "Goals"},
	{"snap:", "Kindle snapshots"},
	{"synclog:", "Sync logs"},
}

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/ReadTrack/data/db")
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

	for _, p := range prefixes {
		count, err := countRecords(db, p.prefix)
		if err != nil {
			log.Fatalf("Failed to count %s: %v", p.label, err)
		}
		fmt.Printf("%-18s %d\n", p.label+":", count)
	}

	statuses := map[domain.BookStatus]int{}
	kindleBooks := 0
	err = eachRecord(db, "book:", func(val []byte) error {
		var book domain.Book
		if err := json.Unmarshal(val, &book); err != nil {
			return err
		}
		statuses[book.Status]++
		if book.KindleASIN != "" {
			kindleBooks++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to scan books: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Books by status ===")
	for _, status := range []domain.BookStatus{
		domain.StatusWantToRead, domain.StatusReading, domain.StatusPaused, domain.StatusCompleted,
	} {
		fmt.Printf("%-14s %d\n", string(status)+":", statuses[status])
	}
	fmt.Printf("%-14s %d\n", "from kindle:", kindleBooks)

	days := map[domain.CalendarDay]bool{}
	err = eachRecord(db, "rs:", func(val []byte) error {
		var rs domain.ReadingSession
		if err := json.Unmarshal(val, &rs); err != nil {
			return err
		}
		days[rs.Day] = true
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to scan sessions: %v", err)
	}

	fmt.Println()
	fmt.Printf("Distinct reading days: %d\n", len(days))
}

func countRecords(db *badger.DB, prefix string) (int, error) {
	count := 0
	err := eachRecord(db, prefix, func([]byte) error {
		count++
		return nil
	})
	return count, err
}

// eachRecord calls fn with the value of every record under prefix, skipping index keys.
func eachRecord(db *badger.DB, prefix string, fn func(val []byte) error) error {
	return db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if strings.HasPrefix(string(item.Key())[len(prefix):], "idx:") {
				continue
			}
			if err := item.Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}
