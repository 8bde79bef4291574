package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"qleon/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

// inspect dumps the users and recent chats stored by qleon.
// Timelines are never stored, so they cannot show up here.
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "chat:", "Prefix to scan (user: or chat:)")
	flag.Parse()

	// Read-only, and allowed while a client holds the lock
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Owner", "Entity", "Detail", "At"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				row, err := toRow(key, v)
				if err != nil {
					// Keep scanning, one broken record should not hide the others
					fmt.Printf("Error decoding key %s: %v\n", key, err)
					return nil
				}
				table.Append(row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}
	table.Render()
}

func toRow(key string, value []byte) ([]string, error) {
	switch {
	case strings.HasPrefix(key, "user:"):
		user, err := repositories.ToUser(value)
		if err != nil {
			return nil, err
		}
		return []string{key, "USER", "-", user.Username, user.ID, user.CreatedAt.Format("2006-01-02 15:04:05")}, nil
	case strings.HasPrefix(key, "chat:"):
		summary, err := repositories.ToSummary(value)
		if err != nil {
			return nil, err
		}
		owner := strings.SplitN(key, ":", 3)[1]
		return []string{key, "CHAT", owner, summary.Contact, summary.LastMessage, summary.At.Format("2006-01-02 15:04:05")}, nil
	default:
		return []string{key, "RAW", "-", "-", fmt.Sprintf("%d bytes", len(value)), "-"}, nil
	}
}
