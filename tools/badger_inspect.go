// badger_inspect dumps the chitchat BadgerDB contents for debugging.
// Read-only: safe to run against a database a server has crashed on.
//
// Usage:
//
//	go run ./tools -db /path/to/db -prefix msg:
//
// Known prefixes: "account:", "account_email:", "user:", "msg:".
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"chitchat/domain"
	"chitchat/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	prefix := flag.String("prefix", "user:", "Prefix to scan")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("missing -db path")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Who", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append(describe(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// describe renders one record according to its key prefix. Unknown or
// unparseable values fall back to a raw preview instead of stopping the
// whole dump.
func describe(key string, value []byte) []string {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var msg domain.Message
		if err := json.Unmarshal(value, &msg); err == nil {
			return []string{key, "MESSAGE", msg.CreatedAt.Format("15:04:05"),
				shorten(msg.SenderID), msg.Text}
		}
	case strings.HasPrefix(key, "user:"):
		var user domain.User
		if err := json.Unmarshal(value, &user); err == nil {
			return []string{key, "PROFILE", "", shorten(user.ID),
				fmt.Sprintf("%s <%s>", user.DisplayName, user.Email)}
		}
	case strings.HasPrefix(key, "account_email:"):
		return []string{key, "EMAIL-IDX", "", shorten(string(value)), ""}
	case strings.HasPrefix(key, "account:"):
		var account repositories.Account
		if err := json.Unmarshal(value, &account); err == nil {
			// Never print the password hash
			return []string{key, "ACCOUNT", account.CreatedAt.Format("15:04:05"),
				shorten(account.ID), account.Email}
		}
	}

	preview := string(value)
	if len(preview) > 40 {
		preview = preview[:40] + "..."
	}
	return []string{key, "RAW", "", "", preview}
}

// shorten keeps the first 8 characters of an id for readability.
func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// If truncation is required, open once in write mode to repair
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
