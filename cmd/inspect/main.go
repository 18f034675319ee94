// Command inspect prints the badger keys under a prefix as a table.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "conv:", "Prefix to scan (conv:, pair:, notif:, user:, handle:, block:, prefs:, push:)")
	limit := flag.Int("limit", 200, "Maximum number of rows")
	width := flag.Int("width", 80, "Maximum width of the value column")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer func() { _ = db.Close() }()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Expires", "Size", "Value"})
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

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes) && rows < *limit; it.Next() {
			item := it.Item()
			key := string(item.Key())
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			table.Append([]string{key, entity(key), expires(item.ExpiresAt()), fmt.Sprint(len(value)), compact(value, *width)})
			rows++
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Printf("\n%d row(s) under %q\n", rows, *prefix)
}

func entity(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return strings.ToUpper(kind)
}

func expires(at uint64) string {
	if at == 0 {
		return "-"
	}
	return time.Unix(int64(at), 0).UTC().Format(time.RFC3339)
}

// compact renders JSON values on one line, anything else as quoted text.
func compact(value []byte, width int) string {
	var buf bytes.Buffer
	out := fmt.Sprintf("%q", value)
	if json.Compact(&buf, value) == nil {
		out = buf.String()
	}
	if width > 3 && len(out) > width {
		out = out[:width-3] + "..."
	}
	return out
}

func openDB(path string) (*badger.DB, error) {
	// BypassLockGuard lets the inspector read while a gateway holds the lock.
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
