// Package cli provides an interactive command-line interface over a
// minibitcask Store and its MVCC transaction manager.
package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aether-db/minibitcask/internal/keydir"
	"github.com/aether-db/minibitcask/internal/mvcc"
	"github.com/aether-db/minibitcask/internal/store"
)

// Handler manages the command-line interface for the store and, on top
// of it, at most one open MVCC transaction at a time.
type Handler struct {
	store   *store.Store
	manager *mvcc.Manager
	scanner *bufio.Scanner

	txn *mvcc.Transaction // non-nil while a BEGIN...COMMIT/ROLLBACK block is open
}

// NewHandler creates a new CLI handler over s and the given MVCC
// manager.
func NewHandler(s *store.Store, manager *mvcc.Manager) *Handler {
	return &Handler{
		store:   s,
		manager: manager,
		scanner: bufio.NewScanner(os.Stdin),
	}
}

// Run starts the interactive command loop, processing user input until
// an exit command is received or an error occurs.
func (h *Handler) Run() error {
	fmt.Println("minibitcask - embedded key-value store")
	fmt.Println("Commands: SET <key> <value>, GET <key>, DEL <key>, SCAN <lower> <upper>, SCANPREFIX <prefix>,")
	fmt.Println("          BEGIN, COMMIT, ROLLBACK (while a transaction is open, SET/GET/DEL run inside it), EXIT")
	h.prompt()

	for h.scanner.Scan() {
		line := strings.TrimSpace(h.scanner.Text())
		if line == "" {
			h.prompt()
			continue
		}

		parts := strings.Fields(line)
		command := strings.ToUpper(parts[0])

		switch command {
		case "SET":
			h.handleSet(parts)
		case "GET":
			h.handleGet(parts)
		case "DEL", "DELETE":
			h.handleDelete(parts)
		case "SCAN":
			h.handleScan(parts)
		case "SCANPREFIX":
			h.handleScanPrefix(parts)
		case "BEGIN":
			h.handleBegin(parts)
		case "COMMIT":
			h.handleCommit(parts)
		case "ROLLBACK":
			h.handleRollback(parts)
		case "EXIT", "QUIT":
			slog.Info("cli: shutdown requested by user")
			fmt.Println("Goodbye!")
			return nil
		default:
			slog.Warn("cli: unknown command received", "command", command)
			fmt.Printf("Unknown command: %s\n", command)
		}

		h.prompt()
	}

	if err := h.scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

func (h *Handler) prompt() {
	if h.txn != nil {
		fmt.Print("txn> ")
		return
	}
	fmt.Print("> ")
}

// handleSet processes SET commands, routing to the open transaction if
// one exists, or directly to the Store otherwise.
func (h *Handler) handleSet(parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: SET <key> <value>")
		return
	}
	key := parts[1]
	value := strings.Join(parts[2:], " ")

	slog.Debug("cli: executing SET command", "key", key, "value_size", len(value))

	var err error
	if h.txn != nil {
		err = h.txn.Set([]byte(key), []byte(value))
	} else {
		err = h.store.Set([]byte(key), []byte(value))
	}
	if err != nil {
		slog.Error("cli: SET command failed", "key", key, "error", err)
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

// handleGet processes GET commands to retrieve values by key.
func (h *Handler) handleGet(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: GET <key>")
		return
	}
	key := parts[1]
	slog.Debug("cli: executing GET command", "key", key)

	var value []byte
	var ok bool
	var err error
	if h.txn != nil {
		value, ok, err = h.txn.Get([]byte(key))
	} else {
		value, ok, err = h.store.Get([]byte(key))
	}
	if err != nil {
		slog.Error("cli: GET command failed", "key", key, "error", err)
		fmt.Printf("Error: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("(not found)")
		return
	}
	fmt.Printf("%s\n", value)
}

// handleDelete processes DEL commands to remove keys.
func (h *Handler) handleDelete(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: DEL <key>")
		return
	}
	key := parts[1]
	slog.Debug("cli: executing DEL command", "key", key)

	var err error
	if h.txn != nil {
		err = h.txn.Delete([]byte(key))
	} else {
		err = h.store.Delete([]byte(key))
	}
	if err != nil {
		slog.Error("cli: DEL command failed", "key", key, "error", err)
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

// handleScan processes SCAN commands over the plain store. A transaction
// has no range-scan API, so SCAN reads the plain store even while a
// transaction is open.
func (h *Handler) handleScan(parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: SCAN <lower> <upper>")
		return
	}
	lower := keydir.Included([]byte(parts[1]))
	upper := keydir.Excluded([]byte(parts[2]))

	it := h.store.Scan(lower, upper)
	h.printIterator(it)
}

// handleScanPrefix processes SCANPREFIX commands over the plain store.
func (h *Handler) handleScanPrefix(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: SCANPREFIX <prefix>")
		return
	}
	it := h.store.ScanPrefix([]byte(parts[1]))
	h.printIterator(it)
}

func (h *Handler) printIterator(it *store.Iterator) {
	count := 0
	for {
		key, value, ok, err := it.Next()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if !ok {
			break
		}
		fmt.Printf("%s = %s\n", key, value)
		count++
	}
	if count == 0 {
		fmt.Println("(no matching keys)")
	}
}

// handleBegin starts a new MVCC transaction. Only one transaction may
// be open at a time from this CLI.
func (h *Handler) handleBegin(parts []string) {
	if h.txn != nil {
		fmt.Println("Error: a transaction is already open; COMMIT or ROLLBACK it first")
		return
	}
	h.txn = h.manager.Begin()
	fmt.Println("OK (transaction started)")
}

func (h *Handler) handleCommit(parts []string) {
	if h.txn == nil {
		fmt.Println("Error: no open transaction")
		return
	}
	if err := h.txn.Commit(); err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Println("OK (committed)")
	}
	h.txn = nil
}

func (h *Handler) handleRollback(parts []string) {
	if h.txn == nil {
		fmt.Println("Error: no open transaction")
		return
	}
	if err := h.txn.Rollback(); err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Println("OK (rolled back)")
	}
	h.txn = nil
}
