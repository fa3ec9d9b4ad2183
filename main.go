package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"storemy/pkg/catalog"
	"storemy/pkg/concurrency/transaction"
	storedbconfig "storemy/pkg/config"
	dblog "storemy/pkg/log"
	"storemy/pkg/logging"
	"storemy/pkg/memory"
	"storemy/pkg/storage/heap"
	"storemy/pkg/tuple"
	"storemy/pkg/types"

	"github.com/charmbracelet/lipgloss"
)

type Configuration struct {
	DatabaseName string
	DataDir      string
	DemoMode     bool
}

func main() {
	config := parseArguments()
	showSplashScreen()

	cfg := storedbconfig.Load()
	cfg.DataDir = config.DataDir
	logging.InitDefault()

	cat, sink, err := initializeEngine(config, cfg)
	if err != nil {
		log.Fatalf("failed to initialize engine: %v", err)
	}

	pool := memory.NewBufferPool(cat, sink, cfg.NumPages, cfg.LockTimeout)

	if config.DemoMode {
		if err := runDemoMode(cat, pool); err != nil {
			log.Fatalf("demo mode failed: %v", err)
		}
	}
}

func parseArguments() Configuration {
	var config Configuration

	flag.StringVar(&config.DatabaseName, "db", "mydb", "Database name")
	flag.StringVar(&config.DataDir, "data", "./data", "Data directory path")
	flag.BoolVar(&config.DemoMode, "demo", false, "Run in demo mode with sample data")

	flag.Parse()

	return config
}

func showSplashScreen() {
	splash := `
╔══════════════════════════════════════════════════════════════╗
║                                                              ║
║        ███████╗████████╗ ██████╗ ██████╗ ███████╗            ║
║        ██╔════╝╚══██╔══╝██╔═══██╗██╔══██╗██╔════╝            ║
║        ███████╗   ██║   ██║   ██║██████╔╝█████╗              ║
║        ╚════██║   ██║   ██║   ██║██╔══██╗██╔══╝              ║
║        ███████║   ██║   ╚██████╔╝██║  ██║███████╗            ║
║        ╚══════╝   ╚═╝    ╚═════╝ ╚═╝  ╚═╝╚══════╝            ║
║                                                              ║
║        A page cache, a lock table, and a heap file.          ║
╚══════════════════════════════════════════════════════════════╝
`

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	fmt.Println(style.Render(splash))
}

// initializeEngine creates the data directory, opens the write-ahead log
// sink, and returns an empty catalog ready for tables to be registered
// into it.
func initializeEngine(config Configuration, cfg storedbconfig.Config) (*catalog.Catalog, *dblog.FileSink, error) {
	fullPath := filepath.Join(config.DataDir, config.DatabaseName)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	sink, err := dblog.NewFileSink(filepath.Join(fullPath, "storedb.log"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening log sink: %w", err)
	}

	return catalog.NewCatalog(), sink, nil
}

// runDemoMode warms up two tables concurrently through the catalog, inserts
// a handful of rows into one under a single committed transaction, then
// scans it back through the buffer pool.
func runDemoMode(cat *catalog.Catalog, pool *memory.BufferPool) error {
	fmt.Println("\nrunning demo mode")

	td, err := tuple.NewTupleDescription(
		[]types.Type{types.IntType, types.StringType},
		[]string{"id", "name"},
	)
	if err != nil {
		return err
	}

	ordersDesc, err := tuple.NewTupleDescription(
		[]types.Type{types.IntType, types.IntType},
		[]string{"id", "user_id"},
	)
	if err != nil {
		return err
	}

	files, err := cat.WarmUp([]catalog.TableSpec{
		{Path: "./data/users.heap", Name: "users", TupleDesc: td},
		{Path: "./data/orders.heap", Name: "orders", TupleDesc: ordersDesc},
	})
	if err != nil {
		return err
	}
	hf := files[0]

	tid := transaction.NewTransactionID()

	rows := []struct {
		id   int32
		name string
	}{
		{1, "Alice Johnson"},
		{2, "Bob Smith"},
		{3, "Charlie Brown"},
	}

	for _, row := range rows {
		t, err := tuple.NewBuilder(td).AddInt(row.id).AddString(row.name).Build()
		if err != nil {
			return err
		}
		if err := pool.InsertTuple(tid, hf.GetID(), t); err != nil {
			return err
		}
	}

	if err := pool.TransactionComplete(tid, true); err != nil {
		return err
	}

	fmt.Println("inserted 3 rows into users, scanning back:")

	readTid := transaction.NewTransactionID()
	it := heap.NewHeapFileIterator(hf, readTid, pool)
	for {
		t, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		fmt.Printf("  %s\n", t.String())
	}
	return pool.TransactionComplete(readTid, true)
}
