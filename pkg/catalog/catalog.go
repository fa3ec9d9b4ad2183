// Package catalog is the minimal table directory the buffer pool and heap
// file iterators consult to turn a table ID into the file backing it.
// There is deliberately no schema metadata, statistics, or index
// registration here: those belong to a query layer this engine doesn't
// have.
package catalog

import (
	"sync"

	dberror "storemy/pkg/error"
	"storemy/pkg/logging"
	"storemy/pkg/primitives"
	"storemy/pkg/storage/heap"
	"storemy/pkg/tuple"

	"golang.org/x/sync/errgroup"
)

type entry struct {
	file *heap.HeapFile
	name string
}

// Catalog maps table IDs to the HeapFile backing them. A table's ID is the
// hash of its file's absolute path, so registering the same file twice
// under different names is not meaningful.
type Catalog struct {
	mutex  sync.RWMutex
	tables map[primitives.TableID]entry
}

func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[primitives.TableID]entry)}
}

// AddTable registers file under name, keyed by the table ID already fixed
// at the file's creation.
func (c *Catalog) AddTable(file *heap.HeapFile, name string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.tables[file.GetID()] = entry{file: file, name: name}
	logging.WithComponent("catalog").Info("table registered", "table", name, "table_id", file.GetID())
}

// TableSpec names one table to open and register during a directory
// warm-up: the heap file backing it, the name to register it under, and
// the schema used to decode its pages.
type TableSpec struct {
	Path      string
	Name      string
	TupleDesc *tuple.TupleDescription
}

// WarmUp opens and registers every table in specs concurrently, one
// goroutine per table joined before returning, the same fan-out shape
// BufferPool.FlushAllPages uses for flushing dirty pages. It returns the
// opened files in the same order as specs. A failure opening any one table
// aborts the whole warm-up; tables already registered by sibling
// goroutines are left registered.
func (c *Catalog) WarmUp(specs []TableSpec) ([]*heap.HeapFile, error) {
	files := make([]*heap.HeapFile, len(specs))

	var g errgroup.Group
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			hf, err := heap.NewHeapFile(spec.Path, spec.TupleDesc)
			if err != nil {
				return err
			}
			c.AddTable(hf, spec.Name)
			files[i] = hf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Catalog) GetDatabaseFile(tableID primitives.TableID) (*heap.HeapFile, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, ok := c.tables[tableID]
	if !ok {
		return nil, dberror.NotFound("no table registered with this id")
	}
	return e.file, nil
}

func (c *Catalog) GetTableName(tableID primitives.TableID) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, ok := c.tables[tableID]
	if !ok {
		return "", dberror.NotFound("no table registered with this id")
	}
	return e.name, nil
}

// TableIDIterator returns every registered table ID, in no particular
// order.
func (c *Catalog) TableIDIterator() []primitives.TableID {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	ids := make([]primitives.TableID, 0, len(c.tables))
	for id := range c.tables {
		ids = append(ids, id)
	}
	return ids
}
