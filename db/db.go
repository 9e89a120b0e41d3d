package db

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/renameio"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
	"github.com/vmihailenco/msgpack"

	bb "github.com/t7a/bundlebase"
)

// Db is a durable FIFO spool of decoded data items.  Dir is the base
// directory.  Items are pushed under monotonically increasing indexes
// and popped lowest-first, so a walk can outlive the process that
// performed it: whatever was spooled before a crash is still there,
// in order, on the next run.
//
// Each item lives in its own file under spool/, named by its
// zero-padded index and written atomically, so a reader never sees a
// half-written item.
type Db struct {
	Dir string

	next uint64 // next push index; recomputed on Open
}

type NotDbError struct {
	Dir string
}

func (e *NotDbError) Error() string {
	return fmt.Sprintf("not a database: %s", e.Dir)
}

type ExistsError struct {
	Dir string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("directory not empty: %s", e.Dir)
}

// Open loads an existing db object from dir.
func Open(dir string) (db *Db, err error) {
	defer Return(&err)
	dir = filepath.Clean(dir)

	buf, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, &NotDbError{Dir: dir}
	}
	db = &Db{}
	err = json.Unmarshal(buf, db)
	Ck(err)
	db.Dir = dir

	// recover the push cursor from whatever is already spooled
	indexes, err := db.indexes()
	Ck(err)
	if n := len(indexes); n > 0 {
		db.next = indexes[n-1] + 1
	}
	log.Debugf("opened db %s, next index %d", db.Dir, db.next)

	return
}

// Create initializes a db directory and its contents.
func (db Db) Create() (out *Db, err error) {
	defer Return(&err)

	dir := db.Dir

	// if directory exists, make sure it's empty
	if canstat(dir) {
		files, err := os.ReadDir(dir)
		Ck(err)
		if len(files) > 0 {
			return nil, &ExistsError{Dir: dir}
		}
	}

	err = mkdir(dir)
	Ck(err)

	// the spool dir is where queued items live
	err = mkdir(filepath.Join(dir, "spool"))
	Ck(err)

	buf, err := json.Marshal(db)
	Ck(err)
	err = os.WriteFile(filepath.Join(dir, "config.json"), buf, 0644)
	Ck(err)

	return &db, nil
}

// Push appends one item to the spool.
func (db *Db) Push(item *bb.DataItem) (err error) {
	defer Return(&err)

	buf, err := msgpack.Marshal(item)
	Ck(err)

	fn := db.fname(db.next)
	err = renameio.WriteFile(fn, buf, 0644)
	Ck(err)

	log.Debugf("pushed index %d (%d bytes)", db.next, len(buf))
	db.next++
	return
}

// Pop removes and returns the oldest spooled item.  An empty spool
// returns (nil, nil).
func (db *Db) Pop() (item *bb.DataItem, err error) {
	defer Return(&err)

	indexes, err := db.indexes()
	Ck(err)
	if len(indexes) == 0 {
		return nil, nil
	}

	fn := db.fname(indexes[0])
	buf, err := os.ReadFile(fn)
	Ck(err)

	item = &bb.DataItem{}
	err = msgpack.Unmarshal(buf, item)
	Ck(err)

	err = os.Remove(fn)
	Ck(err)
	log.Debugf("popped index %d", indexes[0])

	return
}

// Ls returns all spooled items, oldest first, without removing them.
func (db *Db) Ls() (items []*bb.DataItem, err error) {
	defer Return(&err)

	indexes, err := db.indexes()
	Ck(err)
	for _, idx := range indexes {
		buf, err := os.ReadFile(db.fname(idx))
		Ck(err)
		item := &bb.DataItem{}
		err = msgpack.Unmarshal(buf, item)
		Ck(err)
		items = append(items, item)
	}
	return
}

// Len returns the number of spooled items.
func (db *Db) Len() (n int, err error) {
	indexes, err := db.indexes()
	if err != nil {
		return
	}
	return len(indexes), nil
}

func (db *Db) fname(index uint64) string {
	return filepath.Join(db.Dir, "spool", fmt.Sprintf("%020d", index))
}

// indexes lists the spooled indexes in ascending order.
func (db *Db) indexes() (out []uint64, err error) {
	defer Return(&err)

	files, err := os.ReadDir(filepath.Join(db.Dir, "spool"))
	Ck(err)
	for _, f := range files {
		idx, perr := strconv.ParseUint(f.Name(), 10, 64)
		if perr != nil {
			// tempfiles from interrupted atomic writes, etc.
			continue
		}
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return
}

func canstat(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mkdir(dir string) (err error) {
	if _, err = os.Stat(dir); os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return
		}
	}
	return nil
}
