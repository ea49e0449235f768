package storage

import (
	"fmt"
	"sort"
)

// ───────────────────────────────────────────────────────────────────────────
// B+Tree file
// ───────────────────────────────────────────────────────────────────────────
//
// Page 0 of a B+Tree file is the root index page, permanently: a root
// split copies the old root's bytes to a freshly allocated page and then
// overwrites page 0, so opening a file never needs a root pointer. Rows
// live only in leaf pages; index pages hold separator keys and child page
// refs. Leaves form a forward sibling chain for in-order traversal.
//
// Keys are signed 32-bit integers drawn from one INT column of the schema.
// Duplicate keys upsert: the latest row for a key replaces the previous
// one. Separator comparison on descent takes a key equal to a separator to
// the right child, where that key's row lives and the upsert finds its
// match.
//
// All page access goes through the database's buffer pool.

// BTreeFile is a file of rows ordered on one INT column.
type BTreeFile struct {
	*blockFile
	db       *Database
	keyField int
}

// NewBTreeFile opens or creates a B+Tree file backed by `name`, keyed on
// the schema's keyField-th column, which must be an INT. Add the file to
// the database's catalog before operating on it.
func NewBTreeFile(db *Database, name string, td *TupleDesc, keyField int) (*BTreeFile, error) {
	if keyField < 0 || keyField >= td.NumFields() {
		return nil, fmt.Errorf("btree %s: key field %d out of range", name, keyField)
	}
	if td.TypeOf(keyField) != TypeInt {
		return nil, fmt.Errorf("btree %s: key field %d is %v, need INT: %w",
			name, keyField, td.TypeOf(keyField), ErrSchemaMismatch)
	}
	bf, err := openBlockFile(name, td)
	if err != nil {
		return nil, err
	}
	return &BTreeFile{blockFile: bf, db: db, keyField: keyField}, nil
}

// KeyField returns the position of the indexed column.
func (bt *BTreeFile) KeyField() int { return bt.keyField }

func (bt *BTreeFile) pid(page int) PageID {
	return PageID{File: bt.name, Page: page}
}

// descend walks from the root to the leaf responsible for key, recording
// the index pages along the way (root first). The descent picks the first
// child whose separator exceeds the key, so equal keys go right.
func (bt *BTreeFile) descend(key int32) (leaf int, path []int, err error) {
	pool := bt.db.BufferPool()
	cur := 0
	for {
		buf, err := pool.GetPage(bt.pid(cur))
		if err != nil {
			return 0, nil, err
		}
		ip := NewIndexPage(buf)
		pos := 0
		for pos < ip.Size() && key >= ip.Key(pos) {
			pos++
		}
		path = append(path, cur)
		child := ip.Child(pos)
		if !ip.ChildrenAreIndex() {
			return child, path, nil
		}
		cur = child
	}
}

// InsertTuple upserts the row into the tree, splitting the target leaf and
// propagating separators upward as needed. Page 0 remains the root across
// root splits.
func (bt *BTreeFile) InsertTuple(t Tuple) error {
	if !bt.td.Compatible(t) {
		return fmt.Errorf("btree insert: %w", ErrSchemaMismatch)
	}
	key, err := t.IntAt(bt.keyField)
	if err != nil {
		return err
	}
	pool := bt.db.BufferPool()

	rootBuf, err := pool.GetPage(bt.pid(0))
	if err != nil {
		return err
	}
	root := NewIndexPage(rootBuf)

	// Bootstrap: an empty tree has no leaf yet. Allocate the first leaf
	// and hang it off the root.
	if root.Size() == 0 && root.Child(0) == 0 {
		leafPage := bt.allocPage()
		buf, err := pool.GetPage(bt.pid(leafPage))
		if err != nil {
			return err
		}
		leaf := NewLeafPage(buf, bt.td, bt.keyField)
		if _, err := leaf.InsertTuple(t); err != nil {
			return err
		}
		pool.MarkDirty(bt.pid(leafPage))
		root.SetChildrenAreIndex(false)
		root.setChild(0, leafPage)
		pool.MarkDirty(bt.pid(0))
		return nil
	}

	leafPage, path, err := bt.descend(key)
	if err != nil {
		return err
	}
	leafBuf, err := pool.GetPage(bt.pid(leafPage))
	if err != nil {
		return err
	}
	leaf := NewLeafPage(leafBuf, bt.td, bt.keyField)
	needsSplit, err := leaf.InsertTuple(t)
	if err != nil {
		return err
	}
	pool.MarkDirty(bt.pid(leafPage))
	if !needsSplit {
		return nil
	}

	// Leaf split: gather the leaf's rows plus the new one (unless the
	// upsert already placed it), redistribute halves, link the siblings.
	rows := make([]Tuple, 0, leaf.Size()+1)
	for i := 0; i < leaf.Size(); i++ {
		row, err := leaf.GetTuple(i)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if !leaf.ContainsKey(key) {
		rows = append(rows, t)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, _ := rows[i].IntAt(bt.keyField)
		b, _ := rows[j].IntAt(bt.keyField)
		return a < b
	})
	mid := len(rows) / 2

	leaf.Clear()
	for _, row := range rows[:mid] {
		if _, err := leaf.InsertTuple(row); err != nil {
			return err
		}
	}

	newLeafPage := bt.allocPage()
	newBuf, err := pool.GetPage(bt.pid(newLeafPage))
	if err != nil {
		return err
	}
	newLeaf := NewLeafPage(newBuf, bt.td, bt.keyField)
	newLeaf.Clear()
	for _, row := range rows[mid:] {
		if _, err := newLeaf.InsertTuple(row); err != nil {
			return err
		}
	}
	newLeaf.SetNextLeaf(leaf.NextLeaf())
	leaf.SetNextLeaf(newLeafPage)
	pool.MarkDirty(bt.pid(leafPage))
	pool.MarkDirty(bt.pid(newLeafPage))

	sep := newLeaf.KeyAt(0)
	child := newLeafPage

	// Propagate the separator up the recorded path. A parent made exactly
	// full by the insert is split immediately, pushing its median higher.
	for len(path) > 0 {
		parent := path[len(path)-1]
		path = path[:len(path)-1]
		pbuf, err := pool.GetPage(bt.pid(parent))
		if err != nil {
			return err
		}
		ip := NewIndexPage(pbuf)
		full := ip.Insert(sep, child)
		pool.MarkDirty(bt.pid(parent))
		if !full {
			return nil
		}
		newIndexPage := bt.allocPage()
		nbuf, err := pool.GetPage(bt.pid(newIndexPage))
		if err != nil {
			return err
		}
		np := NewIndexPage(nbuf)
		sep = ip.Split(np)
		pool.MarkDirty(bt.pid(parent))
		pool.MarkDirty(bt.pid(newIndexPage))
		child = newIndexPage
	}

	// Root split. Page 0 stays the root: its current contents move to a
	// fresh page, and page 0 becomes a one-key index over the two halves.
	leftPage := bt.allocPage()
	lbuf, err := pool.GetPage(bt.pid(leftPage))
	if err != nil {
		return err
	}
	rootBuf, err = pool.GetPage(bt.pid(0))
	if err != nil {
		return err
	}
	copy(lbuf, rootBuf)
	root = NewIndexPage(rootBuf)
	root.setSize(1)
	root.SetChildrenAreIndex(true)
	root.setKey(0, sep)
	root.setChild(0, leftPage)
	root.setChild(1, child)
	pool.MarkDirty(bt.pid(leftPage))
	pool.MarkDirty(bt.pid(0))
	return nil
}

// DeleteTuple is not supported on B+Tree files.
func (bt *BTreeFile) DeleteTuple(Iterator) error {
	return fmt.Errorf("btree %s: %w", bt.name, ErrDeleteNotSupported)
}

// GetTuple returns the row the iterator points at.
func (bt *BTreeFile) GetTuple(it Iterator) (Tuple, error) {
	if it.Page <= 0 || it.Page >= bt.numPages {
		return Tuple{}, fmt.Errorf("btree get: page %d: %w", it.Page, ErrBadSlot)
	}
	buf, err := bt.db.BufferPool().GetPage(bt.pid(it.Page))
	if err != nil {
		return Tuple{}, err
	}
	return NewLeafPage(buf, bt.td, bt.keyField).GetTuple(it.Slot)
}

// Begin descends the leftmost spine to the first leaf and returns an
// iterator at its first row, or End() for an empty tree.
func (bt *BTreeFile) Begin() (Iterator, error) {
	if bt.numPages <= 1 {
		return bt.End(), nil
	}
	pool := bt.db.BufferPool()
	cur := 0
	for {
		buf, err := pool.GetPage(bt.pid(cur))
		if err != nil {
			return Iterator{}, err
		}
		ip := NewIndexPage(buf)
		next := ip.Child(0)
		if !ip.ChildrenAreIndex() {
			cur = next
			break
		}
		cur = next
	}
	buf, err := pool.GetPage(bt.pid(cur))
	if err != nil {
		return Iterator{}, err
	}
	leaf := NewLeafPage(buf, bt.td, bt.keyField)
	if leaf.Size() == 0 {
		return bt.End(), nil
	}
	return Iterator{Page: cur, Slot: 0}, nil
}

// End returns the end sentinel (NumPages, 0).
func (bt *BTreeFile) End() Iterator { return Iterator{Page: bt.numPages, Slot: 0} }

// Next advances within the leaf, then along the sibling chain. A sibling
// link of 0 means no successor.
func (bt *BTreeFile) Next(it *Iterator) error {
	if it.Page >= bt.numPages {
		*it = bt.End()
		return nil
	}
	buf, err := bt.db.BufferPool().GetPage(bt.pid(it.Page))
	if err != nil {
		return err
	}
	leaf := NewLeafPage(buf, bt.td, bt.keyField)
	if it.Slot+1 < leaf.Size() {
		it.Slot++
		return nil
	}
	if next := leaf.NextLeaf(); next != 0 {
		it.Page = next
		it.Slot = 0
		return nil
	}
	*it = bt.End()
	return nil
}
