// Package cif reads chemical component definitions from mmCIF container files.
//
// The package implements the subset of the mmCIF grammar used by the wwPDB
// chemical component dictionary (CCD) and BIRD archives: data blocks holding
// key-value items and loop tables. Each data block becomes one immutable
// [Block] record; downstream packages key records by component identifier
// via [ComponentID].
package cif

// Block is one parsed data block: a single chemical component definition.
//
// Blocks are immutable once returned by the parser. Category order follows
// the source file; consumers must not modify a Block after loading.
type Block struct {
	// Name is the data block header without the "data_" prefix.
	Name string `json:"name"`
	// Categories holds the block's categories in source order.
	Categories []Category `json:"categories"`
}

// Category is one table of a data block. Key-value items sharing a category
// name are folded into a single-row category; loop tables keep one row per
// loop entry.
type Category struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Category returns the named category, or nil if the block has none.
func (b *Block) Category(name string) *Category {
	for i := range b.Categories {
		if b.Categories[i].Name == name {
			return &b.Categories[i]
		}
	}
	return nil
}

// Column returns the index of the named column, or -1 if absent.
func (c *Category) Column(name string) int {
	for i, col := range c.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Value returns the value at the given row and column, or "" when either
// is out of range.
func (c *Category) Value(row int, column string) string {
	if c == nil || row < 0 || row >= len(c.Rows) {
		return ""
	}
	i := c.Column(column)
	if i < 0 || i >= len(c.Rows[row]) {
		return ""
	}
	return c.Rows[row][i]
}

// ComponentID resolves the canonical identifier for a block.
//
// It reads the id of the first chem_comp row; blocks lacking that item fall
// back to the data block name. The fallback keeps atypically shaped entries
// addressable instead of dropping them.
func ComponentID(b *Block) string {
	if cat := b.Category("chem_comp"); cat != nil && len(cat.Rows) > 0 {
		if id := cat.Value(0, "id"); id != "" {
			return id
		}
	}
	return b.Name
}
