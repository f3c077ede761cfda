package render

import (
	"sort"

	"github.com/goliatone/go-jszoo/internal/catalog"
)

type keyedRow struct {
	key string
	row catalog.Row
}

// SortRows orders rows by sort key in place. Equal keys keep their input
// order; rows without a sort_key column get one computed on the fly.
func SortRows(rows []catalog.Row) {
	keyed := make([]keyedRow, len(rows))
	for i, row := range rows {
		key := row.Text(KeySortKey)
		if key == "" {
			key = SortKey(row)
		}
		keyed[i] = keyedRow{key: key, row: row}
	}
	sort.SliceStable(keyed, func(i, j int) bool { return keyed[i].key < keyed[j].key })
	for i := range keyed {
		rows[i] = keyed[i].row
	}
}
