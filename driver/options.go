package driver

type SortDirection int

const (
	DESC SortDirection = -1
	ASC  SortDirection = 1
)

// Sort indicates the ordering for a single field. Several of them form
// a stable multi-key sort, first field highest priority.
type Sort struct {
	Field     string
	Direction SortDirection
}

// QueryOptions carries the ordering and slicing of a query. A negative
// Limit or Offset means unset.
type QueryOptions struct {
	Sort   []Sort
	Limit  int
	Offset int
}

// Unbounded returns QueryOptions with no ordering, limit or offset.
func Unbounded() QueryOptions {
	return QueryOptions{Limit: -1, Offset: -1}
}
