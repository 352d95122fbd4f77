package core

// Collection is the paginated query result contract: the matched page,
// the total count unaffected by pagination, and the requested limit and
// offset echoed back unchanged.
type Collection struct {
	Nodes      []Expense
	TotalCount int
	Limit      int
	Offset     int
}
