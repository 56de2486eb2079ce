package loan

// =============================================================================
// COLUMN MAPPER - Stable option -> schedule column assignment
// =============================================================================

// Base columns present in every schedule.
const (
	ColumnPayment = iota
	ColumnPrincipal
	ColumnInterest
	baseColumns
)

// Unassigned marks a disabled option; it has no column.
const Unassigned = -1

var baseTitles = [baseColumns]string{"Payment", "Principal", "Interest"}

// ColumnMap assigns schedule columns to repayment options. Index i of
// Columns belongs to options[i].
type ColumnMap struct {
	Columns []int
	Count   int
	names   []string
}

// AssignColumns gives enabled options columns 3, 4, ... in declaration
// order. The mapping depends only on the order and enabled flags, so
// disabling and re-enabling an option restores its column.
func AssignColumns(options []RepaymentOption) ColumnMap {
	cm := ColumnMap{Columns: make([]int, len(options)), Count: baseColumns}
	for i, opt := range options {
		if !opt.Enabled {
			cm.Columns[i] = Unassigned
			continue
		}
		cm.Columns[i] = cm.Count
		cm.Count++
		cm.names = append(cm.names, opt.Name)
	}
	return cm
}

// Column returns the column of options[i], or Unassigned.
func (cm ColumnMap) Column(i int) int {
	if i < 0 || i >= len(cm.Columns) {
		return Unassigned
	}
	return cm.Columns[i]
}

// Titles returns the column headers: base titles, then enabled option names.
func (cm ColumnMap) Titles() []string {
	titles := make([]string, 0, cm.Count)
	titles = append(titles, baseTitles[:]...)
	return append(titles, cm.names...)
}
