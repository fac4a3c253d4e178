package entities

// Stats counts an owner's todos per partition
type Stats struct {
	ActiveCount    int `json:"activeCount"`
	CompletedCount int `json:"completedCount"`
}

// Total returns the number of todos across both partitions
func (s Stats) Total() int {
	return s.ActiveCount + s.CompletedCount
}
