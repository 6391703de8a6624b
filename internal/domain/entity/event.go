package entity

type EventName string

// Run-level events.
const (
	EventStart     EventName = "start"
	EventCancelled EventName = "cancelled"
	EventComplete  EventName = "complete"
)

// Supplier-level events.
const (
	EventStarting       EventName = "starting"
	EventProcessing     EventName = "processing"
	EventBillDiscovered EventName = "bill_discovered"
	EventCompleted      EventName = "completed"
	EventError          EventName = "error"
)

// Event is one progress notification of a sync run.
type Event struct {
	Name     EventName   `json:"event"`
	SyncID   string      `json:"sync_id"`
	Supplier string      `json:"supplier,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

// SupplierCounts are the cumulative counters reported by completed.
type SupplierCounts struct {
	Found      int `json:"found"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
	Create     int `json:"create"`
	Update     int `json:"update"`
	Unchanged  int `json:"unchanged"`
	Skipped    int `json:"skipped"`
}

func (c *SupplierCounts) Add(o SupplierCounts) {
	c.Found += o.Found
	c.Resolved += o.Resolved
	c.Unresolved += o.Unresolved
	c.Create += o.Create
	c.Update += o.Update
	c.Unchanged += o.Unchanged
	c.Skipped += o.Skipped
}
