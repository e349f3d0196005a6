package model

import "time"

// VehicleRecord is the registry entry for one vehicle. ID, VIN and the
// provenance fields are fixed at mint; only Mileage, Condition,
// CurrentOwner, the maintenance fields and LastUpdated change afterwards.
type VehicleRecord struct {
	ObjectType    string    `json:"objectType"`    // "VehicleRecord"
	ID            uint64    `json:"id"`            // Sequential, starts at 0, never reused
	VIN           string    `json:"vin"`           // 17 alphanumeric characters, case-sensitive
	Make          string    `json:"make"`          // Category
	Model         string    `json:"model"`         // Sub-category
	Year          int       `json:"year"`          // Validated against [1900, 2100] at mint
	Mileage       uint64    `json:"mileage"`       // Cumulative distance, [0, 100000000]
	Condition     string    `json:"condition"`     // Free-form status text
	CurrentOwner  string    `json:"currentOwner"`  // Cached copy of the token holder, not authoritative
	OriginalOwner string    `json:"originalOwner"` // Recipient at mint
	TokenURI      string    `json:"tokenURI"`      // Opaque metadata pointer
	MintedAt      time.Time `json:"mintedAt"`
	MintedTxID    string    `json:"mintedTxId"`
	LastServiceAt time.Time `json:"lastServiceAt"` // Zero until the first maintenance entry
	ServiceCount  uint64    `json:"serviceCount"`  // Number of maintenance entries, also the next entry's seq
	LastUpdated   time.Time `json:"lastUpdated"`   // Last attribute or maintenance mutation
}

// MaintenanceEntry is one immutable service log line of a record, stored
// under its own key next to the record.
type MaintenanceEntry struct {
	ObjectType string    `json:"objectType"` // "Maintenance"
	RecordID   uint64    `json:"recordId"`
	Seq        uint64    `json:"seq"` // 0-based, per record
	Mileage    uint64    `json:"mileage"`
	Notes      string    `json:"notes"`
	ServicedAt time.Time `json:"servicedAt"`
	RecordedBy string    `json:"recordedBy"`
	TxID       string    `json:"txId"`
}

// MintRequest carries the caller-supplied fields for one mint.
type MintRequest struct {
	Recipient string `json:"recipient"`
	VIN       string `json:"vin"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
	Mileage   int64  `json:"mileage"`
	Condition string `json:"condition"`
	TokenURI  string `json:"tokenURI"`
}

// RecordHistoryEntry is one historical state of a record as seen by the ledger.
type RecordHistoryEntry struct {
	TxID      string         `json:"txId"`
	Timestamp time.Time      `json:"timestamp"`
	IsDelete  bool           `json:"isDelete"`
	Record    *VehicleRecord `json:"record"` // Nil when the history value could not be decoded
}

// PaginatedRecordResponse is returned by paginated record queries.
type PaginatedRecordResponse struct {
	Records      []*VehicleRecord `json:"records"`
	NextBookmark string           `json:"nextBookmark"`
	FetchedCount int32            `json:"fetchedCount"`
}
