package model

import "time"

// RegistryState is the singleton aggregate holding the registry-wide
// counters and flags.
type RegistryState struct {
	ObjectType    string    `json:"objectType"`    // "RegistryState"
	Owner         string    `json:"owner"`         // Full X.509 identity of the registry owner
	MaxTokens     uint64    `json:"maxTokens"`     // Ceiling on the total number of records ever minted
	NextID        uint64    `json:"nextId"`        // Next id to assign; equals the minted count
	Paused        bool      `json:"paused"`        // Global pause, blocks minting
	MintingPaused bool      `json:"mintingPaused"` // Minting-only pause
	InitializedAt time.Time `json:"initializedAt"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// DelegateInfo is stored for every principal the owner has granted
// mutation rights to. Revocation deletes the entry.
type DelegateInfo struct {
	ObjectType string    `json:"objectType"` // "Delegate"
	FullID     string    `json:"fullId"`     // Full X.509 identity string
	GrantedBy  string    `json:"grantedBy"`  // Owner identity at grant time
	GrantedAt  time.Time `json:"grantedAt"`
}

// RegistryStatus is the read model returned by GetRegistryStatus.
type RegistryStatus struct {
	Owner         string    `json:"owner"`
	MaxTokens     uint64    `json:"maxTokens"`
	TotalMinted   uint64    `json:"totalMinted"`
	Paused        bool      `json:"paused"`
	MintingPaused bool      `json:"mintingPaused"`
	InitializedAt time.Time `json:"initializedAt"`
}

// CallerInfo describes the invoking identity and its registry rights.
type CallerInfo struct {
	FullID     string `json:"fullId"`
	MSPID      string `json:"mspId"`
	IsOwner    bool   `json:"isOwner"`
	IsDelegate bool   `json:"isDelegate"`
}
