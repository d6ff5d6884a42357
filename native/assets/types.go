package assets

import "math/big"

// Asset is the value record for one tokenized piece of content. Exactly one
// record exists per content id; the mapping is bijective for the lifetime of
// the asset.
type Asset struct {
	ID              uint64   `json:"id"`
	ContentID       string   `json:"contentId"`
	URI             string   `json:"uri"`
	Creator         [20]byte `json:"creator"`
	Owner           [20]byte `json:"owner"`
	InitialValue    *big.Int `json:"initialValue"`
	CurrentValue    *big.Int `json:"currentValue"`
	ImpactScore     uint32   `json:"impactScore"`
	EngagementScore uint32   `json:"engagementScore"`
	QualityScore    uint32   `json:"qualityScore"`
	ViewCount       uint64   `json:"viewCount"`
	ActionCount     uint64   `json:"actionCount"`
	MintTime        int64    `json:"mintTime"`
	LastValueUpdate int64    `json:"lastValueUpdate"`
	Listed          bool     `json:"listed"`
	ListPrice       *big.Int `json:"listPrice"`
}

// Clone returns a deep copy of the asset record.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := *a
	if a.InitialValue != nil {
		clone.InitialValue = new(big.Int).Set(a.InitialValue)
	}
	if a.CurrentValue != nil {
		clone.CurrentValue = new(big.Int).Set(a.CurrentValue)
	}
	if a.ListPrice != nil {
		clone.ListPrice = new(big.Int).Set(a.ListPrice)
	}
	return &clone
}
