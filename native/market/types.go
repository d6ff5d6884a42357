package market

import "math/big"

// Listing is the query-facing view of one listed asset.
type Listing struct {
	AssetID uint64   `json:"assetId"`
	Seller  [20]byte `json:"seller"`
	Price   *big.Int `json:"price"`
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Price != nil {
		clone.Price = new(big.Int).Set(l.Price)
	}
	return &clone
}

// Receipt summarises a completed sale.
type Receipt struct {
	AssetID uint64   `json:"assetId"`
	Seller  [20]byte `json:"seller"`
	Buyer   [20]byte `json:"buyer"`
	Price   *big.Int `json:"price"`
	Fee     *big.Int `json:"fee"`
	Payout  *big.Int `json:"payout"`
}
