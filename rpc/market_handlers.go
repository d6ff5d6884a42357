package rpc

import (
	"net/http"

	"vidchain/native/market"
	"vidchain/observability/metrics"
)

type ListingResult struct {
	AssetID uint64 `json:"assetId"`
	Seller  string `json:"seller"`
	Price   string `json:"price"`
}

func listingResult(l *market.Listing) ListingResult {
	return ListingResult{
		AssetID: l.AssetID,
		Seller:  encodeHexAddress(l.Seller),
		Price:   bigString(l.Price),
	}
}

type marketListParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
	Price   string `json:"price"`
}

func (s *Server) publishListingGauge() {
	if _, total, err := s.node.ListedAssets(0, 1); err == nil {
		metrics.Ledger().SetListings(float64(total))
	}
}

func (s *Server) handleMarketList(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params marketListParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	price, ok := decodeAmountField(w, req, "price", params.Price)
	if !ok {
		return
	}
	if err := s.node.ListAsset(caller, params.AssetID, price); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.publishListingGauge()
	writeResult(w, req.ID, true)
}

func (s *Server) handleMarketUnlist(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params assetIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.node.UnlistAsset(caller, params.AssetID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.publishListingGauge()
	writeResult(w, req.ID, true)
}

type marketBuyParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
	Payment string `json:"payment"`
}

type ReceiptResult struct {
	AssetID uint64 `json:"assetId"`
	Seller  string `json:"seller"`
	Buyer   string `json:"buyer"`
	Price   string `json:"price"`
	Fee     string `json:"fee"`
	Payout  string `json:"payout"`
}

func (s *Server) handleMarketBuy(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params marketBuyParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	payment, ok := decodeAmountField(w, req, "payment", params.Payment)
	if !ok {
		return
	}
	receipt, err := s.node.BuyAsset(caller, params.AssetID, payment)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.publishListingGauge()
	writeResult(w, req.ID, ReceiptResult{
		AssetID: receipt.AssetID,
		Seller:  encodeHexAddress(receipt.Seller),
		Buyer:   encodeHexAddress(receipt.Buyer),
		Price:   bigString(receipt.Price),
		Fee:     bigString(receipt.Fee),
		Payout:  bigString(receipt.Payout),
	})
}

type feeBpsParams struct {
	Caller string `json:"caller"`
	Bps    uint32 `json:"bps"`
}

func (s *Server) handleMarketSetFeeBps(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params feeBpsParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.node.SetMarketFee(caller, params.Bps); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

type feeRecipientParams struct {
	Caller    string `json:"caller"`
	Recipient string `json:"recipient"`
}

func (s *Server) handleMarketSetFeeRecipient(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params feeRecipientParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	recipient, ok := decodeAddressField(w, req, "recipient", params.Recipient)
	if !ok {
		return
	}
	if err := s.node.SetFeeRecipient(caller, recipient); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params assetIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	listing, err := s.node.Listing(params.AssetID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, listingResult(listing))
}

type listedParams struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type ListedResult struct {
	Listings []ListingResult `json:"listings"`
	Total    int             `json:"total"`
}

func (s *Server) handleListedAssets(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params listedParams
	if !decodeParams(w, req, &params) {
		return
	}
	listings, total, err := s.node.ListedAssets(params.Offset, params.Limit)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	results := make([]ListingResult, 0, len(listings))
	for _, l := range listings {
		results = append(results, listingResult(l))
	}
	writeResult(w, req.ID, ListedResult{Listings: results, Total: total})
}
