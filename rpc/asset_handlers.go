package rpc

import (
	"net/http"

	"vidchain/native/assets"
)

type AssetResult struct {
	ID              uint64 `json:"id"`
	ContentID       string `json:"contentId"`
	URI             string `json:"uri"`
	Creator         string `json:"creator"`
	Owner           string `json:"owner"`
	InitialValue    string `json:"initialValue"`
	CurrentValue    string `json:"currentValue"`
	ImpactScore     uint32 `json:"impactScore"`
	EngagementScore uint32 `json:"engagementScore"`
	QualityScore    uint32 `json:"qualityScore"`
	ViewCount       uint64 `json:"viewCount"`
	ActionCount     uint64 `json:"actionCount"`
	MintTime        int64  `json:"mintTime"`
	LastValueUpdate int64  `json:"lastValueUpdate"`
	Listed          bool   `json:"listed"`
	ListPrice       string `json:"listPrice,omitempty"`
}

func assetResult(asset *assets.Asset) AssetResult {
	result := AssetResult{
		ID:              asset.ID,
		ContentID:       asset.ContentID,
		URI:             asset.URI,
		Creator:         encodeHexAddress(asset.Creator),
		Owner:           encodeHexAddress(asset.Owner),
		InitialValue:    bigString(asset.InitialValue),
		CurrentValue:    bigString(asset.CurrentValue),
		ImpactScore:     asset.ImpactScore,
		EngagementScore: asset.EngagementScore,
		QualityScore:    asset.QualityScore,
		ViewCount:       asset.ViewCount,
		ActionCount:     asset.ActionCount,
		MintTime:        asset.MintTime,
		LastValueUpdate: asset.LastValueUpdate,
		Listed:          asset.Listed,
	}
	if asset.ListPrice != nil {
		result.ListPrice = asset.ListPrice.String()
	}
	return result
}

type assetMintParams struct {
	Caller       string `json:"caller"`
	Owner        string `json:"owner"`
	ContentID    string `json:"contentId"`
	URI          string `json:"uri"`
	InitialValue string `json:"initialValue"`
}

func (s *Server) handleAssetMint(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params assetMintParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	owner, ok := decodeAddressField(w, req, "owner", params.Owner)
	if !ok {
		return
	}
	value, ok := decodeAmountField(w, req, "initialValue", params.InitialValue)
	if !ok {
		return
	}
	asset, err := s.node.MintAsset(caller, owner, params.ContentID, params.URI, value)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, assetResult(asset))
}

type assetMetricsParams struct {
	Caller     string `json:"caller"`
	AssetID    uint64 `json:"assetId"`
	Impact     uint32 `json:"impact"`
	Engagement uint32 `json:"engagement"`
	Quality    uint32 `json:"quality"`
	Views      uint64 `json:"views"`
	Actions    uint64 `json:"actions"`
}

func (s *Server) handleAssetUpdateMetrics(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params assetMetricsParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	asset, err := s.node.UpdateAssetMetrics(caller, params.AssetID, params.Impact, params.Engagement, params.Quality, params.Views, params.Actions)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, assetResult(asset))
}

type assetIDParams struct {
	Caller  string `json:"caller,omitempty"`
	AssetID uint64 `json:"assetId"`
}

func (s *Server) handleAssetBurn(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params assetIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.node.BurnAsset(caller, params.AssetID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

type assetTransferParams struct {
	Caller  string `json:"caller"`
	To      string `json:"to"`
	AssetID uint64 `json:"assetId"`
}

func (s *Server) handleAssetTransfer(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params assetTransferParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	to, ok := decodeAddressField(w, req, "to", params.To)
	if !ok {
		return
	}
	if err := s.node.TransferAsset(caller, to, params.AssetID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAssetGet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params assetIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	asset, err := s.node.GetAsset(params.AssetID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, assetResult(asset))
}

func (s *Server) handleAssetValue(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params assetIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	value, err := s.node.AssetValue(params.AssetID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"currentValue": bigString(value)})
}

type creatorParams struct {
	Creator string `json:"creator"`
}

func (s *Server) handleAssetsByCreator(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params creatorParams
	if !decodeParams(w, req, &params) {
		return
	}
	creator, ok := decodeAddressField(w, req, "creator", params.Creator)
	if !ok {
		return
	}
	ids, err := s.node.CreatorAssets(creator)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeResult(w, req.ID, map[string][]uint64{"assetIds": ids})
}
