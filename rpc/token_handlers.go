package rpc

import "net/http"

type tokenMintParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleTokenMint(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params tokenMintParams
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
	amount, ok := decodeAmountField(w, req, "amount", params.Amount)
	if !ok {
		return
	}
	if err := s.node.MintVID(caller, to, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	supply, err := s.node.Supply()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"totalSupply": bigString(supply)})
}

type tokenBurnParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *Server) handleTokenBurn(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params tokenBurnParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	amount, ok := decodeAmountField(w, req, "amount", params.Amount)
	if !ok {
		return
	}
	if err := s.node.BurnVID(caller, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	supply, err := s.node.Supply()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"totalSupply": bigString(supply)})
}

type tokenTransferParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleTokenTransfer(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params tokenTransferParams
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
	amount, ok := decodeAmountField(w, req, "amount", params.Amount)
	if !ok {
		return
	}
	if err := s.node.TransferVID(caller, to, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

type addressParams struct {
	Address string `json:"address"`
}

type BalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addressParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, "address", params.Address)
	if !ok {
		return
	}
	balance, err := s.node.BalanceOf(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, BalanceResult{Address: encodeHexAddress(addr), Balance: bigString(balance)})
}

func (s *Server) handleGetSupply(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	supply, err := s.node.Supply()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"totalSupply": bigString(supply)})
}
