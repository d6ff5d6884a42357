package rpc

import (
	"net/http"

	"vidchain/native/access"
)

type roleParams struct {
	Caller  string `json:"caller,omitempty"`
	Role    string `json:"role"`
	Address string `json:"address"`
}

func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params roleParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	addr, ok := decodeAddressField(w, req, "address", params.Address)
	if !ok {
		return
	}
	if err := s.node.GrantRole(caller, access.Role(params.Role), addr); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params roleParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	addr, ok := decodeAddressField(w, req, "address", params.Address)
	if !ok {
		return
	}
	if err := s.node.RevokeRole(caller, access.Role(params.Role), addr); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleHasRole(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params roleParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, "address", params.Address)
	if !ok {
		return
	}
	writeResult(w, req.ID, map[string]bool{"hasRole": s.node.HasRole(access.Role(params.Role), addr)})
}

type pauseParams struct {
	Caller string `json:"caller,omitempty"`
	Module string `json:"module"`
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params pauseParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.node.Pause(caller, params.Module); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params pauseParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.node.Unpause(caller, params.Module); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleIsPaused(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params pauseParams
	if !decodeParams(w, req, &params) {
		return
	}
	writeResult(w, req.ID, map[string]bool{"paused": s.node.IsPaused(params.Module)})
}
