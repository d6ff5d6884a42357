package rpc

import (
	"net/http"

	"vidchain/observability/metrics"
)

type stakeParams struct {
	Caller      string `json:"caller"`
	Amount      string `json:"amount"`
	LockSeconds int64  `json:"lockSeconds"`
}

type PositionResult struct {
	Address      string `json:"address"`
	Amount       string `json:"amount"`
	Checkpoint   int64  `json:"checkpoint"`
	LockDuration int64  `json:"lockDuration"`
	UnlockTime   int64  `json:"unlockTime"`
	CanUnstake   bool   `json:"canUnstake"`
}

func (s *Server) publishStakeGauges() {
	if total, err := s.node.TotalStaked(); err == nil {
		metrics.Ledger().SetTotalStaked(wholeTokens(total))
	}
	if pool, err := s.node.PoolBalance(); err == nil {
		metrics.Ledger().SetRewardPool(wholeTokens(pool))
	}
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params stakeParams
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
	pos, err := s.node.Stake(caller, amount, params.LockSeconds)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.publishStakeGauges()
	writeResult(w, req.ID, PositionResult{
		Address:      encodeHexAddress(caller),
		Amount:       bigString(pos.Amount),
		Checkpoint:   pos.Checkpoint,
		LockDuration: pos.LockDuration,
		UnlockTime:   pos.UnlockTime(),
	})
}

type unstakeParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params unstakeParams
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
	pos, reward, err := s.node.Unstake(caller, amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.publishStakeGauges()
	writeResult(w, req.ID, map[string]string{
		"remaining": bigString(pos.Amount),
		"reward":    bigString(reward),
	})
}

type callerParams struct {
	Caller string `json:"caller"`
}

func (s *Server) handleClaimReward(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params callerParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	reward, err := s.node.ClaimReward(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.publishStakeGauges()
	writeResult(w, req.ID, map[string]string{"reward": bigString(reward)})
}

type fundPoolParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *Server) handleFundPool(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params fundPoolParams
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
	pool, err := s.node.FundPool(caller, amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.publishStakeGauges()
	writeResult(w, req.ID, map[string]string{"poolBalance": bigString(pool)})
}

type rewardRateParams struct {
	Caller string `json:"caller"`
	Bps    uint32 `json:"bps"`
}

func (s *Server) handleSetRewardRate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params rewardRateParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddressField(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.node.SetRewardRate(caller, params.Bps); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

type emergencyWithdrawParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
}

func (s *Server) handleEmergencyWithdraw(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params emergencyWithdrawParams
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
	swept, err := s.node.EmergencyWithdraw(caller, to)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.publishStakeGauges()
	writeResult(w, req.ID, map[string]string{"swept": bigString(swept)})
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addressParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, "address", params.Address)
	if !ok {
		return
	}
	info, err := s.node.StakeInfo(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, PositionResult{
		Address:      encodeHexAddress(addr),
		Amount:       bigString(info.Amount),
		Checkpoint:   info.Checkpoint,
		LockDuration: info.LockDuration,
		UnlockTime:   info.UnlockTime,
		CanUnstake:   info.CanUnstake,
	})
}

func (s *Server) handlePendingReward(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addressParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := decodeAddressField(w, req, "address", params.Address)
	if !ok {
		return
	}
	pending, err := s.node.PendingReward(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"pending": bigString(pending)})
}

func (s *Server) handleTotalStaked(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	total, err := s.node.TotalStaked()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"totalStaked": bigString(total)})
}

func (s *Server) handlePoolBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	pool, err := s.node.PoolBalance()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"poolBalance": bigString(pool)})
}

type aprParams struct {
	LockSeconds int64 `json:"lockSeconds"`
}

func (s *Server) handleAPR(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params aprParams
	if !decodeParams(w, req, &params) {
		return
	}
	bps, err := s.node.APR(params.LockSeconds)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint32{"aprBps": bps})
}
