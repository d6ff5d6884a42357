package core

import (
	"fmt"
	"math/big"
	"sync"

	ledgererr "vidchain/core/errors"
	"vidchain/core/events"
	"vidchain/native/access"
	"vidchain/native/assets"
	"vidchain/native/common"
	"vidchain/native/market"
	"vidchain/native/stake"
	"vidchain/native/token"
	"vidchain/state"
	"vidchain/storage"
)

// Node owns the state manager and every engine, and is the only writer. Each
// mutating entry point takes the node mutex, runs the role check, then
// delegates; engines validate first and commit last, so an error leaves no
// partial state. Queries take the same mutex for a consistent snapshot.
type Node struct {
	mu      sync.Mutex
	db      storage.Database
	manager *state.Manager
	hub     *events.Hub

	registry *access.Registry
	ledger   *token.Ledger
	staking  *stake.Engine
	assets   *assets.Engine
	market   *market.Engine

	// payoutGuard latches every operation that moves value out of a vault.
	payoutGuard common.ReentrancyGuard
}

var pausableModules = map[string]struct{}{
	token.ModuleName:  {},
	stake.ModuleName:  {},
	market.ModuleName: {},
}

// NewNode wires the engines over db.
func NewNode(db storage.Database) *Node {
	manager := state.NewManager(db)
	hub := events.NewHub(0)

	ledger := token.NewLedger()
	ledger.SetState(manager)
	ledger.SetEmitter(hub)
	ledger.SetPauses(manager)

	staking := stake.NewEngine(ledger)
	staking.SetState(manager)
	staking.SetEmitter(hub)
	staking.SetPauses(manager)

	assetEngine := assets.NewEngine()
	assetEngine.SetState(manager)
	assetEngine.SetEmitter(hub)

	marketEngine := market.NewEngine(ledger)
	marketEngine.SetState(manager)
	marketEngine.SetEmitter(hub)
	marketEngine.SetPauses(manager)

	return &Node{
		db:       db,
		manager:  manager,
		hub:      hub,
		registry: access.NewRegistry(manager),
		ledger:   ledger,
		staking:  staking,
		assets:   assetEngine,
		market:   marketEngine,
	}
}

// Events exposes the hub for stream consumers.
func (n *Node) Events() *events.Hub { return n.hub }

// SetNowFunc overrides the time source on every time-aware engine.
func (n *Node) SetNowFunc(now func() int64) {
	n.staking.SetNowFunc(now)
	n.assets.SetNowFunc(now)
}

// --- roles ---

// SeedRole installs a genesis role grant without an admin check.
func (n *Node) SeedRole(role access.Role, addr [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Seed(role, addr)
}

// GrantRole adds addr to role, authorised by caller's admin role.
func (n *Node) GrantRole(caller [20]byte, role access.Role, addr [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Grant(caller, role, addr)
}

// RevokeRole removes addr from role, authorised by caller's admin role.
func (n *Node) RevokeRole(caller [20]byte, role access.Role, addr [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Revoke(caller, role, addr)
}

// HasRole reports whether addr holds role.
func (n *Node) HasRole(role access.Role, addr [20]byte) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.HasRole(role, addr)
}

// --- pause control ---

// Pause sets the pause flag for module. Pauser role required.
func (n *Node) Pause(caller [20]byte, module string) error {
	return n.setPaused(caller, module, true)
}

// Unpause clears the pause flag for module. Pauser role required.
func (n *Node) Unpause(caller [20]byte, module string) error {
	return n.setPaused(caller, module, false)
}

func (n *Node) setPaused(caller [20]byte, module string, paused bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.registry.Require(access.RolePauser, caller); err != nil {
		return err
	}
	if _, ok := pausableModules[module]; !ok {
		return fmt.Errorf("node: unknown module %q: %w", module, ledgererr.ErrNotFound)
	}
	return n.manager.SetPaused(module, paused)
}

// IsPaused reports the pause flag for module.
func (n *Node) IsPaused(module string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.manager.IsPaused(module)
}

// --- token ---

// MintVID credits freshly minted tokens to addr. Minter role required.
func (n *Node) MintVID(caller, addr [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.registry.Require(access.RoleMinter, caller); err != nil {
		return err
	}
	return n.ledger.Mint(addr, amount)
}

// BurnVID burns amount from the caller's own balance.
func (n *Node) BurnVID(caller [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.Burn(caller, amount)
}

// TransferVID moves amount from the caller to another account.
func (n *Node) TransferVID(caller, to [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.Transfer(caller, to, amount)
}

// BalanceOf returns the token balance for addr.
func (n *Node) BalanceOf(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.BalanceOf(addr)
}

// Supply returns the outstanding token supply.
func (n *Node) Supply() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.Supply()
}

// --- staking ---

// Stake locks the caller's tokens for lockSeconds.
func (n *Node) Stake(caller [20]byte, amount *big.Int, lockSeconds int64) (*stake.Position, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.staking.Stake(caller, amount, lockSeconds)
}

// Unstake withdraws principal and pays the settled reward.
func (n *Node) Unstake(caller [20]byte, amount *big.Int) (*stake.Position, *big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	release, err := n.payoutGuard.Enter()
	if err != nil {
		return nil, nil, err
	}
	defer release()
	return n.staking.Unstake(caller, amount)
}

// ClaimReward pays out the caller's settled reward balance.
func (n *Node) ClaimReward(caller [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	release, err := n.payoutGuard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()
	return n.staking.ClaimReward(caller)
}

// FundPool moves the caller's tokens into the reward pool. Rewards role
// required.
func (n *Node) FundPool(caller [20]byte, amount *big.Int) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.registry.Require(access.RoleRewards, caller); err != nil {
		return nil, err
	}
	return n.staking.FundPool(caller, amount)
}

// SetRewardRate updates the base accrual rate. Admin role required.
func (n *Node) SetRewardRate(caller [20]byte, bps uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.registry.Require(access.RoleAdmin, caller); err != nil {
		return err
	}
	return n.staking.SetRewardRate(bps)
}

// EmergencyWithdraw sweeps the reward pool to the supplied address. Admin
// role required, and only while staking is paused.
func (n *Node) EmergencyWithdraw(caller, to [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.registry.Require(access.RoleAdmin, caller); err != nil {
		return nil, err
	}
	if !n.manager.IsPaused(stake.ModuleName) {
		return nil, fmt.Errorf("node: emergency withdraw requires the staking module paused: %w", ledgererr.ErrPaused)
	}
	release, err := n.payoutGuard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()
	return n.staking.EmergencyWithdraw(to)
}

// PendingReward projects the caller's claimable reward.
func (n *Node) PendingReward(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.staking.PendingReward(addr)
}

// StakeInfo summarises addr's staking position.
func (n *Node) StakeInfo(addr [20]byte) (*stake.Info, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.staking.PositionInfo(addr)
}

// TotalStaked returns the ledger-wide staked principal.
func (n *Node) TotalStaked() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.staking.TotalStaked()
}

// PoolBalance returns the funded reward pool balance.
func (n *Node) PoolBalance() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.staking.PoolBalance()
}

// APR reports the advertised annual rate for a lock length.
func (n *Node) APR(lockSeconds int64) (uint32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.staking.APR(lockSeconds)
}

// --- assets ---

// MintAsset tokenizes a content item for owner. Minter role required.
func (n *Node) MintAsset(caller, owner [20]byte, contentID, uri string, initialValue *big.Int) (*assets.Asset, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.registry.Require(access.RoleMinter, caller); err != nil {
		return nil, err
	}
	return n.assets.Mint(owner, contentID, uri, initialValue)
}

// UpdateAssetMetrics feeds oracle metrics into an asset. Oracle role
// required.
func (n *Node) UpdateAssetMetrics(caller [20]byte, id uint64, impact, engagement, quality uint32, views, actions uint64) (*assets.Asset, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.registry.Require(access.RoleOracle, caller); err != nil {
		return nil, err
	}
	return n.assets.UpdateMetrics(id, impact, engagement, quality, views, actions)
}

// BurnAsset destroys an asset record. The owner may always burn; minters may
// burn on the owner's behalf.
func (n *Node) BurnAsset(caller [20]byte, id uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	asset, err := n.assets.Asset(id)
	if err != nil {
		return err
	}
	actor := caller
	if caller != asset.Owner {
		if err := n.registry.Require(access.RoleMinter, caller); err != nil {
			return err
		}
		actor = asset.Owner
	}
	return n.assets.Burn(actor, id)
}

// GetAsset returns the stored record for id.
func (n *Node) GetAsset(id uint64) (*assets.Asset, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.assets.Asset(id)
}

// AssetValue returns the current valuation for id.
func (n *Node) AssetValue(id uint64) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.assets.Value(id)
}

// CreatorAssets lists the asset ids minted by creator.
func (n *Node) CreatorAssets(creator [20]byte) ([]uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.assets.CreatorAssets(creator)
}

// --- marketplace ---

// ListAsset puts the caller's asset up for sale.
func (n *Node) ListAsset(caller [20]byte, id uint64, price *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.List(caller, id, price)
}

// UnlistAsset withdraws the caller's listing.
func (n *Node) UnlistAsset(caller [20]byte, id uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.Unlist(caller, id)
}

// BuyAsset purchases a listed asset at its exact list price.
func (n *Node) BuyAsset(caller [20]byte, id uint64, payment *big.Int) (*market.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	release, err := n.payoutGuard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()
	return n.market.Buy(caller, id, payment)
}

// TransferAsset moves ownership outside a sale. The owner may transfer
// directly; holders of the market role may move any asset (operator path).
func (n *Node) TransferAsset(caller, to [20]byte, id uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	asset, err := n.assets.Asset(id)
	if err != nil {
		return err
	}
	actor := caller
	if caller != asset.Owner {
		if err := n.registry.Require(access.RoleMarket, caller); err != nil {
			return err
		}
		actor = asset.Owner
	}
	return n.market.Transfer(actor, to, id)
}

// SetMarketFee updates the marketplace fee. Admin role required.
func (n *Node) SetMarketFee(caller [20]byte, bps uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.registry.Require(access.RoleAdmin, caller); err != nil {
		return err
	}
	return n.market.SetFeeBps(bps)
}

// SetFeeRecipient updates the marketplace fee recipient. Admin role
// required.
func (n *Node) SetFeeRecipient(caller, recipient [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.registry.Require(access.RoleAdmin, caller); err != nil {
		return err
	}
	return n.market.SetFeeRecipient(recipient)
}

// Listing returns the active listing for id.
func (n *Node) Listing(id uint64) (*market.Listing, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.Listing(id)
}

// ListedAssets returns one page of active listings plus the index size.
func (n *Node) ListedAssets(offset, limit int) ([]*market.Listing, int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.ListedAssets(offset, limit)
}
