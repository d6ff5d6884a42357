package state

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"vidchain/core/types"
	"vidchain/native/assets"
	"vidchain/native/stake"
	"vidchain/storage"
)

// Key layout. Every record sits under a module prefix so the key space reads
// like the package tree.
var (
	accountPrefix   = []byte("token/account/")
	supplyKey       = []byte("token/supply")
	rolePrefix      = []byte("access/role/")
	stakePrefix     = []byte("stake/position/")
	stakeTotalKey   = []byte("stake/total")
	rewardPrefix    = []byte("stake/reward/")
	rewardRateKey   = []byte("stake/rate")
	assetPrefix     = []byte("asset/record/")
	contentPrefix   = []byte("asset/content/")
	assetSeqKey     = []byte("asset/nextid")
	creatorPrefix   = []byte("asset/creator/")
	listedKey       = []byte("market/listed")
	feeBpsKey       = []byte("market/feebps")
	feeRecipientKey = []byte("market/feerecipient")
	pausePrefix     = []byte("pause/")
)

// Manager persists ledger state in a key-value database and satisfies the
// narrow state interfaces each engine declares. All engine entry points run
// under the node's lock, so the manager itself only guards against
// concurrent reads from the query surface.
type Manager struct {
	db storage.Database
	mu sync.RWMutex
}

// NewManager constructs a manager over db.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func joinKey(prefix []byte, suffix []byte) []byte {
	key := make([]byte, 0, len(prefix)+len(suffix))
	key = append(key, prefix...)
	return append(key, suffix...)
}

func (m *Manager) load(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if err != nil {
		if err == storage.ErrKeyNotFound {
			return false, nil
		}
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) store(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// --- token ledger state ---

type storedAccount struct {
	Balance *big.Int
	Nonce   uint64
}

// GetAccount returns the account for addr, zeroed when absent.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedAccount
	ok, err := m.load(joinKey(accountPrefix, addr[:]), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{BalanceVID: big.NewInt(0)}, nil
	}
	balance := stored.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	return &types.Account{BalanceVID: balance, Nonce: stored.Nonce}, nil
}

// PutAccount persists the account for addr.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := big.NewInt(0)
	var nonce uint64
	if account != nil {
		if account.BalanceVID != nil {
			balance = account.BalanceVID
		}
		nonce = account.Nonce
	}
	return m.store(joinKey(accountPrefix, addr[:]), &storedAccount{Balance: balance, Nonce: nonce})
}

// TotalSupply returns the persisted outstanding supply.
func (m *Manager) TotalSupply() (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := new(big.Int)
	ok, err := m.load(supplyKey, total)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return total, nil
}

// SetTotalSupply persists the outstanding supply.
func (m *Manager) SetTotalSupply(total *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if total == nil {
		total = big.NewInt(0)
	}
	return m.store(supplyKey, total)
}

// --- role registry state ---

// RoleMembers returns the membership list for role.
func (m *Manager) RoleMembers(role string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var members [][]byte
	if _, err := m.load(joinKey(rolePrefix, []byte(role)), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// SetRoleMembers replaces the membership list for role.
func (m *Manager) SetRoleMembers(role string, members [][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if members == nil {
		members = [][]byte{}
	}
	return m.store(joinKey(rolePrefix, []byte(role)), members)
}

// --- staking state ---

type storedPosition struct {
	Amount       *big.Int
	Checkpoint   uint64
	LockDuration uint64
}

// StakePosition returns the stake position for addr.
func (m *Manager) StakePosition(addr [20]byte) (*stake.Position, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedPosition
	ok, err := m.load(joinKey(stakePrefix, addr[:]), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	amount := stored.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}
	return &stake.Position{
		Amount:       amount,
		Checkpoint:   int64(stored.Checkpoint),
		LockDuration: int64(stored.LockDuration),
	}, true, nil
}

// SetStakePosition persists the stake position for addr. Emptied positions
// are removed so the key space stays clean.
func (m *Manager) SetStakePosition(addr [20]byte, pos *stake.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := joinKey(stakePrefix, addr[:])
	if pos == nil || pos.Amount == nil || pos.Amount.Sign() == 0 {
		return m.db.Delete(key)
	}
	return m.store(key, &storedPosition{
		Amount:       pos.Amount,
		Checkpoint:   uint64(pos.Checkpoint),
		LockDuration: uint64(pos.LockDuration),
	})
}

// TotalStaked returns the ledger-wide staked principal.
func (m *Manager) TotalStaked() (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := new(big.Int)
	ok, err := m.load(stakeTotalKey, total)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return total, nil
}

// SetTotalStaked persists the ledger-wide staked principal.
func (m *Manager) SetTotalStaked(total *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if total == nil {
		total = big.NewInt(0)
	}
	return m.store(stakeTotalKey, total)
}

// RewardBalance returns the settled-but-unclaimed reward for addr.
func (m *Manager) RewardBalance(addr [20]byte) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	balance := new(big.Int)
	ok, err := m.load(joinKey(rewardPrefix, addr[:]), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// SetRewardBalance persists the settled reward for addr.
func (m *Manager) SetRewardBalance(addr [20]byte, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := joinKey(rewardPrefix, addr[:])
	if amount == nil || amount.Sign() == 0 {
		return m.db.Delete(key)
	}
	return m.store(key, amount)
}

// RewardRateBps returns the configured base accrual rate.
func (m *Manager) RewardRateBps() (uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rate uint64
	if _, err := m.load(rewardRateKey, &rate); err != nil {
		return 0, err
	}
	return uint32(rate), nil
}

// SetRewardRateBps persists the base accrual rate.
func (m *Manager) SetRewardRateBps(bps uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(rewardRateKey, uint64(bps))
}

// --- asset registry state ---

type storedAsset struct {
	ID              uint64
	ContentID       string
	URI             string
	Creator         [20]byte
	Owner           [20]byte
	InitialValue    *big.Int
	CurrentValue    *big.Int
	ImpactScore     uint32
	EngagementScore uint32
	QualityScore    uint32
	ViewCount       uint64
	ActionCount     uint64
	MintTime        uint64
	LastValueUpdate uint64
	Listed          bool
	ListPrice       *big.Int
	HasListPrice    bool
}

func encodeAssetKey(id uint64) []byte {
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(id)
		id >>= 8
	}
	return joinKey(assetPrefix, buf[:])
}

// Asset returns the asset record for id.
func (m *Manager) Asset(id uint64) (*assets.Asset, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.asset(id)
}

func (m *Manager) asset(id uint64) (*assets.Asset, bool, error) {
	var stored storedAsset
	ok, err := m.load(encodeAssetKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	asset := &assets.Asset{
		ID:              stored.ID,
		ContentID:       stored.ContentID,
		URI:             stored.URI,
		Creator:         stored.Creator,
		Owner:           stored.Owner,
		InitialValue:    stored.InitialValue,
		CurrentValue:    stored.CurrentValue,
		ImpactScore:     stored.ImpactScore,
		EngagementScore: stored.EngagementScore,
		QualityScore:    stored.QualityScore,
		ViewCount:       stored.ViewCount,
		ActionCount:     stored.ActionCount,
		MintTime:        int64(stored.MintTime),
		LastValueUpdate: int64(stored.LastValueUpdate),
		Listed:          stored.Listed,
	}
	if asset.InitialValue == nil {
		asset.InitialValue = big.NewInt(0)
	}
	if asset.CurrentValue == nil {
		asset.CurrentValue = big.NewInt(0)
	}
	if stored.HasListPrice {
		asset.ListPrice = stored.ListPrice
	}
	return asset, true, nil
}

// PutAsset persists the asset record.
func (m *Manager) PutAsset(asset *assets.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := &storedAsset{
		ID:              asset.ID,
		ContentID:       asset.ContentID,
		URI:             asset.URI,
		Creator:         asset.Creator,
		Owner:           asset.Owner,
		InitialValue:    asset.InitialValue,
		CurrentValue:    asset.CurrentValue,
		ImpactScore:     asset.ImpactScore,
		EngagementScore: asset.EngagementScore,
		QualityScore:    asset.QualityScore,
		ViewCount:       asset.ViewCount,
		ActionCount:     asset.ActionCount,
		MintTime:        uint64(asset.MintTime),
		LastValueUpdate: uint64(asset.LastValueUpdate),
		Listed:          asset.Listed,
	}
	if stored.InitialValue == nil {
		stored.InitialValue = big.NewInt(0)
	}
	if stored.CurrentValue == nil {
		stored.CurrentValue = big.NewInt(0)
	}
	if asset.ListPrice != nil {
		stored.ListPrice = asset.ListPrice
		stored.HasListPrice = true
	} else {
		stored.ListPrice = big.NewInt(0)
	}
	return m.store(encodeAssetKey(asset.ID), stored)
}

// DeleteAsset removes the asset record for id.
func (m *Manager) DeleteAsset(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Delete(encodeAssetKey(id))
}

// AssetIDByContent resolves the asset id minted for contentID.
func (m *Manager) AssetIDByContent(contentID string) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var id uint64
	ok, err := m.load(joinKey(contentPrefix, []byte(contentID)), &id)
	if err != nil || !ok {
		return 0, false, err
	}
	return id, true, nil
}

// SetContentMapping records the content id to asset id mapping.
func (m *Manager) SetContentMapping(contentID string, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(joinKey(contentPrefix, []byte(contentID)), id)
}

// DeleteContentMapping removes the mapping for contentID.
func (m *Manager) DeleteContentMapping(contentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Delete(joinKey(contentPrefix, []byte(contentID)))
}

// NextAssetID allocates and persists the next asset id. Ids start at one.
func (m *Manager) NextAssetID() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var next uint64
	ok, err := m.load(assetSeqKey, &next)
	if err != nil {
		return 0, err
	}
	if !ok {
		next = 1
	}
	if err := m.store(assetSeqKey, next+1); err != nil {
		return 0, err
	}
	return next, nil
}

func (m *Manager) loadIDList(key []byte) ([]uint64, error) {
	var ids []uint64
	if _, err := m.load(key, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *Manager) appendID(key []byte, id uint64) error {
	ids, err := m.loadIDList(key)
	if err != nil {
		return err
	}
	return m.store(key, append(ids, id))
}

func (m *Manager) removeID(key []byte, id uint64) error {
	ids, err := m.loadIDList(key)
	if err != nil {
		return err
	}
	filtered := ids[:0]
	for _, existing := range ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	if len(filtered) == 0 {
		return m.db.Delete(key)
	}
	return m.store(key, filtered)
}

// CreatorAssets lists the asset ids minted by creator.
func (m *Manager) CreatorAssets(creator [20]byte) ([]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadIDList(joinKey(creatorPrefix, creator[:]))
}

// AppendCreatorAsset records id under creator's mint index.
func (m *Manager) AppendCreatorAsset(creator [20]byte, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendID(joinKey(creatorPrefix, creator[:]), id)
}

// RemoveCreatorAsset drops id from creator's mint index.
func (m *Manager) RemoveCreatorAsset(creator [20]byte, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeID(joinKey(creatorPrefix, creator[:]), id)
}

// --- marketplace state ---

// ListedAssets returns the ordered listing index.
func (m *Manager) ListedAssets() ([]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadIDList(listedKey)
}

// AppendListedAsset adds id to the listing index.
func (m *Manager) AppendListedAsset(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendID(listedKey, id)
}

// RemoveListedAsset drops id from the listing index.
func (m *Manager) RemoveListedAsset(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeID(listedKey, id)
}

// FeeBps returns the configured marketplace fee.
func (m *Manager) FeeBps() (uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var bps uint64
	if _, err := m.load(feeBpsKey, &bps); err != nil {
		return 0, err
	}
	return uint32(bps), nil
}

// SetFeeBps persists the marketplace fee.
func (m *Manager) SetFeeBps(bps uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(feeBpsKey, uint64(bps))
}

// FeeRecipient returns the configured fee recipient address.
func (m *Manager) FeeRecipient() ([20]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var addr [20]byte
	if _, err := m.load(feeRecipientKey, &addr); err != nil {
		return addr, err
	}
	return addr, nil
}

// SetFeeRecipient persists the fee recipient address.
func (m *Manager) SetFeeRecipient(addr [20]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(feeRecipientKey, addr)
}

// --- pause registry ---

// IsPaused reports whether the module's pause flag is set. Read errors
// degrade to unpaused so a broken flag never bricks the ledger.
func (m *Manager) IsPaused(module string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var paused bool
	ok, err := m.load(joinKey(pausePrefix, []byte(module)), &paused)
	if err != nil || !ok {
		return false
	}
	return paused
}

// SetPaused persists the module's pause flag.
func (m *Manager) SetPaused(module string, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := joinKey(pausePrefix, []byte(module))
	if !paused {
		return m.db.Delete(key)
	}
	return m.store(key, paused)
}
