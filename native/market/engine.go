package market

import (
	"errors"
	"fmt"
	"math/big"

	ledgererr "vidchain/core/errors"
	"vidchain/core/events"
	"vidchain/core/types"
	"vidchain/native/assets"
	"vidchain/native/common"
	"vidchain/native/token"
)

var (
	errNilState  = errors.New("market engine: state not configured")
	errNilLedger = errors.New("market engine: token ledger not configured")
)

// ModuleName keys the pause flag gating marketplace mutations.
const ModuleName = "market"

// MaxFeeBps caps the marketplace fee at 10%.
const MaxFeeBps uint32 = 1_000

// BpsDenominator is the shared basis-point denominator.
const BpsDenominator = 10_000

// DefaultListLimit bounds one page of the listed-asset query.
const DefaultListLimit = 100

type engineState interface {
	Asset(id uint64) (*assets.Asset, bool, error)
	PutAsset(asset *assets.Asset) error
	ListedAssets() ([]uint64, error)
	AppendListedAsset(id uint64) error
	RemoveListedAsset(id uint64) error
	FeeBps() (uint32, error)
	SetFeeBps(bps uint32) error
	FeeRecipient() ([20]byte, error)
	SetFeeRecipient(addr [20]byte) error
}

// Engine runs the fixed-price marketplace over the asset registry. Sales
// settle through the fungible ledger with an exact-payment rule: the buyer
// moves the full list price and the fee is carved out of the seller's side.
type Engine struct {
	state   engineState
	ledger  *token.Ledger
	emitter events.Emitter
	pauses  common.PauseView
}

// NewEngine constructs a market engine with default dependencies.
func NewEngine(ledger *token.Ledger) *Engine {
	return &Engine{
		ledger:  ledger,
		emitter: events.NoopEmitter{},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses configures the pause view consulted by mutating operations.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(wrapEvent(evt))
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	return nil
}

func (e *Engine) guard() error {
	if err := common.Guard(e.pauses, ModuleName); err != nil {
		return fmt.Errorf("market: %w", ledgererr.ErrPaused)
	}
	return nil
}

func (e *Engine) loadAsset(id uint64) (*assets.Asset, error) {
	asset, ok, err := e.state.Asset(id)
	if err != nil {
		return nil, err
	}
	if !ok || asset == nil {
		return nil, fmt.Errorf("market: asset %d: %w", id, ledgererr.ErrNotFound)
	}
	return asset, nil
}

// List puts the caller's asset up for sale at price.
func (e *Engine) List(caller [20]byte, id uint64, price *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	if price == nil || price.Sign() <= 0 {
		return fmt.Errorf("market: price must be positive: %w", ledgererr.ErrInvalidAmount)
	}
	asset, err := e.loadAsset(id)
	if err != nil {
		return err
	}
	if asset.Owner != caller {
		return fmt.Errorf("market: only the owner may list: %w", ledgererr.ErrUnauthorized)
	}
	if asset.Listed {
		return fmt.Errorf("market: asset %d already listed: %w", id, ledgererr.ErrAlreadyExists)
	}
	asset.Listed = true
	asset.ListPrice = new(big.Int).Set(price)
	if err := e.state.PutAsset(asset); err != nil {
		return err
	}
	if err := e.state.AppendListedAsset(id); err != nil {
		return err
	}
	e.emit(listedEvent(id, caller, price.String()))
	return nil
}

// Unlist withdraws the caller's active listing.
func (e *Engine) Unlist(caller [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	asset, err := e.loadAsset(id)
	if err != nil {
		return err
	}
	if asset.Owner != caller {
		return fmt.Errorf("market: only the owner may unlist: %w", ledgererr.ErrUnauthorized)
	}
	if !asset.Listed {
		return fmt.Errorf("market: asset %d not listed: %w", id, ledgererr.ErrNotFound)
	}
	asset.Listed = false
	asset.ListPrice = nil
	if err := e.state.PutAsset(asset); err != nil {
		return err
	}
	if err := e.state.RemoveListedAsset(id); err != nil {
		return err
	}
	e.emit(unlistedEvent(id, caller))
	return nil
}

// Buy purchases a listed asset. The offered payment must equal the list
// price exactly; the marketplace fee goes to the fee recipient and the
// remainder to the seller, then ownership moves and the listing clears.
func (e *Engine) Buy(buyer [20]byte, id uint64, payment *big.Int) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	asset, err := e.loadAsset(id)
	if err != nil {
		return nil, err
	}
	if !asset.Listed || asset.ListPrice == nil {
		return nil, fmt.Errorf("market: asset %d not listed: %w", id, ledgererr.ErrNotFound)
	}
	if asset.Owner == buyer {
		return nil, fmt.Errorf("market: cannot buy own asset: %w", ledgererr.ErrInvalidAmount)
	}
	if payment == nil || payment.Cmp(asset.ListPrice) != 0 {
		return nil, fmt.Errorf("market: payment does not match price %s: %w", asset.ListPrice, ledgererr.ErrPaymentMismatch)
	}
	balance, err := e.ledger.BalanceOf(buyer)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(asset.ListPrice) < 0 {
		return nil, fmt.Errorf("market: balance %s below price %s: %w", balance, asset.ListPrice, ledgererr.ErrInvalidAmount)
	}
	feeBps, err := e.state.FeeBps()
	if err != nil {
		return nil, err
	}
	recipient, err := e.state.FeeRecipient()
	if err != nil {
		return nil, err
	}

	seller := asset.Owner
	price := new(big.Int).Set(asset.ListPrice)
	fee := new(big.Int).Mul(price, big.NewInt(int64(feeBps)))
	fee.Quo(fee, big.NewInt(BpsDenominator))
	payout := new(big.Int).Sub(price, fee)

	// All preconditions hold; settle payment, then record ownership.
	if fee.Sign() > 0 {
		if err := e.ledger.Transfer(buyer, recipient, fee); err != nil {
			return nil, err
		}
	}
	if err := e.ledger.Transfer(buyer, seller, payout); err != nil {
		return nil, err
	}
	asset.Owner = buyer
	asset.Listed = false
	asset.ListPrice = nil
	if err := e.state.PutAsset(asset); err != nil {
		return nil, err
	}
	if err := e.state.RemoveListedAsset(id); err != nil {
		return nil, err
	}
	receipt := &Receipt{AssetID: id, Seller: seller, Buyer: buyer, Price: price, Fee: fee, Payout: payout}
	e.emit(soldEvent(receipt))
	return receipt, nil
}

// Transfer moves ownership directly without payment, clearing any listing.
func (e *Engine) Transfer(caller, to [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.guard(); err != nil {
		return err
	}
	asset, err := e.loadAsset(id)
	if err != nil {
		return err
	}
	if asset.Owner != caller {
		return fmt.Errorf("market: only the owner may transfer: %w", ledgererr.ErrUnauthorized)
	}
	if caller == to {
		return nil
	}
	if asset.Listed {
		if err := e.state.RemoveListedAsset(id); err != nil {
			return err
		}
		asset.Listed = false
		asset.ListPrice = nil
	}
	asset.Owner = to
	if err := e.state.PutAsset(asset); err != nil {
		return err
	}
	e.emit(transferredEvent(id, caller, to))
	return nil
}

// SetFeeBps updates the marketplace fee, capped at MaxFeeBps.
func (e *Engine) SetFeeBps(bps uint32) error {
	if err := e.ready(); err != nil {
		return err
	}
	if bps > MaxFeeBps {
		return fmt.Errorf("market: fee %d above cap %d: %w", bps, MaxFeeBps, ledgererr.ErrInvalidAmount)
	}
	if err := e.state.SetFeeBps(bps); err != nil {
		return err
	}
	recipient, err := e.state.FeeRecipient()
	if err != nil {
		return err
	}
	e.emit(feeChangedEvent(bps, recipient))
	return nil
}

// SetFeeRecipient updates the address receiving marketplace fees.
func (e *Engine) SetFeeRecipient(addr [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	var zero [20]byte
	if addr == zero {
		return fmt.Errorf("market: fee recipient required: %w", ledgererr.ErrInvalidAmount)
	}
	if err := e.state.SetFeeRecipient(addr); err != nil {
		return err
	}
	bps, err := e.state.FeeBps()
	if err != nil {
		return err
	}
	e.emit(feeChangedEvent(bps, addr))
	return nil
}

// Listing returns the active listing for id.
func (e *Engine) Listing(id uint64) (*Listing, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	asset, err := e.loadAsset(id)
	if err != nil {
		return nil, err
	}
	if !asset.Listed || asset.ListPrice == nil {
		return nil, fmt.Errorf("market: asset %d not listed: %w", id, ledgererr.ErrNotFound)
	}
	return &Listing{AssetID: id, Seller: asset.Owner, Price: new(big.Int).Set(asset.ListPrice)}, nil
}

// ListedAssets returns one page of the maintained listing index. The index
// is updated on every list, unlist, sale, transfer, and burn, so the query
// never walks the full asset space.
func (e *Engine) ListedAssets(offset, limit int) ([]*Listing, int, error) {
	if err := e.ready(); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	ids, err := e.state.ListedAssets()
	if err != nil {
		return nil, 0, err
	}
	total := len(ids)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*Listing{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]*Listing, 0, end-offset)
	for _, id := range ids[offset:end] {
		asset, ok, err := e.state.Asset(id)
		if err != nil {
			return nil, 0, err
		}
		if !ok || asset == nil || !asset.Listed || asset.ListPrice == nil {
			continue
		}
		page = append(page, &Listing{AssetID: id, Seller: asset.Owner, Price: new(big.Int).Set(asset.ListPrice)})
	}
	return page, total, nil
}
