package assets

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	ledgererr "vidchain/core/errors"
	"vidchain/core/events"
	"vidchain/core/types"
)

var errNilState = errors.New("asset engine: state not configured")

type engineState interface {
	Asset(id uint64) (*Asset, bool, error)
	PutAsset(asset *Asset) error
	DeleteAsset(id uint64) error
	AssetIDByContent(contentID string) (uint64, bool, error)
	SetContentMapping(contentID string, id uint64) error
	DeleteContentMapping(contentID string) error
	NextAssetID() (uint64, error)
	CreatorAssets(creator [20]byte) ([]uint64, error)
	AppendCreatorAsset(creator [20]byte, id uint64) error
	RemoveCreatorAsset(creator [20]byte, id uint64) error
	RemoveListedAsset(id uint64) error
}

// Engine owns the value registry: one record per tokenized content item,
// mutated only by the mint, oracle-update, and burn paths. Valuation itself
// is pure (valuation.go); the engine persists its results.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs an asset engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
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

// SetNowFunc overrides the time source for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(wrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func sanitizeContentID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", fmt.Errorf("assets: content id required: %w", ledgererr.ErrInvalidAmount)
	}
	return trimmed, nil
}

// Mint tokenizes a content item for owner. Content ids map to at most one
// asset; re-tokenizing is rejected. Scores start at the platform defaults
// and the persisted value starts at the initial value.
func (e *Engine) Mint(owner [20]byte, contentID, uri string, initialValue *big.Int) (*Asset, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	sanitized, err := sanitizeContentID(contentID)
	if err != nil {
		return nil, err
	}
	if initialValue == nil || initialValue.Cmp(MinInitialValue) < 0 {
		return nil, fmt.Errorf("assets: initial value below %s: %w", MinInitialValue, ledgererr.ErrInvalidAmount)
	}
	if _, ok, err := e.state.AssetIDByContent(sanitized); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("assets: content %q already tokenized: %w", sanitized, ledgererr.ErrAlreadyExists)
	}
	id, err := e.state.NextAssetID()
	if err != nil {
		return nil, err
	}
	now := e.now()
	asset := &Asset{
		ID:              id,
		ContentID:       sanitized,
		URI:             strings.TrimSpace(uri),
		Creator:         owner,
		Owner:           owner,
		InitialValue:    new(big.Int).Set(initialValue),
		CurrentValue:    new(big.Int).Set(initialValue),
		ImpactScore:     DefaultImpactScore,
		EngagementScore: DefaultEngagementScore,
		QualityScore:    DefaultQualityScore,
		MintTime:        now,
		LastValueUpdate: now,
	}
	if err := e.state.PutAsset(asset); err != nil {
		return nil, err
	}
	if err := e.state.SetContentMapping(sanitized, id); err != nil {
		return nil, err
	}
	if err := e.state.AppendCreatorAsset(owner, id); err != nil {
		return nil, err
	}
	e.emit(mintedEvent(asset))
	return asset.Clone(), nil
}

// UpdateMetrics overwrites the five oracle-fed metric fields and persists
// the recomputed value. Scores are capped at MaxScore.
func (e *Engine) UpdateMetrics(id uint64, impact, engagement, quality uint32, views, actions uint64) (*Asset, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if impact > MaxScore || engagement > MaxScore || quality > MaxScore {
		return nil, fmt.Errorf("assets: score above %d: %w", MaxScore, ledgererr.ErrInvalidAmount)
	}
	asset, ok, err := e.state.Asset(id)
	if err != nil {
		return nil, err
	}
	if !ok || asset == nil {
		return nil, fmt.Errorf("assets: asset %d: %w", id, ledgererr.ErrNotFound)
	}
	now := e.now()
	asset.ImpactScore = impact
	asset.EngagementScore = engagement
	asset.QualityScore = quality
	asset.ViewCount = views
	asset.ActionCount = actions
	asset.CurrentValue = ComputeValue(asset, now)
	asset.LastValueUpdate = now
	if err := e.state.PutAsset(asset); err != nil {
		return nil, err
	}
	e.emit(valueUpdatedEvent(asset))
	return asset.Clone(), nil
}

// Burn destroys the asset record, its content mapping, its creator index
// entry, and any active listing. Only the owner may burn.
func (e *Engine) Burn(caller [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	asset, ok, err := e.state.Asset(id)
	if err != nil {
		return err
	}
	if !ok || asset == nil {
		return fmt.Errorf("assets: asset %d: %w", id, ledgererr.ErrNotFound)
	}
	if asset.Owner != caller {
		return fmt.Errorf("assets: only the owner may burn: %w", ledgererr.ErrUnauthorized)
	}
	if asset.Listed {
		if err := e.state.RemoveListedAsset(id); err != nil {
			return err
		}
	}
	if err := e.state.DeleteContentMapping(asset.ContentID); err != nil {
		return err
	}
	if err := e.state.RemoveCreatorAsset(asset.Creator, id); err != nil {
		return err
	}
	if err := e.state.DeleteAsset(id); err != nil {
		return err
	}
	e.emit(burnedEvent(id, asset.ContentID))
	return nil
}

// Asset returns the stored record for id.
func (e *Engine) Asset(id uint64) (*Asset, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	asset, ok, err := e.state.Asset(id)
	if err != nil {
		return nil, err
	}
	if !ok || asset == nil {
		return nil, fmt.Errorf("assets: asset %d: %w", id, ledgererr.ErrNotFound)
	}
	return asset.Clone(), nil
}

// Value returns the read-only current valuation for id.
func (e *Engine) Value(id uint64) (*big.Int, error) {
	asset, err := e.Asset(id)
	if err != nil {
		return nil, err
	}
	return CurrentValue(asset, e.now()), nil
}

// CreatorAssets lists the asset ids minted by creator that still exist.
func (e *Engine) CreatorAssets(creator [20]byte) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.CreatorAssets(creator)
}
