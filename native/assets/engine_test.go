package assets

import (
	"errors"
	"math/big"
	"testing"

	ledgererr "vidchain/core/errors"
)

type mockState struct {
	assets    map[uint64]*Asset
	byContent map[string]uint64
	creators  map[[20]byte][]uint64
	listed    map[uint64]bool
	nextID    uint64
}

func newMockState() *mockState {
	return &mockState{
		assets:    make(map[uint64]*Asset),
		byContent: make(map[string]uint64),
		creators:  make(map[[20]byte][]uint64),
		listed:    make(map[uint64]bool),
		nextID:    1,
	}
}

func (m *mockState) Asset(id uint64) (*Asset, bool, error) {
	asset, ok := m.assets[id]
	if !ok {
		return nil, false, nil
	}
	return asset.Clone(), true, nil
}

func (m *mockState) PutAsset(asset *Asset) error {
	m.assets[asset.ID] = asset.Clone()
	return nil
}

func (m *mockState) DeleteAsset(id uint64) error {
	delete(m.assets, id)
	return nil
}

func (m *mockState) AssetIDByContent(contentID string) (uint64, bool, error) {
	id, ok := m.byContent[contentID]
	return id, ok, nil
}

func (m *mockState) SetContentMapping(contentID string, id uint64) error {
	m.byContent[contentID] = id
	return nil
}

func (m *mockState) DeleteContentMapping(contentID string) error {
	delete(m.byContent, contentID)
	return nil
}

func (m *mockState) NextAssetID() (uint64, error) {
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *mockState) CreatorAssets(creator [20]byte) ([]uint64, error) {
	return append([]uint64(nil), m.creators[creator]...), nil
}

func (m *mockState) AppendCreatorAsset(creator [20]byte, id uint64) error {
	m.creators[creator] = append(m.creators[creator], id)
	return nil
}

func (m *mockState) RemoveCreatorAsset(creator [20]byte, id uint64) error {
	list := m.creators[creator]
	for i, existing := range list {
		if existing == id {
			m.creators[creator] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockState) RemoveListedAsset(id uint64) error {
	delete(m.listed, id)
	return nil
}

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func newEngine(t *testing.T, state *mockState, now *int64) *Engine {
	t.Helper()
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return *now })
	return engine
}

func TestMintInitializesDefaults(t *testing.T) {
	state := newMockState()
	now := int64(1_700_000_000)
	engine := newEngine(t, state, &now)

	creator := addr(1)
	asset, err := engine.Mint(creator, "video-123", "ipfs://meta", baseValue(100))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if asset.ID != 1 {
		t.Fatalf("first id: got %d", asset.ID)
	}
	if asset.Owner != creator || asset.Creator != creator {
		t.Fatalf("ownership not set to minter")
	}
	if asset.ImpactScore != DefaultImpactScore || asset.EngagementScore != DefaultEngagementScore || asset.QualityScore != DefaultQualityScore {
		t.Fatalf("default scores not applied: %d/%d/%d", asset.ImpactScore, asset.EngagementScore, asset.QualityScore)
	}
	if asset.CurrentValue.Cmp(asset.InitialValue) != 0 {
		t.Fatalf("current value %s != initial %s", asset.CurrentValue, asset.InitialValue)
	}
	value, err := engine.Value(asset.ID)
	if err != nil {
		t.Fatalf("value query: %v", err)
	}
	if value.Cmp(asset.InitialValue) != 0 {
		t.Fatalf("fresh value query: got %s want %s", value, asset.InitialValue)
	}
}

func TestMintRejectsDuplicateContent(t *testing.T) {
	state := newMockState()
	now := int64(1_700_000_000)
	engine := newEngine(t, state, &now)

	if _, err := engine.Mint(addr(1), "video-123", "", baseValue(10)); err != nil {
		t.Fatalf("first mint: %v", err)
	}
	if _, err := engine.Mint(addr(2), "video-123", "", baseValue(10)); !errors.Is(err, ledgererr.ErrAlreadyExists) {
		t.Fatalf("duplicate content id: got %v", err)
	}
	// Whitespace variants collapse to the same id.
	if _, err := engine.Mint(addr(2), "  video-123  ", "", baseValue(10)); !errors.Is(err, ledgererr.ErrAlreadyExists) {
		t.Fatalf("trimmed duplicate: got %v", err)
	}
}

func TestMintRejectsLowValueAndEmptyContent(t *testing.T) {
	state := newMockState()
	now := int64(1_700_000_000)
	engine := newEngine(t, state, &now)

	below := new(big.Int).Sub(MinInitialValue, big.NewInt(1))
	if _, err := engine.Mint(addr(1), "video-1", "", below); !errors.Is(err, ledgererr.ErrInvalidAmount) {
		t.Fatalf("below minimum: got %v", err)
	}
	if _, err := engine.Mint(addr(1), "video-1", "", nil); !errors.Is(err, ledgererr.ErrInvalidAmount) {
		t.Fatalf("nil value: got %v", err)
	}
	if _, err := engine.Mint(addr(1), "   ", "", baseValue(1)); !errors.Is(err, ledgererr.ErrInvalidAmount) {
		t.Fatalf("empty content id: got %v", err)
	}
	if _, err := engine.Mint(addr(1), "video-1", "", new(big.Int).Set(MinInitialValue)); err != nil {
		t.Fatalf("exact minimum should pass: %v", err)
	}
}

func TestUpdateMetricsRecomputesValue(t *testing.T) {
	state := newMockState()
	now := int64(1_700_000_000)
	engine := newEngine(t, state, &now)

	minted, err := engine.Mint(addr(1), "video-1", "", baseValue(100))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	now += 3600
	updated, err := engine.UpdateMetrics(minted.ID, 10_000, 10_000, 10_000, 500, 50)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	// composite 10000, actions 50 => 1.5x, no full decay period elapsed.
	want := new(big.Int).Mul(minted.InitialValue, big.NewInt(15_000))
	want.Quo(want, big.NewInt(10_000))
	if updated.CurrentValue.Cmp(want) != 0 {
		t.Fatalf("recomputed value: got %s want %s", updated.CurrentValue, want)
	}
	if updated.ViewCount != 500 || updated.ActionCount != 50 {
		t.Fatalf("counters not stored: views=%d actions=%d", updated.ViewCount, updated.ActionCount)
	}
	if updated.LastValueUpdate != now {
		t.Fatalf("update timestamp: got %d want %d", updated.LastValueUpdate, now)
	}
}

func TestUpdateMetricsRejectsScoreOverflow(t *testing.T) {
	state := newMockState()
	now := int64(1_700_000_000)
	engine := newEngine(t, state, &now)

	minted, err := engine.Mint(addr(1), "video-1", "", baseValue(10))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := engine.UpdateMetrics(minted.ID, 10_001, 0, 0, 0, 0); !errors.Is(err, ledgererr.ErrInvalidAmount) {
		t.Fatalf("impact overflow: got %v", err)
	}
	if _, err := engine.UpdateMetrics(minted.ID, 0, 0, 10_001, 0, 0); !errors.Is(err, ledgererr.ErrInvalidAmount) {
		t.Fatalf("quality overflow: got %v", err)
	}
	if _, err := engine.UpdateMetrics(99, 1, 1, 1, 0, 0); !errors.Is(err, ledgererr.ErrNotFound) {
		t.Fatalf("missing asset: got %v", err)
	}
}

func TestBurnClearsAllIndexes(t *testing.T) {
	state := newMockState()
	now := int64(1_700_000_000)
	engine := newEngine(t, state, &now)

	creator := addr(1)
	minted, err := engine.Mint(creator, "video-1", "", baseValue(10))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.Burn(addr(2), minted.ID); !errors.Is(err, ledgererr.ErrUnauthorized) {
		t.Fatalf("non-owner burn: got %v", err)
	}
	if err := engine.Burn(creator, minted.ID); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if _, err := engine.Asset(minted.ID); !errors.Is(err, ledgererr.ErrNotFound) {
		t.Fatalf("asset survives burn: %v", err)
	}
	if _, ok := state.byContent["video-1"]; ok {
		t.Fatalf("content mapping survives burn")
	}
	owned, err := engine.CreatorAssets(creator)
	if err != nil {
		t.Fatalf("creator assets: %v", err)
	}
	if len(owned) != 0 {
		t.Fatalf("creator index survives burn: %v", owned)
	}
	// Content id is mintable again after burn.
	if _, err := engine.Mint(creator, "video-1", "", baseValue(10)); err != nil {
		t.Fatalf("remint after burn: %v", err)
	}
}

func TestCreatorAssetsTracksMints(t *testing.T) {
	state := newMockState()
	now := int64(1_700_000_000)
	engine := newEngine(t, state, &now)

	creator := addr(7)
	for _, content := range []string{"a", "b", "c"} {
		if _, err := engine.Mint(creator, content, "", baseValue(10)); err != nil {
			t.Fatalf("mint %s: %v", content, err)
		}
	}
	owned, err := engine.CreatorAssets(creator)
	if err != nil {
		t.Fatalf("creator assets: %v", err)
	}
	if len(owned) != 3 || owned[0] != 1 || owned[1] != 2 || owned[2] != 3 {
		t.Fatalf("creator index: %v", owned)
	}
}
