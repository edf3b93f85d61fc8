package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/songswap/internal/core/domain"
	"github.com/ewilliams-labs/songswap/internal/core/ports"
	"github.com/ewilliams-labs/songswap/internal/worker"
)

// Phase is the session lifecycle state. Economy operations are callable only
// in PhaseReady.
type Phase int

const (
	PhaseLoggedOut Phase = iota
	PhaseLoading
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoggedOut:
		return "logged_out"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// topTracksFetchLimit is how many candidate tracks are pulled from the
// catalog when the UI asks for a fresh encounter batch.
const topTracksFetchLimit = 50

// shopSearchLimit caps how many search results feed one shop restock.
const shopSearchLimit = 20

// Config wires a Session's collaborators.
type Config struct {
	Game    domain.GameConfig
	Repo    ports.SnapshotRepository
	Catalog ports.MusicCatalog
	Saver   *worker.Saver
	// Analyzer is optional; when set, purchased tracks with a preview URL
	// are submitted for a background probe.
	Analyzer *worker.Analyzer
	Logger   *slog.Logger
	// TickInterval is the accrual cadence; defaults to one second.
	TickInterval time.Duration
	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
	// Rand seeds encounter generation; defaults to a time-seeded source.
	Rand *rand.Rand
}

// Session owns the EconomyState for one logged-in identity and serializes
// every mutation behind a single mutex, so the aggregate never sees
// concurrent access. Persistence is write-behind through the saver worker;
// the accrual ticker is owned by the session lifecycle and re-reads current
// state on every tick.
type Session struct {
	mu sync.Mutex

	cfg      domain.GameConfig
	repo     ports.SnapshotRepository
	catalog  ports.MusicCatalog
	saver    *worker.Saver
	analyzer *worker.Analyzer
	notifier *Notifier
	logger   *slog.Logger

	tickInterval time.Duration
	clock        func() time.Time
	encounterGen *domain.EncounterGenerator

	phase      Phase
	identity   string
	state      *domain.EconomyState
	encounters map[string]domain.Encounter
	shop       map[string]domain.ShopOffer

	tickCancel context.CancelFunc
	tickDone   chan struct{}
}

// NewSession constructs a logged-out session.
func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Session{
		cfg:          cfg.Game,
		repo:         cfg.Repo,
		catalog:      cfg.Catalog,
		saver:        cfg.Saver,
		analyzer:     cfg.Analyzer,
		notifier:     NewNotifier(),
		logger:       logger,
		tickInterval: interval,
		clock:        clock,
		encounterGen: domain.NewEncounterGenerator(cfg.Game.Rarity, rng),
		phase:        PhaseLoggedOut,
		encounters:   make(map[string]domain.Encounter),
		shop:         make(map[string]domain.ShopOffer),
	}
}

// Notifier exposes the session's event channel for the view layer.
func (s *Session) Notifier() *Notifier { return s.notifier }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Login restores the identity's snapshot (or starts fresh when none exists),
// applies offline accrual catch-up once, and starts the accrual ticker.
func (s *Session) Login(ctx context.Context, identityID string) error {
	s.mu.Lock()
	if s.phase != PhaseLoggedOut {
		s.mu.Unlock()
		return fmt.Errorf("session: login in phase %s: %w", s.phase, domain.ErrNotReady)
	}
	s.phase = PhaseLoading
	s.mu.Unlock()

	state, err := s.loadOrCreate(ctx, identityID)
	if err != nil {
		s.mu.Lock()
		s.phase = PhaseLoggedOut
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.identity = identityID
	s.state = state
	s.encounters = make(map[string]domain.Encounter)
	s.shop = make(map[string]domain.ShopOffer)

	// Offline catch-up uses the same accrual formula as the foreground tick,
	// so there is no double counting across the restart boundary.
	if earned := s.state.TickAccrual(s.clock()); earned > 0 {
		s.logger.Info("offline earnings credited",
			slog.String("identity", identityID),
			slog.Int64("coins", earned))
	}

	s.phase = PhaseReady
	s.queueSaveLocked()
	s.startTickerLocked()
	event := s.eventLocked(EventLogin, "")
	s.mu.Unlock()

	s.notifier.Publish(event)
	return nil
}

// Logout cancels the accrual ticker, forces a final synchronous persist, and
// drops the in-memory state. A persistence failure at this point is logged as
// a warning; the session still transitions to logged out.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return fmt.Errorf("session: logout in phase %s: %w", s.phase, domain.ErrNotReady)
	}
	cancel, done := s.tickCancel, s.tickDone
	s.mu.Unlock()

	// The ticker must be fully stopped before the final persist so a late
	// tick cannot write after it.
	cancel()
	<-done

	s.mu.Lock()
	identity := s.identity
	snap := s.state.Snapshot()
	s.phase = PhaseLoggedOut
	s.identity = ""
	s.state = nil
	s.encounters = make(map[string]domain.Encounter)
	s.shop = make(map[string]domain.ShopOffer)
	s.tickCancel = nil
	s.tickDone = nil
	s.mu.Unlock()

	// Drain the write-behind queue first so an older queued snapshot cannot
	// land after the final persist.
	s.saver.Flush()

	if err := s.repo.Save(ctx, identity, snap); err != nil {
		s.logger.Warn("final snapshot save failed",
			slog.String("identity", identity),
			slog.Any("error", err))
	}

	s.notifier.Publish(Event{Type: EventLogout, Identity: identity})
	return nil
}

func (s *Session) loadOrCreate(ctx context.Context, identityID string) (*domain.EconomyState, error) {
	snap, err := s.repo.Load(ctx, identityID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("no snapshot found, starting fresh", slog.String("identity", identityID))
		return domain.NewEconomyState(s.cfg, s.clock()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: failed to load snapshot: %w", err)
	}

	state, err := domain.RestoreEconomyState(s.cfg, snap)
	if err != nil {
		return nil, fmt.Errorf("session: failed to restore snapshot: %w", err)
	}
	return state, nil
}

// GenerateEncounters fetches the identity's top tracks and produces a fresh
// batch of up to maxCount encounters within the given bounds. The new batch
// replaces the previous one.
func (s *Session) GenerateEncounters(ctx context.Context, maxCount int, bounds domain.Bounds) ([]domain.Encounter, error) {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return nil, domain.ErrNotReady
	}
	owned := s.state.OwnedIDs()
	s.mu.Unlock()

	tracks, err := s.catalog.GetTopTracks(ctx, topTracksFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("session: failed to fetch top tracks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady {
		return nil, domain.ErrNotReady
	}

	batch := s.encounterGen.Generate(tracks, owned, maxCount, bounds)
	s.encounters = make(map[string]domain.Encounter, len(batch))
	for _, enc := range batch {
		s.encounters[enc.Track.ID] = enc
	}
	return batch, nil
}

// Encounters returns the active encounter batch.
func (s *Session) Encounters() []domain.Encounter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Encounter, 0, len(s.encounters))
	for _, enc := range s.encounters {
		out = append(out, enc)
	}
	return out
}

// PurchaseSong buys the active encounter for the given track id. On success
// the encounter leaves the active set and the track joins the collection.
func (s *Session) PurchaseSong(trackID string) (domain.PurchaseResult, error) {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return domain.PurchaseResult{}, domain.ErrNotReady
	}

	enc, ok := s.encounters[trackID]
	if !ok {
		s.mu.Unlock()
		return domain.PurchaseResult{}, fmt.Errorf("session: no active encounter for track %s: %w", trackID, domain.ErrNotFound)
	}

	result, err := s.state.PurchaseSong(enc, s.clock())
	if err != nil {
		s.mu.Unlock()
		return domain.PurchaseResult{}, err
	}
	delete(s.encounters, trackID)
	s.queueSaveLocked()
	events := s.resultEventsLocked(EventPurchase, trackID, result.Unlocked)
	s.mu.Unlock()

	if s.analyzer != nil && enc.Track.PreviewURL != "" {
		s.analyzer.Submit(worker.PreviewJob{TrackID: trackID, PreviewURL: enc.Track.PreviewURL})
	}
	for _, e := range events {
		s.notifier.Publish(e)
	}
	return result, nil
}

// PurchaseGenerator buys one unit of a generator type with gems.
func (s *Session) PurchaseGenerator(typeID string) (domain.GeneratorType, error) {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return domain.GeneratorType{}, domain.ErrNotReady
	}

	gen, err := s.state.PurchaseGenerator(typeID)
	if err != nil {
		s.mu.Unlock()
		return domain.GeneratorType{}, err
	}
	s.queueSaveLocked()
	event := s.eventLocked(EventGenerator, typeID)
	s.mu.Unlock()

	s.notifier.Publish(event)
	return gen, nil
}

// BrowseShop searches the catalog and restocks the shop with priced offers
// for unowned tracks. The new stock replaces the previous one.
func (s *Session) BrowseShop(ctx context.Context, query string, maxCount int) ([]domain.ShopOffer, error) {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return nil, domain.ErrNotReady
	}
	owned := s.state.OwnedIDs()
	s.mu.Unlock()

	tracks, err := s.catalog.Search(ctx, query, shopSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("session: shop search failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady {
		return nil, domain.ErrNotReady
	}

	offers := domain.BuildShopOffers(tracks, owned, s.cfg.Rarity, maxCount)
	s.shop = make(map[string]domain.ShopOffer, len(offers))
	for _, offer := range offers {
		s.shop[offer.Track.ID] = offer
	}
	return offers, nil
}

// PurchaseShopItem buys the stocked shop offer for the given track id. On
// success the offer leaves the shop and the track joins the collection.
func (s *Session) PurchaseShopItem(trackID string) (domain.PurchaseResult, error) {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return domain.PurchaseResult{}, domain.ErrNotReady
	}

	offer, ok := s.shop[trackID]
	if !ok {
		s.mu.Unlock()
		return domain.PurchaseResult{}, fmt.Errorf("session: no shop offer for track %s: %w", trackID, domain.ErrNotFound)
	}

	result, err := s.state.PurchaseFromShop(offer, s.clock())
	if err != nil {
		s.mu.Unlock()
		return domain.PurchaseResult{}, err
	}
	delete(s.shop, trackID)
	s.queueSaveLocked()
	events := s.resultEventsLocked(EventShop, trackID, result.Unlocked)
	s.mu.Unlock()

	if s.analyzer != nil && offer.Track.PreviewURL != "" {
		s.analyzer.Submit(worker.PreviewJob{TrackID: trackID, PreviewURL: offer.Track.PreviewURL})
	}
	for _, e := range events {
		s.notifier.Publish(e)
	}
	return result, nil
}

// ShopOffers returns the current shop stock.
func (s *Session) ShopOffers() []domain.ShopOffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ShopOffer, 0, len(s.shop))
	for _, offer := range s.shop {
		out = append(out, offer)
	}
	return out
}

// SearchTracks queries the external catalog, used by the trading flow to find
// a requested track.
func (s *Session) SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	tracks, err := s.catalog.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("session: search failed: %w", err)
	}
	return tracks, nil
}

// ExecuteTrade trades the offered owned tracks for the requested one, as a
// single all-or-nothing operation.
func (s *Session) ExecuteTrade(offeredIDs []string, requested domain.Track) (domain.TradeResult, error) {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return domain.TradeResult{}, domain.ErrNotReady
	}

	result, err := s.state.ExecuteTrade(offeredIDs, requested, s.clock())
	if err != nil {
		s.mu.Unlock()
		return domain.TradeResult{}, err
	}
	s.queueSaveLocked()
	events := s.resultEventsLocked(EventTrade, requested.ID, result.Unlocked)
	identity := s.identity
	s.mu.Unlock()

	s.logger.Info("trade executed",
		slog.String("trade_id", uuid.NewString()),
		slog.String("identity", identity),
		slog.Int("offered", len(offeredIDs)),
		slog.String("received", requested.ID))

	for _, e := range events {
		s.notifier.Publish(e)
	}
	return result, nil
}

// GrantAchievement unlocks an achievement by id, idempotently.
func (s *Session) GrantAchievement(id string, xpReward int) error {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return domain.ErrNotReady
	}

	_, granted := s.state.GrantAchievement(id, xpReward)
	if !granted {
		s.mu.Unlock()
		return nil
	}
	s.queueSaveLocked()
	event := s.eventLocked(EventAchievement, id)
	s.mu.Unlock()

	s.notifier.Publish(event)
	return nil
}

// Summary is the read-only view of the player state for the UI boundary.
type Summary struct {
	Identity        string
	Coins           int64
	Gems            int64
	Level           int
	XP              int
	XPForNextLevel  int
	CollectionSize  int
	CountByRarity   map[domain.Rarity]int
	GeneratorCounts map[string]int
	Achievements    []string
	Stats           domain.Stats
}

// Summary returns the current player state, or ErrNotReady outside Ready.
func (s *Session) Summary() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady {
		return Summary{}, domain.ErrNotReady
	}
	return Summary{
		Identity:        s.identity,
		Coins:           s.state.Coins(),
		Gems:            s.state.Gems(),
		Level:           s.state.Level(),
		XP:              s.state.XP(),
		XPForNextLevel:  domain.XPRequiredForLevel(s.state.Level()),
		CollectionSize:  s.state.CollectionSize(),
		CountByRarity:   s.state.CountByRarity(),
		GeneratorCounts: s.state.GeneratorCounts(),
		Achievements:    s.state.Achievements(),
		Stats:           s.state.Stats(),
	}, nil
}

// Collection returns the owned items ordered by acquisition time.
func (s *Session) Collection() ([]domain.CollectionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady {
		return nil, domain.ErrNotReady
	}
	return s.state.Collection(), nil
}

// startTickerLocked launches the accrual loop. Caller holds s.mu.
func (s *Session) startTickerLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.tickCancel = cancel
	s.tickDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// tick runs one accrual step. Ticks serialize on the session mutex, so a
// tick can never overlap with itself or with another operation; the saver
// queue absorbs any persistence still in flight.
func (s *Session) tick() {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return
	}
	earned := s.state.TickAccrual(s.clock())
	if earned == 0 {
		s.mu.Unlock()
		return
	}
	s.queueSaveLocked()
	event := s.eventLocked(EventAccrual, "")
	s.mu.Unlock()

	s.notifier.Publish(event)
}

// queueSaveLocked hands the current snapshot to the write-behind saver.
// Caller holds s.mu; the mutation already applied in memory stands whether or
// not the save succeeds.
func (s *Session) queueSaveLocked() {
	s.saver.Submit(worker.SaveJob{Identity: s.identity, Snapshot: s.state.Snapshot()})
}

// eventLocked builds a notification from current state. Caller holds s.mu.
func (s *Session) eventLocked(t EventType, detail string) Event {
	return Event{
		Type:     t,
		Identity: s.identity,
		Coins:    s.state.Coins(),
		Gems:     s.state.Gems(),
		Level:    s.state.Level(),
		XP:       s.state.XP(),
		Detail:   detail,
	}
}

// resultEventsLocked builds the primary event plus one achievement event per
// newly-unlocked rule. Caller holds s.mu.
func (s *Session) resultEventsLocked(t EventType, detail string, unlocked []domain.AchievementRule) []Event {
	events := []Event{s.eventLocked(t, detail)}
	for _, rule := range unlocked {
		events = append(events, s.eventLocked(EventAchievement, rule.ID))
	}
	return events
}
