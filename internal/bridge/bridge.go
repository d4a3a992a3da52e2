// Package bridge connects the push channels to the cache and the UI stores.
//
// Classification is a pure function from a raw message to effects; the Bridge
// owns the subscriptions and applies the effects.
package bridge

import (
	"context"
	"sync"

	"github.com/cristianoliveira/crmsync/internal/cache"
	"github.com/cristianoliveira/crmsync/internal/feed"
	"github.com/cristianoliveira/crmsync/internal/logging"
	"github.com/cristianoliveira/crmsync/internal/stream"
	"github.com/cristianoliveira/crmsync/internal/uistate"
)

// Config selects the channels to open. An empty URL means the channel has
// no subscription at all. In mock mode no channel is opened.
type Config struct {
	CRMURL           string
	NotificationsURL string
	PaymentsURL      string
	Mock             bool
	Options          Options
}

func (c Config) url(ch Channel) string {
	switch ch {
	case ChannelCRM:
		return c.CRMURL
	case ChannelNotifications:
		return c.NotificationsURL
	case ChannelPayments:
		return c.PaymentsURL
	default:
		return ""
	}
}

// Deps are the collaborators the effects are applied to. Nil stores are skipped.
type Deps struct {
	Transport stream.Transport
	Cache     *cache.Cache
	UI        *uistate.Store
	Feed      *feed.Store
	Logger    logging.Logger
	// Observer, when set, sees every applied batch of effects.
	Observer func(ch Channel, effects []Effect)
}

// Bridge owns up to three subscriptions.
type Bridge struct {
	cfg  Config
	deps Deps

	apply sync.Mutex

	mu      sync.Mutex
	subs    map[Channel]*stream.Subscription
	started bool
}

// New creates a bridge. Nothing is opened until Start.
func New(cfg Config, deps Deps) *Bridge {
	if deps.Logger == nil {
		deps.Logger = logging.NewNoop()
	}
	if deps.Transport == nil {
		deps.Transport = stream.NewAutoTransport()
	}
	return &Bridge{cfg: cfg, deps: deps, subs: make(map[Channel]*stream.Subscription)}
}

// Start opens every configured channel. A channel that fails to open is
// disabled and logged; it does not affect the others and is not an error.
// Start runs once; later calls do nothing.
func (b *Bridge) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	if b.cfg.Mock {
		b.mu.Unlock()
		b.deps.Logger.Info("mock mode, push channels not opened")
		return
	}
	var subs []*stream.Subscription
	for _, ch := range Channels {
		url := b.cfg.url(ch)
		if url == "" {
			continue
		}
		ch := ch
		sub := stream.NewSubscription(string(ch), url, b.deps.Transport,
			func(data string) { b.HandleMessage(ch, data) }, b.deps.Logger)
		b.subs[ch] = sub
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		// the subscription logs its own failure
		_ = sub.Start(ctx)
	}
}

// HandleMessage classifies one message of ch and applies the effects.
func (b *Bridge) HandleMessage(ch Channel, raw string) []Effect {
	effects := Classify(ch, raw, b.cfg.Options)
	if len(effects) == 0 {
		b.deps.Logger.Debug("push message without effect", "channel", string(ch))
		return nil
	}
	b.Apply(effects)
	if b.deps.Observer != nil {
		b.deps.Observer(ch, effects)
	}
	return effects
}

// Apply applies effects in order. Effects of one call are never interleaved
// with those of another.
func (b *Bridge) Apply(effects []Effect) {
	b.apply.Lock()
	defer b.apply.Unlock()

	for _, e := range effects {
		switch e := e.(type) {
		case Notify:
			if b.deps.UI != nil {
				b.deps.UI.PushNotification(e.Notification)
			}
		case Ingest:
			if b.deps.Feed != nil {
				b.deps.Feed.Ingest(e.Item)
			}
		case Highlight:
			if b.deps.UI != nil {
				b.deps.UI.HighlightDeal(e.DealID)
			}
		case MarkUpdated:
			if b.deps.UI != nil {
				b.deps.UI.MarkDealUpdated(e.DealID)
			}
		case Invalidate:
			if b.deps.Cache != nil {
				n := b.deps.Cache.Invalidate(e.Matcher())
				b.deps.Logger.Debug("invalidated cache entries", "count", n)
			}
		case Refetch:
			if b.deps.Cache != nil {
				n := b.deps.Cache.Invalidate(cache.MatchKind(e.Kind))
				b.deps.Logger.Debug("refetching cache entries", "kind", e.Kind, "count", n)
			}
		}
	}
}

// States reports the state of every opened channel.
func (b *Bridge) States() map[Channel]stream.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[Channel]stream.State, len(b.subs))
	for ch, sub := range b.subs {
		out[ch] = sub.State()
	}
	return out
}

// Close closes every subscription.
func (b *Bridge) Close() {
	b.mu.Lock()
	subs := make([]*stream.Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}
}
