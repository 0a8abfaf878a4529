package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/HyperCogAI/alertkit/pkg/alerts"
	"github.com/HyperCogAI/alertkit/pkg/channels"
	"github.com/HyperCogAI/alertkit/pkg/journal"
	"github.com/HyperCogAI/alertkit/pkg/logger"
	"github.com/HyperCogAI/alertkit/pkg/market"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
	"github.com/HyperCogAI/alertkit/pkg/prefs"
	"github.com/HyperCogAI/alertkit/pkg/stats"
)

// Persistence bundles the optional durable backends. Any nil field
// simply disables write-behind for that concern.
type Persistence struct {
	Alerts        alerts.Persister
	Notifications notifier.Persister
	Preferences   prefs.Persister
	Channels      channels.Persister
}

// Deps are the collaborators the engine wires together. Feed and
// ChannelRegistry are required; the rest default to fresh in-memory
// instances when nil.
type Deps struct {
	Feed            market.Feed
	ChannelRegistry *channels.Registry
	Catalog         *prefs.Catalog
	Persistence     Persistence
	Logger          *slog.Logger
	Config          Config
}

type dispatchJob struct {
	notification notifier.Notification
	policy       prefs.EffectivePolicy
}

// Engine is the façade over the alert and notification core.
type Engine struct {
	cfg      Config
	feed     market.Feed
	registry *alerts.Registry
	alertSvc *alerts.Service
	eval     *alerts.Evaluator
	store    *notifier.Store
	catalog  *prefs.Catalog
	prefSt   *prefs.Store
	resolver *prefs.Resolver
	chanReg  *channels.Registry
	router   *channels.Router
	agg      *stats.Aggregator
	journal  *journal.Journal
	persist  Persistence
	log      *slog.Logger

	dispatch chan dispatchJob

	mu          sync.Mutex
	subscribed  map[string]struct{}
	runCtx      context.Context
	instrumentG *errgroup.Group
}

// New wires an engine from its dependencies. Call Run to start it.
func New(deps Deps) *Engine {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = prefs.DefaultCatalog()
	}
	chanReg := deps.ChannelRegistry
	if chanReg == nil {
		chanReg = channels.NewRegistry()
	}

	e := &Engine{
		cfg:        deps.Config.withDefaults(),
		feed:       deps.Feed,
		registry:   alerts.NewRegistry(),
		catalog:    catalog,
		chanReg:    chanReg,
		persist:    deps.Persistence,
		log:        log,
		journal:    journal.New(journal.WithLogger(log)),
		subscribed: make(map[string]struct{}),
	}
	e.dispatch = make(chan dispatchJob, e.cfg.DispatchQueueSize)

	e.alertSvc = alerts.NewService(e.registry,
		alerts.WithServiceLogger(log),
		alerts.WithChangeHook(e.journalAlertChange),
	)
	e.eval = alerts.NewEvaluator(e.registry, e.onTrigger, alerts.WithEvaluatorLogger(log))

	e.store = notifier.NewStore(
		notifier.WithStoreLogger(log),
		notifier.WithStoreChangeHook(e.journalNotificationChange),
	)
	e.prefSt = prefs.NewStore(catalog, prefs.WithChangeHook(e.journalPreferenceChange))
	e.resolver = prefs.NewResolver(catalog, e.prefSt)
	e.router = channels.NewRouter(chanReg, channels.WithRouterLogger(log))
	e.agg = stats.NewAggregator(e.store, stats.WithLogger(log))

	// Attach the aggregator before any write can publish an event, so
	// stats never miss the head of the stream; the subscription lives
	// until the store closes at shutdown. The store was just created,
	// so this cannot fail.
	_ = e.agg.Attach(context.Background())

	return e
}

// Reconcile loads persisted state into the in-memory stores. Call once
// before Run; safe to skip when persistence is not configured.
func (e *Engine) Reconcile(ctx context.Context) error {
	if e.persist.Alerts != nil {
		loaded, err := e.persist.Alerts.ListAll(ctx)
		if err != nil {
			return err
		}
		e.registry.Load(loaded)
	}
	if e.persist.Notifications != nil {
		loaded, err := e.persist.Notifications.ListAll(ctx)
		if err != nil {
			return err
		}
		e.store.Load(loaded)
	}
	if e.persist.Preferences != nil {
		loaded, err := e.persist.Preferences.ListAll(ctx)
		if err != nil {
			return err
		}
		e.prefSt.Load(loaded)
	}
	if e.persist.Channels != nil {
		loaded, err := e.persist.Channels.ListAll(ctx)
		if err != nil {
			return err
		}
		// Adapters are registered by the caller; only the kill-switch
		// state is restored here.
		for _, row := range loaded {
			current, ok := e.chanReg.Get(row.ID)
			if !ok || current.Enabled == row.Enabled {
				continue
			}
			if _, err := e.chanReg.SetEnabled(ctx, row.ID, row.Enabled); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run starts the journal, stats aggregator, delivery workers, and one
// evaluation worker per instrument with registered alerts. Blocks until
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	e.mu.Lock()
	e.runCtx = gctx
	e.instrumentG = g
	instruments := e.registry.Instruments()
	e.mu.Unlock()

	g.Go(func() error { return e.journal.Run(gctx) })
	g.Go(func() error {
		err := e.agg.Run(gctx)
		if errors.Is(err, notifier.ErrStoreClosed) {
			return nil
		}
		return err
	})

	for range e.cfg.DeliveryWorkers {
		g.Go(func() error { return e.deliveryWorker(gctx) })
	}

	// Instruments that had alerts before Run (e.g. after Reconcile).
	for _, instrument := range instruments {
		e.ensureSubscribed(instrument)
	}

	<-gctx.Done()
	_ = e.store.Close()
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// deliveryWorker drains dispatch jobs through the router and records
// what was attempted against the notification.
func (e *Engine) deliveryWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-e.dispatch:
			result := e.router.Dispatch(ctx, job.notification, job.policy)
			if len(result.Attempted) == 0 {
				continue
			}
			if err := e.store.RecordDelivery(ctx, job.notification.ID, result.Attempted); err != nil &&
				!errors.Is(err, notifier.ErrNotFound) && !errors.Is(err, notifier.ErrStoreClosed) {
				e.log.ErrorContext(ctx, "failed to record delivery",
					logger.Component("engine"),
					logger.NotificationID(job.notification.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// ensureSubscribed starts the per-instrument evaluation worker exactly
// once. One goroutine per instrument keeps per-alert evaluation
// serialized with respect to its own tick stream.
func (e *Engine) ensureSubscribed(instrumentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runCtx == nil {
		// Run not started yet; Run subscribes everything registered.
		return
	}
	if _, ok := e.subscribed[instrumentID]; ok {
		return
	}
	e.subscribed[instrumentID] = struct{}{}

	ctx := e.runCtx
	e.instrumentG.Go(func() error {
		ticks, err := e.feed.Subscribe(ctx, instrumentID)
		if err != nil {
			e.log.ErrorContext(ctx, "tick subscription failed",
				logger.Component("engine"),
				logger.InstrumentID(instrumentID),
				logger.Error(err),
			)
			return nil
		}
		for tick := range ticks {
			e.eval.OnTick(ctx, tick)
		}
		return nil
	})
}

// onTrigger handles one fired alert: journal the terminal state, create
// the notification synchronously, then hand delivery to the worker pool.
func (e *Engine) onTrigger(ctx context.Context, trigger alerts.Trigger) {
	e.journalAlertChange(ctx, alerts.Change{Op: alerts.ChangeUpserted, Alert: trigger.Alert})

	typeID, priority := notificationFor(trigger.Alert.Condition)
	n, err := e.store.Create(ctx, notifier.CreateParams{
		UserID:   trigger.Alert.UserID,
		Type:     typeID,
		Category: notifier.CategoryTrading,
		Priority: priority,
		Title:    "Price alert triggered: " + trigger.Alert.InstrumentID,
		Message:  triggerMessage(trigger),
		Payload: notifier.NewAlertTriggeredPayload(notifier.AlertTriggeredPayload{
			AlertID:        trigger.Alert.ID.String(),
			InstrumentID:   trigger.Alert.InstrumentID,
			Condition:      string(trigger.Alert.Condition),
			Target:         trigger.Alert.Target,
			ObservedPrice:  trigger.Tick.Price,
			ObservedVolume: trigger.Tick.Volume,
			TriggeredAt:    trigger.Tick.Timestamp,
		}),
	})
	if err != nil {
		e.log.ErrorContext(ctx, "failed to create trigger notification",
			logger.Component("engine"),
			logger.AlertID(trigger.Alert.ID),
			logger.Error(err),
		)
		return
	}

	policy, err := e.resolver.Resolve(n.UserID, typeID, n.CreatedAt)
	if err != nil {
		e.log.ErrorContext(ctx, "failed to resolve delivery policy",
			logger.Component("engine"),
			logger.NotificationID(n.ID),
			logger.Error(err),
		)
		return
	}

	select {
	case e.dispatch <- dispatchJob{notification: n, policy: policy}:
	case <-ctx.Done():
	}
}

// notificationFor maps an alert condition to the notification type and
// priority of the resulting notification.
func notificationFor(kind alerts.ConditionKind) (string, notifier.Priority) {
	switch kind {
	case alerts.ConditionPriceAbove, alerts.ConditionPriceBelow:
		return "price_alert", notifier.PriorityHigh
	case alerts.ConditionVolumeSpike:
		return "volume_alert", notifier.PriorityMedium
	default:
		return "price_alert", notifier.PriorityMedium
	}
}

func triggerMessage(trigger alerts.Trigger) string {
	a := trigger.Alert
	switch a.Condition {
	case alerts.ConditionPriceAbove:
		return a.InstrumentID + " rose to " + trigger.Tick.Price.String() + " (target " + a.Target.String() + ")"
	case alerts.ConditionPriceBelow:
		return a.InstrumentID + " fell to " + trigger.Tick.Price.String() + " (target " + a.Target.String() + ")"
	case alerts.ConditionPercentChange:
		return a.InstrumentID + " moved " + a.Target.String() + "% from baseline " + a.Baseline.String()
	case alerts.ConditionVolumeSpike:
		return a.InstrumentID + " volume spiked to " + trigger.Tick.Volume.String()
	}
	return a.InstrumentID + " alert condition met"
}

// journal hooks

func (e *Engine) journalAlertChange(_ context.Context, change alerts.Change) {
	if e.persist.Alerts == nil {
		return
	}
	p := e.persist.Alerts
	switch change.Op {
	case alerts.ChangeUpserted:
		a := change.Alert
		e.journal.Record("upsert alert", func(ctx context.Context) error {
			return p.Upsert(ctx, a)
		})
	case alerts.ChangeDeleted:
		id := change.Alert.ID
		e.journal.Record("delete alert", func(ctx context.Context) error {
			return p.Delete(ctx, id)
		})
	}
}

func (e *Engine) journalNotificationChange(_ context.Context, change notifier.Change) {
	if e.persist.Notifications == nil {
		return
	}
	p := e.persist.Notifications
	switch change.Op {
	case notifier.ChangeUpserted:
		n := change.Notification
		e.journal.Record("upsert notification", func(ctx context.Context) error {
			return p.Upsert(ctx, n)
		})
	case notifier.ChangeDeleted:
		id := change.Notification.ID
		e.journal.Record("delete notification", func(ctx context.Context) error {
			return p.Delete(ctx, id)
		})
	}
}

func (e *Engine) journalPreferenceChange(_ context.Context, pref prefs.Preference) {
	if e.persist.Preferences == nil {
		return
	}
	p := e.persist.Preferences
	e.journal.Record("upsert preference", func(ctx context.Context) error {
		return p.Upsert(ctx, pref)
	})
}
