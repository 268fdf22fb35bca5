// Package app wires the engines, the session and the collaborators into
// one service with a defined lifecycle: built at startup, logged in at
// session start, torn down at shutdown.
package app

import (
	"context"
	"fmt"

	"github.com/greenroute/dispatch/config"
	"github.com/greenroute/dispatch/core/consolidation"
	"github.com/greenroute/dispatch/core/dispatch"
	coremetrics "github.com/greenroute/dispatch/core/metrics"
	"github.com/greenroute/dispatch/core/mission"
	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/notify"
	"github.com/greenroute/dispatch/core/session"
	"github.com/greenroute/dispatch/core/store"
	syncsched "github.com/greenroute/dispatch/core/sync"
	"github.com/greenroute/dispatch/infra/logger"
	"github.com/greenroute/dispatch/infra/metrics"
	"github.com/greenroute/dispatch/infra/mqtt"
	"github.com/greenroute/dispatch/infra/platform"
	"github.com/greenroute/dispatch/infra/routing"
	"github.com/greenroute/dispatch/internal/eventbus"
)

// locationCellPrecision is the geohash precision used to tag driver
// telemetry points.
const locationCellPrecision = 7

// Service orchestrates the dispatch engines and their collaborators.
type Service struct {
	Session      *session.Session
	Store        store.Store
	Tracker      *navigationTracker
	Dispatcher   *dispatch.Manager
	Missions     *mission.Engine
	Consolidator *consolidation.Engine
	Scheduler    *syncsched.Scheduler

	cfg         *config.Config
	log         logger.Logger
	notifyBus   *eventbus.Bus[notify.Event]
	dispatchBus *eventbus.Bus[dispatch.Event]
	missionBus  *eventbus.Bus[mission.Event]
	publisher   notify.Publisher
	pubClose    func()
	sink        coremetrics.Sink
	sinkClose   func()
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	sess := session.New()

	st, err := platform.NewClient(cfg.Platform, sess, logger.New("platform"))
	if err != nil {
		return nil, fmt.Errorf("platform client: %w", err)
	}
	return build(cfg, sess, st, logg)
}

// NewWithStore creates a Service over an injected store, used by the CLI
// one-shot commands and tests.
func NewWithStore(cfg *config.Config, st store.Store) (*Service, error) {
	return build(cfg, session.New(), st, logger.New("service"))
}

func build(cfg *config.Config, sess *session.Session, st store.Store, logg logger.Logger) (*Service, error) {
	svc := &Service{
		Session:     sess,
		Store:       st,
		cfg:         cfg,
		log:         logg,
		notifyBus:   eventbus.New[notify.Event](),
		dispatchBus: eventbus.New[dispatch.Event](),
		missionBus:  eventbus.New[mission.Event](),
		publisher:   notify.NopPublisher{},
		sink:        coremetrics.NopSink{},
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics, logger.New("influx-sink"))
		if closer, ok := sink.(*metrics.InfluxSink); ok {
			svc.sinkClose = closer.Close
		}
		sinks = append(sinks, sink)
	}
	if len(sinks) == 1 {
		svc.sink = sinks[0]
	} else if len(sinks) > 1 {
		svc.sink = metrics.NewMultiSink(sinks...)
	}

	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewNotificationPublisher(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
		svc.pubClose = pub.Close
	}

	svc.Tracker = newNavigationTracker(cfg.Navigation, sess, st, svc.sink, logger.New("navigation"))
	sess.OnLogout(svc.Tracker.Stop)

	planner := routing.GuardedPlanner{
		Planner: routing.NewClient(cfg.Routing, logger.New("routing")),
		Guard:   sess,
	}

	dispatcher, err := dispatch.NewManager(dispatch.ConnectionDriverFilter{}, st,
		svc.dispatchBus, logger.New("dispatch"), svc.sink)
	if err != nil {
		return nil, fmt.Errorf("dispatch manager: %w", err)
	}
	svc.Dispatcher = dispatcher

	missions, err := mission.NewEngine(st, planner, svc.Tracker, svc.missionBus,
		logger.New("mission"), cfg.Navigation.SpeedKmh)
	if err != nil {
		return nil, fmt.Errorf("mission engine: %w", err)
	}
	svc.Missions = missions

	consolidator, err := consolidation.NewEngine(st, logger.New("consolidation"))
	if err != nil {
		return nil, fmt.Errorf("consolidation engine: %w", err)
	}
	svc.Consolidator = consolidator

	scheduler, err := syncsched.NewScheduler(st, sess, svc.notifyBus, logger.New("sync"), svc.sink, cfg.Sync)
	if err != nil {
		return nil, fmt.Errorf("sync scheduler: %w", err)
	}
	svc.Scheduler = scheduler
	return svc, nil
}

// Login authenticates the session as the configured user by resolving it
// against the platform.
func (s *Service) Login(ctx context.Context) error {
	if s.cfg.Platform.UserID == "" {
		return fmt.Errorf("app: platform.user_id is required to start a session")
	}
	users, err := s.Store.Users(ctx)
	if err != nil {
		return fmt.Errorf("resolve session user: %w", err)
	}
	for _, u := range users {
		if u.ID == s.cfg.Platform.UserID {
			s.Session.Login(u, s.cfg.Platform.Token)
			s.log.Infof("session started for %s (%s)", u.Name, u.Role)
			return nil
		}
	}
	return fmt.Errorf("app: user %s not found on platform", s.cfg.Platform.UserID)
}

// Run starts the sync loop and the notification pump and blocks until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Login(ctx); err != nil {
		return err
	}
	go s.Scheduler.Run(ctx)
	go s.pumpNotifications(ctx)
	go s.pumpTransitions(ctx)
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// pumpNotifications forwards sync notification events to the best-effort
// push channel.
func (s *Service) pumpNotifications(ctx context.Context) {
	sub := s.notifyBus.Subscribe()
	defer s.notifyBus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := s.publisher.Publish(ev); err != nil {
				s.log.Warnf("notification publish failed: %v", err)
			}
		}
	}
}

// pumpTransitions feeds assignment and lifecycle events from both engine
// buses into the metrics sink.
func (s *Service) pumpTransitions(ctx context.Context) {
	rec, ok := s.sink.(coremetrics.TransitionRecorder)
	if !ok {
		return
	}
	assigned := s.dispatchBus.Subscribe()
	defer s.dispatchBus.Unsubscribe(assigned)
	lifecycle := s.missionBus.Subscribe()
	defer s.missionBus.Unsubscribe(lifecycle)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-assigned:
			if !ok {
				return
			}
			s.recordTransition(rec, coremetrics.TransitionEvent{
				RequestID: ev.RequestID,
				Status:    model.StatusAssigned,
				Time:      ev.AssignedAt,
			})
		case ev, ok := <-lifecycle:
			if !ok {
				return
			}
			s.recordTransition(rec, coremetrics.TransitionEvent{
				RequestID: ev.RequestID,
				Status:    ev.Status,
				Time:      ev.Time,
			})
		}
	}
}

func (s *Service) recordTransition(rec coremetrics.TransitionRecorder, ev coremetrics.TransitionEvent) {
	if err := rec.RecordTransition(ev); err != nil {
		s.log.Errorf("record transition for %s: %v", ev.RequestID, err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Tracker.Stop()
	s.notifyBus.Close()
	s.dispatchBus.Close()
	s.missionBus.Close()
	if s.pubClose != nil {
		s.pubClose()
	}
	if s.sinkClose != nil {
		s.sinkClose()
	}
	return nil
}
