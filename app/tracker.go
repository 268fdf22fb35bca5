package app

import (
	"context"
	"time"

	"github.com/greenroute/dispatch/core/geo"
	corelogger "github.com/greenroute/dispatch/core/logger"
	coremetrics "github.com/greenroute/dispatch/core/metrics"
	"github.com/greenroute/dispatch/core/model"
	"github.com/greenroute/dispatch/core/session"
	"github.com/greenroute/dispatch/core/store"
	"github.com/greenroute/dispatch/navigation"
)

// navigationTracker couples the watcher slot with its side effects: every
// position fix updates the driver's location on the platform and feeds the
// telemetry sink.
type navigationTracker struct {
	*navigation.Tracker
}

func newNavigationTracker(cfg navigation.Config, sess *session.Session, st store.Store, sink coremetrics.Sink, log corelogger.Logger) *navigationTracker {
	lr, hasLR := sink.(coremetrics.LocationRecorder)

	onUpdate := func(missionID string, pos model.LatLng, _ int, simulated bool) {
		user, ok := sess.User()
		if !ok || user.Role != model.RoleDriver {
			return
		}
		user.Location = &pos
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.UpdateUser(ctx, user); err != nil {
			log.Warnf("location update for %s failed: %v", user.ID, err)
		}
		if hasLR {
			if err := lr.RecordDriverLocation(coremetrics.LocationEvent{
				DriverID:  user.ID,
				MissionID: missionID,
				Position:  pos,
				Cell:      geo.Cell(pos, locationCellPrecision),
				Simulated: simulated,
				Time:      time.Now(),
			}); err != nil {
				log.Errorf("location metrics error: %v", err)
			}
		}
	}
	onFinish := func(missionID string) {
		log.Infof("navigation for mission %s finished", missionID)
	}
	return &navigationTracker{Tracker: navigation.NewTracker(cfg, log, onUpdate, onFinish)}
}
