package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenroute/dispatch/app"
	"github.com/greenroute/dispatch/config"
	coredispatch "github.com/greenroute/dispatch/core/dispatch"
	"github.com/greenroute/dispatch/infra/logger"
)

var (
	dispatchRequestID string
	dispatchCenterID  string
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Assign the closest eligible driver to a pending request",
	RunE:  dispatchRequest,
}

func init() {
	dispatchCmd.Flags().StringVar(&dispatchRequestID, "request", "", "pending request id")
	dispatchCmd.Flags().StringVar(&dispatchCenterID, "center", "", "sorting center id")
	_ = dispatchCmd.MarkFlagRequired("request")
	_ = dispatchCmd.MarkFlagRequired("center")
	rootCmd.AddCommand(dispatchCmd)
}

func dispatchRequest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("dispatch-command")
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	req, err := svc.Dispatcher.Assign(context.Background(), dispatchRequestID, dispatchCenterID)
	switch {
	case errors.Is(err, coredispatch.ErrNoCapacityMatch),
		errors.Is(err, coredispatch.ErrNoLocatedDriver),
		errors.Is(err, coredispatch.ErrNoConnectedDriver):
		// Matching failures are reported distinctly; the dispatcher may
		// retry manually once conditions change.
		return fmt.Errorf("no driver assigned: %w", err)
	case err != nil:
		return err
	}
	logg.Infof("request %s assigned to driver %s (%s)", req.ID, req.DriverID, req.DriverName)
	return nil
}
