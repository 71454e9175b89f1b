// Package platformcron provides utilities for building scheduled Lambda
// functions.
package platformcron

import (
	"context"
	"encoding/json"

	platformcli "github.com/Abhinav-Kukreti/analytics-platform/platform-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
)

type RunCallback func(ctx context.Context) error

type Handler struct {
	service platformcli.Service
	logger  zerolog.Logger

	runOnce RunCallback
}

func NewHandler(
	service platformcli.Service,
	runOnce RunCallback,
) *Handler {
	return &Handler{
		service: service,
		logger:  platformcli.Logger(service),
		runOnce: runOnce,
	}
}

func (h *Handler) RunOnce(ctx context.Context, _ json.RawMessage) error {
	h.logger.Info().Msg("running scheduled task")
	return h.runOnce(ctx)
}

func (h *Handler) Start() error {
	switch {
	case platformcli.CommonOpts.Console:
		return h.runOnce(context.Background())

	default:
		lambda.Start(h.RunOnce)
	}
	return nil
}
