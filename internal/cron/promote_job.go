package cron

import (
	"context"
	"fmt"

	"github.com/tapline/sugarhouse-backend/pkg/logger"
)

// PromoteJobParams configure the preorder promotion sweep.
type PromoteJobParams struct {
	Logger   *logger.Logger
	Promoter preorderPromoter
}

type preorderPromoter interface {
	PromotePreorders(ctx context.Context) (int64, error)
}

// NewPromoteJob builds the job that releases due preorder entitlements.
func NewPromoteJob(params PromoteJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Promoter == nil {
		return nil, fmt.Errorf("entitlement service required")
	}
	return &promoteJob{logg: params.Logger, promoter: params.Promoter}, nil
}

type promoteJob struct {
	logg     *logger.Logger
	promoter preorderPromoter
}

func (j *promoteJob) Name() string { return "preorder-promote" }

func (j *promoteJob) Run(ctx context.Context) error {
	promoted, err := j.promoter.PromotePreorders(ctx)
	if err != nil {
		return fmt.Errorf("promote due preorders: %w", err)
	}
	if promoted > 0 {
		logCtx := j.logg.WithField(ctx, "count", promoted)
		j.logg.Info(logCtx, "preorder entitlements released")
	}
	return nil
}
