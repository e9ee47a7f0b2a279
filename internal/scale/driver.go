// Package scale patches a deployment's desired replica count and waits, bounded, for the
// observed count to follow.
package scale

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/HaPhanBaoMinh/sre/internal/clock"
	"github.com/HaPhanBaoMinh/sre/internal/domain"
	"github.com/HaPhanBaoMinh/sre/internal/ownership"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 120 * time.Second
)

type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

type Driver struct {
	repo     domain.ClusterRepo
	resolver *ownership.Resolver
	clock    clock.Clock
	opts     Options
	log      *zap.Logger
}

func NewDriver(repo domain.ClusterRepo, resolver *ownership.Resolver, clk clock.Clock, opts Options, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	if clk == nil {
		clk = clock.NewClock()
	}
	return &Driver{
		repo:     repo,
		resolver: resolver,
		clock:    clk,
		opts:     opts.withDefaults(),
		log:      log.Named("scale"),
	}
}

// Scale sets name's desired replicas to target and polls until the observed count matches or
// the timeout elapses. A timeout is reported through the outcome, not as an error.
func (d *Driver) Scale(ctx context.Context, name string, target int32, namespace mo.Option[string]) (*domain.ScaleOutcome, error) {
	if target < 0 {
		return nil, errors.Mark(errors.Newf("replicas must be >= 0, got %d", target), domain.ErrInvalidArgument)
	}
	ns, ok := namespace.Get()
	if !ok {
		var err error
		if ns, err = d.resolver.ResolveNamespace(ctx, name); err != nil {
			return nil, err
		}
	}

	if err := d.repo.PatchDeploymentScale(ctx, name, ns, target); err != nil {
		return nil, err
	}

	outcome := &domain.ScaleOutcome{Deployment: name, Namespace: ns, Target: target}
	start := d.clock.Now()
	pollCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	for {
		observed, err := d.repo.ReadDeploymentScale(pollCtx, name, ns)
		outcome.Elapsed = d.clock.Since(start)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrapf(ctx.Err(), "waiting for %s/%s to scale", ns, name)
			}
			if pollCtx.Err() != nil {
				return d.timedOut(outcome), nil
			}
			return nil, err
		}
		outcome.Polls++
		outcome.Observed = observed
		d.log.Debug("polled replicas",
			zap.String("deployment", name),
			zap.Int32("observed", observed),
			zap.Int32("target", target),
			zap.Int("poll", outcome.Polls),
		)
		if observed == target {
			outcome.Status = domain.ScaleConverged
			d.log.Info("scale converged", zap.String("deployment", name), zap.Duration("elapsed", outcome.Elapsed))
			return outcome, nil
		}
		remaining := d.opts.Timeout - outcome.Elapsed
		if remaining <= 0 {
			return d.timedOut(outcome), nil
		}
		if err := d.clock.Sleep(pollCtx, min(d.opts.PollInterval, remaining)); err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrapf(ctx.Err(), "waiting for %s/%s to scale", ns, name)
			}
			outcome.Elapsed = d.clock.Since(start)
			return d.timedOut(outcome), nil
		}
	}
}

func (d *Driver) timedOut(o *domain.ScaleOutcome) *domain.ScaleOutcome {
	o.Status = domain.ScaleTimedOut
	d.log.Warn("scale did not converge in time",
		zap.String("deployment", o.Deployment),
		zap.Int32("observed", o.Observed),
		zap.Int32("target", o.Target),
		zap.Duration("elapsed", o.Elapsed),
	)
	return o
}
