// Package diagnose composes a deployment health report: the deployment summary, the
// status of its current pods, and notes for anything that could not be gathered.
package diagnose

import (
	"context"

	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/HaPhanBaoMinh/sre/internal/deployments"
	"github.com/HaPhanBaoMinh/sre/internal/domain"
	"github.com/HaPhanBaoMinh/sre/internal/ownership"
	"github.com/HaPhanBaoMinh/sre/internal/podstatus"
)

// Stage names used on report notes.
const (
	StageReplicaSet = "replicaset"
	StagePods       = "pods"
	StageMetrics    = "metrics"
)

type Aggregator struct {
	repo      domain.ClusterRepo
	resolver  *ownership.Resolver
	assembler *podstatus.Assembler
	log       *zap.Logger
}

func NewAggregator(repo domain.ClusterRepo, resolver *ownership.Resolver, assembler *podstatus.Assembler, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{repo: repo, resolver: resolver, assembler: assembler, log: log.Named("diagnose")}
}

// Diagnose returns an error only when the deployment itself cannot be located or read.
// Later failures become notes on an otherwise complete report.
func (a *Aggregator) Diagnose(ctx context.Context, name string, namespace, pod mo.Option[string]) (*domain.Report, error) {
	ns, ok := namespace.Get()
	if !ok {
		var err error
		if ns, err = a.resolver.ResolveNamespace(ctx, name); err != nil {
			return nil, err
		}
	}
	d, err := a.repo.GetDeployment(ctx, name, ns)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{Deployment: deployments.Describe(d), Pods: []domain.PodView{}}

	rs, err := a.resolver.ResolveReplicaSet(ctx, ns, name)
	if err != nil {
		a.log.Warn("replica set lookup failed", zap.String("deployment", name), zap.Error(err))
		report.AddNote(domain.SeverityError, StageReplicaSet, err.Error())
		return report, nil
	}

	set, err := a.assembler.ListPodStatuses(ctx, ns, rs, pod)
	if err != nil {
		a.log.Warn("pod status lookup failed", zap.String("replicaSet", rs), zap.Error(err))
		report.AddNote(domain.SeverityError, StagePods, err.Error())
		return report, nil
	}
	report.Pods = set.Pods
	if msg, ok := set.MetricsError.Get(); ok {
		report.AddNote(domain.SeverityWarning, StageMetrics, msg)
	}
	if p, ok := pod.Get(); ok && len(set.Pods) == 0 {
		report.AddNote(domain.SeverityWarning, StagePods, "pod "+p+" is not part of replica set "+rs)
	}
	return report, nil
}
