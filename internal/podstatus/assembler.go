// Package podstatus builds per-pod diagnostic records for the pods of one replica set,
// joining the pod listing with best-effort usage metrics.
package podstatus

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HaPhanBaoMinh/sre/internal/domain"
	"github.com/HaPhanBaoMinh/sre/internal/ownership"
	"github.com/HaPhanBaoMinh/sre/internal/quantity"
)

type Assembler struct {
	repo domain.ClusterRepo
	log  *zap.Logger
}

func NewAssembler(repo domain.ClusterRepo, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{repo: repo, log: log.Named("podstatus")}
}

type usageKey struct {
	pod, container string
}

// ListPodStatuses returns the pods controlled by replicaSet in ns, optionally narrowed to one pod name.
// A metrics failure never fails the call: usage is left empty and the cause is kept on the set.
func (a *Assembler) ListPodStatuses(ctx context.Context, ns, replicaSet string, podFilter mo.Option[string]) (*domain.PodStatusSet, error) {
	var (
		pods       []domain.Pod
		samples    []domain.UsageSample
		metricsErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pods, err = a.repo.ListPods(gctx, ns)
		return err
	})
	g.Go(func() error {
		samples, metricsErr = a.repo.ListUsageMetrics(gctx, ns)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &domain.PodStatusSet{Pods: []domain.PodView{}}
	usage := map[usageKey]domain.UsageSample{}
	if metricsErr != nil {
		a.log.Warn("usage metrics unavailable", zap.String("namespace", ns), zap.Error(metricsErr))
		set.MetricsError = mo.Some(metricsErr.Error())
	} else {
		usage = lo.KeyBy(samples, func(s domain.UsageSample) usageKey {
			return usageKey{pod: s.Pod, container: s.Container}
		})
	}

	for _, p := range pods {
		if !ownership.ControlledBy(p.Owners, "ReplicaSet", replicaSet) {
			continue
		}
		if name, ok := podFilter.Get(); ok && p.Name != name {
			continue
		}
		set.Pods = append(set.Pods, podView(p, usage))
	}
	a.log.Debug("assembled pod statuses",
		zap.String("namespace", ns),
		zap.String("replicaSet", replicaSet),
		zap.Int("pods", len(set.Pods)),
	)
	return set, nil
}

func podView(p domain.Pod, usage map[usageKey]domain.UsageSample) domain.PodView {
	v := domain.PodView{
		Name:       p.Name,
		Namespace:  p.Namespace,
		Node:       p.NodeName,
		Phase:      p.Phase,
		Reason:     p.Reason,
		Conditions: p.Conditions,
		Containers: lo.Map(p.Containers, func(c domain.Container, _ int) domain.ContainerView {
			sample, ok := usage[usageKey{pod: p.Name, container: c.Name}]
			return ContainerView(c, mo.TupleToOption(sample, ok))
		}),
	}
	if v.Conditions == nil {
		v.Conditions = []domain.Condition{}
	}
	if !p.Created.IsZero() {
		t := p.Created.UTC().Truncate(time.Second)
		v.StartTime = &t
	}
	for _, s := range p.ContainerStates {
		if s.State == domain.StateWaiting || s.State == domain.StateTerminated {
			v.ContainerIssues = append(v.ContainerIssues, lo.Ternary(s.Reason == "", string(s.State), s.Reason))
		}
	}
	return v
}

// ContainerView renders a container's requests/limits and, when a sample is present, its usage
// and utilization against the requests.
func ContainerView(c domain.Container, sample mo.Option[domain.UsageSample]) domain.ContainerView {
	v := domain.ContainerView{
		Name:              c.Name,
		Image:             c.Image,
		CPURequest:        c.Requests.CPU.OrElse(domain.NotAvailable),
		CPULimit:          c.Limits.CPU.OrElse(domain.NotAvailable),
		MemoryRequest:     c.Requests.Memory.OrElse(domain.NotAvailable),
		MemoryLimit:       c.Limits.Memory.OrElse(domain.NotAvailable),
		CPUUsage:          mo.None[string](),
		MemoryUsage:       mo.None[string](),
		CPUUtilization:    mo.None[float64](),
		MemoryUtilization: mo.None[float64](),
	}
	s, ok := sample.Get()
	if !ok {
		return v
	}
	if s.CPU != "" {
		v.CPUUsage = mo.Some(s.CPU)
		if req, ok := c.Requests.CPU.Get(); ok {
			v.CPUUtilization = quantity.Utilization(s.CPU, req, quantity.CPUToCores)
		}
	}
	if s.Memory != "" {
		v.MemoryUsage = mo.Some(s.Memory)
		if req, ok := c.Requests.Memory.Get(); ok {
			v.MemoryUtilization = quantity.Utilization(s.Memory, req, quantity.MemoryToBytes)
		}
	}
	return v
}
