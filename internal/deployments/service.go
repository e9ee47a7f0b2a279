package deployments

import (
	"context"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/HaPhanBaoMinh/sre/internal/domain"
	"github.com/HaPhanBaoMinh/sre/internal/ownership"
	"github.com/HaPhanBaoMinh/sre/internal/podstatus"
)

type Service struct {
	repo     domain.ClusterRepo
	resolver *ownership.Resolver
	log      *zap.Logger
}

func NewService(repo domain.ClusterRepo, resolver *ownership.Resolver, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, resolver: resolver, log: log.Named("deployments")}
}

// List summarises deployments in ns ("" for all namespaces) in listing order.
func (s *Service) List(ctx context.Context, ns string) ([]domain.DeploymentView, error) {
	deps, err := s.repo.ListDeployments(ctx, ns)
	if err != nil {
		return nil, err
	}
	return lo.Map(deps, func(d domain.Deployment, _ int) domain.DeploymentView {
		return summary(d)
	}), nil
}

// Info describes one deployment including its container templates. Without a namespace
// the deployment is located across the cluster first.
func (s *Service) Info(ctx context.Context, name string, namespace mo.Option[string]) (*domain.DeploymentView, error) {
	ns, ok := namespace.Get()
	if !ok {
		var err error
		if ns, err = s.resolver.ResolveNamespace(ctx, name); err != nil {
			return nil, err
		}
	}
	d, err := s.repo.GetDeployment(ctx, name, ns)
	if err != nil {
		return nil, err
	}
	v := Describe(d)
	return &v, nil
}

// Describe is the summary plus container templates, without usage.
func Describe(d domain.Deployment) domain.DeploymentView {
	v := summary(d)
	v.Containers = lo.Map(d.Containers, func(c domain.Container, _ int) domain.ContainerView {
		return podstatus.ContainerView(c, mo.None[domain.UsageSample]())
	})
	return v
}

func summary(d domain.Deployment) domain.DeploymentView {
	return domain.DeploymentView{
		Name:      d.Name,
		Namespace: d.Namespace,
		Desired:   d.Desired,
		Ready:     d.Ready,
		Available: d.Available,
	}
}
