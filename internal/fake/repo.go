package fake

import (
	"context"

	"github.com/HaPhanBaoMinh/sre/internal/domain"
)

// ClusterRepo (fake) provides a way to insert functionality into a ClusterRepo.
// Calling a method whose reactor is nil panics, so tests only set what they expect to be used.
type ClusterRepo struct {
	ListDeploymentsReactor      func(ctx context.Context, ns string) ([]domain.Deployment, error)
	GetDeploymentReactor        func(ctx context.Context, name, ns string) (domain.Deployment, error)
	PatchDeploymentScaleReactor func(ctx context.Context, name, ns string, replicas int32) error
	ReadDeploymentScaleReactor  func(ctx context.Context, name, ns string) (int32, error)
	ListReplicaSetsReactor      func(ctx context.Context, ns string) ([]domain.ReplicaSet, error)
	ListPodsReactor             func(ctx context.Context, ns string) ([]domain.Pod, error)
	ListUsageMetricsReactor     func(ctx context.Context, ns string) ([]domain.UsageSample, error)
	CheckConnectivityReactor    func(ctx context.Context) error
}

var _ domain.ClusterRepo = (*ClusterRepo)(nil)

// ListDeployments calls the fake ListDeployments function
func (f *ClusterRepo) ListDeployments(ctx context.Context, ns string) ([]domain.Deployment, error) {
	return f.ListDeploymentsReactor(ctx, ns)
}

// GetDeployment calls the fake GetDeployment function
func (f *ClusterRepo) GetDeployment(ctx context.Context, name, ns string) (domain.Deployment, error) {
	return f.GetDeploymentReactor(ctx, name, ns)
}

// PatchDeploymentScale calls the fake PatchDeploymentScale function
func (f *ClusterRepo) PatchDeploymentScale(ctx context.Context, name, ns string, replicas int32) error {
	return f.PatchDeploymentScaleReactor(ctx, name, ns, replicas)
}

// ReadDeploymentScale calls the fake ReadDeploymentScale function
func (f *ClusterRepo) ReadDeploymentScale(ctx context.Context, name, ns string) (int32, error) {
	return f.ReadDeploymentScaleReactor(ctx, name, ns)
}

// ListReplicaSets calls the fake ListReplicaSets function
func (f *ClusterRepo) ListReplicaSets(ctx context.Context, ns string) ([]domain.ReplicaSet, error) {
	return f.ListReplicaSetsReactor(ctx, ns)
}

// ListPods calls the fake ListPods function
func (f *ClusterRepo) ListPods(ctx context.Context, ns string) ([]domain.Pod, error) {
	return f.ListPodsReactor(ctx, ns)
}

// ListUsageMetrics calls the fake ListUsageMetrics function
func (f *ClusterRepo) ListUsageMetrics(ctx context.Context, ns string) ([]domain.UsageSample, error) {
	return f.ListUsageMetricsReactor(ctx, ns)
}

// CheckConnectivity calls the fake CheckConnectivity function
func (f *ClusterRepo) CheckConnectivity(ctx context.Context) error {
	return f.CheckConnectivityReactor(ctx)
}
