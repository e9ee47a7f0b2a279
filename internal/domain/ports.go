package domain

import "context"

// ClusterRepo is the narrow view of the cluster API the engine works against.
// An empty namespace means all namespaces.
type ClusterRepo interface {
	ListDeployments(ctx context.Context, ns string) ([]Deployment, error)
	GetDeployment(ctx context.Context, name, ns string) (Deployment, error)
	PatchDeploymentScale(ctx context.Context, name, ns string, replicas int32) error
	ReadDeploymentScale(ctx context.Context, name, ns string) (int32, error)
	ListReplicaSets(ctx context.Context, ns string) ([]ReplicaSet, error)
	ListPods(ctx context.Context, ns string) ([]Pod, error)
	ListUsageMetrics(ctx context.Context, ns string) ([]UsageSample, error)
	CheckConnectivity(ctx context.Context) error
}
