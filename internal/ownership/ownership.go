// Package ownership answers "which namespace is this deployment in" and
// "which replica set does it control" by walking owner references.
package ownership

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/HaPhanBaoMinh/sre/internal/domain"
)

const allNamespaces = ""

type Resolver struct {
	repo domain.ClusterRepo
	log  *zap.Logger
}

func NewResolver(repo domain.ClusterRepo, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{repo: repo, log: log.Named("ownership")}
}

// ResolveNamespace finds the namespace of the first deployment named name across all namespaces.
func (r *Resolver) ResolveNamespace(ctx context.Context, name string) (string, error) {
	deps, err := r.repo.ListDeployments(ctx, allNamespaces)
	if err != nil {
		return "", err
	}
	d, ok := lo.Find(deps, func(d domain.Deployment) bool { return d.Name == name })
	if !ok {
		return "", errors.Mark(errors.Newf("deployment %q not found in any namespace", name), domain.ErrNotFound)
	}
	r.log.Debug("resolved namespace", zap.String("deployment", name), zap.String("namespace", d.Namespace))
	return d.Namespace, nil
}

// ResolveReplicaSet returns the first replica set in ns controlled by the named deployment.
func (r *Resolver) ResolveReplicaSet(ctx context.Context, ns, deployment string) (string, error) {
	sets, err := r.repo.ListReplicaSets(ctx, ns)
	if err != nil {
		return "", err
	}
	rs, ok := lo.Find(sets, func(rs domain.ReplicaSet) bool {
		return ControlledBy(rs.Owners, "Deployment", deployment)
	})
	if !ok {
		return "", errors.Mark(errors.Newf("no replica set owned by deployment %s/%s", ns, deployment), domain.ErrNotFound)
	}
	r.log.Debug("resolved replica set", zap.String("deployment", deployment), zap.String("replicaSet", rs.Name))
	return rs.Name, nil
}

// ControllerOf picks the controlling owner out of refs.
// A single ref is taken as-is; among several, exactly one must carry the controller flag.
func ControllerOf(refs []domain.OwnerRef) (domain.OwnerRef, error) {
	switch len(refs) {
	case 0:
		return domain.OwnerRef{}, domain.ErrNoOwner
	case 1:
		return refs[0], nil
	}
	controllers := lo.Filter(refs, func(o domain.OwnerRef, _ int) bool { return o.Controller })
	if len(controllers) != 1 {
		return domain.OwnerRef{}, errors.Mark(
			errors.Newf("%d owner references, %d marked as controller", len(refs), len(controllers)),
			domain.ErrAmbiguousOwner,
		)
	}
	return controllers[0], nil
}

// ControlledBy reports whether the controlling owner in refs is kind/name.
func ControlledBy(refs []domain.OwnerRef, kind, name string) bool {
	owner, err := ControllerOf(refs)
	if err != nil {
		return false
	}
	return owner.Kind == kind && owner.Name == name
}
