package k8s

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/HaPhanBaoMinh/sre/internal/domain"
)

const DefaultRequestTimeout = 30 * time.Second

type Repo struct {
	core    kubernetes.Interface
	metrics metricsclient.Interface
	timeout time.Duration
	log     *zap.Logger
}

var _ domain.ClusterRepo = (*Repo)(nil)

func New(kubeconfigPath, contextName string, timeout time.Duration, log *zap.Logger) (*Repo, error) {
	cfg, err := loadRESTConfig(kubeconfigPath, contextName)
	if err != nil {
		return nil, errors.Wrap(err, "loading cluster config")
	}
	cfg.QPS = 30
	cfg.Burst = 60
	core, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating core client")
	}
	m, err := metricsclient.NewForConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating metrics client")
	}
	return NewForClients(core, m, timeout, log), nil
}

// NewForClients wraps already-built clientsets; tests and the demo cluster pass fakes here.
func NewForClients(core kubernetes.Interface, m metricsclient.Interface, timeout time.Duration, log *zap.Logger) *Repo {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Repo{core: core, metrics: m, timeout: timeout, log: log.Named("k8s")}
}

func loadRESTConfig(kubeconfigPath, contextName string) (*rest.Config, error) {
	if kubeconfigPath == "" {
		if cfg, err := rest.InClusterConfig(); err == nil {
			return cfg, nil
		}
	}
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		loadingRules.ExplicitPath = kubeconfigPath
	}
	overrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		overrides.CurrentContext = contextName
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
}

func (r *Repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// -------- connectivity --------

func (r *Repo) CheckConnectivity(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.core.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1}); err != nil {
		return upstream(err, "listing namespaces")
	}
	r.log.Debug("cluster is reachable")
	return nil
}

// -------- deployments --------

func (r *Repo) ListDeployments(ctx context.Context, ns string) ([]domain.Deployment, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	list, err := r.core.AppsV1().Deployments(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, upstream(err, "listing deployments")
	}
	r.log.Debug("listed deployments", zap.String("namespace", ns), zap.Int("count", len(list.Items)))
	return lo.Map(list.Items, func(d appsv1.Deployment, _ int) domain.Deployment {
		return toDeployment(&d)
	}), nil
}

func (r *Repo) GetDeployment(ctx context.Context, name, ns string) (domain.Deployment, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	d, err := r.core.AppsV1().Deployments(ns).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return domain.Deployment{}, classify(err, "getting deployment %s/%s", ns, name)
	}
	return toDeployment(d), nil
}

type scalePatch struct {
	Spec struct {
		Replicas int32 `json:"replicas"`
	} `json:"spec"`
}

func (r *Repo) PatchDeploymentScale(ctx context.Context, name, ns string, replicas int32) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var p scalePatch
	p.Spec.Replicas = replicas
	body, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encoding scale patch")
	}
	if _, err := r.core.AppsV1().Deployments(ns).Patch(ctx, name, types.MergePatchType, body, metav1.PatchOptions{}); err != nil {
		return classify(err, "patching replicas of %s/%s", ns, name)
	}
	r.log.Info("patched replicas", zap.String("deployment", name), zap.String("namespace", ns), zap.Int32("replicas", replicas))
	return nil
}

// ReadDeploymentScale returns the observed replica count (status.replicas), the value the
// scale subresource reports as status.
func (r *Repo) ReadDeploymentScale(ctx context.Context, name, ns string) (int32, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	d, err := r.core.AppsV1().Deployments(ns).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return 0, classify(err, "reading replicas of %s/%s", ns, name)
	}
	return d.Status.Replicas, nil
}

// -------- replica sets / pods --------

func (r *Repo) ListReplicaSets(ctx context.Context, ns string) ([]domain.ReplicaSet, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	list, err := r.core.AppsV1().ReplicaSets(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, upstream(err, "listing replica sets")
	}
	return lo.Map(list.Items, func(rs appsv1.ReplicaSet, _ int) domain.ReplicaSet {
		return domain.ReplicaSet{
			Name:      rs.Name,
			Namespace: rs.Namespace,
			Owners:    toOwners(rs.OwnerReferences),
		}
	}), nil
}

func (r *Repo) ListPods(ctx context.Context, ns string) ([]domain.Pod, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	list, err := r.core.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, upstream(err, "listing pods")
	}
	return lo.Map(list.Items, func(p corev1.Pod, _ int) domain.Pod {
		return toPod(&p)
	}), nil
}

// -------- metrics.k8s.io --------

func (r *Repo) ListUsageMetrics(ctx context.Context, ns string) ([]domain.UsageSample, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	pms, err := r.metrics.MetricsV1beta1().PodMetricses(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "listing pod metrics"), domain.ErrMetricsUnavailable)
	}
	var out []domain.UsageSample
	for _, m := range pms.Items {
		for _, c := range m.Containers {
			out = append(out, domain.UsageSample{
				Namespace: m.Namespace,
				Pod:       m.Name,
				Container: c.Name,
				CPU:       quantityString(c.Usage, corev1.ResourceCPU),
				Memory:    quantityString(c.Usage, corev1.ResourceMemory),
			})
		}
	}
	return out, nil
}

// -------- conversion --------

func toDeployment(d *appsv1.Deployment) domain.Deployment {
	desired := int32(1)
	if d.Spec.Replicas != nil {
		desired = *d.Spec.Replicas
	}
	return domain.Deployment{
		Name:       d.Name,
		Namespace:  d.Namespace,
		Desired:    desired,
		Ready:      d.Status.ReadyReplicas,
		Available:  d.Status.AvailableReplicas,
		Created:    d.CreationTimestamp.Time,
		Containers: toContainers(d.Spec.Template.Spec.Containers),
	}
}

func toPod(p *corev1.Pod) domain.Pod {
	return domain.Pod{
		Name:      p.Name,
		Namespace: p.Namespace,
		NodeName:  p.Spec.NodeName,
		Owners:    toOwners(p.OwnerReferences),
		Phase:     domain.PodPhase(p.Status.Phase),
		Reason:    p.Status.Reason,
		Created:   p.CreationTimestamp.Time,
		Conditions: lo.Map(p.Status.Conditions, func(c corev1.PodCondition, _ int) domain.Condition {
			return domain.Condition{
				Type:    string(c.Type),
				Status:  string(c.Status),
				Reason:  c.Reason,
				Message: c.Message,
			}
		}),
		ContainerStates: lo.Map(p.Status.ContainerStatuses, func(cs corev1.ContainerStatus, _ int) domain.ContainerState {
			return toContainerState(cs)
		}),
		Containers: toContainers(p.Spec.Containers),
	}
}

func toContainerState(cs corev1.ContainerStatus) domain.ContainerState {
	st := domain.ContainerState{Name: cs.Name, State: domain.StateRunning}
	switch {
	case cs.State.Waiting != nil:
		st.State = domain.StateWaiting
		st.Reason = cs.State.Waiting.Reason
	case cs.State.Terminated != nil:
		st.State = domain.StateTerminated
		st.Reason = cs.State.Terminated.Reason
	}
	return st
}

func toContainers(cs []corev1.Container) []domain.Container {
	return lo.Map(cs, func(c corev1.Container, _ int) domain.Container {
		return domain.Container{
			Name:     c.Name,
			Image:    c.Image,
			Requests: toResources(c.Resources.Requests),
			Limits:   toResources(c.Resources.Limits),
		}
	})
}

func toResources(rl corev1.ResourceList) domain.Resources {
	return domain.Resources{
		CPU:    optionalQuantity(rl, corev1.ResourceCPU),
		Memory: optionalQuantity(rl, corev1.ResourceMemory),
	}
}

func optionalQuantity(rl corev1.ResourceList, name corev1.ResourceName) mo.Option[string] {
	q, ok := rl[name]
	if !ok {
		return mo.None[string]()
	}
	return mo.Some(q.String())
}

func quantityString(rl corev1.ResourceList, name corev1.ResourceName) string {
	q, ok := rl[name]
	if !ok {
		return ""
	}
	return q.String()
}

func toOwners(refs []metav1.OwnerReference) []domain.OwnerRef {
	return lo.Map(refs, func(o metav1.OwnerReference, _ int) domain.OwnerRef {
		return domain.OwnerRef{
			Kind:       o.Kind,
			Name:       o.Name,
			Controller: o.Controller != nil && *o.Controller,
		}
	})
}

// -------- errors --------

func upstream(err error, what string) error {
	return errors.Mark(errors.Wrap(err, what), domain.ErrUpstream)
}

func classify(err error, format string, args ...any) error {
	wrapped := errors.Wrapf(err, format, args...)
	if apierrors.IsNotFound(err) {
		return errors.Mark(wrapped, domain.ErrNotFound)
	}
	return errors.Mark(wrapped, domain.ErrUpstream)
}
