// Package mock serves a small canned cluster through fake clientsets so every command can be
// tried without a real API server.
package mock

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	k8sfake "k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"

	"github.com/HaPhanBaoMinh/sre/internal/infrastructure/k8s"
)

var deploymentsGVR = appsv1.SchemeGroupVersion.WithResource("deployments")

type workload struct {
	name, namespace, hash, image string
	replicas                     int32
	cpuReq, memReq               string
	memLimit                     string
	pods                         []pod
}

type pod struct {
	suffix, node string
	waiting      string // container waiting reason, "" when running
}

var workloads = []workload{
	{
		name: "api", namespace: "default", hash: "7cfb9d9c9c", image: "ghcr.io/acme/api:1.8.3",
		replicas: 2, cpuReq: "100m", memReq: "256Mi", memLimit: "1Gi",
		pods: []pod{{"9tghd", "ip-10-0-1-5", ""}, {"sj2lq", "ip-10-0-1-12", ""}},
	},
	{
		name: "worker", namespace: "default", hash: "5f7dcbffd6", image: "ghcr.io/acme/worker:2.1.0",
		replicas: 1, cpuReq: "250m", memReq: "512Mi",
		pods: []pod{{"2jqkz", "ip-10-0-2-3", "CrashLoopBackOff"}},
	},
	{
		name: "cart", namespace: "staging", hash: "6d79f8b5f7", image: "ghcr.io/acme/cart:0.9.1",
		replicas: 1, cpuReq: "100m", memReq: "256Mi", memLimit: "512Mi",
		pods: []pod{{"m2x8l", "ip-10-0-2-7", ""}},
	},
}

// New returns a kube adapter wired to the demo cluster.
func New(log *zap.Logger) *k8s.Repo {
	start := time.Now().Add(-36 * time.Hour).Truncate(time.Second)
	core := k8sfake.NewSimpleClientset(objects(start)...)
	core.PrependReactor("get", "deployments", rolloutStep(core.Tracker()))

	m := metricsfake.NewSimpleClientset()
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	m.PrependReactor("list", "pods", usage(rnd))

	return k8s.NewForClients(core, m, k8s.DefaultRequestTimeout, log)
}

// rolloutStep moves status.replicas one step toward spec.replicas on every read, so a scale
// converges over a few polls.
func rolloutStep(tracker k8stesting.ObjectTracker) k8stesting.ReactionFunc {
	return func(action k8stesting.Action) (bool, runtime.Object, error) {
		get := action.(k8stesting.GetAction)
		obj, err := tracker.Get(deploymentsGVR, get.GetNamespace(), get.GetName())
		if err != nil {
			return false, nil, nil
		}
		d := obj.(*appsv1.Deployment).DeepCopy()
		want := int32(1)
		if d.Spec.Replicas != nil {
			want = *d.Spec.Replicas
		}
		switch {
		case d.Status.Replicas < want:
			d.Status.Replicas++
		case d.Status.Replicas > want:
			d.Status.Replicas--
		default:
			return false, nil, nil
		}
		d.Status.ReadyReplicas = d.Status.Replicas
		d.Status.AvailableReplicas = d.Status.Replicas
		if err := tracker.Update(deploymentsGVR, d, d.Namespace); err != nil {
			return true, nil, err
		}
		return true, d, nil
	}
}

func usage(rnd *rand.Rand) k8stesting.ReactionFunc {
	return func(action k8stesting.Action) (bool, runtime.Object, error) {
		ns := action.GetNamespace()
		list := &metricsv1beta1.PodMetricsList{}
		for _, w := range workloads {
			if ns != "" && ns != w.namespace {
				continue
			}
			for _, p := range w.pods {
				if p.waiting != "" {
					continue
				}
				cpu := 80 + rnd.Intn(60)
				mem := 150 + rnd.Intn(120)
				list.Items = append(list.Items, metricsv1beta1.PodMetrics{
					ObjectMeta: metav1.ObjectMeta{Name: podName(w, p), Namespace: w.namespace},
					Timestamp:  metav1.Now(),
					Window:     metav1.Duration{Duration: 30 * time.Second},
					Containers: []metricsv1beta1.ContainerMetrics{{
						Name: w.name,
						Usage: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse(fmt.Sprintf("%dm", cpu)),
							corev1.ResourceMemory: resource.MustParse(fmt.Sprintf("%dMi", mem)),
						},
					}},
				})
			}
		}
		return true, list, nil
	}
}

func podName(w workload, p pod) string {
	return fmt.Sprintf("%s-%s-%s", w.name, w.hash, p.suffix)
}

func objects(start time.Time) []runtime.Object {
	isController := true
	var out []runtime.Object
	for _, ns := range []string{"default", "staging", "kube-system"} {
		out = append(out, &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: ns}})
	}
	for _, w := range workloads {
		replicas := w.replicas
		ctn := container(w)
		running := int32(len(w.pods))
		for _, p := range w.pods {
			if p.waiting != "" {
				running--
			}
		}
		out = append(out, &appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: w.name, Namespace: w.namespace, CreationTimestamp: metav1.NewTime(start)},
			Spec: appsv1.DeploymentSpec{
				Replicas: &replicas,
				Template: corev1.PodTemplateSpec{Spec: corev1.PodSpec{Containers: []corev1.Container{ctn}}},
			},
			Status: appsv1.DeploymentStatus{
				Replicas:          replicas,
				ReadyReplicas:     running,
				AvailableReplicas: running,
			},
		})
		rsName := w.name + "-" + w.hash
		out = append(out, &appsv1.ReplicaSet{ObjectMeta: metav1.ObjectMeta{
			Name:      rsName,
			Namespace: w.namespace,
			OwnerReferences: []metav1.OwnerReference{
				{APIVersion: "apps/v1", Kind: "Deployment", Name: w.name, Controller: &isController},
			},
		}})
		for i, p := range w.pods {
			out = append(out, podObject(w, p, rsName, ctn, start.Add(time.Duration(i)*time.Minute)))
		}
	}
	return out
}

func container(w workload) corev1.Container {
	c := corev1.Container{
		Name:  w.name,
		Image: w.image,
		Resources: corev1.ResourceRequirements{
			Requests: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse(w.cpuReq),
				corev1.ResourceMemory: resource.MustParse(w.memReq),
			},
		},
	}
	if w.memLimit != "" {
		c.Resources.Limits = corev1.ResourceList{corev1.ResourceMemory: resource.MustParse(w.memLimit)}
	}
	return c
}

func podObject(w workload, p pod, rsName string, ctn corev1.Container, created time.Time) *corev1.Pod {
	isController := true
	ready := corev1.ConditionTrue
	state := corev1.ContainerState{Running: &corev1.ContainerStateRunning{StartedAt: metav1.NewTime(created)}}
	if p.waiting != "" {
		ready = corev1.ConditionFalse
		state = corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: p.waiting}}
	}
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:              podName(w, p),
			Namespace:         w.namespace,
			CreationTimestamp: metav1.NewTime(created),
			OwnerReferences: []metav1.OwnerReference{
				{APIVersion: "apps/v1", Kind: "ReplicaSet", Name: rsName, Controller: &isController},
			},
		},
		Spec: corev1.PodSpec{NodeName: p.node, Containers: []corev1.Container{ctn}},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodScheduled, Status: corev1.ConditionTrue},
				{Type: corev1.ContainersReady, Status: ready},
				{Type: corev1.PodReady, Status: ready},
			},
			ContainerStatuses: []corev1.ContainerStatus{{Name: ctn.Name, Ready: ready == corev1.ConditionTrue, State: state}},
		},
	}
}
