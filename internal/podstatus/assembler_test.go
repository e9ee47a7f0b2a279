package podstatus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/mo"

	"github.com/HaPhanBaoMinh/sre/internal/domain"
	"github.com/HaPhanBaoMinh/sre/internal/fake"
)

var _ = Describe("Assembler", func() {
	var (
		repo      *fake.ClusterRepo
		assembler *Assembler
		pods      []domain.Pod
		samples   []domain.UsageSample
		metrics   error
		created   = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	)

	ownedBy := func(rs string) []domain.OwnerRef {
		return []domain.OwnerRef{{Kind: "ReplicaSet", Name: rs, Controller: true}}
	}

	apiContainer := domain.Container{
		Name:  "api",
		Image: "registry.local/api:1.4.2",
		Requests: domain.Resources{
			CPU:    mo.Some("500m"),
			Memory: mo.Some("128Mi"),
		},
		Limits: domain.Resources{
			CPU:    mo.Some("1"),
			Memory: mo.None[string](),
		},
	}

	BeforeEach(func() {
		pods = []domain.Pod{
			{
				Name:       "api-7cfb9d9c9c-9tghd",
				Namespace:  "prod",
				NodeName:   "ip-10-0-1-5",
				Owners:     ownedBy("api-7cfb9d9c9c"),
				Phase:      domain.PodRunning,
				Created:    created,
				Conditions: []domain.Condition{{Type: "Ready", Status: "True"}},
				ContainerStates: []domain.ContainerState{
					{Name: "api", State: domain.StateRunning},
				},
				Containers: []domain.Container{apiContainer},
			},
			{
				Name:      "api-7cfb9d9c9c-sj2lq",
				Namespace: "prod",
				Owners:    ownedBy("api-7cfb9d9c9c"),
				Phase:     domain.PodPending,
				ContainerStates: []domain.ContainerState{
					{Name: "api", State: domain.StateWaiting, Reason: "CrashLoopBackOff"},
				},
				Containers: []domain.Container{apiContainer},
			},
			{
				Name:       "worker-5f7dcbffd6-2jqkz",
				Namespace:  "prod",
				Owners:     ownedBy("worker-5f7dcbffd6"),
				Phase:      domain.PodRunning,
				Containers: []domain.Container{{Name: "worker"}},
			},
			{
				Name:      "debug-shell",
				Namespace: "prod",
				Phase:     domain.PodRunning,
			},
		}
		samples = []domain.UsageSample{
			{Namespace: "prod", Pod: "api-7cfb9d9c9c-9tghd", Container: "api", CPU: "250m", Memory: "64Mi"},
		}
		metrics = nil
		repo = &fake.ClusterRepo{
			ListPodsReactor: func(_ context.Context, ns string) ([]domain.Pod, error) {
				if ns != "prod" {
					return nil, nil
				}
				return pods, nil
			},
			ListUsageMetricsReactor: func(context.Context, string) ([]domain.UsageSample, error) {
				if metrics != nil {
					return nil, metrics
				}
				return samples, nil
			},
		}
		assembler = NewAssembler(repo, nil)
	})

	It("keeps only pods controlled by the replica set, in listing order", func() {
		set, err := assembler.ListPodStatuses(context.Background(), "prod", "api-7cfb9d9c9c", mo.None[string]())
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Pods).To(HaveLen(2))
		Expect(set.Pods[0].Name).To(Equal("api-7cfb9d9c9c-9tghd"))
		Expect(set.Pods[1].Name).To(Equal("api-7cfb9d9c9c-sj2lq"))
		Expect(set.MetricsError.IsPresent()).To(BeFalse())
	})

	It("computes utilization against requests", func() {
		set, err := assembler.ListPodStatuses(context.Background(), "prod", "api-7cfb9d9c9c", mo.None[string]())
		Expect(err).NotTo(HaveOccurred())

		c := set.Pods[0].Containers[0]
		Expect(c.CPURequest).To(Equal("500m"))
		Expect(c.CPULimit).To(Equal("1"))
		Expect(c.MemoryLimit).To(Equal(domain.NotAvailable))
		Expect(c.CPUUsage).To(Equal(mo.Some("250m")))
		Expect(c.CPUUtilization).To(Equal(mo.Some(50.0)))
		Expect(c.MemoryUtilization).To(Equal(mo.Some(50.0)))
	})

	It("leaves usage empty for containers without a sample", func() {
		set, err := assembler.ListPodStatuses(context.Background(), "prod", "api-7cfb9d9c9c", mo.None[string]())
		Expect(err).NotTo(HaveOccurred())

		c := set.Pods[1].Containers[0]
		Expect(c.CPUUsage.IsPresent()).To(BeFalse())
		Expect(c.CPUUtilization.IsPresent()).To(BeFalse())
	})

	It("carries node, start time and container issues", func() {
		set, err := assembler.ListPodStatuses(context.Background(), "prod", "api-7cfb9d9c9c", mo.None[string]())
		Expect(err).NotTo(HaveOccurred())

		Expect(set.Pods[0].Node).To(Equal("ip-10-0-1-5"))
		Expect(set.Pods[0].StartTime).NotTo(BeNil())
		Expect(*set.Pods[0].StartTime).To(BeTemporally("==", created))
		Expect(set.Pods[0].ContainerIssues).To(BeEmpty())
		Expect(set.Pods[1].StartTime).To(BeNil())
		Expect(set.Pods[1].ContainerIssues).To(Equal([]string{"CrashLoopBackOff"}))
	})

	It("names the state when a waiting or terminated container has no reason", func() {
		pods[1].ContainerStates = []domain.ContainerState{
			{Name: "init", State: domain.StateTerminated},
			{Name: "api", State: domain.StateWaiting, Reason: "CrashLoopBackOff"},
			{Name: "sidecar", State: domain.StateWaiting},
		}

		set, err := assembler.ListPodStatuses(context.Background(), "prod", "api-7cfb9d9c9c", mo.Some("api-7cfb9d9c9c-sj2lq"))
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Pods[0].ContainerIssues).To(Equal([]string{"Terminated", "CrashLoopBackOff", "Waiting"}))
	})

	It("narrows to a single pod when filtered", func() {
		set, err := assembler.ListPodStatuses(context.Background(), "prod", "api-7cfb9d9c9c", mo.Some("api-7cfb9d9c9c-sj2lq"))
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Pods).To(HaveLen(1))
		Expect(set.Pods[0].Name).To(Equal("api-7cfb9d9c9c-sj2lq"))
	})

	It("returns every pod without usage when metrics fail", func() {
		metrics = errors.Mark(errors.New("the server could not find the requested resource"), domain.ErrMetricsUnavailable)

		set, err := assembler.ListPodStatuses(context.Background(), "prod", "api-7cfb9d9c9c", mo.None[string]())
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Pods).To(HaveLen(2))
		Expect(set.MetricsError.IsPresent()).To(BeTrue())
		for _, p := range set.Pods {
			for _, c := range p.Containers {
				Expect(c.CPUUsage.IsPresent()).To(BeFalse())
				Expect(c.MemoryUsage.IsPresent()).To(BeFalse())
				Expect(c.CPUUtilization.IsPresent()).To(BeFalse())
			}
		}
	})

	It("returns the pod listing failure as an error", func() {
		repo.ListPodsReactor = func(context.Context, string) ([]domain.Pod, error) {
			return nil, errors.Mark(errors.New("etcdserver: request timed out"), domain.ErrUpstream)
		}

		set, err := assembler.ListPodStatuses(context.Background(), "prod", "api-7cfb9d9c9c", mo.None[string]())
		Expect(errors.Is(err, domain.ErrUpstream)).To(BeTrue())
		Expect(set).To(BeNil())
	})

	It("returns an empty set when nothing matches", func() {
		set, err := assembler.ListPodStatuses(context.Background(), "prod", "missing-123", mo.None[string]())
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Pods).To(BeEmpty())
	})
})

var _ = Describe("ContainerView", func() {
	It("leaves utilization empty for malformed or missing requests", func() {
		c := domain.Container{
			Name: "api",
			Requests: domain.Resources{
				CPU:    mo.Some("lots"),
				Memory: mo.None[string](),
			},
		}
		v := ContainerView(c, mo.Some(domain.UsageSample{CPU: "250m", Memory: "64Mi"}))
		Expect(v.CPUUsage).To(Equal(mo.Some("250m")))
		Expect(v.CPUUtilization.IsPresent()).To(BeFalse())
		Expect(v.MemoryRequest).To(Equal(domain.NotAvailable))
		Expect(v.MemoryUtilization.IsPresent()).To(BeFalse())
	})

	It("leaves utilization empty for non-finite or overflowing requests", func() {
		c := domain.Container{
			Name: "api",
			Requests: domain.Resources{
				CPU:    mo.Some("NaN"),
				Memory: mo.Some("99999999999Ti"),
			},
		}
		v := ContainerView(c, mo.Some(domain.UsageSample{CPU: "250m", Memory: "64Mi"}))
		Expect(v.CPURequest).To(Equal("NaN"))
		Expect(v.CPUUtilization.IsPresent()).To(BeFalse())
		Expect(v.MemoryUtilization.IsPresent()).To(BeFalse())

		_, err := json.Marshal(v)
		Expect(err).NotTo(HaveOccurred())
	})
})
