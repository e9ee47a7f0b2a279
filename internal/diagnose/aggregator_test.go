package diagnose

import (
	"context"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/mo"

	"github.com/HaPhanBaoMinh/sre/internal/domain"
	"github.com/HaPhanBaoMinh/sre/internal/fake"
	"github.com/HaPhanBaoMinh/sre/internal/ownership"
	"github.com/HaPhanBaoMinh/sre/internal/podstatus"
)

var _ = Describe("Aggregator", func() {
	var (
		repo       *fake.ClusterRepo
		aggregator *Aggregator
		sets       []domain.ReplicaSet
		metricsErr error
	)

	BeforeEach(func() {
		sets = []domain.ReplicaSet{{
			Name:      "api-7cfb9d9c9c",
			Namespace: "prod",
			Owners:    []domain.OwnerRef{{Kind: "Deployment", Name: "api", Controller: true}},
		}}
		metricsErr = nil
		repo = &fake.ClusterRepo{
			ListDeploymentsReactor: func(context.Context, string) ([]domain.Deployment, error) {
				return []domain.Deployment{{Name: "api", Namespace: "prod"}}, nil
			},
			GetDeploymentReactor: func(_ context.Context, name, ns string) (domain.Deployment, error) {
				if name != "api" || ns != "prod" {
					return domain.Deployment{}, errors.Mark(errors.Newf("deployments.apps %q not found", name), domain.ErrNotFound)
				}
				return domain.Deployment{
					Name: "api", Namespace: "prod", Desired: 2, Ready: 1, Available: 1,
					Containers: []domain.Container{{Name: "api", Requests: domain.Resources{CPU: mo.Some("500m")}}},
				}, nil
			},
			ListReplicaSetsReactor: func(context.Context, string) ([]domain.ReplicaSet, error) {
				return sets, nil
			},
			ListPodsReactor: func(context.Context, string) ([]domain.Pod, error) {
				return []domain.Pod{
					{
						Name:       "api-7cfb9d9c9c-9tghd",
						Namespace:  "prod",
						Owners:     []domain.OwnerRef{{Kind: "ReplicaSet", Name: "api-7cfb9d9c9c", Controller: true}},
						Phase:      domain.PodRunning,
						Containers: []domain.Container{{Name: "api", Requests: domain.Resources{CPU: mo.Some("500m")}}},
					},
					{
						Name:      "api-7cfb9d9c9c-sj2lq",
						Namespace: "prod",
						Owners:    []domain.OwnerRef{{Kind: "ReplicaSet", Name: "api-7cfb9d9c9c", Controller: true}},
						Phase:     domain.PodPending,
					},
				}, nil
			},
			ListUsageMetricsReactor: func(context.Context, string) ([]domain.UsageSample, error) {
				if metricsErr != nil {
					return nil, metricsErr
				}
				return []domain.UsageSample{{Pod: "api-7cfb9d9c9c-9tghd", Container: "api", CPU: "250m", Memory: "10Mi"}}, nil
			},
		}
		resolver := ownership.NewResolver(repo, nil)
		aggregator = NewAggregator(repo, resolver, podstatus.NewAssembler(repo, nil), nil)
	})

	It("builds a full report with no notes", func() {
		report, err := aggregator.Diagnose(context.Background(), "api", mo.Some("prod"), mo.None[string]())
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Deployment.Name).To(Equal("api"))
		Expect(report.Deployment.Desired).To(BeEquivalentTo(2))
		Expect(report.Pods).To(HaveLen(2))
		Expect(report.Pods[0].Containers[0].CPUUtilization).To(Equal(mo.Some(50.0)))
		Expect(report.Notes).To(BeEmpty())
		Expect(report.Result()).To(Equal(domain.ResultSuccess))
	})

	It("resolves the namespace when absent", func() {
		report, err := aggregator.Diagnose(context.Background(), "api", mo.None[string](), mo.None[string]())
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Deployment.Namespace).To(Equal("prod"))
	})

	It("keeps the deployment section when no replica set is found", func() {
		sets = nil

		report, err := aggregator.Diagnose(context.Background(), "api", mo.Some("prod"), mo.None[string]())
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Deployment.Name).To(Equal("api"))
		Expect(report.Pods).To(BeEmpty())
		Expect(report.Notes).To(HaveLen(1))
		Expect(report.Notes[0].Severity).To(Equal(domain.SeverityError))
		Expect(report.Notes[0].Stage).To(Equal(StageReplicaSet))
		Expect(report.Result()).To(Equal(domain.ResultFailed))
	})

	It("notes a pod listing failure", func() {
		repo.ListPodsReactor = func(context.Context, string) ([]domain.Pod, error) {
			return nil, errors.Mark(errors.New("pods is forbidden"), domain.ErrUpstream)
		}

		report, err := aggregator.Diagnose(context.Background(), "api", mo.Some("prod"), mo.None[string]())
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Notes).To(ConsistOf(HaveField("Stage", StagePods)))
		Expect(report.Notes[0].Message).To(ContainSubstring("pods is forbidden"))
		Expect(report.Result()).To(Equal(domain.ResultFailed))
	})

	It("warns when metrics are unavailable", func() {
		metricsErr = errors.Mark(errors.New("metrics-server not installed"), domain.ErrMetricsUnavailable)

		report, err := aggregator.Diagnose(context.Background(), "api", mo.Some("prod"), mo.None[string]())
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Pods).To(HaveLen(2))
		Expect(report.Notes).To(HaveLen(1))
		Expect(report.Notes[0].Severity).To(Equal(domain.SeverityWarning))
		Expect(report.Notes[0].Stage).To(Equal(StageMetrics))
		Expect(report.Result()).To(Equal(domain.ResultDegraded))
	})

	It("narrows to one pod", func() {
		report, err := aggregator.Diagnose(context.Background(), "api", mo.Some("prod"), mo.Some("api-7cfb9d9c9c-sj2lq"))
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Pods).To(HaveLen(1))
		Expect(report.Pods[0].Phase).To(Equal(domain.PodPending))
	})

	It("warns when the requested pod is not in the replica set", func() {
		report, err := aggregator.Diagnose(context.Background(), "api", mo.Some("prod"), mo.Some("other-pod"))
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Pods).To(BeEmpty())
		Expect(report.Notes).To(ConsistOf(HaveField("Severity", domain.SeverityWarning)))
	})

	It("fails when the deployment does not exist", func() {
		report, err := aggregator.Diagnose(context.Background(), "api", mo.Some("default"), mo.None[string]())
		Expect(errors.Is(err, domain.ErrNotFound)).To(BeTrue())
		Expect(report).To(BeNil())
	})

	It("fails when the namespace cannot be resolved", func() {
		report, err := aggregator.Diagnose(context.Background(), "ghost", mo.None[string](), mo.None[string]())
		Expect(errors.Is(err, domain.ErrNotFound)).To(BeTrue())
		Expect(report).To(BeNil())
	})
})
