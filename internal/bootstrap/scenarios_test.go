package bootstrap_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/k3smox/internal/bootstrap"
	"github.com/imamik/k3smox/internal/health"
	testutil "github.com/imamik/k3smox/internal/testing"
	"github.com/imamik/k3smox/internal/topology"
)

var addonPlan = bootstrap.AddonPlan{
	{ID: "metallb-chart"},
	{ID: "metallb-pools", DependsOn: []string{"metallb-chart"}},
	{ID: "cert-manager-chart"},
	{ID: "cert-manager-webhook", DependsOn: []string{"cert-manager-chart"}},
	{ID: "cert-manager-issuer", DependsOn: []string{"cert-manager-chart", "cert-manager-webhook"}},
}

// recorder collects stage events from the runner goroutine.
type recorder struct {
	mu     sync.Mutex
	events []bootstrap.Event
}

func (r *recorder) Event(e bootstrap.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Type == bootstrap.EventStageStarted {
			out = append(out, e.Stage.ID)
		}
	}
	return out
}

var _ = Describe("Bootstrap runner", func() {
	var (
		ctx   context.Context
		graph *bootstrap.Graph
		tasks map[string]bootstrap.Task
		rec   *recorder
	)

	BeforeEach(func() {
		ctx = logr.NewContext(context.Background(), GinkgoLogr)

		cfg := testutil.NewConfigBuilder().WithMasters(1, 120).WithWorkers(2, 130).Build()
		topo, err := topology.Derive(cfg)
		Expect(err).NotTo(HaveOccurred())

		graph, err = bootstrap.BuildGraph(topo, addonPlan)
		Expect(err).NotTo(HaveOccurred())

		tasks = make(map[string]bootstrap.Task)
		for _, s := range graph.Stages() {
			tasks[s.ID] = bootstrap.Task{Run: func(context.Context) error { return nil }}
		}
		rec = &recorder{}
	})

	run := func(opts ...bootstrap.Option) *bootstrap.Report {
		opts = append(opts, bootstrap.WithObserver(rec))
		r, err := bootstrap.NewRunner(graph, tasks, opts...)
		Expect(err).NotTo(HaveOccurred())
		report, err := r.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		return report
	}

	Context("when every stage succeeds", func() {
		It("marks the whole cluster healthy", func() {
			report := run()
			Expect(report.Healthy()).To(BeTrue())
			Expect(report.Err()).NotTo(HaveOccurred())
			Expect(rec.started()).To(HaveLen(graph.Len()))
		})

		It("starts the cluster provision stage first and the master before its workers", func() {
			run()
			started := rec.started()
			Expect(started[0]).To(Equal(bootstrap.StageClusterProvision))
			Expect(started[1]).To(Equal(bootstrap.MasterInstallID(0)))
		})
	})

	Context("when the credential fetch probe never becomes healthy", func() {
		BeforeEach(func() {
			tasks[bootstrap.StageCredentialFetch] = bootstrap.Task{
				Run: func(context.Context) error { return nil },
				Probe: health.ProbeFunc(func(context.Context) error {
					return errors.New("node-token not yet written")
				}),
				Policy: &health.Policy{Attempts: 1000, Interval: time.Millisecond, Timeout: 25 * time.Millisecond},
			}
		})

		It("fails the credential fetch with a timeout", func() {
			report := run()
			res, ok := report.Result(bootstrap.StageCredentialFetch)
			Expect(ok).To(BeTrue())
			Expect(res.Status).To(Equal(bootstrap.StatusFailed))

			var timeout *health.TimeoutError
			Expect(errors.As(res.Err, &timeout)).To(BeTrue())
		})

		It("fails every worker install without running it", func() {
			report := run()
			for _, id := range []string{bootstrap.WorkerInstallID(0), bootstrap.WorkerInstallID(1)} {
				res, _ := report.Result(id)
				Expect(res.Status).To(Equal(bootstrap.StatusFailed), id)

				var pErr *bootstrap.PropagatedFailureError
				Expect(errors.As(res.Err, &pErr)).To(BeTrue(), id)
				Expect(pErr.Dependency).To(Equal(bootstrap.StageCredentialFetch))
				Expect(pErr.Origin).To(Equal(bootstrap.StageCredentialFetch))
				Expect(rec.started()).NotTo(ContainElement(id))
			}
		})

		It("still installs the add-ons", func() {
			report := run()
			for _, p := range addonPlan {
				Expect(report.Status(p.ID)).To(Equal(bootstrap.StatusHealthy), p.ID)
			}
			Expect(report.Status(bootstrap.MasterInstallID(0))).To(Equal(bootstrap.StatusHealthy))
		})

		It("reports the failure", func() {
			report := run()
			Expect(report.Healthy()).To(BeFalse())
			Expect(report.Err()).To(MatchError(ContainSubstring("credential-fetch")))
			Expect(report.Counts()).To(HaveKeyWithValue(bootstrap.StatusFailed, 3))
		})
	})

	Context("when the bootstrap is cancelled mid-run", func() {
		It("finishes in-flight stages and leaves the rest pending", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			ctx = cctx

			tasks[bootstrap.MasterInstallID(0)] = bootstrap.Task{Run: func(stageCtx context.Context) error {
				cancel()
				select {
				case <-stageCtx.Done():
					return stageCtx.Err()
				case <-time.After(10 * time.Millisecond):
					return nil
				}
			}}

			report := run()
			Expect(report.Status(bootstrap.MasterInstallID(0))).To(Equal(bootstrap.StatusHealthy))
			for _, id := range []string{bootstrap.StageCredentialFetch, "metallb-chart", bootstrap.WorkerInstallID(1)} {
				res, _ := report.Result(id)
				Expect(res.Status).To(Equal(bootstrap.StatusPending), id)
				Expect(res.Reason).To(ContainSubstring("cancelled"))
			}
		})
	})
})
