package sim

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/equations"
	"github.com/san-kum/milnesim/internal/integrators"
)

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with a scheduled halving", func() {
		var result *dynamo.Result

		BeforeEach(func() {
			eq := equations.NewXPlusY()
			starter, err := integrators.NewHybrid(
				integrators.NewTaylor(eq),
				integrators.NewTaylor(eq),
				integrators.NewRK4(),
			)
			Expect(err).NotTo(HaveOccurred())

			cfg := dynamo.DefaultConfig()
			cfg.TargetX = 0.6
			at := 0.4
			cfg.HalveAtX = &at

			result, err = New(eq, starter, WithLogger(quiet)).Run(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("seeds with the taylor, taylor, rk4 sequence", func() {
			Expect(result.Samples[1].Y).To(BeNumerically("~", 1.1103416666666668, 1e-12))
			Expect(result.Samples[2].Y).To(BeNumerically("~", 1.242805141701389, 1e-12))
			Expect(result.Samples[3].Y).To(BeNumerically("~", 1.3997169941250756, 1e-12))
		})

		It("halves h once at x = 0.4", func() {
			Expect(result.Refinements).To(Equal(1))
			Expect(result.H).To(BeNumerically("~", 0.05, 1e-15))
			Expect(result.Epochs).To(HaveLen(2))

			ep := result.Epochs[1]
			Expect(ep.Reason).To(Equal(dynamo.ReasonScheduled))
			Expect(ep.StartX).To(BeNumerically("~", 0.4, 1e-12))
			Expect(ep.Seeds[0].X).To(BeNumerically("~", 0.25, 1e-12))
			Expect(ep.Seeds[2].X).To(BeNumerically("~", 0.35, 1e-12))
		})

		It("reaches the target close to the exact solution", func() {
			final := result.Final()
			Expect(final.X).To(BeNumerically("~", 0.6, 1e-12))
			Expect(final.Y).To(BeNumerically("~", 2.044238596062864, 1e-9))
			Expect(final.Y).To(BeNumerically("~", 2*1.8221188003905089-0.6-1, 2e-6))
			Expect(result.Warnings).To(BeEmpty())
			Expect(result.StepsTaken).To(Equal(5))
		})
	})

	Context("with the literal x^2 + y history and a tight tolerance", func() {
		var result *dynamo.Result

		BeforeEach(func() {
			cfg := dynamo.DefaultConfig()
			cfg.TargetX = 1.3
			cfg.MaxErr = 1e-5

			var err error
			result, err = New(equations.NewXSquaredPlusY(), nil, WithLogger(quiet)).
				RunFrom(ctx, xSquaredSeeds(GinkgoT()), cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("refines after the first step and recovers", func() {
			Expect(result.Refinements).To(Equal(1))
			Expect(result.Epochs[1].Reason).To(Equal(dynamo.ReasonTolerance))
			Expect(result.Epochs[1].StartX).To(BeNumerically("~", 0.4, 1e-12))
			Expect(result.Warnings).To(BeEmpty())
		})

		It("keeps the violating sample in the trace", func() {
			Expect(result.Steps[0].Discrepancy).To(BeNumerically(">", 1e-5))
			Expect(result.Samples[4].X).To(BeNumerically("~", 0.4, 1e-12))
			Expect(result.Samples[4].Y).To(Equal(result.Steps[0].Corrected))
		})

		It("finishes at h/2", func() {
			Expect(result.StepsTaken).To(Equal(19))
			Expect(result.Samples).To(HaveLen(23))
			Expect(result.Final().Y).To(BeNumerically("~", 4.717901962493578, 1e-9))
		})
	})

	Context("when every violation is unrecoverable", func() {
		It("warns and continues", func() {
			cfg := dynamo.DefaultConfig()
			cfg.TargetX = 2.0
			cfg.MaxErr = 1e-6
			cfg.Policy = RefineNone

			result, err := New(equations.NewXPlusY(), integrators.NewRK4(), WithLogger(quiet)).Run(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Warnings).To(HaveLen(result.StepsTaken))
			for _, w := range result.Warnings {
				Expect(w).To(MatchError(dynamo.ErrToleranceExceeded))
			}
		})
	})
})
