package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/springnet/internal/graph"
	"github.com/san-kum/springnet/internal/physics"
)

func momentumOf(bodies []physics.Body) r2.Vec {
	var p r2.Vec
	for _, b := range bodies {
		p = r2.Add(p, r2.Scale(b.Mass, b.Velocity))
	}
	return p
}

var _ = Describe("System", func() {
	var sys *physics.System

	Describe("pairwise forces", func() {
		DescribeTable("apply equal and opposite impulses",
			func(pa, pb r2.Vec, ma, mb, repulsion float64) {
				bodies := []physics.Body{
					physics.NewBody(pa, ma, physics.DefaultBodyDensity, "a"),
					physics.NewBody(pb, mb, physics.DefaultBodyDensity, "b"),
				}
				bodies[0].Velocity = r2.Vec{X: 0.3, Y: -0.2}
				bodies[1].Velocity = r2.Vec{X: -0.1, Y: 0.4}
				p := physics.DefaultParams()
				p.Repulsion = repulsion
				p.Friction = 0

				var err error
				sys, err = physics.NewSystem(bodies, []physics.Spring{{A: 0, B: 1, Length: 1, K: 2, Damping: 0.5}}, p, 1)
				Expect(err).NotTo(HaveOccurred())
				before := momentumOf(sys.Bodies())

				Expect(sys.Step(0.05)).To(Succeed())

				after := momentumOf(sys.Bodies())
				Expect(after.X).To(BeNumerically("~", before.X, 1e-12))
				Expect(after.Y).To(BeNumerically("~", before.Y, 1e-12))
			},
			Entry("stretched spring only", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 3, Y: 1}, 1.0, 1.0, 0.0),
			Entry("compressed spring with repulsion", r2.Vec{X: 1, Y: 1}, r2.Vec{X: 1.2, Y: 1.1}, 2.0, 5.0, 0.1),
			Entry("unequal masses, strong repulsion", r2.Vec{X: -2, Y: 0}, r2.Vec{X: 2, Y: 0}, 1.0, 4.0, 3.0),
		)
	})

	Describe("Agitate", func() {
		BeforeEach(func() {
			var err error
			sys, err = physics.Random(40, 60, physics.DefaultParams(), 2024)
			Expect(err).NotTo(HaveOccurred())
		})

		It("injects no net momentum", func() {
			for i := 0; i < 5; i++ {
				sys.Agitate()
			}
			m := sys.Momentum()
			Expect(m.X).To(BeNumerically("~", 0, 1e-10))
			Expect(m.Y).To(BeNumerically("~", 0, 1e-10))
		})

		It("still averages over locked bodies", func() {
			sys.ToggleLock(0)
			impulses := sys.Agitate()

			var sum r2.Vec
			for _, f := range impulses {
				sum = r2.Add(sum, f)
			}
			Expect(r2.Norm(sum)).To(BeNumerically("<", 1e-12))
			Expect(sys.Body(0).Velocity).To(Equal(r2.Vec{}))
		})
	})

	Describe("a locked body", func() {
		It("keeps its position and zero velocity under any forces", func() {
			var err error
			sys, err = physics.FromGraph(graph.Complete(6), physics.DefaultMapping(), physics.DefaultParams(), 5)
			Expect(err).NotTo(HaveOccurred())
			sys.ToggleLock(3)
			start := sys.Body(3).Position

			for i := 0; i < 200; i++ {
				if i%50 == 0 {
					sys.Agitate()
				}
				Expect(sys.Step(0.05)).To(Succeed())
			}

			Expect(sys.Body(3).Position).To(Equal(start))
			Expect(sys.Body(3).Velocity).To(Equal(r2.Vec{}))
		})
	})

	Describe("long runs", func() {
		It("stay finite and bounded at the default timestep", func() {
			var err error
			sys, err = physics.Random(30, 45, physics.DefaultParams(), 77)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 2000; i++ {
				Expect(sys.Step(0.05)).To(Succeed())
			}

			Expect(sys.Valid()).To(BeTrue())
			for _, b := range sys.Bodies() {
				Expect(math.Abs(b.Position.X)).To(BeNumerically("<", 1e3))
				Expect(math.Abs(b.Position.Y)).To(BeNumerically("<", 1e3))
			}
		})

		It("settles as friction drains kinetic energy", func() {
			var err error
			sys, err = physics.FromGraph(graph.Complete(5), physics.DefaultMapping(), physics.DefaultParams(), 8)
			Expect(err).NotTo(HaveOccurred())
			sys.Agitate()
			early := sys.KineticEnergy()

			for i := 0; i < 4000; i++ {
				Expect(sys.Step(0.05)).To(Succeed())
			}

			Expect(sys.KineticEnergy()).To(BeNumerically("<", early))
		})
	})
})
