package sim_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qrsim/internal/dynamo"
	"github.com/san-kum/qrsim/internal/integrators"
	"github.com/san-kum/qrsim/internal/physics"
	"github.com/san-kum/qrsim/internal/qrange"
	"github.com/san-kum/qrsim/internal/sim"
)

func referenceSeed() dynamo.Seed {
	return dynamo.Seed{
		Order: []string{"Planet", "Satellite", "Sun"},
		States: dynamo.Snapshot{
			"Planet":    {Name: "Earth", TimeStep: 0.02, X: 0, Y: 0, VX: -0.01, M: 1000},
			"Satellite": {Name: "Moon", TimeStep: 0.02, X: 0, Y: 5, VX: 0.01, VY: -0.01, M: 1000},
			"Sun":       {Name: "Sun", TimeStep: 0.02, X: 10, Y: 2.5, M: 10000},
		},
	}
}

func buildScheduler(kind string, seed dynamo.Seed) (*sim.Scheduler, error) {
	store, err := qrange.New[dynamo.Snapshot](kind)
	if err != nil {
		return nil, err
	}
	gravity := &physics.Gravity{G: physics.DefaultG, Order: seed.Order}
	return sim.New(store, integrators.NewPropagator(gravity), seed, sim.DefaultConfig())
}

func newScheduler(kind string, seed dynamo.Seed) *sim.Scheduler {
	s, err := buildScheduler(kind, seed)
	Expect(err).NotTo(HaveOccurred())
	return s
}

type recorder struct {
	commits []sim.Commit
	blocked []string
}

func (r *recorder) OnCommit(c sim.Commit) { r.commits = append(r.commits, c) }
func (r *recorder) OnBlocked(agent string, pass int, at float64) {
	r.blocked = append(r.blocked, fmt.Sprintf("%s@%d", agent, pass))
}

// blindStore loses every record after the seed.
type blindStore struct{ sim.Store }

func (b blindStore) Query(float64) ([]dynamo.Snapshot, error) { return nil, qrange.ErrNotFound }

var _ = Describe("Scheduler", func() {
	for _, kind := range qrange.Kinds() {
		Context("on a "+kind+" store", func() {
			It("seeds one record holding the whole world", func() {
				s := newScheduler(kind, referenceSeed())

				recs := s.Store().Records()
				Expect(recs).To(HaveLen(1))
				Expect(recs[0].Low).To(Equal(dynamo.SeedLow))
				Expect(recs[0].High).To(Equal(0.0))
				Expect(recs[0].Value).To(HaveLen(3))
				for _, id := range s.Order() {
					Expect(s.Status(id)).To(Equal(sim.StatusSeeded))
				}
			})

			It("advances every agent once per pass", func() {
				s := newScheduler(kind, referenceSeed())

				stats, err := s.Pass()
				Expect(err).NotTo(HaveOccurred())
				Expect(stats).To(Equal(sim.PassStats{Pass: 1, Committed: 3}))

				recs := s.Store().Records()
				Expect(recs).To(HaveLen(4))
				for i, id := range s.Order() {
					rec := recs[i+1]
					Expect(rec.Low).To(Equal(0.0))
					Expect(rec.High).To(BeNumerically("~", 0.02, 1e-15))
					Expect(rec.Value).To(HaveKey(id))
					Expect(rec.Value).To(HaveLen(1))
					Expect(rec.Value[id].TimeStep).To(Equal(dynamo.PropagatedTimeStep))
					Expect(s.Status(id)).To(Equal(sim.StatusAdvancing))
				}

				_, err = s.Pass()
				Expect(err).NotTo(HaveOccurred())
				t, ok := s.Cursor("Sun")
				Expect(ok).To(BeTrue())
				Expect(t).To(BeNumerically("~", 1.02, 1e-12))
			})

			It("writes at most passes*agents records and keeps mass and time consistent", func() {
				s := newScheduler(kind, referenceSeed())
				res, err := s.Run(context.Background(), 40)
				Expect(err).NotTo(HaveOccurred())

				Expect(res.Passes).To(Equal(40))
				Expect(res.StalledAt).To(BeZero())
				Expect(res.Records).To(Equal(1 + res.Commits))
				Expect(res.Commits).To(BeNumerically("<=", 40*3))

				mass := map[string]float64{}
				last := map[string]float64{}
				for _, rec := range s.Store().Records() {
					Expect(rec.Low).To(BeNumerically("<", rec.High))
					for id, st := range rec.Value {
						if m, ok := mass[id]; ok {
							Expect(st.M).To(Equal(m), "mass of %s changed", id)
						}
						mass[id] = st.M
						if prev, ok := last[id]; ok && st.Propagated() {
							Expect(st.Time).To(BeNumerically(">", prev), "time of %s went backwards", id)
						}
						last[id] = st.Time
					}
				}
			})

			It("blocks agents that run ahead of the others", func() {
				seed := dynamo.Seed{
					Order: []string{"early", "late"},
					States: dynamo.Snapshot{
						"early": {Name: "early", Time: 0, TimeStep: 0.02, X: 0, M: 1},
						"late":  {Name: "late", Time: 3, TimeStep: 0.02, X: 4, M: 1},
					},
				}
				s := newScheduler(kind, seed)
				rec := &recorder{}
				s.AddObserver(rec)

				res, err := s.Run(context.Background(), 6)
				Expect(err).NotTo(HaveOccurred())

				Expect(rec.blocked).To(Equal([]string{"late@2", "late@3"}))
				Expect(res.Blocked).To(Equal(2))
				Expect(res.Commits).To(Equal(10))
				Expect(res.Records).To(Equal(11))
				Expect(res.Commits).To(BeNumerically("<=", 6*2))
				Expect(s.Status("late")).To(Equal(sim.StatusAdvancing))
			})
		})
	}

	It("produces identical histories on both backends", func() {
		tree := newScheduler(qrange.KindTree, referenceSeed())
		linear := newScheduler(qrange.KindLinear, referenceSeed())

		_, err := tree.Run(context.Background(), 100)
		Expect(err).NotTo(HaveOccurred())
		_, err = linear.Run(context.Background(), 100)
		Expect(err).NotTo(HaveOccurred())

		Expect(tree.Store().Records()).To(Equal(linear.Store().Records()))
	})

	It("computes the world each agent stepped from", func() {
		s := newScheduler(qrange.KindTree, referenceSeed())
		rec := &recorder{}
		s.AddObserver(rec)

		_, err := s.Run(context.Background(), 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.commits).To(HaveLen(6))

		second := rec.commits[1]
		Expect(second.Agent).To(Equal("Satellite"))
		// the planet's first write is not visible below t=0
		Expect(second.World["Planet"].Time).To(Equal(0.0))

		fourth := rec.commits[3]
		Expect(fourth.Agent).To(Equal("Planet"))
		Expect(fourth.World).To(HaveLen(3))
		for _, st := range fourth.World {
			Expect(st.Time).To(BeNumerically("~", 0.02, 1e-15))
		}
	})

	It("stops early once a pass commits nothing", func() {
		seed := referenceSeed()
		store := blindStore{qrange.NewLinear[dynamo.Snapshot]()}
		s, err := sim.New(store, integrators.NewPropagator(physics.NewGravity(1, physics.LawReference)), seed, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		res, err := s.Run(context.Background(), 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StalledAt).To(Equal(1))
		Expect(res.Passes).To(Equal(1))
		Expect(res.Blocked).To(Equal(3))
		Expect(s.Status("Sun")).To(Equal(sim.StatusBlocked))
	})

	It("reports cancellation", func() {
		s := newScheduler(qrange.KindTree, referenceSeed())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := s.Run(ctx, 10)
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.Passes).To(BeZero())
	})

	It("refuses to commit a singular step", func() {
		seed := dynamo.Seed{
			Order: []string{"a", "b"},
			States: dynamo.Snapshot{
				"a": {TimeStep: 0.1, X: 1, Y: 1, M: 1},
				"b": {TimeStep: 0.1, X: 1, Y: 1, M: 1},
			},
		}
		s := newScheduler(qrange.KindTree, seed)

		_, err := s.Run(context.Background(), 5)
		Expect(err).To(MatchError(dynamo.ErrSingularity))
		Expect(s.Store().Len()).To(Equal(1))
	})

	DescribeTable("rejects bad lookbacks",
		func(seedStep, lookback float64) {
			seed := referenceSeed()
			for id, st := range seed.States {
				st.TimeStep = seedStep
				seed.States[id] = st
			}
			store := qrange.NewTree[dynamo.Snapshot]()
			_, err := sim.New(store, integrators.NewPropagator(physics.NewGravity(1, physics.LawReference)),
				seed, sim.Config{Lookback: lookback})
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
			Expect(store.Len()).To(BeZero())
		},
		Entry("zero", 0.02, 0.0),
		Entry("negative", 0.02, -0.001),
		Entry("as large as a step", 0.02, 0.02),
		Entry("at or above the propagated step", 2.0, 1.5),
		Entry("equal to the propagated step", 2.0, 1.0),
	)

	It("runs with the largest lookback below every step", func() {
		seed := referenceSeed()
		for id, st := range seed.States {
			st.TimeStep = 2.0
			seed.States[id] = st
		}
		gravity := &physics.Gravity{G: physics.DefaultG, Order: seed.Order}
		s, err := sim.New(qrange.NewTree[dynamo.Snapshot](), integrators.NewPropagator(gravity),
			seed, sim.Config{Lookback: 0.9})
		Expect(err).NotTo(HaveOccurred())

		res, err := s.Run(context.Background(), 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Commits).To(Equal(15))
		cursor, ok := s.Cursor("Sun")
		Expect(ok).To(BeTrue())
		Expect(cursor).To(Equal(6.0))
	})

	It("refuses a store that already has history", func() {
		store := qrange.NewTree[dynamo.Snapshot]()
		Expect(store.Insert(0, 1, dynamo.Snapshot{})).To(Succeed())
		_, err := sim.New(store, integrators.NewPropagator(physics.NewGravity(1, physics.LawReference)),
			referenceSeed(), sim.DefaultConfig())
		Expect(err).To(HaveOccurred())
	})

	It("rejects negative budgets", func() {
		s := newScheduler(qrange.KindTree, referenceSeed())
		_, err := s.Run(context.Background(), -1)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})

	It("answers world queries from history", func() {
		s := newScheduler(qrange.KindTree, referenceSeed())
		_, err := s.Run(context.Background(), 3)
		Expect(err).NotTo(HaveOccurred())

		world, err := s.World(0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(world).To(HaveLen(3))

		_, err = s.World(1e9)
		Expect(err).To(MatchError(qrange.ErrNotFound))
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independent schedulers concurrently", func() {
		builders := make([]sim.Builder, 3)
		for i := range builders {
			builders[i] = func() (*sim.Scheduler, error) {
				return buildScheduler(qrange.KindTree, referenceSeed())
			}
		}

		results, err := sim.NewEnsemble(20, builders...).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for _, r := range results {
			Expect(r.Commits).To(Equal(60))
		}
	})

	It("surfaces build errors", func() {
		bad := func() (*sim.Scheduler, error) { return nil, dynamo.ErrParameterBounds }
		_, err := sim.NewEnsemble(1, bad).Run(context.Background())
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})
})
