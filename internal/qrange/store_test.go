package qrange_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qrsim/internal/qrange"
)

var _ = Describe("Store", func() {
	for _, kind := range qrange.Kinds() {
		Context("backed by "+kind, func() {
			var store qrange.Store[string]

			BeforeEach(func() {
				var err error
				store, err = qrange.New[string](kind)
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns every covering value in insertion order", func() {
				Expect(store.Insert(0, 3, "A")).To(Succeed())
				Expect(store.Insert(2, 4, "D")).To(Succeed())

				Expect(store.Query(2.5)).To(Equal([]string{"A", "D"}))
				Expect(store.Query(3.5)).To(Equal([]string{"D"}))

				_, err := store.Query(5)
				Expect(err).To(MatchError(qrange.ErrNotFound))
			})

			It("treats ranges as half-open", func() {
				Expect(store.Insert(0, 3, "A")).To(Succeed())
				Expect(store.Insert(3, 4, "B")).To(Succeed())
				Expect(store.Insert(0, 2, "C")).To(Succeed())
				Expect(store.Insert(2, 4, "D")).To(Succeed())
				Expect(store.Insert(8, 9, "E")).To(Succeed())

				Expect(store.Query(0)).To(Equal([]string{"A", "C"}))
				Expect(store.Query(2.1)).To(Equal([]string{"A", "D"}))
				Expect(store.Query(3)).To(Equal([]string{"B", "D"}))
				Expect(store.Query(8)).To(Equal([]string{"E"}))

				_, err := store.Query(9)
				Expect(err).To(MatchError(qrange.ErrNotFound))
			})

			It("keeps insertion order even when lows arrive out of order", func() {
				Expect(store.Insert(5, 10, "late-low")).To(Succeed())
				Expect(store.Insert(1, 10, "early-low")).To(Succeed())
				Expect(store.Insert(5, 10, "same-low")).To(Succeed())

				Expect(store.Query(6)).To(Equal([]string{"late-low", "early-low", "same-low"}))
			})

			DescribeTable("rejects invalid ranges without storing them",
				func(low, high float64) {
					err := store.Insert(low, high, "bad")
					Expect(err).To(MatchError(qrange.ErrInvalidRange))
					Expect(store.Len()).To(BeZero())
				},
				Entry("reversed", 2.0, 0.0),
				Entry("empty", 1.0, 1.0),
				Entry("NaN low", math.NaN(), 1.0),
				Entry("NaN high", 0.0, math.NaN()),
			)

			It("fails on an empty store", func() {
				_, err := store.Query(0)
				Expect(err).To(MatchError(qrange.ErrNotFound))
			})

			It("exposes records in insertion order", func() {
				Expect(store.Insert(-999999999, 0, "seed")).To(Succeed())
				Expect(store.Insert(0, 0.02, "p1")).To(Succeed())

				recs := store.Records()
				Expect(recs).To(HaveLen(2))
				Expect(recs[0]).To(Equal(qrange.Record[string]{Low: -999999999, High: 0, Value: "seed"}))
				Expect(recs[1].Value).To(Equal("p1"))

				recs[0].Value = "changed"
				Expect(store.Records()[0].Value).To(Equal("seed"))
			})
		})
	}

	It("rejects unknown backends", func() {
		_, err := qrange.New[int]("btree")
		Expect(err).To(HaveOccurred())
	})

	It("agrees with the linear scan on random workloads", func() {
		rng := rand.New(rand.NewSource(7))
		linear := qrange.NewLinear[int]()
		tree := qrange.NewTree[int]()

		for i := 0; i < 2000; i++ {
			low := math.Floor(rng.Float64()*100) / 4
			high := low + math.Floor(rng.Float64()*20+1)/4
			Expect(linear.Insert(low, high, i)).To(Succeed())
			Expect(tree.Insert(low, high, i)).To(Succeed())
		}

		for i := 0; i < 500; i++ {
			p := rng.Float64()*35 - 2
			want, wantErr := linear.Query(p)
			got, gotErr := tree.Query(p)
			if wantErr != nil {
				Expect(gotErr).To(MatchError(qrange.ErrNotFound))
				continue
			}
			Expect(gotErr).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		}
	})

	It("stays balanced under monotonically increasing lows", func() {
		tree := qrange.NewTree[int]()
		for i := 0; i < 1024; i++ {
			Expect(tree.Insert(float64(i), float64(i)+0.5, i)).To(Succeed())
		}
		// AVL height bound: 1.44 log2(n+2)
		Expect(tree.Height()).To(BeNumerically("<=", 15))
		Expect(tree.Query(511.25)).To(Equal([]int{511}))
	})
})
