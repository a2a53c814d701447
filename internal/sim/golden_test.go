package sim_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qrsim/internal/qrange"
	"github.com/san-kum/qrsim/internal/storage"
)

// testdata/reference_100.json holds the expected record log of the Earth,
// Moon and Sun scenario after 100 passes.
var _ = Describe("Reference history", func() {
	var want []storage.Record

	BeforeEach(func() {
		f, err := os.Open("testdata/reference_100.json")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(f.Close)

		want, err = storage.ReadLog(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(want).To(HaveLen(301))
	})

	for _, kind := range qrange.Kinds() {
		It("reproduces every record exactly on a "+kind+" store", func() {
			s := newScheduler(kind, referenceSeed())
			_, err := s.Run(context.Background(), 100)
			Expect(err).NotTo(HaveOccurred())

			got := storage.FromStore(s.Store().Records())
			Expect(got).To(HaveLen(len(want)))
			for i := range want {
				Expect(got[i]).To(Equal(want[i]), "record %d", i)
			}
		})
	}
})
