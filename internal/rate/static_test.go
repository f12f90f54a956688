package rate_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/rate"
)

var _ = Describe("StaticTable", func() {
	table := rate.NewStaticTable([]rate.TableEntry{
		{Locality: " OH-DAYTON ", MIERateCents: 5900, LodgingCapCents: 15000, MileageRateCents: 67},
	})

	It("should stamp the requested date on a listed locality", func() {
		day := calendar.MustParse("2024-03-05")
		snap, err := rate.NewResolver(table, time.Second).Resolve(context.Background(), "OH-DAYTON", day)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Date).To(Equal(day))
		Expect(snap.MIERateCents).To(Equal(int64(5900)))
	})

	It("should report an unlisted locality as not found", func() {
		_, err := rate.NewResolver(table, time.Second).Resolve(context.Background(), "VA-NORFOLK", calendar.MustParse("2024-03-05"))
		Expect(internal.HasCode(err, internal.ErrCodeRateNotFound)).To(BeTrue())
	})
})
