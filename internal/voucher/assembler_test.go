package voucher_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/voucher"
)

var _ = Describe("Assembler", func() {
	var (
		assembler *voucher.Assembler
		totals    estimate.Totals
	)

	estimateFor := func(items []lineitem.LineItem) estimate.Totals {
		t, err := newEngine().RecomputeItems(context.Background(), sampleTrip(), items)
		Expect(err).NotTo(HaveOccurred())
		return t
	}

	BeforeEach(func() {
		assembler = voucher.NewAssembler()
		totals = estimateFor(sampleItems())
	})

	It("should snapshot the totals and trip", func() {
		v, err := assembler.Assemble(sampleTrip(), sampleItems(), totals, true)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.Trip.ID).To(Equal("trip-42"))
		Expect(v.Trip.Days).To(Equal(3))
		Expect(v.Estimate.MIETotalCents).To(Equal(int64(14750)))
		Expect(v.Estimate.LodgingAllowedCents).To(Equal(int64(32000)))
		Expect(v.Estimate.MileageTotalCents).To(Equal(int64(8040)))
		Expect(v.Estimate.MiscTotalCents).To(Equal(int64(8000)))
		Expect(v.Estimate.GrandTotalCents).To(Equal(int64(62790)))
		Expect(v.InputFingerprint).To(Equal(totals.InputFingerprint))
	})

	It("should list outstanding issues in rule order without blocking", func() {
		v, err := assembler.Assemble(sampleTrip(), sampleItems(), totals, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Ready()).To(BeFalse())
		Expect(v.Checklist).To(Equal([]string{
			"Lodging for the night of 2024-03-04 was $160.00, above the $150.00 cap; only the cap is reimbursed.",
			"Lodging for the night of 2024-03-05 was $160.00, above the $150.00 cap; only the cap is reimbursed.",
			"Add origin and destination to mileage item #2 dated 2024-03-04.",
			"Attach a receipt for misc item #3 (Conference Co) ($80.00); receipts are needed from $75.00.",
		}))
	})

	It("should run every rule in its fixed order", func() {
		items := []lineitem.LineItem{
			{Index: 0, Date: calendar.MustParse("2024-03-04"), AmountCents: 20000,
				Details: lineitem.LodgingDetails{Nights: 1, NightlyRateCents: int64Ptr(17000), TaxCents: 2000}},
			{Index: 1, Date: calendar.MustParse("2024-03-05"), Details: lineitem.MileageDetails{Miles: mustMiles("12"), Origin: "Hotel"}},
			{Index: 2, Date: calendar.MustParse("2024-03-05"), AmountCents: 7500, Details: lineitem.MiscDetails{}},
			{Index: 3, Date: calendar.MustParse("2024-03-05"), AmountCents: 7000, Details: lineitem.MealsDetails{Meal: "dinner"}},
		}
		v, err := assembler.Assemble(sampleTrip(), items, estimateFor(items), true)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.Checklist).To(HaveLen(7))
		Expect(v.Checklist[0]).To(HavePrefix("Attach the folio receipt for lodging item #1"))
		Expect(v.Checklist[1]).To(ContainSubstring("does not match the folio total of $200.00"))
		Expect(v.Checklist[2]).To(ContainSubstring("above the $150.00 cap"))
		Expect(v.Checklist[3]).To(Equal("No lodging claimed for the night of 2024-03-05; confirm no lodging cost was incurred."))
		Expect(v.Checklist[4]).To(HavePrefix("Add origin and destination to mileage item #2"))
		Expect(v.Checklist[5]).To(HavePrefix("Attach a receipt for misc item #3"))
		Expect(v.Checklist[6]).To(Equal("Meals claimed on 2024-03-05 ($70.00) exceed the M&IE allowance of $59.00; only the allowance is reimbursed."))
	})

	It("should produce an empty checklist for a clean submission", func() {
		items := []lineitem.LineItem{
			{Index: 0, Date: calendar.MustParse("2024-03-04"), AmountCents: 29000, ReceiptRef: "folio-9",
				Details: lineitem.LodgingDetails{Nights: 2, NightlyRateCents: int64Ptr(13500), TaxCents: 2000}},
		}
		v, err := assembler.Assemble(sampleTrip(), items, estimateFor(items), true)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Checklist).To(BeEmpty())
		Expect(v.Ready()).To(BeTrue())

		doc, err := v.Export()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(doc)).To(ContainSubstring(`"checklist":[]`))
	})

	It("should export byte-identical documents for the same inputs", func() {
		v1, err := assembler.Assemble(sampleTrip(), sampleItems(), totals, true)
		Expect(err).NotTo(HaveOccurred())
		v2, err := voucher.NewAssembler().Assemble(sampleTrip(), sampleItems(), estimateFor(sampleItems()), true)
		Expect(err).NotTo(HaveOccurred())

		d1, err := v1.Export()
		Expect(err).NotTo(HaveOccurred())
		d2, err := v2.Export()
		Expect(err).NotTo(HaveOccurred())
		Expect(d2).To(Equal(d1))
		Expect(v2.ID).To(Equal(v1.ID))

		id, err := uuid.Parse(v1.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(id.Version()).To(Equal(uuid.Version(5)))
	})

	It("should read back what it exported", func() {
		v, _ := assembler.Assemble(sampleTrip(), sampleItems(), totals, true)
		doc, _ := v.Export()

		back, err := voucher.Import(doc)
		Expect(err).NotTo(HaveOccurred())
		again, err := back.Export()
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(doc))
	})

	It("should deny assembly without the claim", func() {
		v, err := assembler.Assemble(sampleTrip(), sampleItems(), totals, false)
		Expect(v).To(BeNil())
		Expect(internal.HasCode(err, internal.ErrCodeAccessDenied)).To(BeTrue())
	})

	It("should refuse totals from a different trip", func() {
		t := sampleTrip()
		t.Purpose = "Changed"
		_, err := assembler.Assemble(t, sampleItems(), totals, true)
		Expect(internal.HasCode(err, internal.ErrCodeStaleEstimate)).To(BeTrue())
	})
})
