package estimate_test

import (
	"context"
	"encoding/json"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

func ledgerSum(totals estimate.Totals) int64 {
	var sum int64
	for _, day := range totals.Ledger {
		sum += day.TotalCents
	}
	return sum
}

func expectBalanced(totals estimate.Totals) {
	Expect(totals.GrandTotalCents).To(Equal(
		totals.MIETotalCents + totals.LodgingAllowedCents + totals.MileageTotalCents + totals.MiscTotalCents))
	Expect(ledgerSum(totals)).To(Equal(totals.GrandTotalCents))
}

var _ = Describe("Engine", func() {
	var (
		table  *fakeRateTable
		engine *estimate.Engine
		ctx    context.Context
	)

	BeforeEach(func() {
		table = newFakeRateTable()
		engine = estimate.NewEngine(table.resolver(), 4)
		ctx = context.Background()
	})

	Describe("daily entitlements", func() {
		It("should pay 75% on travel days and the full rate in between", func() {
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-06"), nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(totals.Days).To(HaveLen(3))
			Expect(totals.Days[0].MIEAllowedCents).To(Equal(int64(4425)))
			Expect(totals.Days[1].MIEAllowedCents).To(Equal(int64(5900)))
			Expect(totals.Days[2].MIEAllowedCents).To(Equal(int64(4425)))
			Expect(totals.MIETotalCents).To(Equal(int64(14750)))
			Expect(totals.GrandTotalCents).To(Equal(int64(14750)))
			expectBalanced(totals)
		})

		It("should treat a single-day trip as one travel day", func() {
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-04"), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(totals.Days).To(HaveLen(1))
			Expect(totals.Days[0].IsTravelDay).To(BeTrue())
			Expect(totals.MIETotalCents).To(Equal(int64(4425)))
		})

		It("should emit one record per day with only the ends flagged as travel days", func() {
			for length := 1; length <= 12; length++ {
				from := calendar.MustParse("2024-02-26")
				t := daytonTrip(from.String(), from.AddDays(length-1).String())

				totals, _, err := engine.Recompute(ctx, t, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(totals.Days).To(HaveLen(length))

				for i, day := range totals.Days {
					Expect(day.Date).To(Equal(from.AddDays(i)))
					travel := i == 0 || i == length-1
					Expect(day.IsTravelDay).To(Equal(travel))
					Expect(day.MIEAllowedCents).To(Equal(estimate.AllowedMIE(day.MIERateCents, travel)))
				}
				expectBalanced(totals)
			}
		})

		It("should round travel-day M&IE half up", func() {
			Expect(estimate.AllowedMIE(5900, true)).To(Equal(int64(4425)))
			Expect(estimate.AllowedMIE(6100, true)).To(Equal(int64(4575)))
			Expect(estimate.AllowedMIE(6902, true)).To(Equal(int64(5177)))
			Expect(estimate.AllowedMIE(6906, true)).To(Equal(int64(5180)))
			Expect(estimate.AllowedMIE(6906, false)).To(Equal(int64(6906)))
		})

		It("should return days in ascending order however lookups complete", func() {
			table.delay = func(d calendar.Date) time.Duration {
				return time.Duration(31-d.Day) * time.Millisecond
			}
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-01", "2024-03-10"), nil)
			Expect(err).NotTo(HaveOccurred())
			for i := 1; i < len(totals.Days); i++ {
				Expect(totals.Days[i-1].Date.Before(totals.Days[i].Date)).To(BeTrue())
			}
		})

		It("should use each day's locality from the plan", func() {
			t := daytonTrip("2024-03-04", "2024-03-06")
			t.Locality.ByDate = map[calendar.Date]string{calendar.MustParse("2024-03-05"): "DC-WASHINGTON"}

			totals, _, err := engine.Recompute(ctx, t, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(totals.Days[1].Locality).To(Equal("DC-WASHINGTON"))
			Expect(totals.Days[1].MIEAllowedCents).To(Equal(int64(7900)))
			Expect(totals.MIETotalCents).To(Equal(int64(4425 + 7900 + 4425)))
		})
	})

	Describe("lodging", func() {
		It("should cap the nightly charge and add tax uncapped", func() {
			items := []lineitem.RawItem{{
				ItemType: "lodging", TxDate: "2024-03-04", AmountCents: 19500,
				Meta: json.RawMessage(`{"nights":1,"tax_cents":1500}`),
			}}
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-06"), items)
			Expect(err).NotTo(HaveOccurred())

			Expect(totals.LodgingAllowedCents).To(Equal(int64(16500)))
			Expect(totals.LodgingNights).To(HaveLen(1))
			Expect(totals.LodgingNights[0].AllowedCents).To(Equal(int64(15000)))
			Expect(totals.LodgingNights[0].OverCap).To(BeTrue())
			Expect(totals.Ledger[0].LodgingCents).To(Equal(int64(15000)))
			Expect(totals.Ledger[0].LodgingTaxCents).To(Equal(int64(1500)))
			expectBalanced(totals)
		})

		It("should sum charges from folios on the same night before capping", func() {
			items := []lineitem.RawItem{
				{ItemType: "lodging", TxDate: "2024-03-04", AmountCents: 9000},
				{ItemType: "lodging", TxDate: "2024-03-04", AmountCents: 8000},
			}
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-06"), items)
			Expect(err).NotTo(HaveOccurred())
			Expect(totals.LodgingNights).To(HaveLen(1))
			Expect(totals.LodgingNights[0].ChargeCents).To(Equal(int64(17000)))
			Expect(totals.LodgingNights[0].Items).To(Equal([]int{0, 1}))
			Expect(totals.LodgingAllowedCents).To(Equal(int64(15000)))
		})

		It("should spread a multi-night folio over its nights", func() {
			items := []lineitem.RawItem{{
				ItemType: "lodging", TxDate: "2024-03-04", AmountCents: 31002,
				Meta: json.RawMessage(`{"nights":3,"tax_cents":2000}`),
			}}
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-07"), items)
			Expect(err).NotTo(HaveOccurred())

			Expect(totals.LodgingNights).To(HaveLen(3))
			Expect(totals.LodgingNights[0].ChargeCents).To(Equal(int64(9668)))
			Expect(totals.LodgingNights[1].ChargeCents).To(Equal(int64(9667)))
			Expect(totals.LodgingNights[2].ChargeCents).To(Equal(int64(9667)))
			Expect(totals.LodgingAllowedCents).To(Equal(int64(31002)))
			expectBalanced(totals)
		})

		It("should prefer an explicit nightly rate", func() {
			items := []lineitem.RawItem{{
				ItemType: "lodging", TxDate: "2024-03-04", AmountCents: 36000,
				Meta: json.RawMessage(`{"nights":2,"nightly_rate_cents":16000,"tax_cents":4000}`),
			}}
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-06"), items)
			Expect(err).NotTo(HaveOccurred())
			for _, n := range totals.LodgingNights {
				Expect(n.ChargeCents).To(Equal(int64(16000)))
				Expect(n.AllowedCents).To(Equal(int64(15000)))
			}
			Expect(totals.LodgingAllowedCents).To(Equal(int64(15000*2 + 4000)))
		})

		It("should never allow more than the cap on any night", func() {
			items := []lineitem.RawItem{
				{ItemType: "lodging", TxDate: "2024-03-04", AmountCents: 50000, Meta: json.RawMessage(`{"nights":2,"tax_cents":7000}`)},
				{ItemType: "lodging", TxDate: "2024-03-05", AmountCents: 12000, Meta: json.RawMessage(`{"tax_cents":900}`)},
			}
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-06"), items)
			Expect(err).NotTo(HaveOccurred())

			var taxes int64
			for _, n := range totals.LodgingNights {
				Expect(n.AllowedCents).To(BeNumerically("<=", n.CapCents))
				taxes += n.TaxCents
			}
			Expect(taxes).To(Equal(int64(7900)))
			expectBalanced(totals)
		})
	})

	Describe("mileage and misc", func() {
		It("should round each mileage line half up", func() {
			items := []lineitem.RawItem{
				{ItemType: "mileage", TxDate: "2024-03-04", Meta: json.RawMessage(`{"miles":120,"origin":"A","destination":"B"}`)},
				{ItemType: "mileage", TxDate: "2024-03-06", Meta: json.RawMessage(`{"miles":"10.5","origin":"B","destination":"A"}`)},
			}
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-06"), items)
			Expect(err).NotTo(HaveOccurred())

			Expect(totals.MileageLines).To(HaveLen(2))
			Expect(totals.MileageLines[0].AllowedCents).To(Equal(int64(8040)))
			Expect(totals.MileageLines[1].AllowedCents).To(Equal(int64(704)))
			Expect(totals.MileageTotalCents).To(Equal(int64(8744)))
			expectBalanced(totals)
		})

		It("should compute mileage cents from decimal miles", func() {
			Expect(estimate.MileageCents(decimal.NewFromInt(120), 67)).To(Equal(int64(8040)))
			Expect(estimate.MileageCents(decimal.RequireFromString("0.5"), 1)).To(Equal(int64(1)))
			Expect(estimate.MileageCents(decimal.RequireFromString("0.49"), 1)).To(Equal(int64(0)))
		})

		It("should pay misc at face value and leave meals to the per diem", func() {
			items := []lineitem.RawItem{
				{ItemType: "misc", TxDate: "2024-03-05", AmountCents: 2500},
				{ItemType: "misc", TxDate: "2024-03-05", AmountCents: 1250},
				{ItemType: "meals", TxDate: "2024-03-05", AmountCents: 4200},
			}
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-06"), items)
			Expect(err).NotTo(HaveOccurred())

			Expect(totals.MiscTotalCents).To(Equal(int64(3750)))
			Expect(totals.Ledger[1].MealsClaimedCents).To(Equal(int64(4200)))
			Expect(totals.GrandTotalCents).To(Equal(int64(14750 + 3750)))
			expectBalanced(totals)
		})
	})

	Describe("failures", func() {
		It("should refuse items whose sum cannot be represented rather than wrap", func() {
			items := []lineitem.RawItem{
				{ItemType: "misc", TxDate: "2024-03-05", AmountCents: math.MaxInt64 / 2},
				{ItemType: "misc", TxDate: "2024-03-05", AmountCents: math.MaxInt64 / 2},
				{ItemType: "misc", TxDate: "2024-03-05", AmountCents: 10},
			}
			totals, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-06"), items)
			Expect(internal.HasCode(err, internal.ErrCodeInvalidInput)).To(BeTrue())
			Expect(totals).To(Equal(estimate.Totals{}))
		})

		It("should refuse a trip longer than the allowed length before any lookup", func() {
			_, _, err := engine.Recompute(ctx, daytonTrip("1900-01-01", "2899-12-31"), nil)
			Expect(internal.HasCode(err, internal.ErrCodeInvalidInput)).To(BeTrue())
			Expect(table.calls.Load()).To(BeZero())
		})

		It("should fail the whole trip when one day has no listed rate", func() {
			table.missing[calendar.MustParse("2024-03-05")] = true

			totals, items, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-06"), nil)
			Expect(err).To(HaveOccurred())
			Expect(internal.HasCode(err, internal.ErrCodeRateNotFound)).To(BeTrue())
			Expect(internal.IsRetryable(err)).To(BeFalse())
			Expect(totals).To(Equal(estimate.Totals{}))
			Expect(items).To(BeNil())
		})

		It("should report the earliest failing day", func() {
			table.missing[calendar.MustParse("2024-03-08")] = true
			table.broken[calendar.MustParse("2024-03-05")] = true
			table.delay = func(d calendar.Date) time.Duration {
				return time.Duration(31-d.Day) * time.Millisecond
			}

			_, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-09"), nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeRateUnavailable))
			Expect(appErr.Details).To(Equal(internal.ErrorContext{Locality: "OH-DAYTON", Date: "2024-03-05"}))
			Expect(internal.IsRetryable(err)).To(BeTrue())
		})

		It("should treat caller cancellation as unavailable", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, _, err := engine.Recompute(cctx, daytonTrip("2024-03-04", "2024-03-06"), nil)
			Expect(internal.HasCode(err, internal.ErrCodeRateUnavailable)).To(BeTrue())
			Expect(err).To(MatchError(context.Canceled))
		})

		It("should reject bad items before looking up any rate", func() {
			items := []lineitem.RawItem{{ItemType: "misc", TxDate: "2024-04-01", AmountCents: 100}}

			_, _, err := engine.Recompute(ctx, daytonTrip("2024-03-04", "2024-03-06"), items)
			Expect(internal.HasCode(err, internal.ErrCodeInvalidInput)).To(BeTrue())
			Expect(table.calls.Load()).To(BeZero())
		})

		It("should reject an invalid trip", func() {
			t := daytonTrip("2024-03-06", "2024-03-04")
			_, _, err := engine.Recompute(ctx, t, nil)
			Expect(internal.HasCode(err, internal.ErrCodeInvalidInput)).To(BeTrue())
		})
	})

	Describe("determinism", func() {
		It("should produce identical totals for identical inputs", func() {
			t := daytonTrip("2024-03-04", "2024-03-08")
			t.Locality.ByDate = map[calendar.Date]string{calendar.MustParse("2024-03-06"): "DC-WASHINGTON"}
			items := []lineitem.RawItem{
				{ItemType: "lodging", TxDate: "2024-03-04", AmountCents: 70001, Meta: json.RawMessage(`{"nights":4,"tax_cents":8000}`)},
				{ItemType: "mileage", TxDate: "2024-03-04", Meta: json.RawMessage(`{"miles":"33.3"}`)},
				{ItemType: "misc", TxDate: "2024-03-07", AmountCents: 1999},
			}

			first, _, err := engine.Recompute(ctx, t, items)
			Expect(err).NotTo(HaveOccurred())
			second, _, err := engine.Recompute(ctx, t, items)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))

			a, _ := json.Marshal(first)
			b, _ := json.Marshal(second)
			Expect(a).To(Equal(b))
			expectBalanced(first)
		})

		It("should change the input fingerprint when an item changes", func() {
			t := daytonTrip("2024-03-04", "2024-03-06")
			items := []lineitem.RawItem{{ItemType: "misc", TxDate: "2024-03-05", AmountCents: 100}}
			before, _, err := engine.Recompute(ctx, t, items)
			Expect(err).NotTo(HaveOccurred())

			items[0].AmountCents = 101
			after, _, err := engine.Recompute(ctx, t, items)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.InputFingerprint).NotTo(Equal(before.InputFingerprint))
		})
	})
})

var _ = Describe("Compose", func() {
	It("should book lodging tax on the folio's first night", func() {
		t := trip.Trip{
			DepartureDate: calendar.MustParse("2024-03-04"),
			ReturnDate:    calendar.MustParse("2024-03-06"),
			Locality:      trip.SingleLocality("OH-DAYTON"),
		}
		days := []estimate.DailyEntitlement{
			{Date: calendar.MustParse("2024-03-04"), IsTravelDay: true, MIERateCents: 100, MIEAllowedCents: 75, LodgingCapCents: 1000},
			{Date: calendar.MustParse("2024-03-05"), MIERateCents: 100, MIEAllowedCents: 100, LodgingCapCents: 1000},
			{Date: calendar.MustParse("2024-03-06"), IsTravelDay: true, MIERateCents: 100, MIEAllowedCents: 75, LodgingCapCents: 1000},
		}
		items := []lineitem.LineItem{{
			Date: calendar.MustParse("2024-03-04"), AmountCents: 2200,
			Details: lineitem.LodgingDetails{Nights: 2, TaxCents: 200},
		}}

		totals := estimate.Compose(t, days, items)
		Expect(totals.Ledger[0].LodgingTaxCents).To(Equal(int64(200)))
		Expect(totals.Ledger[1].LodgingTaxCents).To(BeZero())
		Expect(totals.Ledger[0].LodgingCents).To(Equal(int64(1000)))
		Expect(totals.Ledger[1].LodgingCents).To(Equal(int64(1000)))
		Expect(totals.LodgingAllowedCents).To(Equal(int64(2200)))
		expectBalanced(totals)
	})
})
