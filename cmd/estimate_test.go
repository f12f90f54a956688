package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/voucher"
)

var _ = Describe("estimate command", func() {
	const sample = "../testdata/dayton_trip.json"

	BeforeEach(func() {
		estimateAsVoucher, estimatePremium, estimateFromDB = false, false, false
	})

	It("should print the totals for the sample trip", func() {
		var out bytes.Buffer
		Expect(runEstimate(context.Background(), sample, &out)).To(Succeed())

		var resp estimate.EstimateResponse
		Expect(json.Unmarshal(out.Bytes(), &resp)).To(Succeed())
		Expect(resp.Trip.Days).To(Equal(3))
		Expect(resp.Totals.MIETotalCents).To(Equal(int64(14750)))
		Expect(resp.Totals.LodgingAllowedCents).To(Equal(int64(32000)))
		Expect(resp.Totals.MileageTotalCents).To(Equal(int64(8040)))
		Expect(resp.Totals.MiscTotalCents).To(Equal(int64(8000)))
		Expect(resp.Totals.GrandTotalCents).To(Equal(int64(62790)))
	})

	It("should refuse to finalize without premium access", func() {
		estimateAsVoucher = true
		err := runEstimate(context.Background(), sample, &bytes.Buffer{})
		Expect(err).To(MatchError(ContainSubstring("ACCESS_DENIED")))
	})

	It("should print an importable voucher with premium access", func() {
		estimateAsVoucher, estimatePremium = true, true
		var out bytes.Buffer
		Expect(runEstimate(context.Background(), sample, &out)).To(Succeed())

		v, err := voucher.Import(out.Bytes())
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Estimate.GrandTotalCents).To(Equal(int64(62790)))
		Expect(v.Checklist).To(ContainElement(ContainSubstring("Add origin and destination")))
		Expect(v.Ready()).To(BeFalse())
	})

	It("should require a rates table when not reading from the database", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trip.json")
		Expect(os.WriteFile(path, []byte(`{"trip":{"id":"t","departure_date":"2024-03-04","return_date":"2024-03-04","locality":"OH-DAYTON"}}`), 0o600)).To(Succeed())
		Expect(runEstimate(context.Background(), path, &bytes.Buffer{})).To(MatchError(ContainSubstring("no rates")))
	})

	It("should report invalid items by code", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trip.json")
		Expect(os.WriteFile(path, []byte(`{
			"trip":{"id":"t","departure_date":"2024-03-04","return_date":"2024-03-04","locality":"OH-DAYTON"},
			"items":[{"item_type":"lodging","tx_date":"2024-03-09","amount_cents":100}],
			"rates":[{"locality":"OH-DAYTON","mie_rate_cents":5900,"lodging_cap_cents":15000,"mileage_rate_cents":67}]
		}`), 0o600)).To(Succeed())
		Expect(runEstimate(context.Background(), path, &bytes.Buffer{})).To(MatchError(ContainSubstring("INVALID_INPUT")))
	})
})
