package voucher_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/voucher"
)

var _ = Describe("Lifecycle", func() {
	var (
		ctx       context.Context
		assembler *voucher.Assembler
		draft     voucher.Lifecycle
	)

	BeforeEach(func() {
		ctx = context.Background()
		assembler = voucher.NewAssembler()
		draft = voucher.NewDraft(sampleTrip(), sampleItems())
	})

	It("should start as a draft", func() {
		Expect(draft.Stage()).To(Equal(voucher.StageDraft))
		_, ok := draft.Estimate()
		Expect(ok).To(BeFalse())
	})

	It("should refuse to finalize a draft", func() {
		_, err := draft.Finalize(assembler, true)
		Expect(internal.HasCode(err, internal.ErrCodeInvalidTransition)).To(BeTrue())
	})

	It("should move draft to estimated without touching the original", func() {
		estimated, err := draft.Recompute(ctx, newEngine())
		Expect(err).NotTo(HaveOccurred())
		Expect(estimated.Stage()).To(Equal(voucher.StageEstimated))
		Expect(draft.Stage()).To(Equal(voucher.StageDraft))

		again, err := estimated.Recompute(ctx, newEngine())
		Expect(err).NotTo(HaveOccurred())
		a, _ := estimated.Estimate()
		b, _ := again.Estimate()
		Expect(b).To(Equal(a))
	})

	It("should deny finalization without the claim and produce no voucher", func() {
		estimated, err := draft.Recompute(ctx, newEngine())
		Expect(err).NotTo(HaveOccurred())

		denied, err := estimated.Finalize(assembler, false)
		Expect(internal.HasCode(err, internal.ErrCodeAccessDenied)).To(BeTrue())
		_, ok := denied.Voucher()
		Expect(ok).To(BeFalse())
		Expect(denied.Stage()).To(Equal(voucher.StageEstimated))
	})

	It("should finalize idempotently", func() {
		estimated, _ := draft.Recompute(ctx, newEngine())
		finalized, err := estimated.Finalize(assembler, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(finalized.Stage()).To(Equal(voucher.StageFinalized))

		v1, _ := finalized.Voucher()
		again, err := finalized.Finalize(assembler, true)
		Expect(err).NotTo(HaveOccurred())
		v2, _ := again.Voucher()
		Expect(v2).To(BeIdenticalTo(v1))

		fresh, _ := estimated.Finalize(assembler, true)
		v3, _ := fresh.Voucher()
		Expect(v3.ID).To(Equal(v1.ID))
	})

	It("should not recompute a finalized lifecycle", func() {
		estimated, _ := draft.Recompute(ctx, newEngine())
		finalized, _ := estimated.Finalize(assembler, true)

		_, err := finalized.Recompute(ctx, newEngine())
		Expect(internal.HasCode(err, internal.ErrCodeInvalidTransition)).To(BeTrue())
	})

	It("should refuse an estimate computed from other inputs", func() {
		estimated, _ := draft.Recompute(ctx, newEngine())
		totals, _ := estimated.Estimate()

		items := sampleItems()
		items[2].AmountCents = 9000
		revised := estimated.Revise(sampleTrip(), items)
		Expect(revised.Stage()).To(Equal(voucher.StageDraft))

		stale, err := revised.WithEstimate(totals)
		Expect(err).NotTo(HaveOccurred())
		_, err = stale.Finalize(assembler, true)
		Expect(internal.HasCode(err, internal.ErrCodeStaleEstimate)).To(BeTrue())
	})

	It("should drop the voucher on revise", func() {
		estimated, _ := draft.Recompute(ctx, newEngine())
		finalized, _ := estimated.Finalize(assembler, true)

		revised := finalized.Revise(sampleTrip(), []lineitem.LineItem{})
		Expect(revised.Stage()).To(Equal(voucher.StageDraft))
		_, ok := revised.Voucher()
		Expect(ok).To(BeFalse())
	})
})
