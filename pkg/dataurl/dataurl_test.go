package dataurl_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/magicprompt/pkg/dataurl"
)

var _ = Describe("dataurl", func() {
	const payload = "iVBORw0KGgoAAAANSUhEUg=="

	Describe("Parse", func() {
		It("splits a base64 data URL", func() {
			mime, data, ok := dataurl.Parse("data:image/png;base64," + payload)

			Expect(ok).To(BeTrue())
			Expect(mime).To(Equal("image/png"))
			Expect(data).To(Equal(payload))
		})

		It("rejects raw base64", func() {
			_, _, ok := dataurl.Parse(payload)

			Expect(ok).To(BeFalse())
		})

		It("rejects non-base64 data URLs", func() {
			_, _, ok := dataurl.Parse("data:text/plain,hello")

			Expect(ok).To(BeFalse())
		})
	})

	Describe("Strip", func() {
		DescribeTable("removes any image prefix",
			func(input string) {
				Expect(dataurl.Strip(input)).To(Equal(payload))
			},
			Entry("jpeg", "data:image/jpeg;base64,"+payload),
			Entry("png", "data:image/png;base64,"+payload),
			Entry("webp", "data:image/webp;base64,"+payload),
			Entry("already raw", payload),
		)
	})

	Describe("Encode and Normalize", func() {
		It("round-trips a data URL byte for byte", func() {
			original := "data:image/jpeg;base64," + payload

			mime, data, ok := dataurl.Parse(original)
			Expect(ok).To(BeTrue())
			Expect(dataurl.Encode(mime, dataurl.Strip(original))).To(Equal(original))
			Expect(dataurl.Encode(mime, data)).To(Equal(original))
		})

		It("wraps raw base64 with the fallback type", func() {
			Expect(dataurl.Normalize(payload, "image/webp")).To(Equal("data:image/webp;base64," + payload))
		})

		It("keeps an existing prefix", func() {
			in := "data:image/png;base64," + payload
			Expect(dataurl.Normalize(in, "image/webp")).To(Equal(in))
		})
	})

	Describe("Decode", func() {
		It("decodes raw and prefixed forms identically", func() {
			raw, err := dataurl.Decode("aGVsbG8=")
			Expect(err).NotTo(HaveOccurred())

			prefixed, err := dataurl.Decode("data:text/plain;base64,aGVsbG8=")
			Expect(err).NotTo(HaveOccurred())

			Expect(raw).To(Equal([]byte("hello")))
			Expect(prefixed).To(Equal(raw))
		})

		It("tolerates missing padding", func() {
			data, err := dataurl.Decode("aGVsbG8")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("hello")))
		})

		It("fails on garbage", func() {
			_, err := dataurl.Decode("!!!not base64!!!")
			Expect(err).To(HaveOccurred())
		})
	})
})
