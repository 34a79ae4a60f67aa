package extraction

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// testImageBytes encodes a small solid image in the given format
func testImageBytes(encode func(*bytes.Buffer, image.Image) error) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	Expect(encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("ExtractPages", func() {
	var (
		data     []byte
		filename string
		pages    [][]byte
		err      error
	)

	JustBeforeEach(func() {
		pages, err = ExtractPages(data, filename)
	})

	When("the file is a PNG image", func() {
		BeforeEach(func() {
			filename = "bill.png"
			data = testImageBytes(func(buf *bytes.Buffer, img image.Image) error {
				return png.Encode(buf, img)
			})
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should produce exactly one page", func() {
			Expect(pages).To(HaveLen(1))
		})

		It("should produce a decodable PNG page", func() {
			img, decodeErr := png.Decode(bytes.NewReader(pages[0]))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(8))
		})
	})

	When("the file is a JPEG image", func() {
		BeforeEach(func() {
			filename = "bill.jpg"
			data = testImageBytes(func(buf *bytes.Buffer, img image.Image) error {
				return jpeg.Encode(buf, img, nil)
			})
		})

		It("should produce exactly one PNG page", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(pages).To(HaveLen(1))
			_, decodeErr := png.Decode(bytes.NewReader(pages[0]))
			Expect(decodeErr).NotTo(HaveOccurred())
		})
	})

	When("the image bytes are not decodable", func() {
		BeforeEach(func() {
			filename = "bill.jpg"
			data = []byte("definitely not an image")
		})

		It("returns an image decode error", func() {
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, ErrImageDecode)).To(BeTrue())
		})

		It("produces no pages", func() {
			Expect(pages).To(BeNil())
		})
	})

	When("the file is a corrupt PDF", func() {
		BeforeEach(func() {
			filename = "bill.pdf"
			data = []byte("%PDF-1.4 this is not really a document")
		})

		It("returns a PDF processing error", func() {
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, ErrPDFProcessing) || errors.Is(err, ErrEmptyDocument)).To(BeTrue())
		})
	})

	When("the extension is upper case", func() {
		BeforeEach(func() {
			filename = "BILL.PNG"
			data = testImageBytes(func(buf *bytes.Buffer, img image.Image) error {
				return png.Encode(buf, img)
			})
		})

		It("dispatches by the lowered extension", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(pages).To(HaveLen(1))
		})
	})
})

var _ = Describe("isHEICFormat", func() {
	It("detects the heic ftyp brand", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
		data = append(data, make([]byte, 8)...)
		Expect(isHEICFormat(data)).To(BeTrue())
	})

	It("rejects short or unrelated data", func() {
		Expect(isHEICFormat([]byte("short"))).To(BeFalse())
		Expect(isHEICFormat([]byte("definitely not a heic file"))).To(BeFalse())
	})
})
