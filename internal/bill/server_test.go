package bill

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

// multipartBody builds a multipart request body with one file part
func multipartBody(field, filename string, content []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = fw.Write(content)
	Expect(err).NotTo(HaveOccurred())
	Expect(w.Close()).To(Succeed())
	return &buf, w.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		extractor   *mockExtractor
		service     *Service
		auth        BasicAuth
		maxBytes    int64
		server      *Server
		ghttpServer *ghttp.Server
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		extractor = newMockExtractor()
		auth = BasicAuth{}
		maxBytes = DefaultMaxUploadBytes
	})

	JustBeforeEach(func() {
		service = NewServiceWithDeps(db, storage, extractor, singlePage, &mockIDGenerator{}, &mockTimeSource{now: time.Now()})
		server = NewServerWithMux(service, auth, maxBytes, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("POST /upload", func() {
		When("one valid file is uploaded", func() {
			It("returns the extraction results", func() {
				body, contentType := multipartBody("files", "bill.png", []byte("image bytes"))
				resp, err := http.Post(ghttpServer.URL()+"/upload", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var payload struct {
					Success bool     `json:"success"`
					Results []Result `json:"results"`
				}
				Expect(json.NewDecoder(resp.Body).Decode(&payload)).To(Succeed())
				Expect(payload.Success).To(BeTrue())
				Expect(payload.Results).To(HaveLen(1))
				Expect(payload.Results[0].File).To(Equal("bill"))
				Expect(payload.Results[0].Data.PumpName).To(Equal("Tungar Petroleum"))
			})
		})

		When("the files field is absent", func() {
			It("returns 400", func() {
				body, contentType := multipartBody("other", "bill.png", []byte("image bytes"))
				resp, err := http.Post(ghttpServer.URL()+"/upload", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var payload map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&payload)).To(Succeed())
				Expect(payload["error"]).To(Equal("No files part in the request"))
			})
		})

		When("the body is not multipart", func() {
			It("returns 400", func() {
				resp, err := http.Post(ghttpServer.URL()+"/upload", "application/json", bytes.NewBufferString(`{}`))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("a part exceeds the size ceiling", func() {
			BeforeEach(func() {
				maxBytes = 1024
			})

			It("returns 413 with a file-too-large error", func() {
				body, contentType := multipartBody("files", "huge.png", bytes.Repeat([]byte("x"), 4096))
				resp, err := http.Post(ghttpServer.URL()+"/upload", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusRequestEntityTooLarge))

				raw, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(raw)).To(ContainSubstring("File too large"))
			})

			It("never reaches the extraction service", func() {
				body, contentType := multipartBody("files", "huge.png", bytes.Repeat([]byte("x"), 4096))
				resp, err := http.Post(ghttpServer.URL()+"/upload", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()

				Expect(extractor.calls).To(Equal(0))
			})
		})
	})

	Describe("GET /health", func() {
		When("all components respond", func() {
			It("reports healthy components", func() {
				resp, err := http.Get(ghttpServer.URL() + "/health")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var payload HealthStatus
				Expect(json.NewDecoder(resp.Body).Decode(&payload)).To(Succeed())
				Expect(payload.Status).To(Equal("healthy"))
				Expect(payload.Components).To(HaveKey("gemini_api"))
				Expect(payload.Components).To(HaveKey("upload_directory"))
				Expect(payload.Components).To(HaveKey("pdf_processing"))
			})
		})
	})

	Describe("GET /api/batches", func() {
		When("history contains a batch", func() {
			BeforeEach(func() {
				db.batches["b1"] = &Batch{ID: "b1"}
			})

			It("returns the recorded batches", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/batches")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var batches []*Batch
				Expect(json.NewDecoder(resp.Body).Decode(&batches)).To(Succeed())
				Expect(batches).To(HaveLen(1))
				Expect(batches[0].ID).To(Equal("b1"))
			})
		})
	})

	Describe("GET /api/batches/{id}", func() {
		When("the batch does not exist", func() {
			It("returns 404", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/batches/nope")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "user", Password: "pass"}
		})

		When("credentials are missing", func() {
			It("returns 401", func() {
				body, contentType := multipartBody("files", "bill.png", []byte("image bytes"))
				resp, err := http.Post(ghttpServer.URL()+"/upload", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})

		When("credentials are correct", func() {
			It("processes the upload", func() {
				body, contentType := multipartBody("files", "bill.png", []byte("image bytes"))
				req, err := http.NewRequest("POST", ghttpServer.URL()+"/upload", body)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Content-Type", contentType)
				req.SetBasicAuth("user", "pass")

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})

		When("the health endpoint is probed without credentials", func() {
			It("stays reachable", func() {
				resp, err := http.Get(ghttpServer.URL() + "/health")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})
	})
})
