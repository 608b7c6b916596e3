package servicenow_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"snowbridge.app/bridge/internal/servicenow"
)

// fakeInstance is a minimal Table API double: canned responses per
// method+path, with request capture for assertions.
type fakeInstance struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]any
	handler  http.HandlerFunc
}

func (f *fakeInstance) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(r.Context()))
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()
	f.handler(w, r)
}

func writeResult(w http.ResponseWriter, status int, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
}

var _ = Describe("Client", func() {
	var (
		fake   *fakeInstance
		server *httptest.Server
		client *servicenow.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = &fakeInstance{}
		server = httptest.NewServer(fake)
		var err error
		client, err = servicenow.New(servicenow.Config{
			BaseURL:  server.URL,
			Username: "bridge",
			Password: "secret",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("New", func() {
		It("rejects an empty base URL", func() {
			_, err := servicenow.New(servicenow.Config{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetRecord", func() {
		It("unwraps the result envelope and sends basic auth", func() {
			fake.handler = func(w http.ResponseWriter, r *http.Request) {
				writeResult(w, http.StatusOK, map[string]any{
					"sys_id": "abc123",
					"number": "INC0010001",
				})
			}

			rec, err := client.GetRecord(ctx, "incident", "abc123")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.SysID()).To(Equal("abc123"))
			Expect(rec.Field("number")).To(Equal("INC0010001"))

			req := fake.requests[0]
			Expect(req.URL.Path).To(Equal("/api/now/table/incident/abc123"))
			user, pass, ok := req.BasicAuth()
			Expect(ok).To(BeTrue())
			Expect(user).To(Equal("bridge"))
			Expect(pass).To(Equal("secret"))
		})

		It("maps 404 to a not-found API error", func() {
			fake.handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":{"message":"No Record found","detail":"Record doesn't exist"}}`))
			}

			_, err := client.GetRecord(ctx, "incident", "missing")
			Expect(err).To(HaveOccurred())
			Expect(servicenow.IsNotFound(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("No Record found"))
		})
	})

	Describe("ListRecords", func() {
		It("encodes the query parameters", func() {
			fake.handler = func(w http.ResponseWriter, r *http.Request) {
				writeResult(w, http.StatusOK, []map[string]any{{"sys_id": "a"}, {"sys_id": "b"}})
			}

			recs, err := client.ListRecords(ctx, "incident", servicenow.ListParams{
				Query:  "priority=1^state=2",
				Fields: []string{"sys_id", "number"},
				Limit:  10,
				Offset: 20,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(2))

			q := fake.requests[0].URL.Query()
			Expect(q.Get("sysparm_query")).To(Equal("priority=1^state=2"))
			Expect(q.Get("sysparm_fields")).To(Equal("sys_id,number"))
			Expect(q.Get("sysparm_limit")).To(Equal("10"))
			Expect(q.Get("sysparm_offset")).To(Equal("20"))
		})
	})

	Describe("ListAllRecords", func() {
		It("pages until a short page comes back", func() {
			fake.handler = func(w http.ResponseWriter, r *http.Request) {
				offset, _ := strconv.Atoi(r.URL.Query().Get("sysparm_offset"))
				var page []map[string]any
				// 5 records total, page size 2: pages of 2, 2, 1.
				for i := offset; i < offset+2 && i < 5; i++ {
					page = append(page, map[string]any{"sys_id": fmt.Sprintf("rec%d", i)})
				}
				writeResult(w, http.StatusOK, page)
			}

			recs, err := client.ListAllRecords(ctx, "incident", "active=true", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(5))
			Expect(recs[4].SysID()).To(Equal("rec4"))
			Expect(fake.requests).To(HaveLen(3))
		})
	})

	Describe("CreateRecord", func() {
		It("posts the fields as JSON", func() {
			fake.handler = func(w http.ResponseWriter, r *http.Request) {
				writeResult(w, http.StatusCreated, map[string]any{"sys_id": "new1"})
			}

			rec, err := client.CreateRecord(ctx, "incident", map[string]any{
				"short_description": "printer on fire",
				"priority":          "1",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.SysID()).To(Equal("new1"))

			Expect(fake.requests[0].Method).To(Equal(http.MethodPost))
			Expect(fake.bodies[0]).To(HaveKeyWithValue("short_description", "printer on fire"))
		})
	})

	Describe("UpdateRecord", func() {
		It("patches the record", func() {
			fake.handler = func(w http.ResponseWriter, r *http.Request) {
				writeResult(w, http.StatusOK, map[string]any{"sys_id": "abc123", "state": "6"})
			}

			rec, err := client.UpdateRecord(ctx, "incident", "abc123", map[string]any{"state": "6"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Field("state")).To(Equal("6"))
			Expect(fake.requests[0].Method).To(Equal(http.MethodPatch))
		})
	})

	Describe("DeleteRecord", func() {
		It("accepts an empty 204 response", func() {
			fake.handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}

			Expect(client.DeleteRecord(ctx, "incident", "abc123")).To(Succeed())
			Expect(fake.requests[0].Method).To(Equal(http.MethodDelete))
		})
	})

	Describe("Record.Field", func() {
		It("unwraps display-value envelopes", func() {
			rec := servicenow.Record{
				"plain":   "text",
				"wrapped": map[string]any{"value": "7", "display_value": "Closed"},
			}
			Expect(rec.Field("plain")).To(Equal("text"))
			Expect(rec.Field("wrapped")).To(Equal("7"))
			Expect(rec.Field("missing")).To(Equal(""))
		})
	})
})
