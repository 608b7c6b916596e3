package servicenow_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"snowbridge.app/bridge/internal/servicenow"
)

var _ = Describe("CreateWorkflow", func() {
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
		client, err = servicenow.New(servicenow.Config{BaseURL: server.URL, Username: "u", Password: "p"})
		Expect(err).NotTo(HaveOccurred())

		created := 0
		fake.handler = func(w http.ResponseWriter, r *http.Request) {
			created++
			writeResult(w, http.StatusCreated, map[string]any{"sys_id": fmt.Sprintf("sys%d", created)})
		}
	})

	AfterEach(func() {
		server.Close()
	})

	It("creates workflow, version and activities in order", func() {
		wf, err := client.CreateWorkflow(ctx, servicenow.WorkflowSpec{
			Name:  "Incident escalation",
			Table: "incident",
			Activities: []servicenow.ActivitySpec{
				{Name: "Notify manager"},
				{Name: "Escalate to P1", Script: "current.priority = 1;"},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(wf.WorkflowID).To(Equal("sys1"))
		Expect(wf.VersionID).To(Equal("sys2"))
		Expect(wf.ActivityIDs).To(Equal([]string{"sys3", "sys4"}))

		Expect(fake.requests).To(HaveLen(4))
		Expect(fake.requests[0].URL.Path).To(HaveSuffix("/wf_workflow"))
		Expect(fake.requests[1].URL.Path).To(HaveSuffix("/wf_workflow_version"))
		Expect(fake.bodies[1]).To(HaveKeyWithValue("workflow", "sys1"))
		Expect(fake.requests[2].URL.Path).To(HaveSuffix("/wf_activity"))
		Expect(fake.bodies[2]).To(HaveKeyWithValue("workflow_version", "sys2"))
		// Activities get spaced order values so steps can be inserted later.
		Expect(fake.bodies[2]).To(HaveKeyWithValue("order", float64(100)))
		Expect(fake.bodies[3]).To(HaveKeyWithValue("order", float64(200)))
	})

	It("rejects a workflow with no name", func() {
		_, err := client.CreateWorkflow(ctx, servicenow.WorkflowSpec{Table: "incident"})
		Expect(err).To(HaveOccurred())
		Expect(fake.requests).To(BeEmpty())
	})
})

var _ = Describe("CloneUpdateSet", func() {
	var (
		server *httptest.Server
		client *servicenow.Client
		ctx    context.Context

		createdSets    []map[string]any
		createdMembers []map[string]any
	)

	BeforeEach(func() {
		ctx = context.Background()
		createdSets = nil
		createdMembers = nil

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/now/table/sys_update_set/src1", func(w http.ResponseWriter, r *http.Request) {
			writeResult(w, http.StatusOK, map[string]any{
				"sys_id":      "src1",
				"name":        "Release 42",
				"description": "release payload",
				"application": "global",
			})
		})
		mux.HandleFunc("POST /api/now/table/sys_update_set", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			createdSets = append(createdSets, body)
			writeResult(w, http.StatusCreated, map[string]any{"sys_id": "clone1"})
		})
		mux.HandleFunc("GET /api/now/table/sys_update_xml", func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Query().Get("sysparm_query")).To(Equal("update_set=src1"))
			if r.URL.Query().Get("sysparm_offset") != "" {
				writeResult(w, http.StatusOK, []map[string]any{})
				return
			}
			writeResult(w, http.StatusOK, []map[string]any{
				{"sys_id": "m1", "name": "sys_script_abc", "type": "Business Rule", "payload": "<xml/>"},
				{"sys_id": "m2", "name": "sys_ui_page_def", "type": "UI Page", "payload": "<xml/>"},
			})
		})
		mux.HandleFunc("POST /api/now/table/sys_update_xml", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			createdMembers = append(createdMembers, body)
			writeResult(w, http.StatusCreated, map[string]any{"sys_id": fmt.Sprintf("copy%d", len(createdMembers))})
		})

		server = httptest.NewServer(mux)
		var err error
		client, err = servicenow.New(servicenow.Config{BaseURL: server.URL, Username: "u", Password: "p"})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("copies the set and every member into a fresh set", func() {
		clone, err := client.CloneUpdateSet(ctx, "src1", "Release 42 hotfix")
		Expect(err).NotTo(HaveOccurred())
		Expect(clone.SourceID).To(Equal("src1"))
		Expect(clone.CloneID).To(Equal("clone1"))
		Expect(clone.MemberCount).To(Equal(2))

		Expect(createdSets).To(HaveLen(1))
		Expect(createdSets[0]).To(HaveKeyWithValue("name", "Release 42 hotfix"))
		Expect(createdSets[0]).To(HaveKeyWithValue("state", "in progress"))

		Expect(createdMembers).To(HaveLen(2))
		for _, m := range createdMembers {
			Expect(m).To(HaveKeyWithValue("update_set", "clone1"))
		}
		Expect(createdMembers[0]).To(HaveKeyWithValue("name", "sys_script_abc"))
	})

	It("derives a copy name when none is given", func() {
		clone, err := client.CloneUpdateSet(ctx, "src1", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(clone.CloneID).To(Equal("clone1"))
		Expect(createdSets[0]["name"]).To(Equal("Release 42 (copy)"))
		Expect(strings.HasPrefix(createdSets[0]["name"].(string), "Release 42")).To(BeTrue())
	})
})
