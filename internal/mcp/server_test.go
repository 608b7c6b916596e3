package mcp_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"snowbridge.app/bridge/internal/mcp"
	"snowbridge.app/bridge/internal/tools"
)

// noInstances satisfies tools.Clients for tests that never reach an instance.
type noInstances struct{}

func (noInstances) Instance(string) (tools.RecordAPI, error) {
	return nil, errors.New("no instances configured")
}

func request(id int, method string, params any) mcp.Request {
	req := mcp.Request{
		JSONRPC: mcp.JSONRPCVersion,
		ID:      json.RawMessage(`1`),
		Method:  method,
	}
	if id != 1 {
		b, _ := json.Marshal(id)
		req.ID = b
	}
	if params != nil {
		b, err := json.Marshal(params)
		Expect(err).NotTo(HaveOccurred())
		req.Params = b
	}
	return req
}

var _ = Describe("Server", func() {
	var (
		server *mcp.Server
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		registry := tools.NewRegistry(noInstances{})
		server = mcp.NewServer(registry, mcp.ServerInfo{Name: "snowbridge", Version: "test"})
	})

	It("answers initialize with capabilities and server info", func() {
		resp := server.Handle(ctx, request(1, "initialize", nil))
		Expect(resp).NotTo(BeNil())
		Expect(resp.Error).To(BeNil())

		result := resp.Result.(map[string]any)
		Expect(result["protocolVersion"]).To(Equal(mcp.ProtocolVersion))
		Expect(result["serverInfo"]).To(Equal(mcp.ServerInfo{Name: "snowbridge", Version: "test"}))
	})

	It("swallows the initialized notification", func() {
		req := mcp.Request{JSONRPC: mcp.JSONRPCVersion, Method: "notifications/initialized"}
		Expect(server.Handle(ctx, req)).To(BeNil())
	})

	It("answers ping", func() {
		resp := server.Handle(ctx, request(1, "ping", nil))
		Expect(resp).NotTo(BeNil())
		Expect(resp.Error).To(BeNil())
	})

	It("lists every registered tool", func() {
		resp := server.Handle(ctx, request(1, "tools/list", nil))
		Expect(resp.Error).To(BeNil())

		result := resp.Result.(map[string]any)
		listed := result["tools"].([]tools.Tool)
		Expect(len(listed)).To(Equal(8))
	})

	It("rejects unknown methods with method-not-found", func() {
		resp := server.Handle(ctx, request(1, "resources/list", nil))
		Expect(resp.Error).NotTo(BeNil())
		Expect(resp.Error.Code).To(Equal(mcp.CodeMethodNotFound))
	})

	It("ignores unknown notifications", func() {
		req := mcp.Request{JSONRPC: mcp.JSONRPCVersion, Method: "notifications/cancelled"}
		Expect(server.Handle(ctx, req)).To(BeNil())
	})

	Describe("tools/call", func() {
		It("returns the tool payload as text content", func() {
			resp := server.Handle(ctx, request(1, "tools/call", mcp.CallParams{
				Name:      "translate_query",
				Arguments: json.RawMessage(`{"query":"unassigned","table":"incident"}`),
			}))
			Expect(resp.Error).To(BeNil())

			result := resp.Result.(mcp.CallResult)
			Expect(result.IsError).To(BeFalse())
			Expect(result.Content).To(HaveLen(1))
			Expect(result.Content[0].Type).To(Equal("text"))
			Expect(result.Content[0].Text).To(ContainSubstring(`"assigned_toISEMPTY"`))
		})

		It("wraps tool failures as error results, not protocol errors", func() {
			resp := server.Handle(ctx, request(1, "tools/call", mcp.CallParams{
				Name:      "get_record",
				Arguments: json.RawMessage(`{"table":"incident","sys_id":"x"}`),
			}))
			Expect(resp.Error).To(BeNil())

			result := resp.Result.(mcp.CallResult)
			Expect(result.IsError).To(BeTrue())
			Expect(result.Content[0].Text).To(ContainSubstring("no instances configured"))
		})

		It("rejects a call without a tool name", func() {
			resp := server.Handle(ctx, request(1, "tools/call", mcp.CallParams{}))
			Expect(resp.Error).NotTo(BeNil())
			Expect(resp.Error.Code).To(Equal(mcp.CodeInvalidParams))
		})

		It("rejects malformed params", func() {
			req := request(1, "tools/call", nil)
			req.Params = json.RawMessage(`{`)
			resp := server.Handle(ctx, req)
			Expect(resp.Error).NotTo(BeNil())
			Expect(resp.Error.Code).To(Equal(mcp.CodeInvalidParams))
		})
	})
})
