package mcp

import (
	"encoding/json"
	"fmt"
	"io"
)

var nullID = json.RawMessage("null")

// DecodeRequest parses one newline-delimited message. The returned RPCError
// carries the JSON-RPC code to answer with.
func DecodeRequest(line []byte) (*Request, *RPCError) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, &RPCError{Code: CodeParseError, Message: fmt.Sprintf("Parse error: %v", err)}
	}
	if req.JSONRPC != "2.0" {
		return &req, &RPCError{Code: CodeInvalidRequest, Message: fmt.Sprintf("Invalid request: unsupported jsonrpc version %q", req.JSONRPC)}
	}
	if req.Method == "" {
		return &req, &RPCError{Code: CodeInvalidRequest, Message: "Invalid request: missing method"}
	}
	return &req, nil
}

// EncodeResponse writes resp as a single line.
func EncodeResponse(w io.Writer, resp *Response) error {
	resp.JSONRPC = "2.0"
	if len(resp.ID) == 0 {
		resp.ID = nullID
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}
