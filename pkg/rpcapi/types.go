/*
Package rpcapi contains a set of types used for JSON-RPC communication with
the assetkit node. It defines basic request/response types, errors and
parameters of the node methods.
*/
package rpcapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"
	// maxBatchSize is the maximum number of requests per batch.
	maxBatchSize = 100
)

type (
	// In represents a standard JSON-RPC 2.0 request as received by the
	// server: http://www.jsonrpc.org/specification#request_object.
	In struct {
		JSONRPC   string          `json:"jsonrpc"`
		Method    string          `json:"method"`
		RawParams json.RawMessage `json:"params,omitempty"`
		RawID     json.RawMessage `json:"id,omitempty"`
	}

	// Request contains a standard JSON-RPC 2.0 request or a batch of them.
	Request struct {
		In    *In
		Batch []In
	}

	// Header is a generic JSON-RPC 2.0 response header (ID and JSON-RPC version).
	Header struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the Header, it's used
	// to construct type-specific responses.
	HeaderAndError struct {
		Header
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0
	// response: http://www.jsonrpc.org/specification#response_object.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}
)

// NewIn creates a new In with default values.
func NewIn() *In {
	return &In{
		JSONRPC: JSONRPCVersion,
	}
}

// NewRequest creates a new Request object.
func NewRequest() *Request {
	return &Request{}
}

// DecodeData decodes the given reader into the request. It supports both
// single requests and batches.
func (r *Request) DecodeData(data io.ReadCloser) error {
	defer data.Close()

	rawData := json.RawMessage{}
	err := json.NewDecoder(data).Decode(&rawData)
	if err != nil {
		return fmt.Errorf("error parsing JSON payload: %w", err)
	}

	return r.UnmarshalJSON(rawData)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *Request) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) != 0 && data[0] == '[' {
		var batch []In
		if err := json.Unmarshal(data, &batch); err != nil {
			return fmt.Errorf("error parsing JSON batch payload: %w", err)
		}
		if len(batch) == 0 {
			return errors.New("empty batch")
		}
		if len(batch) > maxBatchSize {
			return fmt.Errorf("batch is too big (%d > %d)", len(batch), maxBatchSize)
		}
		r.In, r.Batch = nil, batch
		return nil
	}
	in := NewIn()
	if err := json.Unmarshal(data, in); err != nil {
		return fmt.Errorf("error parsing JSON payload: %w", err)
	}
	r.In, r.Batch = in, nil
	return nil
}

// Params returns In parameters, nil if there are none.
func (in *In) Params() (Params, error) {
	if len(in.RawParams) == 0 {
		return nil, nil
	}
	var ps Params
	if err := json.Unmarshal(in.RawParams, &ps); err != nil {
		return nil, fmt.Errorf("params must be an array: %w", err)
	}
	return ps, nil
}
