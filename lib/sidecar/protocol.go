// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sidecar

import "encoding/json"

// jsonRPCVersion is the protocol version stamped on every request.
const jsonRPCVersion = "2.0"

// request is one line written to the worker's stdin.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// response is one line read from the worker's stdout. ID is a pointer
// so an absent id can be told apart from id 0.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *responseError  `json:"error,omitempty"`
}

type responseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// nullResult is returned for a response with neither result nor error.
var nullResult = json.RawMessage("null")

// emptyParams is sent in place of nil params.
var emptyParams = json.RawMessage("{}")
