// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sidecar

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// channel frames requests and responses on a worker's pipes. It is not
// safe for concurrent use; the Manager's guard serializes access.
type channel struct {
	writer *bufio.Writer
	reader *bufio.Reader
}

func newChannel(stdin io.Writer, stdout io.Reader) *channel {
	return &channel{
		writer: bufio.NewWriter(stdin),
		reader: bufio.NewReader(stdout),
	}
}

// call sends one request and reads one response line.
func (c *channel) call(id uint64, method string, params any) (json.RawMessage, error) {
	if params == nil {
		params = emptyParams
	}
	line, err := json.Marshal(request{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, &ChannelError{Op: OpSerialize, Err: err}
	}
	line = append(line, '\n')

	if _, err := c.writer.Write(line); err != nil {
		return nil, &ChannelError{Op: OpWrite, Err: err}
	}
	if err := c.writer.Flush(); err != nil {
		return nil, &ChannelError{Op: OpFlush, Err: err}
	}

	reply, err := c.reader.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(reply) > 0) {
		return nil, &ChannelError{Op: OpRead, Err: err}
	}

	var decoded response
	if err := json.Unmarshal(reply, &decoded); err != nil {
		return nil, &ChannelError{Op: OpParse, Err: err}
	}
	if decoded.ID != nil && *decoded.ID != id {
		return nil, &ChannelError{
			Op:  OpParse,
			Err: fmt.Errorf("response id %d does not match request id %d", *decoded.ID, id),
		}
	}

	if decoded.Error != nil {
		return nil, &RemoteError{
			Code:    decoded.Error.Code,
			Message: decoded.Error.Message,
			Data:    decoded.Error.Data,
		}
	}
	if len(decoded.Result) == 0 {
		return nullResult, nil
	}
	return decoded.Result, nil
}
