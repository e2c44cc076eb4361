// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

package frame_test

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/jetsetilly/cmdap/internal/frame"
	"github.com/jetsetilly/cmdap/test"
)

type payload struct {
	Req string `json:"req"`
	Seq uint64 `json:"seq"`
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	w := frame.NewWriter(&buf)
	test.ExpectSuccess(t, w.WriteFrame(payload{Req: "globals", Seq: 1}))

	r := frame.NewReader(&buf)
	body, err := r.ReadFrame()
	test.ExpectSuccess(t, err)

	var got payload
	test.ExpectSuccess(t, json.Unmarshal(body, &got))
	test.Equate(t, got, payload{Req: "globals", Seq: 1})
}

func TestReadMultipleFrames(t *testing.T) {
	var buf bytes.Buffer
	w := frame.NewWriter(&buf)
	w.WriteFrame(payload{Req: "a", Seq: 1})
	w.WriteFrame(payload{Req: "b", Seq: 2})

	r := frame.NewReader(&buf)

	var first, second payload
	b1, _ := r.ReadFrame()
	json.Unmarshal(b1, &first)
	b2, _ := r.ReadFrame()
	json.Unmarshal(b2, &second)

	test.Equate(t, first.Req, "a")
	test.Equate(t, second.Req, "b")
}

func TestReadFrameMissingContentLength(t *testing.T) {
	r := frame.NewReader(bytes.NewBufferString("X-Other: 1\r\n\r\nbody"))
	_, err := r.ReadFrame()
	test.ExpectFailure(t, err)
}

func TestReadFrameIgnoresOtherHeaders(t *testing.T) {
	msg := "X-Other: ignored\r\nContent-Length: 2\r\n\r\n{}"
	r := frame.NewReader(bytes.NewBufferString(msg))
	body, err := r.ReadFrame()
	test.ExpectSuccess(t, err)
	test.Equate(t, string(body), "{}")
}

func TestConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	w := frame.NewWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.WriteFrame(payload{Req: "concurrent", Seq: uint64(n)})
		}(i)
	}
	wg.Wait()

	r := frame.NewReader(&buf)
	count := 0
	for {
		body, err := r.ReadFrame()
		if err != nil {
			break
		}
		var got payload
		test.ExpectSuccess(t, json.Unmarshal(body, &got))
		test.Equate(t, got.Req, "concurrent")
		count++
	}
	test.Equate(t, count, 20)
}
