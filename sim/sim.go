/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package sim generates allocation-size workloads for allocator tests and
// benchmarks: skewed streams where most requests are small, uniform streams,
// and replayed streams read from recorded traces.
package sim

import (
	"bufio"
	"errors"
	"io"
	"math/rand"
	"strconv"
	"time"
)

// ErrDone is returned by a Simulator when the underlying trace is exhausted.
var ErrDone = errors.New("simulator is done")

// Simulator returns the next allocation size in bytes.
type Simulator func() (uint64, error)

// NewZipfian returns sizes in [1, max] following a zipfian distribution, so
// small allocations dominate the stream the way they do in real programs.
func NewZipfian(s, v float64, max uint64) Simulator {
	z := rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano())), s, v, max-1)
	return func() (uint64, error) {
		return 1 + z.Uint64(), nil
	}
}

// NewUniform returns sizes uniformly distributed in [1, max].
func NewUniform(max uint64) Simulator {
	m := int64(max)
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func() (uint64, error) {
		return 1 + uint64(r.Int63n(m)), nil
	}
}

type Parser func(string, error) (uint64, error)

// NewReader replays sizes from a recorded trace, one value per line.
func NewReader(parser Parser, file io.Reader) Simulator {
	b := bufio.NewReader(file)
	return func() (uint64, error) {
		return parser(b.ReadString('\n'))
	}
}

// ParseSizes parses one decimal size per line, tolerating \r\n endings.
func ParseSizes(line string, err error) (uint64, error) {
	if line == "" {
		return 0, ErrDone
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	v, perr := strconv.ParseUint(line, 10, 64)
	if perr != nil {
		return 0, perr
	}
	return v, nil
}

// Collection materializes size values from a simulator.
func Collection(simulator Simulator, size uint64) []uint64 {
	collection := make([]uint64, size)
	for i := range collection {
		collection[i], _ = simulator()
	}
	return collection
}
