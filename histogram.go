/*
 * Copyright 2020 Dgraph Labs, Inc. and Contributors
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

package fixalloc

import (
	"bytes"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// histogramBounds creates bounds for a histogram. The bounds are powers of
// two of the form [2^minExponent, ..., 2^maxExponent].
func histogramBounds(minExponent, maxExponent uint32) []float64 {
	var bounds []float64
	for i := minExponent; i <= maxExponent; i++ {
		bounds = append(bounds, float64(int(1)<<i))
	}
	return bounds
}

// histogramData stores the information needed to represent allocation sizes
// as a histogram.
type histogramData struct {
	bounds         []float64
	count          int64
	countPerBucket []int64
	min            int64
	max            int64
	sum            int64
}

func newHistogramData(bounds []float64) *histogramData {
	return &histogramData{
		bounds:         bounds,
		countPerBucket: make([]int64, len(bounds)+1),
		max:            0,
		min:            math.MaxInt64,
	}
}

func (histogram *histogramData) clone() histogramData {
	out := *histogram
	out.bounds = append([]float64(nil), histogram.bounds...)
	out.countPerBucket = append([]int64(nil), histogram.countPerBucket...)
	return out
}

// update changes the min and max fields if value is less than or greater
// than the current values, and files the value into its bucket.
func (histogram *histogramData) update(value int64) {
	if value > histogram.max {
		histogram.max = value
	}
	if value < histogram.min {
		histogram.min = value
	}

	histogram.sum += value
	histogram.count++

	for index := 0; index <= len(histogram.bounds); index++ {
		// File value in the last bucket if we reached the end of the bounds array.
		if index == len(histogram.bounds) {
			histogram.countPerBucket[index]++
			break
		}
		if value < int64(histogram.bounds[index]) {
			histogram.countPerBucket[index]++
			break
		}
	}
}

// String renders the histogram in a human-readable format, skipping empty
// buckets.
func (histogram *histogramData) String() string {
	if histogram == nil || histogram.count == 0 {
		return "histogram: empty"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "min: %s max: %s mean: %.2f\n",
		humanize.IBytes(uint64(histogram.min)),
		humanize.IBytes(uint64(histogram.max)),
		float64(histogram.sum)/float64(histogram.count))
	fmt.Fprintf(&buf, "%24s %9s\n", "Range", "Count")

	numBounds := len(histogram.bounds)
	for index, count := range histogram.countPerBucket {
		if count == 0 {
			continue
		}
		lowerBound := "0 B"
		if index > 0 {
			lowerBound = humanize.IBytes(uint64(histogram.bounds[index-1]))
		}
		upperBound := "inf"
		if index < numBounds {
			upperBound = humanize.IBytes(uint64(histogram.bounds[index]))
		}
		fmt.Fprintf(&buf, "%12s - %9s %9d\n", lowerBound, upperBound, count)
	}
	return buf.String()
}
