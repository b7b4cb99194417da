// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/patternsearch/core"
)

// MarshalChunkKey serializes a ChunkKey to bytes.
func MarshalChunkKey(key core.ChunkKey) []byte {
	size := varint.Int64.Size(int64(key.PatternID)) +
		ord.String.Size(string(key.Source)) +
		varint.Int.Size(key.Order)
	buf := make([]byte, size)
	n := varint.Int64.Marshal(int64(key.PatternID), buf)
	n += ord.String.Marshal(string(key.Source), buf[n:])
	varint.Int.Marshal(key.Order, buf[n:])
	return buf
}

// UnmarshalChunkKey deserializes a ChunkKey from bytes.
func UnmarshalChunkKey(data []byte) (core.ChunkKey, error) {
	id, n, err := varint.Int64.Unmarshal(data)
	if err != nil {
		return core.ChunkKey{}, fmt.Errorf("%w: pattern id: %w", ErrSerializationFailed, err)
	}
	source, n1, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return core.ChunkKey{}, fmt.Errorf("%w: source: %w", ErrSerializationFailed, err)
	}
	n += n1
	order, _, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return core.ChunkKey{}, fmt.Errorf("%w: order: %w", ErrSerializationFailed, err)
	}
	return core.ChunkKey{PatternID: core.PatternID(id), Source: core.SourceKind(source), Order: order}, nil
}

// MarshalRowIDs serializes a list of row ids as a count followed by
// ascending deltas.
func MarshalRowIDs(rows []core.RowID) []byte {
	size := varint.Int.Size(len(rows))
	var prev core.RowID
	for _, r := range rows {
		size += varint.Int64.Size(int64(r - prev))
		prev = r
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(rows), buf)
	prev = 0
	for _, r := range rows {
		n += varint.Int64.Marshal(int64(r-prev), buf[n:])
		prev = r
	}
	return buf
}

// UnmarshalRowIDs deserializes a list written by MarshalRowIDs.
func UnmarshalRowIDs(data []byte) ([]core.RowID, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: row count: %w", ErrSerializationFailed, err)
	}
	if count < 0 || count > len(data) {
		return nil, fmt.Errorf("%w: row count %d", ErrTruncatedData, count)
	}
	rows := make([]core.RowID, count)
	var prev core.RowID
	for i := range rows {
		delta, n1, err := varint.Int64.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrSerializationFailed, i, err)
		}
		n += n1
		prev += core.RowID(delta)
		rows[i] = prev
	}
	return rows, nil
}
