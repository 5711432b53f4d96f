// Copyright 2016 The Roughtime Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import (
	"encoding/binary"
	"errors"
	"math"
	"sort"
)

// tagsSlice is the type of an array of tags. It provides utility functions so
// that they can be sorted.
type tagsSlice []uint32

func (t tagsSlice) Len() int           { return len(t) }
func (t tagsSlice) Less(i, j int) bool { return t[i] < t[j] }
func (t tagsSlice) Swap(i, j int)      { t[i], t[j] = t[j], t[i] }

// Encode converts a map of tags to bytestrings into an encoded message. The
// number of elements in msg must be < 2**31-1 and the sum of the lengths of
// all the bytestrings must be < 2**32. Every value's length must be a
// multiple of four bytes.
func Encode(msg map[uint32][]byte) ([]byte, error) {
	if len(msg) == 0 {
		return make([]byte, 4), nil
	}

	if len(msg) >= math.MaxInt32 {
		return nil, errors.New("protocol: too many tags")
	}

	var payloadSum uint64
	for _, payload := range msg {
		if len(payload)%4 != 0 {
			return nil, errors.New("protocol: length of value is not a multiple of four")
		}
		payloadSum += uint64(len(payload))
	}
	if payloadSum >= 1<<32 {
		return nil, errors.New("protocol: payloads too large")
	}

	tags := tagsSlice(make([]uint32, 0, len(msg)))
	for tag := range msg {
		tags = append(tags, tag)
	}
	sort.Sort(tags)

	numTags := uint64(len(tags))

	encoded := make([]byte, 4*(1+numTags-1+numTags)+payloadSum)
	binary.LittleEndian.PutUint32(encoded, uint32(len(tags)))
	offsets := encoded[4:]
	tagBytes := encoded[4*(1+(numTags-1)):]
	payloads := encoded[4*(1+(numTags-1)+numTags):]

	currentOffset := uint32(0)

	for i, tag := range tags {
		payload := msg[tag]
		if i > 0 {
			binary.LittleEndian.PutUint32(offsets, currentOffset)
			offsets = offsets[4:]
		}

		binary.LittleEndian.PutUint32(tagBytes, tag)
		tagBytes = tagBytes[4:]

		if len(payload) > 0 {
			copy(payloads, payload)
			payloads = payloads[len(payload):]
			currentOffset += uint32(len(payload))
		}
	}

	return encoded, nil
}

// Decode parses the output of Encode back into a map of tags to bytestrings.
// It enforces strictly increasing tags, non-decreasing 4-byte-aligned
// offsets that fit the buffer, and no trailing bytes.
func Decode(buf []byte) (map[uint32][]byte, error) {
	if len(buf) < 4 {
		return nil, errDecode("message too short to be valid")
	}
	if len(buf)%4 != 0 {
		return nil, errDecode("message is not a multiple of four bytes")
	}

	numTags := uint64(binary.LittleEndian.Uint32(buf))

	if numTags == 0 {
		if len(buf) != 4 {
			return nil, errDecode("trailing bytes after empty message")
		}
		return make(map[uint32][]byte), nil
	}

	minLen := 4 * (1 + (numTags - 1) + numTags)

	if uint64(len(buf)) < minLen {
		return nil, errDecode("message too short to be valid")
	}

	offsets := buf[4:]
	tags := buf[4*(1+numTags-1):]
	payloads := buf[minLen:]

	if len(payloads) > math.MaxInt32 {
		return nil, errDecode("message too large")
	}
	payloadLength := uint32(len(payloads))

	currentOffset := uint32(0)
	var lastTag uint32
	ret := make(map[uint32][]byte, numTags)

	for i := uint64(0); i < numTags; i++ {
		tag := binary.LittleEndian.Uint32(tags)
		tags = tags[4:]

		if i > 0 && lastTag >= tag {
			return nil, errDecode("tags out of order")
		}

		var nextOffset uint32
		if i < numTags-1 {
			nextOffset = binary.LittleEndian.Uint32(offsets)
			offsets = offsets[4:]
		} else {
			nextOffset = payloadLength
		}

		if nextOffset%4 != 0 {
			return nil, errDecode("payload length is not a multiple of four bytes")
		}

		if nextOffset < currentOffset {
			return nil, errDecode("offsets out of order")
		}

		length := nextOffset - currentOffset
		if uint32(len(payloads)) < length {
			return nil, errDecode("message truncated")
		}

		payload := payloads[:length]
		payloads = payloads[length:]
		ret[tag] = payload
		currentOffset = nextOffset
		lastTag = tag
	}

	return ret, nil
}

func getValue(msg map[uint32][]byte, tag uint32, name string) ([]byte, error) {
	value, ok := msg[tag]
	if !ok {
		return nil, errMissingTag(name)
	}
	return value, nil
}

// getFixed returns the value for tag, requiring it to be exactly length
// bytes long.
func getFixed(msg map[uint32][]byte, tag uint32, name string, length int) ([]byte, error) {
	value, err := getValue(msg, tag, name)
	if err != nil {
		return nil, err
	}
	if len(value) != length {
		return nil, errWrongSize(name)
	}
	return value, nil
}

func getUint32(msg map[uint32][]byte, tag uint32, name string) (uint32, error) {
	value, err := getFixed(msg, tag, name, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(value), nil
}

func getUint64(msg map[uint32][]byte, tag uint32, name string) (uint64, error) {
	value, err := getFixed(msg, tag, name, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(value), nil
}

// getNested decodes the value for tag as a nested tagged message.
func getNested(msg map[uint32][]byte, tag uint32, name string) (map[uint32][]byte, error) {
	value, err := getValue(msg, tag, name)
	if err != nil {
		return nil, err
	}

	nested, err := Decode(value)
	if err != nil {
		return nil, errNotNested(name, err)
	}
	return nested, nil
}
