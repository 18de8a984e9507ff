// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mtp

import "encoding/binary"

// ContainerType is the PTP USB container's Type field.
type ContainerType uint16

// Container types, per the PTP USB class specification.
const (
	ContainerCommand  ContainerType = 1
	ContainerData     ContainerType = 2
	ContainerResponse ContainerType = 3
	ContainerEvent    ContainerType = 4
)

// containerHeaderLen is the size in bytes of the fixed 12-byte PTP USB
// container header: length(4) + type(2) + code(2) + transaction_id(4).
const containerHeaderLen = 12

// maxParams is the largest number of parameter words a Command or
// Response container carries.
const maxParams = 5

// Container is a decoded PTP USB container: a Command/Data/Response/Event
// header plus, for Command and Response, up to five parameter words.
// Encoding always uses the exact 12+4*N byte form: trailing unused
// parameter slots are omitted, not zero-padded.
type Container struct {
	Type          ContainerType
	Code          uint16
	TransactionID uint32
	Params        []uint32
}

// encodeHeader writes a Command/Response-shaped container (12 + 4*len(Params)
// bytes, no payload) into a fresh byte slice.
func (c *Container) encodeHeader() []byte {
	n := len(c.Params)
	if n > maxParams {
		n = maxParams
	}
	buf := make([]byte, containerHeaderLen+4*n)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(c.Type))
	binary.LittleEndian.PutUint16(buf[6:8], c.Code)
	binary.LittleEndian.PutUint32(buf[8:12], c.TransactionID)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[containerHeaderLen+4*i:], c.Params[i])
	}
	return buf
}

// encodeDataHeader writes a 12-byte Data container header announcing a
// payload of dataLen bytes that follows separately. A streaming sender
// that does not know the true size up front passes a sentinel length
// instead.
func encodeDataHeader(code uint16, transactionID uint32, dataLen uint32) []byte {
	buf := make([]byte, containerHeaderLen)
	binary.LittleEndian.PutUint32(buf[0:4], containerHeaderLen+dataLen)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(ContainerData))
	binary.LittleEndian.PutUint16(buf[6:8], code)
	binary.LittleEndian.PutUint32(buf[8:12], transactionID)
	return buf
}

// decodedHeader is the result of parsing a container's fixed 12-byte
// header out of a read buffer, before parameters/payload are interpreted.
// Kept as a primitive distinct from payload streaming so the data phase
// can split header inspection from bulk reads of the body.
type decodedHeader struct {
	Length        uint32
	Type          ContainerType
	Code          uint16
	TransactionID uint32
}

// decodeHeader parses the first containerHeaderLen bytes of buf as a
// container header. It does not validate Length against len(buf); callers
// compare it against what was actually read to detect short/split reads.
func decodeHeader(buf []byte) (decodedHeader, error) {
	if len(buf) < containerHeaderLen {
		return decodedHeader{}, ErrShortContainer
	}
	return decodedHeader{
		Length:        binary.LittleEndian.Uint32(buf[0:4]),
		Type:          ContainerType(binary.LittleEndian.Uint16(buf[4:6])),
		Code:          binary.LittleEndian.Uint16(buf[6:8]),
		TransactionID: binary.LittleEndian.Uint32(buf[8:12]),
	}, nil
}

// decodeParams interprets buf (the bytes following the 12-byte header) as
// a run of little-endian uint32 parameters, as many as fit.
func decodeParams(buf []byte) []uint32 {
	n := len(buf) / 4
	params := make([]uint32, n)
	for i := 0; i < n; i++ {
		params[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return params
}
