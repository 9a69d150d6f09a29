// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"encoding/binary"
	"fmt"
)

// ChunkMagic is the little-endian four-byte tag at the start of a binary
// resource chunk.
type ChunkMagic uint32

func makeMagic(a, b, c, d byte) ChunkMagic {
	return ChunkMagic(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// Known chunk magics.
var (
	ChunkMagicVSH = makeMagic('V', 'S', 'H', 0x2)
	ChunkMagicFSH = makeMagic('F', 'S', 'H', 0x2)
	ChunkMagicVB  = makeMagic('V', 'B', ' ', 0x0)
	ChunkMagicIB  = makeMagic('I', 'B', ' ', 0x0)
	ChunkMagicPRI = makeMagic('P', 'R', 'I', 0x0)
)

func (m ChunkMagic) String() string {
	b := [4]byte{byte(m), byte(m >> 8), byte(m >> 16), byte(m >> 24)}
	return fmt.Sprintf("%s\\x%x", b[:3], b[3])
}

// ChunkMagicOf returns the magic at the start of data when it is one of the
// known chunk types.
func ChunkMagicOf(data []byte) (ChunkMagic, bool) {
	if len(data) < 4 {
		return 0, false
	}
	m := ChunkMagic(binary.LittleEndian.Uint32(data))
	switch m {
	case ChunkMagicVSH, ChunkMagicFSH, ChunkMagicVB, ChunkMagicIB, ChunkMagicPRI:
		return m, true
	}
	return m, false
}

// uniformFragmentBit marks uniforms that belong to the fragment stage in the
// type byte of a shader uniform record.
const uniformFragmentBit = 0x10

// ShaderUniform is one uniform record of a shader chunk.
type ShaderUniform struct {
	Name     string
	Type     UniformType
	Fragment bool
	Num      uint8
	RegIndex uint16
	RegCount uint16
}

// ShaderChunk is a parsed shader binary:
//
//	magic      u32  VSH\x2 or FSH\x2
//	hash       u32  input/output signature shared by linked shaders
//	count      u16  number of uniform records
//	uniforms        count × (nameLen u8, name, type u8, num u8, regIndex u16, regCount u16)
//	codeLen    u16
//	code            backend shader code
//	attribMask u16  one bit per Attrib read by a vertex shader
//	cbSize     u16  optional constant buffer size
//
// All integers are little-endian and unaligned.
type ShaderChunk struct {
	Magic              ChunkMagic
	Hash               uint32
	Uniforms           []ShaderUniform
	Code               []byte
	AttribMask         uint16
	ConstantBufferSize uint16
}

// IsFragment reports whether the chunk holds a fragment shader.
func (s *ShaderChunk) IsFragment() bool { return s.Magic == ChunkMagicFSH }

// chunkReader is a bounds-checked little-endian cursor.
type chunkReader struct {
	data []byte
	pos  int
	err  error
}

func (r *chunkReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrInvalidChunk, r.pos)
		return nil
	}
	p := r.data[r.pos : r.pos+n]
	r.pos += n
	return p
}

func (r *chunkReader) u8() uint8 {
	if p := r.take(1); p != nil {
		return p[0]
	}
	return 0
}

func (r *chunkReader) u16() uint16 {
	if p := r.take(2); p != nil {
		return binary.LittleEndian.Uint16(p)
	}
	return 0
}

func (r *chunkReader) u32() uint32 {
	if p := r.take(4); p != nil {
		return binary.LittleEndian.Uint32(p)
	}
	return 0
}

// ParseShader decodes a shader chunk. The returned chunk does not alias data.
func ParseShader(data []byte) (*ShaderChunk, error) {
	r := &chunkReader{data: data}
	s := &ShaderChunk{Magic: ChunkMagic(r.u32())}
	if r.err != nil {
		return nil, r.err
	}
	if s.Magic != ChunkMagicVSH && s.Magic != ChunkMagicFSH {
		return nil, fmt.Errorf("%w: bad shader magic %#08x", ErrInvalidChunk, uint32(s.Magic))
	}
	s.Hash = r.u32()
	count := r.u16()
	if count > 0 && r.err == nil {
		s.Uniforms = make([]ShaderUniform, 0, count)
	}
	for i := 0; i < int(count) && r.err == nil; i++ {
		var u ShaderUniform
		u.Name = string(r.take(int(r.u8())))
		typ := r.u8()
		u.Fragment = typ&uniformFragmentBit != 0
		u.Type = UniformType(typ &^ uniformFragmentBit)
		u.Num = r.u8()
		u.RegIndex = r.u16()
		u.RegCount = r.u16()
		if r.err == nil && (u.Type >= UniformTypeCount || u.Type == UniformEnd) {
			return nil, fmt.Errorf("%w: uniform %q has bad type %d", ErrInvalidChunk, u.Name, typ)
		}
		s.Uniforms = append(s.Uniforms, u)
	}
	code := r.take(int(r.u16()))
	s.Code = append([]byte(nil), code...)
	s.AttribMask = r.u16()
	if r.err != nil {
		return nil, r.err
	}
	if len(data)-r.pos >= 2 {
		s.ConstantBufferSize = r.u16()
	}
	return s, nil
}

// MarshalBinary encodes the chunk. The constant buffer size is written only
// when it is non-zero.
func (s *ShaderChunk) MarshalBinary() ([]byte, error) {
	if s.Magic != ChunkMagicVSH && s.Magic != ChunkMagicFSH {
		return nil, fmt.Errorf("%w: bad shader magic %#08x", ErrInvalidChunk, uint32(s.Magic))
	}
	if len(s.Uniforms) > 0xffff || len(s.Code) > 0xffff {
		return nil, fmt.Errorf("%w: too many uniforms or code too large", ErrInvalidChunk)
	}
	out := make([]byte, 0, 16+len(s.Code)+len(s.Uniforms)*16)
	out = binary.LittleEndian.AppendUint32(out, uint32(s.Magic))
	out = binary.LittleEndian.AppendUint32(out, s.Hash)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(s.Uniforms)))
	for _, u := range s.Uniforms {
		if len(u.Name) > 0xff {
			return nil, fmt.Errorf("%w: uniform name %q too long", ErrInvalidChunk, u.Name)
		}
		out = append(out, uint8(len(u.Name)))
		out = append(out, u.Name...)
		typ := uint8(u.Type)
		if u.Fragment {
			typ |= uniformFragmentBit
		}
		out = append(out, typ, u.Num)
		out = binary.LittleEndian.AppendUint16(out, u.RegIndex)
		out = binary.LittleEndian.AppendUint16(out, u.RegCount)
	}
	out = binary.LittleEndian.AppendUint16(out, uint16(len(s.Code)))
	out = append(out, s.Code...)
	out = binary.LittleEndian.AppendUint16(out, s.AttribMask)
	if s.ConstantBufferSize != 0 {
		out = binary.LittleEndian.AppendUint16(out, s.ConstantBufferSize)
	}
	return out, nil
}
