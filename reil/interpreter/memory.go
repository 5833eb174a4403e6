package interpreter

import (
	"github.com/holiman/uint256"
	"golang.org/x/exp/slices"
)

// Endianness selects the byte order of multi-byte memory accesses.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

func (e Endianness) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

type cell struct {
	value   byte
	defined bool
}

// Memory is sparse byte-addressable memory. Only written bytes are stored;
// everything else reads as an undefined zero. A byte written from an
// undefined value stays undefined.
type Memory struct {
	endian Endianness
	bytes  map[uint64]cell
}

func NewMemory(endian Endianness) *Memory {
	return &Memory{endian: endian, bytes: make(map[uint64]cell)}
}

func (m *Memory) Endianness() Endianness {
	return m.endian
}

// Size is the number of distinct bytes ever written.
func (m *Memory) Size() int {
	return len(m.bytes)
}

func (m *Memory) StoreByte(address uint64, value byte, defined bool) {
	m.bytes[address] = cell{value: value, defined: defined}
}

// LoadByte returns the byte at address and whether it holds a defined value.
func (m *Memory) LoadByte(address uint64) (byte, bool) {
	c := m.bytes[address]
	return c.value, c.defined
}

// Store writes the low n bytes of value starting at address.
func (m *Memory) Store(address uint64, value *uint256.Int, n int, defined bool) {
	buf := value.Bytes32()
	for i := 0; i < n; i++ {
		c := cell{value: buf[31-i], defined: defined} // i-th least significant byte
		if m.endian == LittleEndian {
			m.bytes[address+uint64(i)] = c
		} else {
			m.bytes[address+uint64(n-1-i)] = c
		}
	}
}

// Load reads n bytes starting at address. The result is defined only if
// every byte was written from a defined value.
func (m *Memory) Load(address uint64, n int) (*uint256.Int, bool) {
	var buf [32]byte
	defined := true
	for i := 0; i < n; i++ {
		var addr uint64
		if m.endian == LittleEndian {
			addr = address + uint64(i)
		} else {
			addr = address + uint64(n-1-i)
		}
		c := m.bytes[addr]
		if !c.defined {
			defined = false
		}
		buf[31-i] = c.value
	}
	return new(uint256.Int).SetBytes32(buf[:]), defined
}

// Addresses lists written addresses in ascending order.
func (m *Memory) Addresses() []uint64 {
	out := make([]uint64, 0, len(m.bytes))
	for addr := range m.bytes {
		out = append(out, addr)
	}
	slices.Sort(out)
	return out
}
