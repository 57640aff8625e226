package credentialstatus

import (
	"bytes"
	"errors"
	"fmt"

	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	"github.com/pilacorp/go-identity-sdk/credential/common/util"
)

// DefaultCapacity is the default number of bits in a revocation bitstring
// (16KB uncompressed, the BitstringStatusList minimum).
const DefaultCapacity = 131072

// Bitstring is a fixed capacity bit array. Bit i is stored in byte i/8 at
// position i%8, least significant bit first.
type Bitstring struct {
	bits     []byte
	capacity int
}

// New returns a zero-filled bitstring holding capacity bits.
func New(capacity int) (*Bitstring, error) {
	if capacity < 1 {
		return nil, sdkerrors.Newf(sdkerrors.ErrOutOfRange, "capacity must be at least 1, got %d", capacity)
	}

	return &Bitstring{
		bits:     make([]byte, byteLen(capacity)),
		capacity: capacity,
	}, nil
}

// FromBytes returns a bitstring backed by a copy of raw. capacity must fit
// exactly into len(raw) bytes and bits beyond capacity must be zero.
func FromBytes(raw []byte, capacity int) (*Bitstring, error) {
	if capacity < 1 {
		return nil, sdkerrors.Newf(sdkerrors.ErrOutOfRange, "capacity must be at least 1, got %d", capacity)
	}

	if len(raw) != byteLen(capacity) {
		return nil, sdkerrors.Newf(sdkerrors.ErrCapacityMismatch,
			"decoded %d bytes, expected %d for a capacity of %d bits", len(raw), byteLen(capacity), capacity)
	}

	if rem := capacity % 8; rem != 0 && raw[len(raw)-1]>>rem != 0 {
		return nil, sdkerrors.Newf(sdkerrors.ErrCapacityMismatch, "bits set beyond capacity %d", capacity)
	}

	return &Bitstring{
		bits:     bytes.Clone(raw),
		capacity: capacity,
	}, nil
}

// Capacity returns the number of bits.
func (b *Bitstring) Capacity() int {
	return b.capacity
}

// Bytes returns a copy of the raw bit array.
func (b *Bitstring) Bytes() []byte {
	return bytes.Clone(b.bits)
}

// Set sets the bit at index to value.
func (b *Bitstring) Set(index int, value bool) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}

	if value {
		b.bits[index/8] |= 1 << (index % 8)
	} else {
		b.bits[index/8] &^= 1 << (index % 8)
	}

	return nil
}

// Get returns the bit at index.
func (b *Bitstring) Get(index int) (bool, error) {
	if err := b.checkIndex(index); err != nil {
		return false, err
	}

	return (b.bits[index/8]>>(index%8))&1 == 1, nil
}

// SetAll sets every index to value. All indices are checked before any bit changes.
func (b *Bitstring) SetAll(indices []int, value bool) error {
	for _, index := range indices {
		if err := b.checkIndex(index); err != nil {
			return err
		}
	}

	for _, index := range indices {
		_ = b.Set(index, value) //nolint:errcheck
	}

	return nil
}

// SetIndices returns the indices of all set bits in ascending order.
func (b *Bitstring) SetIndices() []int {
	var indices []int

	for i, v := range b.bits {
		if v == 0 {
			continue
		}

		for bit := 0; bit < 8; bit++ {
			if v&(1<<bit) != 0 {
				indices = append(indices, i*8+bit)
			}
		}
	}

	return indices
}

// Equal returns true if both bitstrings have the same capacity and bits.
func (b *Bitstring) Equal(other *Bitstring) bool {
	if b == nil || other == nil {
		return b == other
	}

	return b.capacity == other.capacity && bytes.Equal(b.bits, other.bits)
}

// Clone returns an independent copy.
func (b *Bitstring) Clone() *Bitstring {
	return &Bitstring{bits: bytes.Clone(b.bits), capacity: b.capacity}
}

// Serialize compresses the bit array with gzip and returns it as a
// data:application/octet-stream;base64 URI.
func (b *Bitstring) Serialize() (string, error) {
	compressed, err := util.Compress(b.bits)
	if err != nil {
		return "", sdkerrors.Wrap(sdkerrors.ErrFormat, "", "", fmt.Errorf("failed to compress bitstring: %w", err))
	}

	return EncodeDataURI(MediaTypeOctetStream, compressed), nil
}

// Deserialize decodes a bitstring produced by Serialize. The payload may be
// gzip, zlib or raw DEFLATE compressed and must not inflate past the
// capacity.
func Deserialize(dataURI string, capacity int) (*Bitstring, error) {
	if capacity < 1 {
		return nil, sdkerrors.Newf(sdkerrors.ErrOutOfRange, "capacity must be at least 1, got %d", capacity)
	}

	compressed, err := DecodeDataURI(dataURI)
	if err != nil {
		return nil, err
	}

	raw, err := inflate(compressed, byteLen(capacity))
	if err != nil {
		return nil, err
	}

	return FromBytes(raw, capacity)
}

func (b *Bitstring) checkIndex(index int) error {
	if index < 0 || index >= b.capacity {
		return sdkerrors.Newf(sdkerrors.ErrOutOfRange, "index %d outside [0,%d)", index, b.capacity)
	}

	return nil
}

func inflate(compressed []byte, limit int) ([]byte, error) {
	raw, err := util.Inflate(compressed, limit)
	if errors.Is(err, util.ErrTooLarge) {
		return nil, sdkerrors.Wrap(sdkerrors.ErrCapacityMismatch, "", "", err)
	}

	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrFormat, "", "", fmt.Errorf("failed to decompress status list: %w", err))
	}

	return raw, nil
}

func byteLen(capacity int) int {
	return (capacity + 7) / 8
}
