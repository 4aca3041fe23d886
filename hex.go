package htlc

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/iov-one/htlc/errors"
)

// HashLength is the size of transfer ids, hash locks, pre-images and
// destination chain recipients.
const HashLength = 32

// Bytes32 is an opaque, fixed size value such as a transfer id, a hash lock,
// a pre-image or a recipient on the destination chain. It is compared by
// value and never interpreted.
type Bytes32 []byte

// Equals checks if two values are the same
func (b Bytes32) Equals(o Bytes32) bool {
	return len(b) == len(o) && string(b) == string(o)
}

// Validate returns an error unless the value is exactly HashLength bytes.
func (b Bytes32) Validate() error {
	if len(b) != HashLength {
		return errors.ErrInput.Newf("want %d bytes, got %d", HashLength, len(b))
	}
	return nil
}

func (b Bytes32) String() string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// ParseBytes32 decodes a hex encoded 32 byte value.
func ParseBytes32(s string) (Bytes32, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
	}
	b := Bytes32(raw)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b Bytes32) MarshalJSON() ([]byte, error) {
	return marshalHex(b)
}

func (b *Bytes32) UnmarshalJSON(raw []byte) error {
	return unmarshalHex((*[]byte)(b), raw)
}

func unmarshalHex(dst *[]byte, src []byte) error {
	var s string
	if err := json.Unmarshal(src, &s); err != nil {
		return errors.Wrap(err, "parse string")
	}
	val, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode hex")
	}
	*dst = val
	return nil
}

func marshalHex(bytes []byte) ([]byte, error) {
	s := strings.ToUpper(hex.EncodeToString(bytes))
	return json.Marshal(s)
}
