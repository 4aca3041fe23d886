package orm

import (
	"github.com/iov-one/htlc/errors"
	amino "github.com/tendermint/go-amino"
)

// Codec serializes every stored model and every message. Models are plain
// structs, amino handles them without generated code.
var Codec = amino.NewCodec()

// Marshal returns the binary representation of a model.
func Marshal(v interface{}) ([]byte, error) {
	bz, err := Codec.MarshalBinaryBare(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	return bz, nil
}

// Unmarshal loads the binary representation into dest, which must be a
// pointer.
func Unmarshal(bz []byte, dest interface{}) error {
	if err := Codec.UnmarshalBinaryBare(bz, dest); err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	return nil
}
