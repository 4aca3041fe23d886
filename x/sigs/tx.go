package sigs

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the Decorator
type SignedTx interface {
	htlc.Tx

	// GetSignBytes returns the canonical byte representation of the Msg.
	GetSignBytes() ([]byte, error)

	// Signatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// StdSignature is a signature of one signer together with the sequence
// it was created for.
type StdSignature struct {
	Sequence  int64
	Pubkey    *crypto.PublicKey
	Signature []byte
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if s.Pubkey == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if len(s.Signature) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}

// StdTx carries one message and the signatures of its signers.
type StdTx struct {
	Msg        htlc.Msg
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)

// NewStdTx returns an unsigned transaction.
func NewStdTx(msg htlc.Msg) *StdTx {
	return &StdTx{Msg: msg}
}

func (tx *StdTx) GetMsg() (htlc.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "message")
	}
	return tx.Msg, nil
}

func (tx *StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the message path followed by the serialized
// message, so that the same bytes cannot be replayed on another route.
func (tx *StdTx) GetSignBytes() ([]byte, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	bz, err := msg.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal message")
	}
	path := msg.Path()
	out := make([]byte, 0, len(path)+1+len(bz))
	out = append(out, path...)
	out = append(out, 0)
	return append(out, bz...), nil
}

// Sign appends the signature of the signer for the given sequence.
func (tx *StdTx) Sign(signer crypto.Signer, chainID string, seq int64) error {
	sig, err := SignTx(signer, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}
