package domain

import "encoding/binary"

// HeaderSize is the length of the envelope header prepended to stored ciphertexts.
const HeaderSize = 4

// Header is the self-describing prefix of a stored ciphertext:
//
//	[purpose:1][algorithm:1][key version:2 big-endian] || nonce || ciphertext || tag
//
// The header is bound to the ciphertext as AEAD associated data, so altering
// the purpose, algorithm or version makes authentication fail.
type Header struct {
	Purpose    KeyPurpose
	Algorithm  Algorithm
	KeyVersion uint16
}

// Bytes encodes the header.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	b[0] = byte(h.Purpose)
	b[1] = algorithmCodes[h.Algorithm]
	binary.BigEndian.PutUint16(b[2:], h.KeyVersion)
	return b
}

// ParseHeader splits a stored blob into its header, the header bytes used as
// associated data, and the nonce || ciphertext || tag body.
func ParseHeader(blob []byte) (Header, []byte, []byte, error) {
	if len(blob) < HeaderSize+NonceSize+TagSize {
		return Header{}, nil, nil, ErrMalformedCiphertext
	}

	var alg Algorithm
	for a, code := range algorithmCodes {
		if code == blob[1] {
			alg = a
		}
	}
	if alg == "" {
		return Header{}, nil, nil, ErrMalformedCiphertext
	}

	h := Header{
		Purpose:    KeyPurpose(blob[0]),
		Algorithm:  alg,
		KeyVersion: binary.BigEndian.Uint16(blob[2:HeaderSize]),
	}
	return h, blob[:HeaderSize], blob[HeaderSize:], nil
}
