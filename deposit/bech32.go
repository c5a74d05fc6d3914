package deposit

import "strings"

// Minimal BIP-173 bech32 (segwit v0) encoder. BSV dropped segwit, so
// neither libsv/go-bt nor the rest of the pack carries a bech32
// implementation for us to reuse — so this file is standard-library-only
// (no third-party code), as justified in DESIGN.md: this is the reference
// algorithm itself, not a reimplementation of an available library.

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

func bech32Polymod(values []int) int {
	gen := []int{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := 1
	for _, v := range values {
		b := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ v
		for i := 0; i < 5; i++ {
			if (b>>uint(i))&1 != 0 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func bech32HRPExpand(hrp string) []int {
	out := make([]int, 0, len(hrp)*2+1)
	for _, c := range hrp {
		out = append(out, int(c)>>5)
	}
	out = append(out, 0)
	for _, c := range hrp {
		out = append(out, int(c)&31)
	}
	return out
}

func bech32CreateChecksum(hrp string, data []int) []int {
	values := append(bech32HRPExpand(hrp), data...)
	values = append(values, []int{0, 0, 0, 0, 0, 0}...)
	mod := bech32Polymod(values) ^ 1
	checksum := make([]int, 6)
	for i := 0; i < 6; i++ {
		checksum[i] = (mod >> uint(5*(5-i))) & 31
	}
	return checksum
}

func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]int, bool) {
	acc := 0
	bits := uint(0)
	var out []int
	maxv := (1 << toBits) - 1
	for _, value := range data {
		acc = (acc << fromBits) | int(value)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, (acc>>bits)&maxv)
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, (acc<<(toBits-bits))&maxv)
		}
	} else if bits >= fromBits || ((acc<<(toBits-bits))&maxv) != 0 {
		return nil, false
	}
	return out, true
}

// encodeBech32SegwitV0 encodes a segwit version-0 witness program (20 or
// 32 bytes) as a bech32 address under the given human-readable part.
func encodeBech32SegwitV0(hrp string, program []byte) (string, error) {
	conv, ok := convertBits(program, 8, 5, true)
	if !ok {
		return "", errBech32Conversion
	}
	data := append([]int{0}, conv...) // witness version 0
	checksum := bech32CreateChecksum(hrp, data)
	combined := append(data, checksum...)

	var sb strings.Builder
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, v := range combined {
		sb.WriteByte(bech32Charset[v])
	}
	return sb.String(), nil
}

var errBech32Conversion = bech32Error("bech32: failed to convert witness program to 5-bit groups")

type bech32Error string

func (e bech32Error) Error() string { return string(e) }

// DecodeBech32 parses a bech32 string into its human-readable part and
// raw 5-bit data values (including the witness-version byte for a segwit
// address), verifying the checksum. Used by withdrawal-address validation
// to confirm an address is well-formed on the expected network.
func DecodeBech32(address string) (hrp string, data []int, ok bool) {
	sep := strings.LastIndexByte(address, '1')
	if sep < 1 || sep+7 > len(address) {
		return "", nil, false
	}
	hrp = strings.ToLower(address[:sep])
	dataPart := strings.ToLower(address[sep+1:])

	values := make([]int, len(dataPart))
	for i, c := range dataPart {
		idx := strings.IndexRune(bech32Charset, c)
		if idx < 0 {
			return "", nil, false
		}
		values[i] = idx
	}

	all := append(bech32HRPExpand(hrp), values...)
	if bech32Polymod(all) != 1 {
		return "", nil, false
	}

	return hrp, values[:len(values)-6], true
}

