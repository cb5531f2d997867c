package main

import "math/big"

// defaultCurveHex carries the secp192r1 (NIST P-192) domain parameters
// used to seed a coordinator's system parameters on first boot, matching
// the worked example in the original webview_api.py test fixtures.
var defaultCurveHex = struct {
	P, A, B, Gx, Gy, N string
}{
	P:  "fffffffffffffffffffffffffffffffeffffffffffffffff",
	A:  "fffffffffffffffffffffffffffffffefffffffffffffffc",
	B:  "64210519e59c80e70fa7e9ab72243049feb8deecc146b9b1",
	Gx: "188da80eb03090f67cbf20eb43a18800f4ff0afd82ff1012",
	Gy: "7192b95ffc8da78631011ed6b24cdd573f977a11e794811",
	N:  "ffffffffffffffffffffffff99def836146bc9b1b4d22831",
}

func mustHexBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("vaultctl: malformed curve constant " + s)
	}
	return n
}
