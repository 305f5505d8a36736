package commutencrypt

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"testing"
)

func genSystem(t *testing.T, bitsq int, users int) (*SystemKey, []*PrivateKey) {
	syskey, err := GenSysKey(rand.Reader, bitsq)
	if err != nil {
		t.Fatalf("%v", err)
	}
	keys := make([]*PrivateKey, users)
	for i := range keys {
		keys[i], err = GenUserKey(rand.Reader, syskey)
		if err != nil {
			t.Fatalf("%v", err)
		}
	}
	return syskey, keys
}

func TestBasic(t *testing.T) {
	syskey, keys := genSystem(t, 140, 1)
	msg, err := PrepareMsg([]byte("i am a squid"), syskey.P.BitLen())
	if err != nil {
		t.Fatalf("%v", err)
	}
	K, C, err := Encrypt(rand.Reader, &keys[0].PublicKey, msg)
	if err != nil {
		t.Fatalf("%v", err)
	}
	D, err := Decrypt(keys[0], K, C)
	if err != nil {
		t.Fatalf("%v", err)
	}
	result, err := ExtractMsg(D)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if string(result) != "i am a squid" {
		t.Fatalf("result (%s) != message", result)
	}
}

func TestSysKey(t *testing.T) {
	syskey, _ := genSystem(t, 128, 0)
	if !syskey.P.ProbablyPrime(20) || !syskey.Q.ProbablyPrime(20) {
		t.Fatalf("p or q not prime")
	}
	if syskey.G.Cmp(bigOne) == 0 {
		t.Fatalf("g = 1")
	}
	if new(big.Int).Exp(syskey.G, syskey.Q, syskey.P).Cmp(bigOne) != 0 {
		t.Fatalf("g does not have order q")
	}
}

// CommuteTest encrypts with every key in order and decrypts in decryptorder,
// a permutation of {0, ..., n-1}.
func CommuteTest(t *testing.T, message string, decryptorder []int) {
	syskey, keys := genSystem(t, 140, len(decryptorder))
	msg, err := PrepareMsg([]byte(message), syskey.P.BitLen())
	if err != nil {
		t.Fatalf("%v", err)
	}
	Ks := make([]*big.Int, len(keys))
	C := msg
	for i, k := range keys {
		Ks[i], C, err = Encrypt(rand.Reader, &k.PublicKey, C)
		if err != nil {
			t.Fatalf("%v", err)
		}
	}
	D := C
	for _, user := range decryptorder {
		D, err = Decrypt(keys[user], Ks[user], D)
		if err != nil {
			t.Fatalf("%v", err)
		}
	}
	result, err := ExtractMsg(D)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if string(result) != message {
		t.Fatalf("result (%s) != message (%s)", result, message)
	}

	all, err := DecryptAll(keys, Ks, C)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if all.Cmp(D) != 0 {
		t.Fatalf("DecryptAll (%v) != layered decrypt (%v)", all, D)
	}
}

func TestBasicCommute(t *testing.T) {
	CommuteTest(t, "i am a squid", []int{0, 1})
	CommuteTest(t, "i am a squid", []int{1, 0})
}

func TestCommuteMany(t *testing.T) {
	CommuteTest(t, "hello", []int{2, 3, 6, 5, 0, 4, 1})
}

func TestMessageTooLong(t *testing.T) {
	if _, err := PrepareMsg(make([]byte, 14), 144); err == nil {
		t.Fatalf("expected error for oversized message")
	}
	if _, err := DecryptAll(nil, []*big.Int{bigOne}, bigOne); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

// The process-wide cache is initialized once per test binary, so only this
// test calls ShareGenerator.
func TestShareGenerator(t *testing.T) {
	syskey, keys := genSystem(t, 160, 1)
	won, err := ShareGenerator(syskey, 4)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !won {
		t.Fatalf("ShareGenerator did not initialize the cache")
	}
	if won, _ := ShareGenerator(syskey, 8); won {
		t.Fatalf("second ShareGenerator initialized the cache again")
	}

	msg, err := PrepareMsg([]byte("cached"), syskey.P.BitLen())
	if err != nil {
		t.Fatalf("%v", err)
	}
	K, C, err := Encrypt(mrand.New(mrand.NewSource(3)), &keys[0].PublicKey, msg)
	if err != nil {
		t.Fatalf("%v", err)
	}
	r, err := randHelp(mrand.New(mrand.NewSource(3)), syskey.Q)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if want := new(big.Int).Exp(syskey.G, r, syskey.P); K.Cmp(want) != 0 {
		t.Fatalf("K = %v, want g^r = %v", K, want)
	}
	D, err := Decrypt(keys[0], K, C)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if D.Cmp(msg) != 0 {
		t.Fatalf("D (%v) != msg (%v)", D, msg)
	}
}
