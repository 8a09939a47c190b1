package sha512

import (
	"encoding/hex"
	"testing"
)

func TestSum512_EmptyString(t *testing.T) {
	want := "cf83e1357eefb8bdf1542850d66d8007" +
		"d620e4050b5715dc83f4a921d36ce9ce" +
		"47d0d13c5d85f2b0ff8318d2877eec2f" +
		"63b931bd47417a81a538327af927da3e"
	got := Sum512(nil)
	if hex.EncodeToString(got[:]) != want {
		t.Fatalf("Sum512(\"\") = %x, want %s", got, want)
	}
}

func TestSum512_Abc(t *testing.T) {
	want := "ddaf35a193617abacc417349ae204131" +
		"12e6fa4e89a97ea20a9eeee64b55d39a" +
		"2192992a274fc1a836ba3c23a3feebbd" +
		"454d4423643ce80e2a9ac94fa54ca49f"
	got := Sum512([]byte("abc"))
	if hex.EncodeToString(got[:]) != want {
		t.Fatalf("Sum512(\"abc\") = %x, want %s", got, want)
	}
}

func TestDigest_IncrementalMatchesOneShot(t *testing.T) {
	msg := []byte("the quick brown fox jumps over the lazy dog")
	oneShot := Sum512(msg)

	d := New()
	for _, chunk := range [][]byte{msg[:10], msg[10:23], msg[23:]} {
		d.Write(chunk)
	}
	got := d.Sum(nil)

	if hex.EncodeToString(got) != hex.EncodeToString(oneShot[:]) {
		t.Fatalf("incremental = %x, want %x", got, oneShot)
	}
}

func TestDigest_SumDoesNotMutateState(t *testing.T) {
	d := New()
	d.Write([]byte("partial"))
	first := d.Sum(nil)
	d.Write([]byte(" message"))
	second := d.Sum(nil)

	want := Sum512([]byte("partial message"))
	if hex.EncodeToString(second) != hex.EncodeToString(want[:]) {
		t.Fatalf("second sum = %x, want %x", second, want)
	}
	// first must reflect only "partial", proving Sum didn't finalize in place.
	wantFirst := Sum512([]byte("partial"))
	if hex.EncodeToString(first) != hex.EncodeToString(wantFirst[:]) {
		t.Fatalf("first sum = %x, want %x", first, wantFirst)
	}
}

func TestDigest_BlockBoundary(t *testing.T) {
	for _, n := range []int{0, 1, BlockSize - 1, BlockSize, BlockSize + 1, 2*BlockSize - 17, 1000} {
		msg := make([]byte, n)
		for i := range msg {
			msg[i] = byte(i)
		}
		want := Sum512(msg)

		d := New()
		d.Write(msg)
		got := d.Sum(nil)
		if hex.EncodeToString(got) != hex.EncodeToString(want[:]) {
			t.Fatalf("n=%d: got %x, want %x", n, got, want)
		}
	}
}

func TestHMAC_RFC4231_TestCase1(t *testing.T) {
	key := make([]byte, 20)
	for i := range key {
		key[i] = 0x0b
	}
	data := []byte("Hi There")
	want := "87aa7cdea5ef619d4ff0b4241a1d6cb0" +
		"2379f4e2ce4ec2787ad0b30545e17cde" +
		"daa833b7d6b8a702038b274eaea3f4e4" +
		"be9d914eeb61f1702e696c203a126854"

	h := NewHMAC(key)
	h.Write(data)
	got := h.Sum(nil)
	if hex.EncodeToString(got) != want {
		t.Fatalf("HMAC-SHA-512 = %x, want %s", got, want)
	}
}

func TestHMAC_KeyLengthBoundaries(t *testing.T) {
	msg := []byte("message body")
	for _, keyLen := range []int{0, 1, BlockSize - 1, BlockSize, BlockSize + 1, 1024} {
		key := make([]byte, keyLen)
		for i := range key {
			key[i] = byte(i)
		}
		h := NewHMAC(key)
		h.Write(msg)
		sum1 := h.Sum(nil)

		h2 := NewHMAC(key)
		h2.Write(msg)
		sum2 := h2.Sum(nil)

		if hex.EncodeToString(sum1) != hex.EncodeToString(sum2) {
			t.Fatalf("keyLen=%d: HMAC not deterministic", keyLen)
		}
		if len(sum1) != Size {
			t.Fatalf("keyLen=%d: HMAC length = %d, want %d", keyLen, len(sum1), Size)
		}
	}
}

func TestHMAC_Reset(t *testing.T) {
	key := []byte("reset-key")
	h := NewHMAC(key)
	h.Write([]byte("first"))
	h.Reset()
	h.Write([]byte("second"))
	got := h.Sum(nil)

	h2 := NewHMAC(key)
	h2.Write([]byte("second"))
	want := h2.Sum(nil)

	if hex.EncodeToString(got) != hex.EncodeToString(want) {
		t.Fatalf("Reset did not return HMAC to fresh state")
	}
}

func TestDigest_Destroy_Zeroizes(t *testing.T) {
	d := &Digest{}
	d.Reset()
	d.Write([]byte("sensitive scratch"))
	d.Destroy()

	if d.h != ([8]uint64{}) {
		t.Fatal("chaining state survived Destroy")
	}
	if d.buf != ([BlockSize]byte{}) {
		t.Fatal("block buffer survived Destroy")
	}
	if d.nbuf != 0 || d.length != 0 {
		t.Fatal("length bookkeeping survived Destroy")
	}
}

func TestDigest_SumDestroysOnlyItsOwnCopy(t *testing.T) {
	d := New().(*Digest)
	d.Write([]byte("partial"))
	d.Sum(nil)

	if d.h == ([8]uint64{}) {
		t.Fatal("Sum destroyed the live Digest's state, not just its throwaway copy")
	}
	// The live Digest must still be usable after Sum.
	d.Write([]byte(" message"))
	got := d.Sum(nil)
	want := Sum512([]byte("partial message"))
	if hex.EncodeToString(got) != hex.EncodeToString(want[:]) {
		t.Fatalf("got %x, want %x", got, want)
	}
}
