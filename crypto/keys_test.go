package crypto

import (
	"bytes"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = byte(i * 7)
	}
	addr, err := NewAddress(PoolPrefix, raw)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}

	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(addr) {
		t.Fatalf("round trip mismatch: %s vs %s", decoded, addr)
	}
	if decoded.Prefix() != PoolPrefix {
		t.Fatalf("prefix: got %s want %s", decoded.Prefix(), PoolPrefix)
	}
	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Fatalf("payload mismatch")
	}
}

func TestNewAddressRejectsBadLength(t *testing.T) {
	if _, err := NewAddress(PoolPrefix, make([]byte, 19)); err == nil {
		t.Fatal("expected error for short payload")
	}
	if _, err := NewAddress(PoolPrefix, make([]byte, 21)); err == nil {
		t.Fatal("expected error for long payload")
	}
}

func TestAddressIsZero(t *testing.T) {
	var empty Address
	if !empty.IsZero() {
		t.Fatal("empty address not zero")
	}
	zeroed := MustNewAddress(PoolPrefix, make([]byte, 20))
	if !zeroed.IsZero() {
		t.Fatal("all-zero payload not zero")
	}
	raw := make([]byte, 20)
	raw[0] = 1
	if MustNewAddress(PoolPrefix, raw).IsZero() {
		t.Fatal("non-zero payload reported zero")
	}
}

func TestGeneratedKeyAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	addr := key.PubKey().Address()
	if addr.IsZero() {
		t.Fatal("derived address is zero")
	}

	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.PubKey().Address().Equal(addr) {
		t.Fatal("restored key derives a different address")
	}
}
