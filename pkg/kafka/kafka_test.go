package kafka

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	msgs, err := encode([]Event{{
		Key:     "a b c",
		Headers: map[string]string{"kind": "select"},
		Value:   map[string]float64{"seconds": 0.5},
	}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages", len(msgs))
	}
	m := msgs[0]
	if string(m.Key) != "a b c" || string(m.Value) != `{"seconds":0.5}` {
		t.Fatalf("unexpected message %q => %q", m.Key, m.Value)
	}
	if len(m.Headers) != 1 || m.Headers[0].Key != "kind" || string(m.Headers[0].Value) != "select" {
		t.Fatalf("unexpected headers %+v", m.Headers)
	}
}

func TestEncodeRejectsUnencodableValue(t *testing.T) {
	if _, err := encode([]Event{{Key: "k", Value: make(chan int)}}); err == nil {
		t.Fatal("expected error for channel value")
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	type payload struct{ N int }
	got, err := DecodeJSON[payload]([]byte(`{"N":3}`))
	if err != nil || got.N != 3 {
		t.Fatalf("DecodeJSON = %+v, %v", got, err)
	}
	if _, err := DecodeJSON[payload]([]byte(`{`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("error = %v, want ErrMalformed", err)
	}
}
