// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"strings"
	"testing"
)

func TestReadResponse(t *testing.T) {
	data, err := ReadResponse(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("ReadResponse = %q, want %q", data, "hello")
	}
}

func TestDecodeResponse(t *testing.T) {
	var decoded struct {
		Name string `json:"name"`
	}
	if err := DecodeResponse(strings.NewReader(`{"name":"pod"}`), &decoded); err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if decoded.Name != "pod" {
		t.Errorf("decoded.Name = %q, want %q", decoded.Name, "pod")
	}
}

func TestDecodeResponseInvalidJSON(t *testing.T) {
	var decoded map[string]any
	if err := DecodeResponse(strings.NewReader("not json"), &decoded); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestErrorBody(t *testing.T) {
	if got := ErrorBody(strings.NewReader("boom")); got != "boom" {
		t.Errorf("ErrorBody = %q, want %q", got, "boom")
	}
}
