// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgertypes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON resolves the wire shape of an upstream-supplied transaction
// into one of EncodedTransaction's variants (spec.md §4.3):
//
//   - a bare JSON string is the oldest, pre-versioned-API shape: a base58
//     blob with no accompanying encoding tag (EncodingLegacyBinary).
//   - a two-element JSON array is [blob, encoding] with encoding one of
//     "base58"/"base64" (EncodingBinary).
//   - a JSON object with "accountKeys" but no "message" is the accounts-only
//     form (EncodingAccounts, rejected downstream).
//   - a JSON object whose message instructions carry a "parsed" field is the
//     fully-parsed form (EncodingJSONParsed, rejected downstream, lossy).
//   - any other JSON object is the raw "json"-encoded transaction
//     (EncodingJSON), unmarshaled into UiTransaction.
func (t *EncodedTransaction) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("ledgertypes: legacy-binary transaction string: %w", err)
		}
		t.Encoding = EncodingLegacyBinary
		t.Binary = s
		return nil

	case '[':
		var pair [2]string
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return fmt.Errorf("ledgertypes: [data, encoding] transaction pair: %w", err)
		}
		t.Binary = pair[0]
		switch pair[1] {
		case "base58":
			t.Encoding = EncodingBinary
			t.BinaryEncoding = Base58
		case "base64":
			t.Encoding = EncodingBinary
			t.BinaryEncoding = Base64
		default:
			return fmt.Errorf("ledgertypes: unsupported transaction binary encoding %q", pair[1])
		}
		return nil

	case '{':
		return t.unmarshalObjectForm(trimmed)

	default:
		return fmt.Errorf("ledgertypes: unrecognized transaction JSON shape")
	}
}

func (t *EncodedTransaction) unmarshalObjectForm(data []byte) error {
	var probe struct {
		Signatures  []string        `json:"signatures"`
		Message     json.RawMessage `json:"message"`
		AccountKeys json.RawMessage `json:"accountKeys"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("ledgertypes: transaction object: %w", err)
	}

	if probe.Message == nil {
		if probe.AccountKeys != nil {
			t.Encoding = EncodingAccounts
			return nil
		}
		return fmt.Errorf("ledgertypes: transaction object has neither message nor accountKeys")
	}

	if messageLooksParsed(probe.Message) {
		t.Encoding = EncodingJSONParsed
		return nil
	}

	var ui UiTransaction
	if err := json.Unmarshal(data, &ui); err != nil {
		return fmt.Errorf("ledgertypes: json-encoded transaction: %w", err)
	}
	t.Encoding = EncodingJSON
	t.JSON = &ui
	return nil
}

// messageLooksParsed reports whether any instruction in the message carries
// a "parsed" field, the tell for the lossy jsonParsed encoding.
func messageLooksParsed(message json.RawMessage) bool {
	var probe struct {
		Instructions []json.RawMessage `json:"instructions"`
	}
	if err := json.Unmarshal(message, &probe); err != nil {
		return false
	}
	for _, raw := range probe.Instructions {
		var instr struct {
			Parsed json.RawMessage `json:"parsed"`
		}
		if json.Unmarshal(raw, &instr) == nil && instr.Parsed != nil {
			return true
		}
	}
	return false
}
