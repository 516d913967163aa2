package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// EncodePayload 將緩存內容序列化
func EncodePayload(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// DecodePayload 解析緩存內容，只接受單一 JSON 值
func DecodePayload(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("decode payload: trailing data after %d bytes", dec.InputOffset())
	}
	return nil
}
