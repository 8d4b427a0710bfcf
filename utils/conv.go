package utils

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/transform"

	"github.com/inimart/uv_transfer_tool/config"
)

// DecodeString converts text written by tools with legacy code page into utf8
func DecodeString(bs []byte) (string, error) {
	if n := bytes.IndexByte(bs, 0); n >= 0 {
		bs = bs[:n]
	}
	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to decode %q", bs)
	}
	return string(s), nil
}

func EncodeString(s string) ([]byte, error) {
	bs, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to encode %q", s)
	}
	return bs, nil
}
