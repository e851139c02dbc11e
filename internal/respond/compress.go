package respond

import (
	"encoding/base64"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// SQS caps messages at 256 KiB; payloads above this threshold get
// zstd-compressed instead of truncated so SUCCESS output stays
// byte-exact.
const compressThreshold = 200_000

const (
	encodingPlain = "plain"
	encodingZstd  = "zstd"
)

// Envelope is the queue wire format around a serialized response.
type Envelope struct {
	Encoding string `json:"encoding"`
	Body     string `json:"body"`
}

var zstdEncoder, _ = zstd.NewWriter(nil)
var zstdDecoder, _ = zstd.NewReader(nil)

// Pack wraps serialized bytes, compressing when above the threshold.
func Pack(body []byte) Envelope {
	if len(body) <= compressThreshold {
		return Envelope{Encoding: encodingPlain, Body: string(body)}
	}
	compressed := zstdEncoder.EncodeAll(body, nil)
	return Envelope{
		Encoding: encodingZstd,
		Body:     base64.StdEncoding.EncodeToString(compressed),
	}
}

// Unpack reverses Pack.
func Unpack(env Envelope) ([]byte, error) {
	switch env.Encoding {
	case encodingPlain, "":
		return []byte(env.Body), nil
	case encodingZstd:
		compressed, err := base64.StdEncoding.DecodeString(env.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
		body, err := zstdDecoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress payload: %w", err)
		}
		return body, nil
	default:
		return nil, fmt.Errorf("unknown payload encoding: %q", env.Encoding)
	}
}
