package signature

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Mode records how far verification went.
type Mode int

const (
	// ModeSignatureOnly means the Ed25519 signature checked out but no key
	// registry was configured to confirm the key belongs to the fid.
	ModeSignatureOnly Mode = iota + 1
	// ModeRegistryVerified means the key was also confirmed active on-chain.
	ModeRegistryVerified
)

func (m Mode) String() string {
	switch m {
	case ModeSignatureOnly:
		return "signature_only"
	case ModeRegistryVerified:
		return "registry_verified"
	default:
		return "unknown"
	}
}

// Envelope is the signed webhook body. Every field is base64url text.
type Envelope struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

type Header struct {
	FID  uint64 `json:"fid"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

type Result struct {
	Header  Header
	Payload []byte
	Mode    Mode
}

type Verifier struct {
	log      *zap.Logger
	registry KeyRegistry
}

// NewVerifier builds a verifier. A nil registry leaves verification in
// signature-only mode.
func NewVerifier(log *zap.Logger, registry KeyRegistry) *Verifier {
	return &Verifier{log, registry}
}

func (v *Verifier) Verify(ctx context.Context, env Envelope) (*Result, error) {
	if env.Header == "" || env.Payload == "" || env.Signature == "" {
		return nil, ErrInvalidStructure
	}

	header, err := DecodeHeader(env.Header)
	if err != nil {
		return nil, err
	}

	payload, err := DecodeSegment(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not base64url", ErrInvalidStructure)
	}

	sig, err := DecodeSegment(env.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSignatureLength, ed25519.SignatureSize, len(sig))
	}

	key, err := DecodeKey(header.Key)
	if err != nil {
		return nil, err
	}

	message := []byte(env.Header + "." + env.Payload)
	if !ed25519.Verify(key, message, sig) {
		return nil, ErrSignatureInvalid
	}

	result := &Result{Header: header, Payload: payload, Mode: ModeSignatureOnly}
	if v.registry == nil {
		v.log.Sugar().Warnw("Key registry not configured, accepting signature-only verification", "fid", header.FID)
		return result, nil
	}

	data, err := v.registry.KeyDataOf(ctx, header.FID, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyRegistry, err)
	}
	if !data.IsActiveAppKey() {
		return nil, fmt.Errorf("%w: fid=%d state=%d type=%d", ErrKeyInactive, header.FID, data.State, data.KeyType)
	}

	result.Mode = ModeRegistryVerified
	return result, nil
}

func DecodeHeader(segment string) (Header, error) {
	raw, err := DecodeSegment(segment)
	if err != nil {
		return Header{}, fmt.Errorf("%w: not base64url", ErrInvalidHeader)
	}

	var fields struct {
		FID  *uint64 `json:"fid"`
		Type string  `json:"type"`
		Key  string  `json:"key"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if fields.FID == nil || fields.Key == "" {
		return Header{}, fmt.Errorf("%w: fid and key are required", ErrInvalidHeader)
	}
	return Header{FID: *fields.FID, Type: fields.Type, Key: fields.Key}, nil
}

// DecodeKey parses a 0x-prefixed hex Ed25519 public key.
func DecodeKey(hexKey string) (ed25519.PublicKey, error) {
	raw, err := hexutil.Decode(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyFormat, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKeyFormat, ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// DecodeSegment decodes base64url, tolerating padding and the standard
// alphabet.
func DecodeSegment(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	return base64.RawURLEncoding.DecodeString(s)
}
