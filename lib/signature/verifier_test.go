package signature

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Webhooks captured from the notification provider.
var (
	enabledEnvelope = Envelope{
		Header:    "eyJmaWQiOjQ2OCwidHlwZSI6ImFwcF9rZXkiLCJrZXkiOiIweDYwZTZkZDdkNjMxZDAwYTBkOTI4OTlmNDNlYWM4ZDE4M2UzN2IzMzRmNzgwZmM0NWExOTExY2VmMGEyZWU5YTcifQ",
		Payload:   "eyJldmVudCI6Im5vdGlmaWNhdGlvbnNfZW5hYmxlZCIsIm5vdGlmaWNhdGlvbkRldGFpbHMiOnsidXJsIjoiaHR0cHM6Ly9hcGkud2FycGNhc3QuY29tL3YxL2ZyYW1lLW5vdGlmaWNhdGlvbnMiLCJ0b2tlbiI6IjAxOTNkYmQzLWEwNjAtMzljOC0wYTkwLTc4MTJlNzU3N2FmNyJ9fQ",
		Signature: "A4mHBGMa-d6KBJ8ZV57Qm83gtUSulaVpjCNcHzsrCjHuei1lC8Tm6g29mp_05qzeDGLOQ_uIS5wXLeX0kCuiCA",
	}
	addedEnvelope = Envelope{
		Header:    "eyJmaWQiOjkxNzYwMiwidHlwZSI6ImFwcF9rZXkiLCJrZXkiOiIweDA0Zjg5NWQxM2IzYjI4YmM0MjRkOTQ2OTkyMGYyNzYyMjBjYzE2NWU1ZDYxNjFjOWZhZTRkNGFiZGI5OTk1ZDcifQ",
		Payload:   "eyJldmVudCI6ImZyYW1lX2FkZGVkIiwibm90aWZpY2F0aW9uRGV0YWlscyI6eyJ1cmwiOiJodHRwczovL2FwaS53YXJwY2FzdC5jb20vdjEvZnJhbWUtbm90aWZpY2F0aW9ucyIsInRva2VuIjoiMDE5M2ZlMGItMDZiMy04OGFiLTI1ZmEtNTg5ZGMxYTZkOTNhIn19",
		Signature: "y5RGn2ScKPWlQo6rlgEJyXmBeadniQqV_LMTIHf4Ra7nlmK5GMks-L0Hfzvi8e_-zTflJo7NwP6_yRj82rEEDg",
	}
)

type fakeRegistry struct {
	data KeyData
	err  error

	calls int
	fid   uint64
}

func (f *fakeRegistry) KeyDataOf(ctx context.Context, fid uint64, key []byte) (KeyData, error) {
	f.calls++
	f.fid = fid
	return f.data, f.err
}

func TestVerify_SignatureOnly(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	v := NewVerifier(zap.New(core), nil)

	for _, env := range []Envelope{enabledEnvelope, addedEnvelope} {
		res, err := v.Verify(context.Background(), env)
		require.NoError(t, err)
		assert.Equal(t, ModeSignatureOnly, res.Mode)
	}

	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestVerify_DecodesHeaderAndPayload(t *testing.T) {
	v := NewVerifier(zap.NewNop(), nil)

	res, err := v.Verify(context.Background(), enabledEnvelope)
	require.NoError(t, err)
	assert.EqualValues(t, 468, res.Header.FID)
	assert.Equal(t, "app_key", res.Header.Type)
	assert.Equal(t, "0x60e6dd7d631d00a0d92899f43eac8d183e37b334f780fc45a1911cef0a2ee9a7", res.Header.Key)
	assert.Contains(t, string(res.Payload), `"event":"notifications_enabled"`)
}

func TestVerify_TamperedSignature(t *testing.T) {
	v := NewVerifier(zap.NewNop(), nil)

	env := enabledEnvelope
	env.Signature = "A4mHBGMa-d6KBJ8ZV57Qm83gtUSulaVpjCNcHzsrCjHuei1lC8Tm6g29mp_05qzeDGLOO_uIS5wXLeX0kCuiCA"

	_, err := v.Verify(context.Background(), env)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerify_SwappedPayload(t *testing.T) {
	v := NewVerifier(zap.NewNop(), nil)

	env := enabledEnvelope
	env.Payload = addedEnvelope.Payload

	_, err := v.Verify(context.Background(), env)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerify_StructuralErrors(t *testing.T) {
	v := NewVerifier(zap.NewNop(), nil)

	testCases := []struct {
		name string
		env  Envelope
		want error
	}{
		{
			name: "missing header",
			env:  Envelope{Payload: enabledEnvelope.Payload, Signature: enabledEnvelope.Signature},
			want: ErrInvalidStructure,
		},
		{
			name: "missing signature",
			env:  Envelope{Header: enabledEnvelope.Header, Payload: enabledEnvelope.Payload},
			want: ErrInvalidStructure,
		},
		{
			name: "header not json",
			env:  Envelope{Header: "bm90IGpzb24", Payload: enabledEnvelope.Payload, Signature: enabledEnvelope.Signature},
			want: ErrInvalidHeader,
		},
		{
			// {"type":"app_key","key":"0x00"}
			name: "header without fid",
			env:  Envelope{Header: "eyJ0eXBlIjoiYXBwX2tleSIsImtleSI6IjB4MDAifQ", Payload: enabledEnvelope.Payload, Signature: enabledEnvelope.Signature},
			want: ErrInvalidHeader,
		},
		{
			// {"fid":1,"type":"app_key","key":"0x00"}
			name: "short key",
			env:  Envelope{Header: "eyJmaWQiOjEsInR5cGUiOiJhcHBfa2V5Iiwia2V5IjoiMHgwMCJ9", Payload: enabledEnvelope.Payload, Signature: enabledEnvelope.Signature},
			want: ErrInvalidKeyFormat,
		},
		{
			name: "short signature",
			env:  Envelope{Header: enabledEnvelope.Header, Payload: enabledEnvelope.Payload, Signature: "AAAA"},
			want: ErrInvalidSignatureLength,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tc.env)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecodeKey(t *testing.T) {
	_, err := DecodeKey("60e6dd7d631d00a0d92899f43eac8d183e37b334f780fc45a1911cef0a2ee9a7")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	_, err = DecodeKey("0xzz")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	key, err := DecodeKey("0x60e6dd7d631d00a0d92899f43eac8d183e37b334f780fc45a1911cef0a2ee9a7")
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestDecodeSegment_Lenient(t *testing.T) {
	// "hi?>" encodes to aGk/Pg== in the standard alphabet.
	for _, s := range []string{"aGk_Pg", "aGk/Pg==", "aGk_Pg=="} {
		got, err := DecodeSegment(s)
		require.NoError(t, err, s)
		assert.Equal(t, "hi?>", string(got))
	}
}

func TestVerify_RegistryActive(t *testing.T) {
	reg := &fakeRegistry{data: KeyData{State: 1, KeyType: 1}}
	v := NewVerifier(zap.NewNop(), reg)

	res, err := v.Verify(context.Background(), addedEnvelope)
	require.NoError(t, err)
	assert.Equal(t, ModeRegistryVerified, res.Mode)
	assert.Equal(t, 1, reg.calls)
	assert.EqualValues(t, 917602, reg.fid)
}

func TestVerify_RegistryMismatch(t *testing.T) {
	for _, data := range []KeyData{{State: 2, KeyType: 1}, {State: 1, KeyType: 2}, {}} {
		v := NewVerifier(zap.NewNop(), &fakeRegistry{data: data})

		_, err := v.Verify(context.Background(), addedEnvelope)
		assert.ErrorIs(t, err, ErrKeyInactive)
	}
}

func TestVerify_RegistryError(t *testing.T) {
	v := NewVerifier(zap.NewNop(), &fakeRegistry{err: errors.New("rpc down")})

	_, err := v.Verify(context.Background(), addedEnvelope)
	assert.ErrorIs(t, err, ErrKeyRegistry)
}

func TestVerify_BadSignatureSkipsRegistry(t *testing.T) {
	reg := &fakeRegistry{data: KeyData{State: 1, KeyType: 1}}
	v := NewVerifier(zap.NewNop(), reg)

	env := addedEnvelope
	env.Payload = enabledEnvelope.Payload

	_, err := v.Verify(context.Background(), env)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
	assert.Zero(t, reg.calls)
}
