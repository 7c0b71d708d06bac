package signature

import "errors"

var (
	ErrInvalidStructure       = errors.New("invalid envelope structure")
	ErrInvalidHeader          = errors.New("invalid header")
	ErrInvalidSignatureLength = errors.New("invalid signature length")
	ErrInvalidKeyFormat       = errors.New("invalid key format")
	ErrSignatureInvalid       = errors.New("signature invalid")
	ErrKeyInactive            = errors.New("key not active in registry")
	ErrKeyRegistry            = errors.New("key registry error")
)
