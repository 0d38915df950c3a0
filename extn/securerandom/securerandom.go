// Package securerandom exposes the host's CSPRNG to scripts as the
// SecureRandom module.
package securerandom

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/shale-lang/shale/engine"
	"github.com/shale-lang/shale/interp"
)

// DefaultLength is the number of random bytes drawn when no length argument
// is given.
const DefaultLength = 16

const alphanumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Init registers the SecureRandom methods on i.
func Init(i *interp.Interpreter) error {
	methods := map[string]engine.NativeFunc{
		"SecureRandom.hex":          hexFunc,
		"SecureRandom.base64":       base64Func,
		"SecureRandom.uuid":         uuidFunc,
		"SecureRandom.bytes":        bytesFunc,
		"SecureRandom.alphanumeric": alphanumericFunc,
	}
	for name, fn := range methods {
		if err := i.DefineNativeMethod(name, fn); err != nil {
			return fmt.Errorf("securerandom: define %s: %w", name, err)
		}
	}
	return nil
}

func hexFunc(s engine.State, args []engine.Value) engine.Value {
	b := randomBytes(s, lengthArg(s, args))
	return s.NewString([]byte(hex.EncodeToString(b)))
}

func base64Func(s engine.State, args []engine.Value) engine.Value {
	b := randomBytes(s, lengthArg(s, args))
	return s.NewString([]byte(base64.StdEncoding.EncodeToString(b)))
}

func bytesFunc(s engine.State, args []engine.Value) engine.Value {
	return s.NewString(randomBytes(s, lengthArg(s, args)))
}

// uuidFunc returns a random version 4 UUID in its canonical text form.
func uuidFunc(s engine.State, args []engine.Value) engine.Value {
	if len(args) != 0 {
		raise(s, "ArgumentError", fmt.Sprintf("wrong number of arguments (given %d, expected 0)", len(args)))
	}
	b := randomBytes(s, 16)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	uuid := fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
	return s.NewString([]byte(uuid))
}

func alphanumericFunc(s engine.State, args []engine.Value) engine.Value {
	n := lengthArg(s, args)
	b := randomBytes(s, n)
	for idx, c := range b {
		b[idx] = alphanumericChars[int(c)%len(alphanumericChars)]
	}
	return s.NewString(b)
}

// lengthArg extracts an optional non-negative byte count argument.
func lengthArg(s engine.State, args []engine.Value) int {
	switch len(args) {
	case 0:
		return DefaultLength
	case 1:
		if args[0].IsNil() {
			return DefaultLength
		}
		if args[0].Tag != engine.TagFixnum {
			raise(s, "TypeError", "no implicit conversion into Integer")
		}
		n := args[0].Num
		if n < 0 {
			raise(s, "ArgumentError", "negative string size (or size too big)")
		}
		return int(n)
	default:
		raise(s, "ArgumentError", fmt.Sprintf("wrong number of arguments (given %d, expected 0..1)", len(args)))
		return 0
	}
}

func randomBytes(s engine.State, n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		raise(s, "RuntimeError", "failed to generate random bytes")
	}
	return b
}

func raise(s engine.State, class, message string) {
	exc, err := s.NewException(class, []byte(message))
	if err != nil {
		panic(err)
	}
	s.Raise(exc)
}
