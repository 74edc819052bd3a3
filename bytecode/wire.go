package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// FormatVersion is the current wire format version for compiled programs.
const FormatVersion = 1

// Program is the serializable form of a compiled instruction sequence.
type Program struct {
	Version int           `cbor:"v"`
	Code    []Instruction `cbor:"code"`
}

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalProgram serializes a compiled program to CBOR bytes.
func MarshalProgram(code []Instruction) ([]byte, error) {
	return cborEncMode.Marshal(&Program{Version: FormatVersion, Code: code})
}

// UnmarshalProgram deserializes a compiled program from CBOR bytes and
// validates it before returning the instruction slice.
func UnmarshalProgram(data []byte) ([]Instruction, error) {
	var p Program
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal program: %w", err)
	}
	if p.Version != FormatVersion {
		return nil, fmt.Errorf("bytecode: unsupported format version %d", p.Version)
	}
	if err := Validate(p.Code); err != nil {
		return nil, err
	}
	return p.Code, nil
}

// Validate checks the structural invariants of a finished program: every
// jump target must be patched and must land inside the instruction slice
// (one past the end is a valid loop-exit address).
func Validate(code []Instruction) error {
	for i, in := range code {
		switch in.Op {
		case OpJump, OpJumpIfFalse:
			if in.Target == PendingTarget {
				return fmt.Errorf("bytecode: unpatched jump at %04d", i)
			}
			if in.Target < 0 || in.Target > len(code) {
				return fmt.Errorf("bytecode: jump at %04d targets %d, out of range", i, in.Target)
			}
		}
	}
	return nil
}
