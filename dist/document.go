// Package dist implements the .sc3c export format: a decoded script unit
// encoded as canonical CBOR, so two decodes of the same script produce the
// same bytes and can be compared or cached by content.
package dist

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/sc3/pkg/sc3"
)

// FormatVersion is written into every document.
const FormatVersion = 1

// Extension is the file extension of exported documents.
const Extension = ".sc3c"

// Hash is the SHA-256 of a raw script file.
type Hash [32]byte

// String returns the hash in lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashScript computes the content hash of a raw script file.
func HashScript(data []byte) Hash {
	return sha256.Sum256(data)
}

// Document is one decoded script unit.
type Document struct {
	Version      uint8             `cbor:"1,keyasint"`
	Name         string            `cbor:"2,keyasint"`
	Hash         Hash              `cbor:"3,keyasint"`
	Labels       []uint32          `cbor:"4,keyasint"`
	ImageNames   []string          `cbor:"5,keyasint,omitempty"`
	Instructions []sc3.Instruction `cbor:"6,keyasint"`
}

// NewDocument builds a document for a script decoded from data.
func NewDocument(name string, data []byte, in *sc3.Input, insts []sc3.Instruction) *Document {
	return &Document{
		Version:      FormatVersion,
		Name:         name,
		Hash:         HashScript(data),
		Labels:       in.Labels,
		ImageNames:   in.ImageNames,
		Instructions: insts,
	}
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dist: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalDocument serializes a Document to canonical CBOR bytes.
func MarshalDocument(d *Document) ([]byte, error) {
	return cborEncMode.Marshal(d)
}

// UnmarshalDocument deserializes a Document from CBOR bytes.
func UnmarshalDocument(data []byte) (*Document, error) {
	var d Document
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("dist: unmarshal document: %w", err)
	}
	if d.Version != FormatVersion {
		return nil, fmt.Errorf("dist: document version %d, want %d", d.Version, FormatVersion)
	}
	return &d, nil
}

// WriteFile writes d to path.
func WriteFile(path string, d *Document) error {
	data, err := MarshalDocument(d)
	if err != nil {
		return fmt.Errorf("dist: marshal %s: %w", d.Name, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads a document written by WriteFile.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dist: %w", err)
	}
	return UnmarshalDocument(data)
}
