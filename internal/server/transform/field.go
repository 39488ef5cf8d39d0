// Package transform maps records between their application shape (plaintext)
// and their storage shape (sensitive fields replaced by envelope blobs).
//
// Every record kind has its own pair of functions with a fixed list of
// sensitive fields. Writes fail as a whole when a field cannot be encrypted;
// reads are best effort: a field that cannot be decrypted is left absent and
// reported in the returned Report instead of failing the record.
package transform

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/triagekeeper/internal/cryptox"
)

// Encrypter seals one plaintext field value.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// Decrypter opens one sealed field value.
type Decrypter interface {
	Decrypt(blob string) (string, error)
}

// Codec is satisfied by *cryptox.Codec.
type Codec interface {
	Encrypter
	Decrypter
}

var _ Codec = (*cryptox.Codec)(nil)

// FieldState is the outcome of restoring one sensitive field.
type FieldState int

const (
	// FieldUnset means the stored record had no value for the field.
	FieldUnset FieldState = iota
	// FieldOK means the field was decrypted and restored.
	FieldOK
	// FieldOmitted means a value was stored but could not be restored.
	FieldOmitted
)

func (s FieldState) String() string {
	switch s {
	case FieldUnset:
		return "unset"
	case FieldOK:
		return "ok"
	case FieldOmitted:
		return "omitted"
	}
	return fmt.Sprintf("FieldState(%d)", int(s))
}

// FieldResult describes what happened to one sensitive field on read.
type FieldResult struct {
	Name   string
	State  FieldState
	Reason error
}

// Report lists one FieldResult per sensitive field of the record kind, in the
// kind's field order.
type Report []FieldResult

// Omitted returns the fields that were present in storage but not restored.
func (r Report) Omitted() []FieldResult {
	var out []FieldResult
	for _, f := range r {
		if f.State == FieldOmitted {
			out = append(out, f)
		}
	}
	return out
}

// OmittedNames returns the names of omitted fields.
func (r Report) OmittedNames() []string {
	var out []string
	for _, f := range r.Omitted() {
		out = append(out, f.Name)
	}
	return out
}

// State returns the state of the named field, FieldUnset if unknown.
func (r Report) State(name string) FieldState {
	for _, f := range r {
		if f.Name == name {
			return f.State
		}
	}
	return FieldUnset
}

// Clean reports whether no field was omitted.
func (r Report) Clean() bool {
	return len(r.Omitted()) == 0
}

func (r Report) String() string {
	parts := make([]string, 0, len(r))
	for _, f := range r {
		parts = append(parts, f.Name+"="+f.State.String())
	}
	return strings.Join(parts, ",")
}

// sealString encrypts v when it is set. Empty strings count as unset.
func sealString(enc Encrypter, name string, v *string) (*string, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	blob, err := enc.Encrypt(*v)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	return &blob, nil
}

// openString restores a sealed string field and records the outcome.
func openString(dec Decrypter, name string, blob *string, report *Report) *string {
	if blob == nil || *blob == "" {
		*report = append(*report, FieldResult{Name: name, State: FieldUnset})
		return nil
	}
	v, err := dec.Decrypt(*blob)
	if err != nil {
		*report = append(*report, FieldResult{Name: name, State: FieldOmitted, Reason: err})
		return nil
	}
	*report = append(*report, FieldResult{Name: name, State: FieldOK})
	return &v
}
