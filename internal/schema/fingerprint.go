package schema

// Fingerprint is the result of hashing the executable of a
// [ProcessDescriptor].
type Fingerprint struct {
	// Process is the [ProcessDescriptor] the executable belongs to.
	Process ProcessDescriptor

	// Algorithm is the name of the hash algorithm used, e.g. "sha256".
	Algorithm string

	// Digest is the lower-case hexadecimal digest, empty on failure.
	Digest string

	// Size is the amount of bytes hashed.
	Size uint64

	// Err is the error that occurred while hashing, if any.
	Err error
}

// OK returns whether the [Fingerprint] was computed successfully.
func (f Fingerprint) OK() bool {
	return f.Err == nil && f.Digest != ""
}
