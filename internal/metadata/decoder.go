package metadata

// Decoder extracts camera metadata from an image file on disk.
type Decoder interface {
	Decode(path string) (Fields, error)
}
