package metadata

// Fields holds the values extracted from an image's embedded metadata.
// Every field is optional; pointers are nil (and strings empty) when the
// source tag was absent or unparsable.
type Fields struct {
	Width       int
	Height      int
	ISO         *int
	ExposureSec *float64
	DateTime    string
	Latitude    *float64
	Longitude   *float64
	Altitude    *float64
	Model       string
}
