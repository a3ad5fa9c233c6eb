package recognition

// BoundingBox as reported by the recognition service: ratios of the image
// dimensions. Any field may be zero when the service omits it.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one candidate face from the detect primitive.
type Detection struct {
	Box        *BoundingBox `json:"box"`
	Confidence float64      `json:"confidence"`
}

// IndexedFace is the result of indexing a single face into a collection.
type IndexedFace struct {
	FaceID     string  `json:"face_id"`
	Confidence float64 `json:"confidence"`
}

// FaceMatch is one hit from a search-by-image call. ExternalRef is the
// correlation token supplied when the matched face was indexed.
type FaceMatch struct {
	FaceID      string  `json:"face_id"`
	Similarity  float64 `json:"similarity"`
	ExternalRef string  `json:"external_ref"`
}

type detectResponse struct {
	Faces []Detection `json:"faces"`
}

type indexResponse struct {
	Face *IndexedFace `json:"face"`
}

type searchResponse struct {
	Matches []FaceMatch `json:"matches"`
}

type errorResponse struct {
	Error string `json:"error"`
}
