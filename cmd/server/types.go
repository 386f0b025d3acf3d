package main

// IdentifyResponse is the JSON body for POST /api/identify. Absent fields
// are explicit nulls so clients never see a partially populated result
// that contradicts success.
type IdentifyResponse struct {
	Success    bool     `json:"success"`
	ShabadID   *string  `json:"shabad_id"`
	Confidence *float64 `json:"confidence"`
	SongName   *string  `json:"song_name"`
	Message    string   `json:"message"`
}

// MappingDTO represents a stored audio-to-shabad mapping.
type MappingDTO struct {
	AudioFilename string `json:"audio_filename"`
	ShabadID      string `json:"shabad_id"`
	ArtistName    string `json:"artist_name,omitempty"`
	StartAng      *int   `json:"start_ang,omitempty"`
}

// ListMappingsResponse is the response for GET /api/mappings.
type ListMappingsResponse struct {
	Mappings []MappingDTO `json:"mappings"`
	Count    int          `json:"count"`
}

// MetricsResponse provides server health and database metrics.
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	TrackCount   int64  `json:"track_count"`
	PostingCount int64  `json:"posting_count"`
	MappingCount int64  `json:"mapping_count"`
	SampleRate   int    `json:"sample_rate"`
}

// ShabadResponse is the catalog proxy response for GET /api/shabad/{id}.
type ShabadResponse struct {
	ShabadID string   `json:"shabad_id"`
	Ang      int      `json:"ang,omitempty"`
	Lines    []string `json:"lines,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
