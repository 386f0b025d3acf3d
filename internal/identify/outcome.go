package identify

// Kind is the terminal state of an identification request. "No result"
// cases are outcome variants, never errors; only corrupt input and
// storage failure travel on the error channel.
type Kind int

const (
	// Completed: a confident match resolved to a Shabad.
	Completed Kind = iota
	// NoMatch: no candidate cleared the acceptance threshold.
	NoMatch
	// UnmappedMatch: a confident fingerprint match whose track has no
	// resolvable Shabad identity. Surfaced distinctly from NoMatch so
	// operators can spot ingestion gaps.
	UnmappedMatch
)

func (k Kind) String() string {
	switch k {
	case Completed:
		return "completed"
	case NoMatch:
		return "no_match"
	case UnmappedMatch:
		return "unmapped_match"
	default:
		return "unknown"
	}
}

// Outcome is the externally visible result of one identification.
// Success is true exactly when Kind is Completed. Confidence is nil when
// the matcher produced no candidate at all.
type Outcome struct {
	Kind       Kind
	Success    bool
	ShabadID   string
	SongName   string
	Confidence *float64
	Message    string
}

const (
	msgIdentified = "Shabad identified successfully"
	msgUnmapped   = "Audio recognized but Shabad ID not found in mapping"
	msgNoMatch    = "No match found in database"
)

func completed(shabadID, songName string, confidence float64) *Outcome {
	return &Outcome{
		Kind:       Completed,
		Success:    true,
		ShabadID:   shabadID,
		SongName:   songName,
		Confidence: &confidence,
		Message:    msgIdentified,
	}
}

func unmappedMatch(songName string, confidence float64) *Outcome {
	return &Outcome{
		Kind:       UnmappedMatch,
		SongName:   songName,
		Confidence: &confidence,
		Message:    msgUnmapped,
	}
}

func noMatch(confidence *float64) *Outcome {
	return &Outcome{
		Kind:       NoMatch,
		Confidence: confidence,
		Message:    msgNoMatch,
	}
}
