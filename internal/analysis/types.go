package analysis

// Segment is one timed cut interval of the final video, sized to musical
// structure. Immutable once emitted.
type Segment struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Duration    float64 `json:"duration"`
	Beats       int     `json:"beats"`
	Number      int     `json:"segment_number"`
	EnergyLevel float64 `json:"energy_level"`
}

// Analysis is the segment plan produced by the analyze command and consumed
// by the assemble command. This JSON document is the sole contract between
// the two; they may run as separate invocations.
type Analysis struct {
	FileName      string    `json:"file_name"`
	Tempo         float64   `json:"tempo"`
	Duration      float64   `json:"duration"`
	TotalBeats    int       `json:"total_beats"`
	AverageEnergy float64   `json:"average_energy"`
	Segments      []Segment `json:"segments"`
}
