package score

// Stub returns placeholder transcript scores. The values are a pass-through
// field in the batch response, real scoring lives outside this service.
type Stub struct {
}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Score(original, corrected string) map[string]float64 {
	return map[string]float64{
		"grammar":    90,
		"fluency":    85,
		"repetition": 92,
	}
}
