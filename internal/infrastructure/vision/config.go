package vision

// DetectorConfig параметры модели и инференса.
type DetectorConfig struct {
	ModelPath           string
	Labels              Labels
	Workers             int
	InputSize           int
	ConfidenceThreshold float64
	NMSThreshold        float64
}

func (c DetectorConfig) withDefaults() DetectorConfig {
	if len(c.Labels) == 0 {
		c.Labels = COCOLabels
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.InputSize <= 0 {
		c.InputSize = 640
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = 0.25
	}
	if c.NMSThreshold <= 0 {
		c.NMSThreshold = 0.45
	}
	return c
}
