package matching

// Config tunes the matching service.
type Config struct {
	MaxQueries             int
	MaxJobDescriptionChars int
	HighlightMinSimilarity float64
	HighlightMinWords      int
	JDCacheSize            int
	ReportPrefix           string
}

func (c Config) withDefaults() Config {
	if c.MaxQueries <= 0 {
		c.MaxQueries = 200
	}
	if c.MaxJobDescriptionChars <= 0 {
		c.MaxJobDescriptionChars = 20000
	}
	if c.HighlightMinSimilarity == 0 {
		c.HighlightMinSimilarity = 0.4
	}
	if c.HighlightMinWords <= 0 {
		c.HighlightMinWords = 5
	}
	if c.JDCacheSize <= 0 {
		c.JDCacheSize = 128
	}
	if c.ReportPrefix == "" {
		c.ReportPrefix = "match-reports"
	}
	return c
}
