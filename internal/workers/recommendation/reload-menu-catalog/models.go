package reloadcatalog

import "time"

// Input is empty; the source comes from configuration.
type Input struct{}

type Output struct {
	ItemCount int       `json:"itemCount"`
	Regions   []string  `json:"regions"`
	Source    string    `json:"source"`
	LoadedAt  time.Time `json:"loadedAt"`
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"itemCount": o.ItemCount,
		"regions":   o.Regions,
		"source":    o.Source,
		"loadedAt":  o.LoadedAt.Format(time.RFC3339),
	}
}
