package models

// Symbol is a listed security from the exchange catalog.
type Symbol struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"nameEN,omitempty"`
	Market   string `json:"market,omitempty"`
	Industry string `json:"industry,omitempty"`
	Sector   string `json:"sector,omitempty"`
}
