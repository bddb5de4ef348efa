package models

import (
	"encoding/json"
	"fmt"
)

// Product is the normalized product reference used everywhere inside the
// service. The upstream platform returns union-shaped records (movie-style
// and commerce-style field names coexist); normalization happens once at the
// client boundary so nothing downstream carries fallback chains.
type Product struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	ImageURL   string                 `json:"image_url,omitempty"`
	CustomData map[string]interface{} `json:"custom_data,omitempty"`
}

// Price reads a price out of the custom data bag, tolerating string and
// numeric encodings. Returns 0, false when absent or unreadable.
func (p *Product) Price() (float64, bool) {
	return customFloat(p.CustomData, "price", "sale_price")
}

// Rating reads a rating out of the custom data bag.
func (p *Product) Rating() (float64, bool) {
	return customFloat(p.CustomData, "rating", "average_rating")
}

// Brand reads a brand name out of the custom data bag.
func (p *Product) Brand() string {
	for _, key := range []string{"brand", "Brand", "manufacturer"} {
		if v, ok := p.CustomData[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// ProductID tolerates both encodings catalogs use for ids: a JSON string
// ("sku-9") or a bare number (42). Either way it lands as a string.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ProductID(n.String())
	return nil
}

// RawProduct is the upstream record as the platform returns it. Field names
// vary by catalog vertical, so every alternative is captured and resolved in
// Normalize.
type RawProduct struct {
	ID          ProductID              `json:"id"`
	Title       string                 `json:"title"`
	ProductName string                 `json:"product_name"`
	Name        string                 `json:"name"`
	ImageURL    string                 `json:"image_url"`
	PosterPath  string                 `json:"poster_path"`
	CustomData  map[string]interface{} `json:"custom_data"`
}

// Normalize resolves the union-shaped record into a Product.
func (r *RawProduct) Normalize() Product {
	title := r.Title
	if title == "" {
		title = r.ProductName
	}
	if title == "" {
		title = r.Name
	}
	if title == "" {
		if v, ok := r.CustomData["Title"]; ok {
			if s, ok := v.(string); ok {
				title = s
			}
		}
	}

	image := r.ImageURL
	if image == "" {
		image = r.PosterPath
	}

	return Product{
		ID:         string(r.ID),
		Title:      title,
		ImageURL:   image,
		CustomData: r.CustomData,
	}
}

func customFloat(data map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := data[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		case string:
			var f float64
			if _, err := fmt.Sscanf(n, "%f", &f); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
