package models

import (
	"fmt"
	"strings"
)

// Part is one catalog row scraped from a product listing page.
type Part struct {
	PartID            string  `json:"part_id"`
	PartName          string  `json:"part_name"`
	MPNID             string  `json:"mpn_id"`
	PartPrice         float64 `json:"part_price"`
	InstallDifficulty string  `json:"install_difficulty"`
	InstallTime       string  `json:"install_time"`
	Symptoms          string  `json:"symptoms"`
	ApplianceTypes    string  `json:"appliance_types"`
	ReplaceParts      string  `json:"replace_parts"`
	Brand             string  `json:"brand"`
	Availability      string  `json:"availability"`
	InstallVideoURL   string  `json:"install_video_url"`
	ProductURL        string  `json:"product_url"`
}

// Repair is one appliance symptom entry with its common fixes.
type Repair struct {
	Appliance        string `json:"appliance"`
	Symptom          string `json:"symptom"`
	Description      string `json:"description"`
	Percentage       string `json:"percentage"`
	Parts            string `json:"parts"`
	SymptomDetailURL string `json:"symptom_detail_url"`
	Difficulty       string `json:"difficulty"`
	RepairVideoURL   string `json:"repair_video_url"`
}

// DocText flattens the repair into the passage that gets embedded and served
// by semantic search.
func (r Repair) DocText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s repair: %s.", r.Appliance, r.Symptom)
	if r.Description != "" {
		fmt.Fprintf(&b, " %s", strings.TrimSpace(r.Description))
	}
	if r.Percentage != "" {
		fmt.Fprintf(&b, " Reported by %s of customers.", r.Percentage)
	}
	if r.Parts != "" {
		fmt.Fprintf(&b, " Commonly replaced parts: %s.", r.Parts)
	}
	if r.Difficulty != "" {
		fmt.Fprintf(&b, " Difficulty: %s.", r.Difficulty)
	}
	return b.String()
}

// BlogPost is a scraped article from the repair help blog.
type BlogPost struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Body  string `json:"body"`
}

// DocText flattens the post into the passage that gets embedded and served by
// semantic search.
func (p BlogPost) DocText() string {
	body := strings.TrimSpace(p.Body)
	if p.Title == "" {
		return body
	}
	if body == "" {
		return p.Title
	}
	return p.Title + "\n\n" + body
}
