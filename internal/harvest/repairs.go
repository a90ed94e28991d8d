package harvest

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"chandler/pkg/models"
)

// ParseSymptomList extracts the symptom entries from an appliance repair
// landing page. Detail URLs are resolved against baseURL and filled into the
// detail pass later.
func ParseSymptomList(raw, baseURL, appliance string) ([]models.Repair, error) {
	root, err := parseHTML(raw)
	if err != nil {
		return nil, fmt.Errorf("parse symptom list: %w", err)
	}

	list := findFirst(root, byClass("symptom-list"))
	if list == nil {
		return nil, nil
	}

	var repairs []models.Repair
	for _, anchor := range findAll(list, byTag("a")) {
		symptom := nodeText(findFirst(anchor, byClass("title-md")))
		if symptom == "" {
			continue
		}
		repair := models.Repair{
			Appliance:        appliance,
			Symptom:          symptom,
			Description:      nodeText(findFirst(anchor, byTag("p"))),
			SymptomDetailURL: resolveURL(baseURL, attrVal(anchor, "href")),
		}
		if reported := nodeText(findFirst(anchor, byClass("symptom-list__reported-by"))); reported != "" {
			if idx := strings.Index(reported, "%"); idx >= 0 {
				repair.Percentage = strings.TrimSpace(trailingWord(reported[:idx])) + "%"
			}
		}
		repairs = append(repairs, repair)
	}
	return repairs, nil
}

// trailingWord returns the last whitespace-separated token of s, so the
// percentage number survives the "Reported by" prefix.
func trailingWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// ParseRepairDetail fills in the difficulty, commonly replaced parts, and
// repair video from a symptom detail page.
func ParseRepairDetail(raw string, repair *models.Repair) error {
	root, err := parseHTML(raw)
	if err != nil {
		return fmt.Errorf("parse repair detail: %w", err)
	}

	if list := findFirst(root, byClass("list-disc")); list != nil {
		if item := findFirst(list, byTag("li")); item != nil {
			difficulty := nodeText(item)
			difficulty = strings.TrimSpace(strings.TrimPrefix(difficulty, "Rated as"))
			repair.Difficulty = difficulty
		}
	}

	if intro := findFirst(root, byClass("repair__intro")); intro != nil {
		var parts []string
		for _, anchor := range findAll(intro, byClass("js-scrollTrigger")) {
			if name := nodeText(anchor); name != "" {
				parts = append(parts, name)
			}
		}
		repair.Parts = strings.Join(parts, ", ")
	}

	if video := findFirst(root, func(n *html.Node) bool {
		return n.Data == "div" && hasAttr(n, "data-yt-init")
	}); video != nil {
		if id := attrVal(video, "data-yt-init"); id != "" {
			repair.RepairVideoURL = "https://www.youtube.com/watch?v=" + id
		}
	}

	return nil
}
