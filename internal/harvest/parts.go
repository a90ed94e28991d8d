package harvest

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"chandler/pkg/models"
)

// PartLink is one product entry on a category listing page.
type PartLink struct {
	Name string
	URL  string
}

// ParseCategoryPage extracts the product links from a category or brand
// listing page. The href is resolved against baseURL.
func ParseCategoryPage(raw, baseURL string) ([]PartLink, error) {
	root, err := parseHTML(raw)
	if err != nil {
		return nil, fmt.Errorf("parse category page: %w", err)
	}

	var links []PartLink
	for _, partDiv := range findAll(root, byClass("nf__part", "mb-3")) {
		anchor := findFirst(partDiv, byClass("nf__part__detail__title"))
		if anchor == nil {
			continue
		}
		name := nodeText(findFirst(anchor, byTag("span")))
		if name == "" {
			name = nodeText(anchor)
		}
		href := resolveURL(baseURL, attrVal(anchor, "href"))
		if name == "" || href == "" {
			continue
		}
		links = append(links, PartLink{Name: name, URL: href})
	}
	return links, nil
}

// ParseBrandLinks extracts the brand navigation links from an appliance
// landing page. The first nf__links list holds the brands.
func ParseBrandLinks(raw, baseURL string) ([]string, error) {
	root, err := parseHTML(raw)
	if err != nil {
		return nil, fmt.Errorf("parse brand links: %w", err)
	}

	list := findFirst(root, byClass("nf__links"))
	if list == nil {
		return nil, nil
	}
	return anchorsFrom(list, baseURL), nil
}

// ParseRelatedLinks extracts the "Related ... Parts" category links from a
// brand page. Only sections naming dishwasher or refrigerator parts count.
func ParseRelatedLinks(raw, baseURL string) ([]string, error) {
	root, err := parseHTML(raw)
	if err != nil {
		return nil, fmt.Errorf("parse related links: %w", err)
	}

	var links []string
	for _, title := range findAll(root, byClass("section-title")) {
		text := nodeText(title)
		if !strings.Contains(text, "Related") {
			continue
		}
		if !strings.Contains(text, "Dishwasher Parts") && !strings.Contains(text, "Refrigerator Parts") {
			continue
		}
		list := followingSibling(root, title, byClass("nf__links"))
		if list != nil {
			links = append(links, anchorsFrom(list, baseURL)...)
		}
	}
	return links, nil
}

func anchorsFrom(list *html.Node, baseURL string) []string {
	var links []string
	for _, item := range findAll(list, byTag("li")) {
		anchor := findFirst(item, byTag("a"))
		if anchor == nil {
			continue
		}
		if href := resolveURL(baseURL, attrVal(anchor, "href")); href != "" {
			links = append(links, href)
		}
	}
	return links
}

const (
	symptomsHeader = "This part fixes the following symptoms:"
	productsHeader = "This part works with the following products:"
)

// ParsePartPage extracts a part record from a rendered product page.
func ParsePartPage(raw, partName, productURL string) (models.Part, error) {
	root, err := parseHTML(raw)
	if err != nil {
		return models.Part{}, fmt.Errorf("parse part page: %w", err)
	}

	part := models.Part{
		PartName:   partName,
		ProductURL: productURL,
	}

	part.PartID = nodeText(findFirst(root, byTagAndAttr("span", "itemprop", "productID")))
	part.MPNID = nodeText(findFirst(root, byTagAndAttr("span", "itemprop", "mpn")))
	part.Availability = nodeText(findFirst(root, byTagAndAttr("span", "itemprop", "availability")))

	if brand := findFirst(root, byTagAndAttr("span", "itemprop", "brand")); brand != nil {
		part.Brand = nodeText(findFirst(brand, byTagAndAttr("span", "itemprop", "name")))
	}

	if video := findFirst(root, byClass("yt-video")); video != nil {
		if id := attrVal(video, "data-yt-init"); id != "" {
			part.InstallVideoURL = "https://www.youtube.com/watch?v=" + id
		}
	}

	if replaces := findFirst(root, func(n *html.Node) bool { return hasAttr(n, "data-collapse-container") }); replaces != nil {
		part.ReplaceParts = nodeText(replaces)
	}

	part.PartPrice = parsePrice(findFirst(root, byClass("price", "pd__price")))

	if wrap := findFirst(root, byClass("pd__wrap", "row")); wrap != nil {
		for _, info := range findAll(wrap, byClass("col-md-6", "mt-3")) {
			header := nodeText(findFirst(info, byClass("bold", "mb-1")))
			full := nodeText(info)
			switch {
			case strings.Contains(header, symptomsHeader):
				part.Symptoms = strings.TrimSpace(strings.Replace(full, symptomsHeader, "", 1))
			case strings.Contains(header, productsHeader):
				part.ApplianceTypes = strings.TrimSpace(strings.Replace(full, productsHeader, "", 1))
			}
		}
	}

	if install := findFirst(root, byClass("d-flex", "col-lg-7")); install != nil {
		entries := findAll(install, func(n *html.Node) bool {
			return n != install && n.Data == "div" && hasClass(n, "d-flex")
		})
		if len(entries) >= 2 {
			part.InstallDifficulty = nodeText(findFirst(entries[0], byTag("p")))
			part.InstallTime = nodeText(findFirst(entries[1], byTag("p")))
		}
	}

	return part, nil
}

// parsePrice reads the price from the pd__price container, preferring the
// js-partPrice span, then the content attribute, then the full text.
func parsePrice(container *html.Node) float64 {
	if container == nil {
		return 0
	}
	candidates := []string{
		nodeText(findFirst(container, byClass("js-partPrice"))),
		attrVal(container, "content"),
		nodeText(container),
	}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(strings.Trim(candidate, "$ "))
		candidate = strings.ReplaceAll(candidate, ",", "")
		candidate = strings.TrimPrefix(candidate, "$")
		if candidate == "" {
			continue
		}
		if price, err := strconv.ParseFloat(candidate, 64); err == nil {
			return price
		}
	}
	return 0
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	resolved, err := baseURL.Parse(href)
	if err != nil {
		return ""
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
