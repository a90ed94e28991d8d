package harvest

import (
	"testing"
)

const categoryFixture = `
<html><body>
<div class="container">
  <div class="nf__part mb-3">
    <a class="nf__part__detail__title" href="/PS11752778-Whirlpool-WPW10321304-Refrigerator-Door-Shelf-Bin.htm">
      <span>Refrigerator Door Shelf Bin</span>
    </a>
  </div>
  <div class="nf__part mb-3">
    <a class="nf__part__detail__title" href="https://www.partselect.com/PS11746337-Lower-Rack.htm">
      <span>Lower Dishrack Assembly</span>
    </a>
  </div>
  <div class="nf__part mb-3">
    <div>no title anchor, skipped</div>
  </div>
</div>
</body></html>`

func TestParseCategoryPage(t *testing.T) {
	links, err := ParseCategoryPage(categoryFixture, "https://www.partselect.com")
	if err != nil {
		t.Fatalf("ParseCategoryPage: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 part links, got %d", len(links))
	}
	if links[0].Name != "Refrigerator Door Shelf Bin" {
		t.Errorf("unexpected part name %q", links[0].Name)
	}
	if links[0].URL != "https://www.partselect.com/PS11752778-Whirlpool-WPW10321304-Refrigerator-Door-Shelf-Bin.htm" {
		t.Errorf("relative href not resolved: %q", links[0].URL)
	}
	if links[1].URL != "https://www.partselect.com/PS11746337-Lower-Rack.htm" {
		t.Errorf("absolute href mangled: %q", links[1].URL)
	}
}

const brandFixture = `
<html><body>
<ul class="nf__links">
  <li><a href="/Whirlpool-Dishwasher-Parts.htm">Whirlpool</a></li>
  <li><a href="/Bosch-Dishwasher-Parts.htm">Bosch</a></li>
</ul>
<ul class="nf__links">
  <li><a href="/Dishwasher-Racks.htm">Racks</a></li>
</ul>
</body></html>`

func TestParseBrandLinksUsesFirstList(t *testing.T) {
	links, err := ParseBrandLinks(brandFixture, "https://www.partselect.com")
	if err != nil {
		t.Fatalf("ParseBrandLinks: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 brand links, got %d: %v", len(links), links)
	}
	if links[1] != "https://www.partselect.com/Bosch-Dishwasher-Parts.htm" {
		t.Errorf("unexpected brand link %q", links[1])
	}
}

const relatedFixture = `
<html><body>
<h2 class="section-title">Related Dishwasher Parts</h2>
<div><ul class="nf__links">
  <li><a href="/Dishwasher-Spray-Arms.htm">Spray Arms</a></li>
  <li><a href="/Dishwasher-Pumps.htm">Pumps</a></li>
</ul></div>
<h2 class="section-title">Popular Articles</h2>
<ul class="nf__links">
  <li><a href="/content/blog/some-article">Article</a></li>
</ul>
</body></html>`

func TestParseRelatedLinksFiltersSections(t *testing.T) {
	links, err := ParseRelatedLinks(relatedFixture, "https://www.partselect.com")
	if err != nil {
		t.Fatalf("ParseRelatedLinks: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 related links, got %d: %v", len(links), links)
	}
	if links[0] != "https://www.partselect.com/Dishwasher-Spray-Arms.htm" {
		t.Errorf("unexpected related link %q", links[0])
	}
}

const partPageFixture = `
<html><body>
<span itemprop="productID">PS11752778</span>
<span itemprop="brand"><span itemprop="name">Whirlpool</span></span>
<span itemprop="availability">In Stock</span>
<span itemprop="mpn">WPW10321304</span>
<div class="yt-video" data-yt-init="abc123"></div>
<div data-collapse-container='{"targetClassToggle":"d-none"}'>W10321304, AP6019471, 2171046</div>
<span class="price pd__price" content="36.08"><span class="js-partPrice">36.08</span></span>
<div class="pd__wrap row">
  <div class="col-md-6 mt-3">
    <div class="bold mb-1">This part fixes the following symptoms:</div>
    Door won't close | Leaking
  </div>
  <div class="col-md-6 mt-3">
    <div class="bold mb-1">This part works with the following products:</div>
    Refrigerator, Freezer
  </div>
</div>
<div class="d-flex flex-lg-grow-1 col-lg-7 col-12 justify-content-lg-between mt-lg-0 mt-2">
  <div class="d-flex"><p>Really Easy</p></div>
  <div class="d-flex"><p>Less than 15 mins</p></div>
</div>
</body></html>`

func TestParsePartPage(t *testing.T) {
	part, err := ParsePartPage(partPageFixture, "Refrigerator Door Shelf Bin", "https://www.partselect.com/PS11752778.htm")
	if err != nil {
		t.Fatalf("ParsePartPage: %v", err)
	}
	if part.PartID != "PS11752778" {
		t.Errorf("part id = %q", part.PartID)
	}
	if part.MPNID != "WPW10321304" {
		t.Errorf("mpn = %q", part.MPNID)
	}
	if part.Brand != "Whirlpool" {
		t.Errorf("brand = %q", part.Brand)
	}
	if part.Availability != "In Stock" {
		t.Errorf("availability = %q", part.Availability)
	}
	if part.PartPrice != 36.08 {
		t.Errorf("price = %v", part.PartPrice)
	}
	if part.InstallVideoURL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("video url = %q", part.InstallVideoURL)
	}
	if part.ReplaceParts != "W10321304, AP6019471, 2171046" {
		t.Errorf("replace parts = %q", part.ReplaceParts)
	}
	if part.Symptoms != "Door won't close | Leaking" {
		t.Errorf("symptoms = %q", part.Symptoms)
	}
	if part.ApplianceTypes != "Refrigerator, Freezer" {
		t.Errorf("appliance types = %q", part.ApplianceTypes)
	}
	if part.InstallDifficulty != "Really Easy" {
		t.Errorf("difficulty = %q", part.InstallDifficulty)
	}
	if part.InstallTime != "Less than 15 mins" {
		t.Errorf("install time = %q", part.InstallTime)
	}
}

func TestParsePriceFallsBackToContentAttr(t *testing.T) {
	fixture := `<html><body><span class="price pd__price" content="42.50"></span></body></html>`
	part, err := ParsePartPage(fixture, "x", "https://example.com/x")
	if err != nil {
		t.Fatalf("ParsePartPage: %v", err)
	}
	if part.PartPrice != 42.50 {
		t.Errorf("price = %v, want 42.50", part.PartPrice)
	}
}

func TestParsePriceFallsBackToFullText(t *testing.T) {
	fixture := `<html><body><span class="price pd__price">$19.99</span></body></html>`
	part, err := ParsePartPage(fixture, "x", "https://example.com/x")
	if err != nil {
		t.Fatalf("ParsePartPage: %v", err)
	}
	if part.PartPrice != 19.99 {
		t.Errorf("price = %v, want 19.99", part.PartPrice)
	}
}
