package harvest

import (
	"testing"

	"chandler/pkg/models"
)

func repairFixtureBase() models.Repair {
	return models.Repair{
		Appliance: "Dishwasher",
		Symptom:   "Noisy",
	}
}

const symptomListFixture = `
<html><body>
<div class="symptom-list">
  <a href="/Repair/Dishwasher/Noisy/">
    <div class="title-md">Noisy</div>
    <p>Worn bearing rings, faulty pump housings, or loose spray arms.</p>
    <div class="symptom-list__reported-by">Reported by 36% of customers</div>
  </a>
  <a href="/Repair/Dishwasher/Leaking/">
    <div class="title-md">Leaking</div>
    <p>Cracked hoses or a torn door gasket.</p>
    <div class="symptom-list__reported-by">Reported by 21% of customers</div>
  </a>
</div>
</body></html>`

func TestParseSymptomList(t *testing.T) {
	repairs, err := ParseSymptomList(symptomListFixture, "https://www.partselect.com", "Dishwasher")
	if err != nil {
		t.Fatalf("ParseSymptomList: %v", err)
	}
	if len(repairs) != 2 {
		t.Fatalf("expected 2 repairs, got %d", len(repairs))
	}
	first := repairs[0]
	if first.Appliance != "Dishwasher" || first.Symptom != "Noisy" {
		t.Errorf("unexpected repair header: %+v", first)
	}
	if first.Description != "Worn bearing rings, faulty pump housings, or loose spray arms." {
		t.Errorf("description = %q", first.Description)
	}
	if first.Percentage != "36%" {
		t.Errorf("percentage = %q", first.Percentage)
	}
	if first.SymptomDetailURL != "https://www.partselect.com/Repair/Dishwasher/Noisy/" {
		t.Errorf("detail url = %q", first.SymptomDetailURL)
	}
}

const repairDetailFixture = `
<html><body>
<div class="repair__intro">
  <p>Most dishwasher noise comes from a handful of parts.</p>
  <a class="js-scrollTrigger" href="#pump">Pump</a>
  <a class="js-scrollTrigger" href="#spray-arm">Spray Arm</a>
</div>
<ul class="list-disc">
  <li>Rated as Easy</li>
  <li>247 step-by-step videos</li>
</ul>
<div data-yt-init="xyz789"></div>
</body></html>`

func TestParseRepairDetail(t *testing.T) {
	repair := repairFixtureBase()
	if err := ParseRepairDetail(repairDetailFixture, &repair); err != nil {
		t.Fatalf("ParseRepairDetail: %v", err)
	}
	if repair.Difficulty != "Easy" {
		t.Errorf("difficulty = %q", repair.Difficulty)
	}
	if repair.Parts != "Pump, Spray Arm" {
		t.Errorf("parts = %q", repair.Parts)
	}
	if repair.RepairVideoURL != "https://www.youtube.com/watch?v=xyz789" {
		t.Errorf("video = %q", repair.RepairVideoURL)
	}
}

func TestParseRepairDetailLeavesMissingFieldsEmpty(t *testing.T) {
	repair := repairFixtureBase()
	if err := ParseRepairDetail("<html><body><p>nothing here</p></body></html>", &repair); err != nil {
		t.Fatalf("ParseRepairDetail: %v", err)
	}
	if repair.Difficulty != "" || repair.Parts != "" || repair.RepairVideoURL != "" {
		t.Errorf("expected empty detail fields, got %+v", repair)
	}
}
