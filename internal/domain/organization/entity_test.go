package organization

import (
	"encoding/json"
	"reflect"
	"testing"

	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

func TestValidate(t *testing.T) {
	p := NewProfile("Coda Mountain Academy")
	if err := p.Validate(); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	p.AnnualBudget = -1
	if err := p.Validate(); err == nil {
		t.Error("negative budget should fail validation")
	}

	// An inverted preferred range is tolerated on purpose.
	p.AnnualBudget = 250000
	p.PreferredGrantSize = AmountRange{Min: 100000, Max: 10000}
	if err := p.Validate(); err != nil {
		t.Errorf("inverted preferred range should pass validation, got %v", err)
	}

	if err := (&Profile{}).Validate(); err == nil {
		t.Error("missing name should fail validation")
	}
}

func TestFocusKeywordsExpansion(t *testing.T) {
	p := NewProfile("Coda Mountain Academy")
	p.FocusAreas = []gtypes.FocusArea{gtypes.FocusMusicEducation}

	kws := p.FocusKeywords()
	for _, want := range []string{"music", "education", "instrument"} {
		found := false
		for _, kw := range kws {
			if kw == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("FocusKeywords() = %v, missing %q", kws, want)
		}
	}
}

func TestFocusKeywordsDeduplicatesAcrossAreas(t *testing.T) {
	p := NewProfile("x")
	// Both expand to "education".
	p.FocusAreas = []gtypes.FocusArea{gtypes.FocusMusicEducation, gtypes.FocusEducation}

	kws := p.FocusKeywords()
	count := 0
	for _, kw := range kws {
		if kw == "education" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("keyword %q appears %d times, want 1 (%v)", "education", count, kws)
	}
}

func TestFocusKeywordsUnknownTagFallsBack(t *testing.T) {
	p := NewProfile("x")
	p.FocusAreas = []gtypes.FocusArea{"marine_science"}
	got := p.FocusKeywords()
	want := []string{"marine", "science"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FocusKeywords() = %v, want %v", got, want)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	p := NewProfile("Coda Mountain Academy")
	p.FocusAreas = []gtypes.FocusArea{gtypes.FocusMusicEducation, gtypes.FocusYouthDev}
	p.ProgramTypes = []gtypes.ProgramType{gtypes.ProgramEducational}
	p.AnnualBudget = 250000
	p.PreferredGrantSize = AmountRange{Min: 10000, Max: 100000}
	p.Contact = ContactInfo{Email: "info@example.org", Website: "https://example.org"}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Profile
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(*p, back) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, *p)
	}
}
