package lead

import "testing"

func TestParse(t *testing.T) {
	line := "LEAD: Name=Jane Doe; Phone=605-555-1212; YMM=2019 Toyota Camry; Service=Lockout; ZIP=57106"
	rec := Parse(line)

	if rec.Name != "Jane Doe" {
		t.Errorf("Name = %q, want %q", rec.Name, "Jane Doe")
	}
	if rec.Phone != "605-555-1212" {
		t.Errorf("Phone = %q, want %q", rec.Phone, "605-555-1212")
	}
	if rec.VehicleYear != "2019" {
		t.Errorf("VehicleYear = %q, want %q", rec.VehicleYear, "2019")
	}
	if rec.VehicleMake != "Toyota" {
		t.Errorf("VehicleMake = %q, want %q", rec.VehicleMake, "Toyota")
	}
	if rec.VehicleModel != "Camry" {
		t.Errorf("VehicleModel = %q, want %q", rec.VehicleModel, "Camry")
	}
	if rec.ServiceType != "Lockout" {
		t.Errorf("ServiceType = %q, want %q", rec.ServiceType, "Lockout")
	}
	if rec.PostalCode != "57106" {
		t.Errorf("PostalCode = %q, want %q", rec.PostalCode, "57106")
	}
	if rec.RawLine != line {
		t.Errorf("RawLine = %q, want %q", rec.RawLine, line)
	}
}

func TestParseDescriptorFallback(t *testing.T) {
	rec := Parse("LEAD: Name=Bob; Phone=555-0000; YMM=Not A Year Model; Service=Tow; ZIP=12345")

	if rec.VehicleYear != "" {
		t.Errorf("VehicleYear = %q, want empty", rec.VehicleYear)
	}
	if rec.VehicleMake != "" {
		t.Errorf("VehicleMake = %q, want empty", rec.VehicleMake)
	}
	if rec.VehicleModel != "Not A Year Model" {
		t.Errorf("VehicleModel = %q, want %q", rec.VehicleModel, "Not A Year Model")
	}
}

func TestParsePartialSegments(t *testing.T) {
	rec := Parse("lead: Name=Ann; Phone=; garbage; Service=Jump Start")

	if rec.Name != "Ann" {
		t.Errorf("Name = %q, want %q", rec.Name, "Ann")
	}
	if rec.Phone != "" {
		t.Errorf("Phone = %q, want empty", rec.Phone)
	}
	if rec.ServiceType != "Jump Start" {
		t.Errorf("ServiceType = %q, want %q", rec.ServiceType, "Jump Start")
	}
	if rec.PostalCode != "" {
		t.Errorf("PostalCode = %q, want empty", rec.PostalCode)
	}
}

func TestExtractorReassemblesDeltas(t *testing.T) {
	e := NewExtractor()
	for _, delta := range []string{"Thanks for calling!\nLE", "AD: Name=Jo; Phone=1; YMM=x; Ser", "vice=Tow; ZIP=5"} {
		e.Feed(delta)
	}

	got := e.Last()
	want := "LEAD: Name=Jo; Phone=1; YMM=x; Service=Tow; ZIP=5"
	if got != want {
		t.Errorf("Last() = %q, want %q", got, want)
	}
}

func TestExtractorLastMatchWins(t *testing.T) {
	e := NewExtractor()
	e.Feed("LEAD: Name=First; Phone=1; YMM=a; Service=Tow; ZIP=1\n")
	e.Feed("Let me correct that.\n")
	e.Feed("LEAD: Name=Second; Phone=2; YMM=b; Service=Tow; ZIP=2\n")

	got := e.Last()
	if got != "LEAD: Name=Second; Phone=2; YMM=b; Service=Tow; ZIP=2" {
		t.Errorf("Last() = %q, want the second line", got)
	}
}

func TestExtractorMarkerCaseInsensitive(t *testing.T) {
	e := NewExtractor()
	e.Feed("lead: Name=A; Phone=1; YMM=x; Service=Tow; ZIP=9\n")

	if e.Last() == "" {
		t.Error("lowercase marker was not matched")
	}
}

func TestExtractorNoMatch(t *testing.T) {
	e := NewExtractor()
	e.Feed("Hello, how can I help you today?\n")
	e.Feed("We'll send a truck right away.")

	if got := e.Last(); got != "" {
		t.Errorf("Last() = %q, want empty", got)
	}
}
