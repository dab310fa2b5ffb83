package scenario

import "testing"

func TestLoadScenario(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Name != "example" {
		t.Fatalf("unexpected name %s", sc.Name)
	}
	if sc.Description != "basic test scenario" {
		t.Fatalf("unexpected description %s", sc.Description)
	}
	if len(sc.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(sc.Steps))
	}
	if sc.Steps[1].Goal != "find all targets" {
		t.Fatalf("unexpected goal %q", sc.Steps[1].Goal)
	}
}

func TestValidateRejectsAmbiguousSteps(t *testing.T) {
	s := Scenario{Steps: []Step{{Tick: 0}}}
	if err := s.Validate(); err == nil {
		t.Fatal("step with neither command nor goal should fail validation")
	}
	s = Scenario{Steps: []Step{{Tick: 0, Command: "drone 1 scan", Goal: "explore"}}}
	if err := s.Validate(); err == nil {
		t.Fatal("step with both command and goal should fail validation")
	}
	s = Scenario{Steps: []Step{{Tick: -1, Command: "drone 1 scan"}}}
	if err := s.Validate(); err == nil {
		t.Fatal("negative tick should fail validation")
	}
}

func TestRunnerOrderAndDue(t *testing.T) {
	s := &Scenario{Steps: []Step{
		{Tick: 5, Command: "drone 2 scan"},
		{Tick: 0, Command: "drone 1 up=3"},
		{Tick: 5, Command: "drone 1 scan"},
	}}
	r := NewRunner(s)

	due := r.Due(0)
	if len(due) != 1 || due[0].Command != "drone 1 up=3" {
		t.Fatalf("tick 0 due = %+v", due)
	}
	if len(r.Due(3)) != 0 {
		t.Fatal("nothing should be due at tick 3")
	}
	due = r.Due(5)
	if len(due) != 2 {
		t.Fatalf("tick 5 should release 2 steps, got %d", len(due))
	}
	// File order preserved within a tick.
	if due[0].Command != "drone 2 scan" || due[1].Command != "drone 1 scan" {
		t.Errorf("tick 5 due order = %+v", due)
	}
	if !r.Done() {
		t.Error("runner should be done")
	}
}

func TestBuiltInScenarios(t *testing.T) {
	for name, sc := range BuiltIn() {
		if err := sc.Validate(); err != nil {
			t.Errorf("built-in %s invalid: %v", name, err)
		}
		if sc.Description == "" {
			t.Errorf("built-in %s missing description", name)
		}
	}
}
