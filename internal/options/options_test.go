package options

import "testing"

func TestTransplantCount(t *testing.T) {
	o := Options{Rich: true, Names: true, Dbg: true}
	if n := o.TransplantCount(); n != 3 {
		t.Errorf("got %d, want 3", n)
	}
}

func TestAnyRemove(t *testing.T) {
	if (Options{}).AnyRemove() {
		t.Error("zero value should have no remove flags set")
	}
	if !(Options{RemoveSign: true}).AnyRemove() {
		t.Error("RemoveSign should count as a remove flag")
	}
}

func TestNothingEnabled(t *testing.T) {
	if !(Options{}).NothingEnabled() {
		t.Error("zero value options should have nothing enabled")
	}
	if (Options{Rich: true}).NothingEnabled() {
		t.Error("Rich enabled should not be NothingEnabled")
	}
	if (Options{RemoveRich: true}).NothingEnabled() {
		t.Error("a remove flag should not be NothingEnabled")
	}
}
