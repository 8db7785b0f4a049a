package typeid

import (
	"strings"
	"testing"
)

func TestNewAndValidate(t *testing.T) {
	tests := []struct {
		gen    func() string
		prefix string
	}{
		{NewUserID, PrefixUser},
		{NewProjectID, PrefixProject},
		{NewSessionID, PrefixSession},
		{NewAssetID, PrefixAsset},
		{NewExportID, PrefixExport},
		{NewSnapshotID, PrefixSnapshot},
	}
	for _, tt := range tests {
		id := tt.gen()
		if !strings.HasPrefix(id, tt.prefix+"_") {
			t.Errorf("id %q lacks prefix %q", id, tt.prefix)
		}
		if err := Validate(id, tt.prefix); err != nil {
			t.Errorf("Validate(%q): %v", id, err)
		}
	}

	if err := Validate(NewSessionID(), PrefixProject); err == nil {
		t.Error("Validate accepted a session id as a project id")
	}
	if err := Validate("not an id", PrefixSession); err == nil {
		t.Error("Validate accepted garbage")
	}
}
