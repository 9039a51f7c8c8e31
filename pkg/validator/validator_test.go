package validator

import "testing"

func TestValidateCreateThread(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		thread    string
		memberIDs []int64
		wantField string
	}{
		{"valid dm", "dm", "", []int64{2}, ""},
		{"dm with two users", "dm", "", []int64{2, 3}, "member_ids"},
		{"dm with nobody", "dm", "", nil, "member_ids"},
		{"valid group", "group", "team", []int64{2, 3}, ""},
		{"group without name", "group", "  ", []int64{2, 3}, "name"},
		{"group too small", "group", "team", []int64{2}, "member_ids"},
		{"valid broadcast", "broadcast", "announcements", nil, ""},
		{"broadcast without name", "broadcast", "", nil, "name"},
		{"unknown kind", "channel", "x", nil, "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateCreateThread(tt.kind, tt.thread, tt.memberIDs)
			if tt.wantField == "" {
				if errs.HasErrors() {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Fatalf("expected error on %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestValidateMessageBody(t *testing.T) {
	if errs := ValidateMessageBody("hello"); errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if errs := ValidateMessageBody("   "); !errs.HasErrors() {
		t.Fatal("expected error for blank body")
	}
}
