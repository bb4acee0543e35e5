package register

import "testing"

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		name       string
		status     Status
		busy       bool
		inProgress bool
		suspended  bool
		eop        bool
		errors     bool
	}{
		{"idle", 0, false, false, false, false, false},
		{"busy", BSY, true, true, false, false, false},
		{"config busy", CFGBSY, false, true, false, false, false},
		{"suspended", PESD, false, false, true, false, false},
		{"done", EOP, false, false, false, true, false},
		{"failed", EOP | PGSERR, false, false, false, true, true},
		{"option error", OPTVERR, false, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Busy(); got != tt.busy {
				t.Errorf("Busy() = %v, want %v", got, tt.busy)
			}
			if got := tt.status.InProgress(); got != tt.inProgress {
				t.Errorf("InProgress() = %v, want %v", got, tt.inProgress)
			}
			if got := tt.status.Suspended(); got != tt.suspended {
				t.Errorf("Suspended() = %v, want %v", got, tt.suspended)
			}
			if got := tt.status.EndOfOperation(); got != tt.eop {
				t.Errorf("EndOfOperation() = %v, want %v", got, tt.eop)
			}
			if got := tt.status.HasErrors(); got != tt.errors {
				t.Errorf("HasErrors() = %v, want %v", got, tt.errors)
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{0, "0x00000000"},
		{EOP | PGAERR, "0x00000021 [EOP PGAERR]"},
		{BSY | PESD, "0x00090000 [BSY PESD]"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMasks(t *testing.T) {
	if ClearMask&OPTVERR != 0 {
		t.Error("ClearMask must leave OPTVERR alone")
	}
	if ClearMask&(BSY|CFGBSY|PESD) != 0 {
		t.Error("ClearMask must not touch read-only bits")
	}
	if ClearMask&EOP == 0 {
		t.Error("ClearMask must clear EOP")
	}
	if ErrorMask&(EOP|BSY) != 0 {
		t.Error("ErrorMask must only contain error flags")
	}
	if ProgramErrorMask&OPTVERR != 0 {
		t.Error("ProgramErrorMask must not contain OPTVERR")
	}
	if ProgramErrorMask&^ClearMask != 0 {
		t.Error("every program error must be cleared by ClearMask")
	}
	if got := (OPTVERR | PGSERR | EOP).ProgramErrors(); got != PGSERR {
		t.Errorf("ProgramErrors() = %v, want %v", got, PGSERR)
	}
}

func TestControl(t *testing.T) {
	if !(PG | EOPIE).Programming() {
		t.Error("Programming() = false with PG set")
	}
	if Control(0).Programming() {
		t.Error("Programming() = true with PG clear")
	}
	if !LOCK.Locked() {
		t.Error("Locked() = false with LOCK set")
	}
}

func TestParseView(t *testing.T) {
	tests := []struct {
		name    string
		want    View
		wantErr bool
	}{
		{"", CPU1, false},
		{"cpu1", CPU1, false},
		{"CM4", CPU1, false},
		{"cpu2", CPU2, false},
		{"cm0p", CPU2, false},
		{"cm0+", CPU2, false},
		{"cpu3", View{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseView(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseView(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseView(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}

	if CPU2.Status != OffsetC2SR || CPU2.Control != OffsetC2CR {
		t.Errorf("CPU2 = %+v", CPU2)
	}
}
