package protocol

import "testing"

func TestCommandFromString(t *testing.T) {
	tests := []struct {
		word string
		want Command
	}{
		{"SCAN", CommandScan},
		{"scan", CommandScan},
		{"Connect", CommandConnect},
		{"INFO", CommandInfo},
		{"control", CommandControl},
		{"SETCFG", CommandSetConfig},
		{"CHPASS", CommandChangePassword},
		{"bye", CommandBye},
		{"ADD", CommandAddDevice},
		{"AddDevice", CommandAddDevice},
		{"ASSIGN", CommandAssignDevice},
		{"setcoop", CommandAssignDevice},
		{"COOPLIST", CommandCoopList},
		{"COOPADD", CommandCoopAdd},
		{"coop_add", CommandCoopAdd},
		{"NOPE", CommandUnknown},
		{"", CommandUnknown},
	}

	for _, tt := range tests {
		if got := CommandFromString(tt.word); got != tt.want {
			t.Errorf("CommandFromString(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line     string
		wantCmd  Command
		wantArgs string
	}{
		{"SCAN", CommandScan, ""},
		{"CONNECT FAN1 APP1 123456", CommandConnect, "FAN1 APP1 123456"},
		{"  control FAN1 tok ON  ", CommandControl, "FAN1 tok ON"},
		{"SETCFG FAN1 tok {\"temp_on_c\":32}", CommandSetConfig, "FAN1 tok {\"temp_on_c\":32}"},
		{"", CommandUnknown, ""},
		{"FROBNICATE x", CommandUnknown, "x"},
	}

	for _, tt := range tests {
		cmd, args := ParseLine(tt.line)
		if cmd != tt.wantCmd || args != tt.wantArgs {
			t.Errorf("ParseLine(%q) = (%v, %q), want (%v, %q)",
				tt.line, cmd, args, tt.wantCmd, tt.wantArgs)
		}
	}
}

func TestCommandString(t *testing.T) {
	if got := CommandAddDevice.String(); got != "ADD" {
		t.Errorf("CommandAddDevice.String() = %q, want ADD", got)
	}
	if got := CommandUnknown.String(); got != "UNKNOWN" {
		t.Errorf("CommandUnknown.String() = %q, want UNKNOWN", got)
	}
}

func TestFormatLine(t *testing.T) {
	if got := FormatLine(CodeControlOK, "CONTROL_OK", ""); got != "140 CONTROL_OK" {
		t.Errorf("FormatLine without payload = %q", got)
	}
	if got := FormatLine(CodeConnectOK, "CONNECT_OK", "abc123"); got != "120 CONNECT_OK abc123" {
		t.Errorf("FormatLine with payload = %q", got)
	}
}

func TestResponseHelpers(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{Ready(), "100 SERVER_READY"},
		{Device("FAN1", "fan", 2), "110 DEVICE FAN1 fan 2"},
		{NoDeviceScan(), "111 NO_DEVICE"},
		{ConnectOK("tok"), "120 CONNECT_OK tok"},
		{InfoOK(`{"a":1}`), `130 INFO_OK {"a":1}`},
		{ControlOK(), "140 CONTROL_OK"},
		{SetConfigOK(`{"a":1}`), `150 SETCFG_OK {"a":1}`},
		{PassOK(), "160 PASS_OK"},
		{ByeOK(), "170 BYE_OK"},
		{AddOK(), "180 ADD_OK"},
		{AssignOK(), "181 ASSIGN_OK"},
		{Coop(3, "North Coop"), "190 COOP 3 North Coop"},
		{CoopAddOK(4), "191 COOPADD_OK 4"},
		{NoCoop(), "192 NO_COOP"},
		{WrongPassword(), "221 WRONG_PASSWORD"},
		{NoDevice(), "222 NO_DEVICE"},
		{NotConnected(), "331 NOT_CONNECTED"},
		{BadRequest(), "400 BAD_REQUEST"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
