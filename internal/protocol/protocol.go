package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Command identifies a protocol verb sent by a client.
type Command int

// Protocol verbs. CommandUnknown is the sentinel for unrecognised verbs.
const (
	CommandScan Command = iota
	CommandConnect
	CommandInfo
	CommandControl
	CommandSetConfig
	CommandChangePassword
	CommandBye
	CommandAddDevice
	CommandAssignDevice
	CommandCoopList
	CommandCoopAdd
	CommandUnknown
)

// commandTable maps verb spellings (including aliases) to commands.
// Matching is case-insensitive; keys are stored upper-case.
var commandTable = map[string]Command{
	"SCAN":      CommandScan,
	"CONNECT":   CommandConnect,
	"INFO":      CommandInfo,
	"CONTROL":   CommandControl,
	"SETCFG":    CommandSetConfig,
	"CHPASS":    CommandChangePassword,
	"BYE":       CommandBye,
	"ADD":       CommandAddDevice,
	"ADDDEVICE": CommandAddDevice,
	"ASSIGN":    CommandAssignDevice,
	"SETCOOP":   CommandAssignDevice,
	"COOPLIST":  CommandCoopList,
	"COOPADD":   CommandCoopAdd,
	"COOP_ADD":  CommandCoopAdd,
}

// commandNames holds the canonical spelling per command, used for logging.
var commandNames = map[Command]string{
	CommandScan:           "SCAN",
	CommandConnect:        "CONNECT",
	CommandInfo:           "INFO",
	CommandControl:        "CONTROL",
	CommandSetConfig:      "SETCFG",
	CommandChangePassword: "CHPASS",
	CommandBye:            "BYE",
	CommandAddDevice:      "ADD",
	CommandAssignDevice:   "ASSIGN",
	CommandCoopList:       "COOPLIST",
	CommandCoopAdd:        "COOPADD",
}

// String returns the canonical verb spelling, or "UNKNOWN".
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// CommandFromString resolves a verb word to a Command.
// Matching is case-insensitive and honours aliases.
func CommandFromString(word string) Command {
	if cmd, ok := commandTable[strings.ToUpper(word)]; ok {
		return cmd
	}
	return CommandUnknown
}

// ParseLine splits a raw request line into its verb and the argument
// remainder. The remainder keeps its internal spacing; leading and
// trailing whitespace is trimmed. An empty line parses as CommandUnknown.
func ParseLine(line string) (Command, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return CommandUnknown, ""
	}
	verb, rest, _ := strings.Cut(line, " ")
	return CommandFromString(verb), strings.TrimSpace(rest)
}

// Code is a numeric response status code.
type Code int

// Response codes. The table is wire-visible and frozen; clients match on
// the numeric value.
const (
	CodeReady         Code = 100 // ready banner
	CodeDevice        Code = 110 // device record (scan)
	CodeNoDeviceScan  Code = 111 // scan: no devices
	CodeConnectOK     Code = 120 // connect ok, payload=token
	CodeInfoOK        Code = 130 // info ok, payload=state
	CodeControlOK     Code = 140 // control ok
	CodeSetConfigOK   Code = 150 // config updated, payload=new state
	CodePassOK        Code = 160 // password changed
	CodeByeOK         Code = 170 // session ended
	CodeAddOK         Code = 180 // device registered
	CodeAssignOK      Code = 181 // device reassigned to coop
	CodeCoop          Code = 190 // coop record (list)
	CodeCoopAddOK     Code = 191 // coop created, payload=new id
	CodeNoCoop        Code = 192 // list: no coops
	CodeWrongPassword Code = 221 // wrong credential
	CodeNoDevice      Code = 222 // unknown device id
	CodeNotConnected  Code = 331 // not authenticated / token foreign to device
	CodeBadRequest    Code = 400 // malformed request
)

// FormatLine renders one response line: "<code> <word>" or
// "<code> <word> <payload>" when payload is non-empty. The payload is
// emitted verbatim; callers must not embed newlines (payloads are either
// single tokens or compact JSON, neither of which can contain one).
func FormatLine(code Code, word, payload string) string {
	if payload == "" {
		return fmt.Sprintf("%d %s", int(code), word)
	}
	return fmt.Sprintf("%d %s %s", int(code), word, payload)
}

// Ready is the greeting sent once on accept.
func Ready() string { return FormatLine(CodeReady, "SERVER_READY", "") }

// Device renders one SCAN result row.
func Device(id, deviceType string, coopID int) string {
	return FormatLine(CodeDevice, "DEVICE", fmt.Sprintf("%s %s %d", id, deviceType, coopID))
}

// NoDeviceScan is the single row emitted when SCAN finds nothing.
func NoDeviceScan() string { return FormatLine(CodeNoDeviceScan, "NO_DEVICE", "") }

// ConnectOK carries the freshly issued session token.
func ConnectOK(token string) string { return FormatLine(CodeConnectOK, "CONNECT_OK", token) }

// InfoOK carries the device state snapshot.
func InfoOK(state string) string { return FormatLine(CodeInfoOK, "INFO_OK", state) }

// ControlOK acknowledges a control action.
func ControlOK() string { return FormatLine(CodeControlOK, "CONTROL_OK", "") }

// SetConfigOK carries the state snapshot after a configuration change.
func SetConfigOK(state string) string { return FormatLine(CodeSetConfigOK, "SETCFG_OK", state) }

// PassOK acknowledges a credential change.
func PassOK() string { return FormatLine(CodePassOK, "PASS_OK", "") }

// ByeOK acknowledges session termination.
func ByeOK() string { return FormatLine(CodeByeOK, "BYE_OK", "") }

// AddOK acknowledges device registration.
func AddOK() string { return FormatLine(CodeAddOK, "ADD_OK", "") }

// AssignOK acknowledges a coop reassignment.
func AssignOK() string { return FormatLine(CodeAssignOK, "ASSIGN_OK", "") }

// Coop renders one COOPLIST result row. Coop names may contain spaces.
func Coop(id int, name string) string {
	return FormatLine(CodeCoop, "COOP", fmt.Sprintf("%d %s", id, name))
}

// CoopAddOK carries the identifier assigned to the new coop.
func CoopAddOK(id int) string { return FormatLine(CodeCoopAddOK, "COOPADD_OK", strconv.Itoa(id)) }

// NoCoop is the single row emitted when COOPLIST finds nothing.
func NoCoop() string { return FormatLine(CodeNoCoop, "NO_COOP", "") }

// WrongPassword reports a credential mismatch on CONNECT or CHPASS.
func WrongPassword() string { return FormatLine(CodeWrongPassword, "WRONG_PASSWORD", "") }

// NoDevice reports an unknown device id.
func NoDevice() string { return FormatLine(CodeNoDevice, "NO_DEVICE", "") }

// NotConnected reports a missing, invalid, or foreign session token.
func NotConnected() string { return FormatLine(CodeNotConnected, "NOT_CONNECTED", "") }

// BadRequest reports a malformed or domain-invalid request.
func BadRequest() string { return FormatLine(CodeBadRequest, "BAD_REQUEST", "") }
