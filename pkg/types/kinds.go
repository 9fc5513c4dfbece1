package types

import (
	"strings"

	"github.com/arthur-debert/snapback/pkg/errors"
)

// ValueKind is the storage type of a registry-like value. It must survive a
// capture/restore cycle unchanged: writing a DWord back as a String makes
// the owning feature misbehave or the OS reject it.
type ValueKind string

const (
	KindString       ValueKind = "String"
	KindExpandString ValueKind = "ExpandString"
	KindMultiString  ValueKind = "MultiString"
	KindDWord        ValueKind = "DWord"
	KindQWord        ValueKind = "QWord"
	KindBinary       ValueKind = "Binary"
	KindNone         ValueKind = "None"
)

// AllValueKinds lists every supported kind in declaration order
var AllValueKinds = []ValueKind{
	KindString, KindExpandString, KindMultiString, KindDWord, KindQWord, KindBinary, KindNone,
}

var valueKindAliases = map[string]ValueKind{
	"string":        KindString,
	"reg_sz":        KindString,
	"expandstring":  KindExpandString,
	"reg_expand_sz": KindExpandString,
	"multistring":   KindMultiString,
	"reg_multi_sz":  KindMultiString,
	"dword":         KindDWord,
	"reg_dword":     KindDWord,
	"qword":         KindQWord,
	"reg_qword":     KindQWord,
	"binary":        KindBinary,
	"reg_binary":    KindBinary,
	"none":          KindNone,
	"reg_none":      KindNone,
}

// ParseValueKind accepts the canonical names case-insensitively as well as
// the Windows REG_* spellings.
func ParseValueKind(s string) (ValueKind, error) {
	if k, ok := valueKindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unknown value kind %q", s)
}

// Valid reports whether k is one of the supported kinds
func (k ValueKind) Valid() bool {
	for _, v := range AllValueKinds {
		if v == k {
			return true
		}
	}
	return false
}

// KindPtr returns a pointer to k, for optional kind fields
func KindPtr(k ValueKind) *ValueKind {
	return &k
}

// Root is one of the two machine-scoped registry namespaces
type Root string

const (
	RootLocalMachine Root = "HKLM"
	RootCurrentUser  Root = "HKCU"
)

// ParseRoot accepts HKLM/HKCU and their long forms
func ParseRoot(s string) (Root, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HKLM", "HKEY_LOCAL_MACHINE":
		return RootLocalMachine, nil
	case "HKCU", "HKEY_CURRENT_USER":
		return RootCurrentUser, nil
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unknown registry root %q", s)
}

// StartMode is a service's configured start type
type StartMode string

const (
	StartAuto        StartMode = "Auto"
	StartDelayedAuto StartMode = "DelayedAuto"
	StartManual      StartMode = "Manual"
	StartDisabled    StartMode = "Disabled"
	StartUnknown     StartMode = "Unknown"
)

// RunState is a service's current run state
type RunState string

const (
	StateRunning RunState = "Running"
	StateStopped RunState = "Stopped"
	StateUnknown RunState = "Unknown"
)

// RecordKind discriminates the ChangeRecord variants
type RecordKind string

const (
	RecordRegistry RecordKind = "registry"
	RecordService  RecordKind = "service"
	RecordPower    RecordKind = "power"
	RecordNetwork  RecordKind = "network"
	RecordDNS      RecordKind = "dns"
	RecordTcpIp    RecordKind = "tcpip"
	RecordFile     RecordKind = "file"
)

// AllRecordKinds lists the kinds in the order documents group them
var AllRecordKinds = []RecordKind{
	RecordRegistry, RecordService, RecordPower, RecordNetwork, RecordDNS, RecordTcpIp, RecordFile,
}

// Label returns a human-readable category name
func (k RecordKind) Label() string {
	switch k {
	case RecordRegistry:
		return "Registry values"
	case RecordService:
		return "Services"
	case RecordPower:
		return "Power settings"
	case RecordNetwork:
		return "Network settings"
	case RecordDNS:
		return "DNS configurations"
	case RecordTcpIp:
		return "TCP/IP settings"
	case RecordFile:
		return "Files"
	}
	return string(k)
}
