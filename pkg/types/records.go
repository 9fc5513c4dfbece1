package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemInterface is the reserved interface name for machine-wide network
// tunables that are not bound to a single adapter.
const SystemInterface = "SYSTEM"

// ChangeRecord is one resource's captured original state. The set of
// implementations is closed: adding a resource kind means adding a variant
// here and an adapter for it.
type ChangeRecord interface {
	// Kind is the discriminator used by documents and dispatch
	Kind() RecordKind
	// Existed reports whether the resource existed at capture time
	Existed() bool
	// Identity is a human-readable resource identity for logs and reports
	Identity() string

	isChangeRecord()
}

// RegistryValueChange captures one registry value
type RegistryValueChange struct {
	Root              Root       `json:"root"`
	Path              string     `json:"path"`
	ValueName         string     `json:"valueName"`
	ExistedBefore     bool       `json:"existedBefore"`
	OriginalValue     any        `json:"originalValue,omitempty"`
	OriginalValueKind *ValueKind `json:"originalValueKind,omitempty"`
}

func (*RegistryValueChange) Kind() RecordKind { return RecordRegistry }
func (c *RegistryValueChange) Existed() bool  { return c.ExistedBefore }
func (c *RegistryValueChange) Identity() string {
	return RegistryIdentity(c.Root, c.Path, c.ValueName)
}
func (*RegistryValueChange) isChangeRecord() {}

// UnmarshalJSON restores OriginalValue to the canonical Go type of its kind
func (c *RegistryValueChange) UnmarshalJSON(data []byte) error {
	type plain RegistryValueChange
	aux := struct {
		*plain
		OriginalValue json.RawMessage `json:"originalValue"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v, err := decodeTypedValue(aux.OriginalValue, c.OriginalValueKind)
	if err != nil {
		return fmt.Errorf("registry value %s: %w", c.Identity(), err)
	}
	c.OriginalValue = v
	return nil
}

// RegistryIdentity formats a registry value identity as ROOT\path\name
func RegistryIdentity(root Root, path, name string) string {
	if name == "" {
		name = "(Default)"
	}
	return fmt.Sprintf(`%s\%s\%s`, root, strings.Trim(path, `\`), name)
}

// ServiceChange captures a service's start mode and run state. The two are
// read separately and may legitimately disagree (Manual but Running).
type ServiceChange struct {
	ServiceName       string    `json:"serviceName"`
	ExistedBefore     bool      `json:"existedBefore"`
	OriginalStartMode StartMode `json:"originalStartMode"`
	OriginalRunState  RunState  `json:"originalRunState"`
}

func (*ServiceChange) Kind() RecordKind   { return RecordService }
func (c *ServiceChange) Existed() bool    { return c.ExistedBefore }
func (c *ServiceChange) Identity() string { return "service " + c.ServiceName }
func (*ServiceChange) isChangeRecord()    {}

// PowerSettingChange holds the verbatim output of a power configuration
// query. It is advisory: restoring it logs the setting, it does not
// reapply it.
type PowerSettingChange struct {
	SettingType   string `json:"settingType"`
	ExistedBefore bool   `json:"existedBefore"`
	OriginalValue string `json:"originalValue"`
}

func (*PowerSettingChange) Kind() RecordKind   { return RecordPower }
func (c *PowerSettingChange) Existed() bool    { return c.ExistedBefore }
func (c *PowerSettingChange) Identity() string { return "power " + c.SettingType }
func (*PowerSettingChange) isChangeRecord()    {}

// NetworkParamChange captures one per-adapter (or SYSTEM-wide) network
// parameter.
type NetworkParamChange struct {
	InterfaceName     string     `json:"interfaceName"`
	SettingName       string     `json:"settingName"`
	ExistedBefore     bool       `json:"existedBefore"`
	OriginalValue     any        `json:"originalValue,omitempty"`
	OriginalValueKind *ValueKind `json:"originalValueKind,omitempty"`
}

func (*NetworkParamChange) Kind() RecordKind { return RecordNetwork }
func (c *NetworkParamChange) Existed() bool  { return c.ExistedBefore }
func (c *NetworkParamChange) Identity() string {
	return fmt.Sprintf("network %s/%s", c.InterfaceName, c.SettingName)
}
func (*NetworkParamChange) isChangeRecord() {}

// UnmarshalJSON restores OriginalValue to the canonical Go type of its kind
func (c *NetworkParamChange) UnmarshalJSON(data []byte) error {
	type plain NetworkParamChange
	aux := struct {
		*plain
		OriginalValue json.RawMessage `json:"originalValue"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v, err := decodeTypedValue(aux.OriginalValue, c.OriginalValueKind)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Identity(), err)
	}
	c.OriginalValue = v
	return nil
}

// IsSystem reports whether the record targets a machine-wide tunable
func (c *NetworkParamChange) IsSystem() bool {
	return c.InterfaceName == SystemInterface
}

// DnsChange captures an adapter's DNS server assignment. OriginalServers is
// empty iff WasDhcp.
type DnsChange struct {
	InterfaceName   string   `json:"interfaceName"`
	ExistedBefore   bool     `json:"existedBefore"`
	WasDhcp         bool     `json:"wasDhcp"`
	OriginalServers []string `json:"originalServers"`
}

func (*DnsChange) Kind() RecordKind   { return RecordDNS }
func (c *DnsChange) Existed() bool    { return c.ExistedBefore }
func (c *DnsChange) Identity() string { return "dns " + c.InterfaceName }
func (*DnsChange) isChangeRecord()    {}

// TcpIpGlobalChange captures a global TCP/IP tunable parsed out of a
// command's text output. RawCommandOutput is diagnostic only.
type TcpIpGlobalChange struct {
	SettingName      string `json:"settingName"`
	ExistedBefore    bool   `json:"existedBefore"`
	OriginalValue    string `json:"originalValue"`
	RawCommandOutput string `json:"rawCommandOutput,omitempty"`
}

func (*TcpIpGlobalChange) Kind() RecordKind   { return RecordTcpIp }
func (c *TcpIpGlobalChange) Existed() bool    { return c.ExistedBefore }
func (c *TcpIpGlobalChange) Identity() string { return "tcpip " + c.SettingName }
func (*TcpIpGlobalChange) isChangeRecord()    {}

// FileChange captures a file's content by reference to a content-addressed
// backup blob.
type FileChange struct {
	Path          string `json:"path"`
	ExistedBefore bool   `json:"existedBefore"`
	BackupPath    string `json:"backupPath,omitempty"`
	SHA256        string `json:"sha256,omitempty"`
	Mode          uint32 `json:"mode,omitempty"`
}

func (*FileChange) Kind() RecordKind   { return RecordFile }
func (c *FileChange) Existed() bool    { return c.ExistedBefore }
func (c *FileChange) Identity() string { return "file " + c.Path }
func (*FileChange) isChangeRecord()    {}

// NewRecord returns an empty record of the given kind, for decoding
func NewRecord(kind RecordKind) (ChangeRecord, bool) {
	switch kind {
	case RecordRegistry:
		return &RegistryValueChange{}, true
	case RecordService:
		return &ServiceChange{}, true
	case RecordPower:
		return &PowerSettingChange{}, true
	case RecordNetwork:
		return &NetworkParamChange{}, true
	case RecordDNS:
		return &DnsChange{}, true
	case RecordTcpIp:
		return &TcpIpGlobalChange{}, true
	case RecordFile:
		return &FileChange{}, true
	}
	return nil, false
}
