package display

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/snapback/pkg/types"
)

// Absent is shown for resources that did not exist at capture time
const Absent = "(absent)"

// Describe summarizes the captured state of rec in one line
func Describe(rec types.ChangeRecord) string {
	if !rec.Existed() {
		return Absent
	}
	switch r := rec.(type) {
	case *types.RegistryValueChange:
		return describeValue(r.OriginalValue, r.OriginalValueKind)
	case *types.NetworkParamChange:
		return describeValue(r.OriginalValue, r.OriginalValueKind)
	case *types.ServiceChange:
		return fmt.Sprintf("start=%s state=%s", r.OriginalStartMode, r.OriginalRunState)
	case *types.PowerSettingChange:
		return firstLine(r.OriginalValue)
	case *types.DnsChange:
		if r.WasDhcp || len(r.OriginalServers) == 0 {
			return "DHCP"
		}
		return strings.Join(r.OriginalServers, ", ")
	case *types.TcpIpGlobalChange:
		if r.OriginalValue == "" {
			return "(unknown)"
		}
		return r.OriginalValue
	case *types.FileChange:
		sum := r.SHA256
		if len(sum) > 12 {
			sum = sum[:12]
		}
		return fmt.Sprintf("sha256:%s mode:%04o", sum, r.Mode)
	}
	return ""
}

func describeValue(v any, kind *types.ValueKind) string {
	if kind == nil {
		return types.FormatValue(v)
	}
	return fmt.Sprintf("%s %s", *kind, types.FormatValue(v))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
