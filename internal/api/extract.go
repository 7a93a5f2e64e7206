package api

import (
	"strconv"
	"strings"

	"github.com/psbridge/psbridge/internal/results"
)

const unknownValue = "unknown"

// field is one "Key : Value" line from PowerShell list output
type field struct {
	key   string
	value string
}

// listFields pulls "Key : Value" pairs out of a host's captured output, in
// order. Keys are lowercased with spaces, dashes and underscores removed.
// Runner marker lines such as "ok: [host]" are skipped.
func listFields(output string) []field {
	var fields []field
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || strings.HasPrefix(strings.TrimSpace(value), "[") {
			continue
		}
		key = normalizeKey(key)
		if key == "" {
			continue
		}
		fields = append(fields, field{key: key, value: strings.TrimSpace(value)})
	}
	return fields
}

func normalizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '_':
			return -1
		}
		if r >= 'A' && r <= 'Z' {
			return r + 'a' - 'A'
		}
		return r
	}, key)
}

// first returns the first non-empty value for any of keys
func first(fields []field, keys ...string) (string, bool) {
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		for _, k := range keys {
			if f.key == k {
				return f.value, true
			}
		}
	}
	return "", false
}

func valueOr(fields []field, fallback string, keys ...string) string {
	if v, ok := first(fields, keys...); ok {
		return v
	}
	return fallback
}

func serviceResult(serviceName string, host results.HostResult) ServiceResult {
	fields := listFields(host.Output)
	return ServiceResult{
		Host:           host.Host,
		ServiceName:    serviceName,
		PreviousStatus: valueOr(fields, unknownValue, "previousstatus"),
		CurrentStatus:  valueOr(fields, unknownValue, "currentstatus", "status"),
		Changed:        host.Changed,
		Message:        host.Output,
	}
}

func systemInfoResult(host results.HostResult, reportPath string) SystemInfoResult {
	fields := listFields(host.Output)

	info := SystemInfo{
		ComputerName: valueOr(fields, host.Host, "computername", "csname"),
		OS:           valueOr(fields, "Windows", "os", "osname", "caption"),
		OSVersion:    valueOr(fields, unknownValue, "osversion", "version"),
		Processor:    valueOr(fields, unknownValue, "processor"),
		LastBootTime: valueOr(fields, unknownValue, "lastboottime", "lastbootuptime"),
	}
	if v, ok := first(fields, "totalmemorygb"); ok {
		info.TotalMemoryGB, _ = strconv.ParseFloat(v, 64)
	}

	return SystemInfoResult{
		Host:       host.Host,
		SystemInfo: info,
		DiskInfo:   disks(fields),
		ReportPath: reportPath,
	}
}

// disks groups Drive/SizeGB/FreeGB runs into disk entries
func disks(fields []field) []DiskInfo {
	out := []DiskInfo{}
	for _, f := range fields {
		switch f.key {
		case "drive", "deviceid":
			out = append(out, DiskInfo{Drive: f.value})
		case "sizegb":
			if len(out) > 0 {
				out[len(out)-1].SizeGB, _ = strconv.ParseFloat(f.value, 64)
			}
		case "freegb", "freespacegb":
			if len(out) > 0 {
				out[len(out)-1].FreeGB, _ = strconv.ParseFloat(f.value, 64)
			}
		}
	}
	return out
}
