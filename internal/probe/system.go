package probe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// ReadTemperature reads a sysfs thermal zone (millidegrees Celsius) and
// returns degrees Celsius.
func ReadTemperature(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return parseMilliCelsius(string(b))
}

func parseMilliCelsius(s string) (float64, error) {
	milli, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid thermal reading %q: %w", strings.TrimSpace(s), err)
	}
	return float64(milli) / 1000, nil
}

// ParseVcgencmdTemp parses "temp=48.3'C" as printed by vcgencmd measure_temp.
func ParseVcgencmdTemp(s string) (float64, error) {
	v, ok := strings.CutPrefix(strings.TrimSpace(s), "temp=")
	if !ok {
		return 0, fmt.Errorf("unexpected vcgencmd output %q", s)
	}
	v = strings.TrimSuffix(strings.TrimSuffix(v, "C"), "'")
	return strconv.ParseFloat(v, 64)
}

// MemInfo holds the /proc/meminfo fields needed for a used percentage (kB).
type MemInfo struct {
	MemTotal     uint64
	MemFree      uint64
	MemAvailable uint64
	Buffers      uint64
	Cached       uint64
}

// ReadMemInfo parses a /proc/meminfo formatted file.
func ReadMemInfo(path string) (MemInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return MemInfo{}, err
	}
	return ParseMemInfo(b)
}

// ParseMemInfo parses /proc/meminfo content.
func ParseMemInfo(b []byte) (MemInfo, error) {
	var info MemInfo
	fields := map[string]*uint64{
		"MemTotal":     &info.MemTotal,
		"MemFree":      &info.MemFree,
		"MemAvailable": &info.MemAvailable,
		"Buffers":      &info.Buffers,
		"Cached":       &info.Cached,
	}

	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		key, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		dst, ok := fields[key]
		if !ok {
			continue
		}
		num := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "kB"))
		v, err := strconv.ParseUint(num, 10, 64)
		if err != nil {
			return MemInfo{}, fmt.Errorf("failed to parse meminfo field %s: %w", key, err)
		}
		*dst = v
	}
	if err := sc.Err(); err != nil {
		return MemInfo{}, fmt.Errorf("error scanning meminfo: %w", err)
	}
	if info.MemTotal == 0 {
		return MemInfo{}, fmt.Errorf("meminfo has no MemTotal")
	}
	return info, nil
}

// UsedPercent returns the rounded percentage of memory in use. MemAvailable is
// preferred; older kernels without it fall back to free+buffers+cached.
func (m MemInfo) UsedPercent() int {
	avail := m.MemAvailable
	if avail == 0 {
		avail = m.MemFree + m.Buffers + m.Cached
	}
	if avail > m.MemTotal {
		avail = m.MemTotal
	}
	used := m.MemTotal - avail
	return int((used*100 + m.MemTotal/2) / m.MemTotal)
}

// PrimaryIPv4 returns the first non-loopback IPv4 address of the host.
func PrimaryIPv4(ctx context.Context) (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", fmt.Errorf("no non-loopback IPv4 address")
}
