// Package format renders chain values for presentation: liner amounts as
// decimal coin strings, timestamps, lock times, and hash rates.
package format

import (
	"fmt"
	"strings"
	"time"
)

// LinersPerCoin is the number of liners in one coin.
const LinersPerCoin = 100_000_000

// lockTimeThreshold separates height lock times from timestamp lock times.
const lockTimeThreshold = 500_000_000

// Amount renders liners as a coin string with up to eight decimals,
// trailing zeros trimmed. 150000000 -> "1.5", 100000000 -> "1".
func Amount(liners int64) string {
	sign := ""
	if liners < 0 {
		sign = "-"
		liners = -liners
	}
	whole := liners / LinersPerCoin
	frac := liners % LinersPerCoin
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	dec := strings.TrimRight(fmt.Sprintf("%08d", frac), "0")
	return fmt.Sprintf("%s%d.%s", sign, whole, dec)
}

// AmountGrouped renders liners as a coin string with comma-grouped whole
// part and exactly eight decimals. 123456789012345678 -> "1,234,567,890.12345678".
func AmountGrouped(liners int64) string {
	sign := ""
	if liners < 0 {
		sign = "-"
		liners = -liners
	}
	whole := liners / LinersPerCoin
	frac := liners % LinersPerCoin
	return fmt.Sprintf("%s%s.%08d", sign, group(whole), frac)
}

// group inserts comma thousand separators into a non-negative integer.
func group(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Timestamp renders a time as UTC "2006-01-02 15:04:05".
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// HumanDelta describes how long ago t was, in the largest sensible unit.
func HumanDelta(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d seconds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}

// LockTime interprets a raw lock time field: zero means none, values below
// the threshold are block heights, the rest are unix timestamps.
func LockTime(lockTime uint32) string {
	switch {
	case lockTime == 0:
		return "none"
	case lockTime < lockTimeThreshold:
		return fmt.Sprintf("height %d", lockTime)
	default:
		return Timestamp(time.Unix(int64(lockTime), 0))
	}
}

// Hashrate renders a raw hashes-per-second figure with a binary-free SI
// suffix. 1234567 -> "1.23 MH/s".
func Hashrate(hps float64) string {
	units := []string{"H/s", "kH/s", "MH/s", "GH/s", "TH/s", "PH/s", "EH/s"}
	i := 0
	for hps >= 1000 && i < len(units)-1 {
		hps /= 1000
		i++
	}
	return fmt.Sprintf("%.2f %s", hps, units[i])
}
