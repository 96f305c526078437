package ntfs

import "time"

// filetimeEpochDelta is the number of 100ns intervals between the
// Windows epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochDelta = 116444736000000000

// TimeToFiletime converts a time.Time to a Windows FILETIME value
// (100ns intervals since 1601-01-01 UTC).
func TimeToFiletime(t time.Time) uint64 {
	return uint64(t.Unix())*10_000_000 + uint64(t.Nanosecond()/100) + filetimeEpochDelta
}

// FiletimeToTime converts a Windows FILETIME value to a time.Time in UTC.
func FiletimeToTime(ft uint64) time.Time {
	if ft < filetimeEpochDelta {
		return time.Unix(0, 0).UTC()
	}
	ticks := ft - filetimeEpochDelta
	return time.Unix(int64(ticks/10_000_000), int64(ticks%10_000_000)*100).UTC()
}
