package temporal

import "time"

// Dayparts divide the day by hour: morning [5, 12), afternoon [12, 17),
// evening [17, 21), night wraps midnight [21, 5).
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	Night     = "night"
)

// Dayparts lists the four parts in day order.
var Dayparts = []string{Morning, Afternoon, Evening, Night}

// weekdayNames index Monday = 0 through Sunday = 6.
var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// weekdayIndex maps t's weekday so Monday is 0 and Sunday is 6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Daypart buckets t's hour into one of the four dayparts.
func Daypart(t time.Time) string {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 21:
		return Evening
	default:
		return Night
	}
}

// bucketIndex returns which widthDays-wide bucket ts falls into, counting
// from `from`. Timestamps before `from` land in bucket zero.
func bucketIndex(from, ts time.Time, widthDays int) int {
	d := int(ts.Sub(from).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d / widthDays
}
