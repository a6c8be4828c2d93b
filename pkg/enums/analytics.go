package enums

// TimeRange is the lookback window of the admin analytics report.
type TimeRange string

const (
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

var validTimeRanges = []TimeRange{TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeYear}

func (r TimeRange) IsValid() bool { return contains(validTimeRanges, r) }

// LookbackDays is the number of days of orders the range covers.
func (r TimeRange) LookbackDays() int {
	switch r {
	case TimeRangeDay:
		return 1
	case TimeRangeMonth:
		return 30
	case TimeRangeYear:
		return 365
	default:
		return 7
	}
}

func ParseTimeRange(value string) (TimeRange, error) {
	return parse(validTimeRanges, value, "time range")
}
