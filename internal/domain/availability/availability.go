package availability

import (
	"time"

	"github.com/kvakb/szakdogarepo/internal/domain/interval"
)

// Bound は選択可能な終了日の上限を表す
// Unbounded が true の場合、後続の予約による制約はない
type Bound struct {
	End       time.Time
	Unbounded bool
}

// IsFree は候補期間が既存のどの期間とも重ならない場合に true を返す
func IsFree(existing []interval.Interval, candidate interval.Interval) bool {
	for _, e := range existing {
		if interval.Overlaps(candidate, e) {
			return false
		}
	}
	return true
}

// Conflicts は候補期間と重なる既存期間を返す
func Conflicts(existing []interval.Interval, candidate interval.Interval) []interval.Interval {
	var out []interval.Interval
	for _, e := range existing {
		if interval.Overlaps(candidate, e) {
			out = append(out, e)
		}
	}
	return out
}

// MaxEndDate は start から借りる場合の最終日を返す
// start より厳密に後に始まる最初の期間の前日が上限となる
func MaxEndDate(existing []interval.Interval, start time.Time) Bound {
	for _, e := range interval.SortByStart(existing) {
		if e.Start.After(start) {
			return Bound{End: e.Start.Add(-interval.Day)}
		}
	}
	return Bound{Unbounded: true}
}

// Allows は終了日 end が上限内かを返す
func (b Bound) Allows(end time.Time) bool {
	return b.Unbounded || !end.After(b.End)
}
