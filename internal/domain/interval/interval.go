package interval

import (
	"errors"
	"math"
	"sort"
	"time"
)

// Day はレンタルの時間単位（1日）
const Day = 24 * time.Hour

// ErrInvalidRange は開始日が終了日より後の場合などに返す
var ErrInvalidRange = errors.New("期間が不正です")

// Interval は両端を含む期間 [Start, End] を表す値型
type Interval struct {
	Start time.Time
	End   time.Time
}

// New は検証済みの Interval を返す
func New(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return Interval{}, ErrInvalidRange
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps は a と b が重なるかを返す（境界を含む）
// 同じ日を境界に持つ連続した貸出も競合として扱う
func Overlaps(a, b Interval) bool {
	return !a.Start.After(b.End) && !a.End.Before(b.Start)
}

// Overlaps は他の期間と重なるかを返す
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i, other)
}

// Contains は時刻 t が期間内かを返す
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// Days は両端を含む日数を返す（端数は切り上げ）
func (i Interval) Days() int {
	return int(math.Ceil(float64(i.End.Sub(i.Start))/float64(Day))) + 1
}

// Before は開始時刻による全順序
func (i Interval) Before(other Interval) bool {
	if i.Start.Equal(other.Start) {
		return i.End.Before(other.End)
	}
	return i.Start.Before(other.Start)
}

// SortByStart は開始時刻の昇順に並べたコピーを返す
func SortByStart(intervals []Interval) []Interval {
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Before(sorted[b])
	})
	return sorted
}

// StartOfDay は t の UTC 日付の 0 時を返す
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
