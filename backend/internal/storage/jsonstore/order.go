package jsonstore

import (
	"slices"

	"github.com/itchan-dev/msgboard/shared/domain"
)

// SortByTimestamp returns a copy ordered by Timestamp ascending. Ties keep
// insertion order. On-disk order is never assumed to be time order.
func SortByTimestamp(messages []domain.Message) []domain.Message {
	sorted := slices.Clone(messages)
	slices.SortStableFunc(sorted, func(a, b domain.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return sorted
}

// Paginate returns the window [total-offset-limit, total-offset) of an
// ascending slice, clamped to its bounds. offset and limit count back from
// the newest message; the result stays oldest first.
func Paginate(sorted []domain.Message, offset, limit int) []domain.Message {
	total := len(sorted)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= total {
		return []domain.Message{}
	}

	end := total - offset
	start := max(end-limit, 0)
	return sorted[start:end]
}

// PositionOf is the index of id in an ascending slice, 0 being the oldest.
func PositionOf(sorted []domain.Message, id domain.MsgId) (int, bool) {
	idx := indexOf(sorted, id)
	return idx, idx != -1
}
