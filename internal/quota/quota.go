// Package quota decides whether a plan allows a podcast request.
package quota

import "briefcaster/internal/models"

// Denial reasons.
const (
	ReasonTopicCap  = "topic cap exceeded"
	ReasonDailyCap  = "daily cap exceeded"
	ReasonNotOwned  = "topic not owned"
	ReasonCacheOnly = "free plan must use cache"
)

const (
	unlimited      = -1
	freeTopicCap   = 3
	freeDailyCount = 1
)

// Limits are the caps attached to a plan. A negative value means unlimited.
type Limits struct {
	TopicCount int
	DailyCount int
}

// LimitsFor returns the caps of plan. Anything other than paid is treated as free.
func LimitsFor(plan models.Plan) Limits {
	if plan == models.PlanPaid {
		return Limits{TopicCount: unlimited, DailyCount: unlimited}
	}
	return Limits{TopicCount: freeTopicCap, DailyCount: freeDailyCount}
}

// Request is the already-fetched context of one generation request.
type Request struct {
	Plan             models.Plan
	TopicIDs         []int64
	FavoriteTopicIDs []int64
	TodaysCount      int
}

// Decision is the result of Evaluate. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

func deny(reason string) Decision { return Decision{Reason: reason} }

// Evaluate applies the plan caps, then requires every requested topic to be a favorite.
func Evaluate(r Request) Decision {
	limits := LimitsFor(r.Plan)
	if limits.TopicCount >= 0 && len(r.TopicIDs) > limits.TopicCount {
		return deny(ReasonTopicCap)
	}
	if limits.DailyCount >= 0 && r.TodaysCount >= limits.DailyCount {
		return deny(ReasonDailyCap)
	}

	favorites := make(map[int64]struct{}, len(r.FavoriteTopicIDs))
	for _, id := range r.FavoriteTopicIDs {
		favorites[id] = struct{}{}
	}
	for _, id := range r.TopicIDs {
		if _, ok := favorites[id]; !ok {
			return deny(ReasonNotOwned)
		}
	}
	return Decision{Allowed: true}
}

// CacheOnly reports whether plan may only be served from the daily cache on the
// interactive path.
func CacheOnly(plan models.Plan) bool {
	return plan != models.PlanPaid
}
