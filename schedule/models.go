// Package schedule models the weekly meal calendar attached to a membership
// ledger: which meal items are planned for each day of each week, and which
// meal types have been eaten.
//
// Weeks may repeat the content of an earlier week. Content is always read
// through ResolveDays, while consumption flags are tracked on the week's own
// day slots, so a repeating week can be eaten independently of its source.
package schedule

// Weekday is a day of the meal week. Weeks run Saturday to Friday.
type Weekday string

// Weekdays in calendar order.
const (
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
)

// Weekdays lists every Weekday in calendar order.
var Weekdays = []Weekday{Saturday, Sunday, Monday, Tuesday, Wednesday, Thursday, Friday}

// Valid reports whether d is one of the seven weekdays.
func (d Weekday) Valid() bool {
	for _, w := range Weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// MealType is a meal slot within a day.
type MealType string

// Meal types.
const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snacks    MealType = "snacks"
)

// MealTypes lists every MealType in serving order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snacks}

// Valid reports whether m is a known meal type.
func (m MealType) Valid() bool {
	switch m {
	case Breakfast, Lunch, Dinner, Snacks:
		return true
	}
	return false
}

// MaxItemsPerMeal caps the item ids scheduled for a single meal type.
const MaxItemsPerMeal = 3

// DaysPerWeek is the number of day slots in every week.
const DaysPerWeek = 7

// Day is one day slot of a week.
type Day struct {
	Day               Weekday               `json:"day"                           bson:"day"`
	Meals             map[MealType][]string `json:"meals,omitempty"               bson:"meals,omitempty"`
	ConsumedMealTypes map[MealType]bool     `json:"consumed_meal_types,omitempty" bson:"consumed_meal_types,omitempty"`
	IsConsumed        bool                  `json:"is_consumed"                   bson:"is_consumed"`
}

// Consumed reports whether meal type m is marked eaten on this slot.
func (d Day) Consumed(m MealType) bool {
	return d.ConsumedMealTypes[m]
}

// Scheduled returns the meal types with at least one item, in serving order.
func (d Day) Scheduled() []MealType {
	var out []MealType
	for _, m := range MealTypes {
		if len(d.Meals[m]) > 0 {
			out = append(out, m)
		}
	}
	return out
}

func (d Day) clone() Day {
	c := Day{Day: d.Day, IsConsumed: d.IsConsumed}
	if d.Meals != nil {
		c.Meals = make(map[MealType][]string, len(d.Meals))
		for k, v := range d.Meals {
			c.Meals[k] = append([]string(nil), v...)
		}
	}
	if d.ConsumedMealTypes != nil {
		c.ConsumedMealTypes = make(map[MealType]bool, len(d.ConsumedMealTypes))
		for k, v := range d.ConsumedMealTypes {
			c.ConsumedMealTypes[k] = v
		}
	}
	return c
}

// Week is one numbered week of a schedule.
type Week struct {
	Number         int   `json:"week_number"                bson:"week_number"`
	Days           []Day `json:"days"                       bson:"days"`
	RepeatFromWeek int   `json:"repeat_from_week,omitempty" bson:"repeat_from_week,omitempty"`
	IsConsumed     bool  `json:"is_consumed"                bson:"is_consumed"`
}

// Repeats reports whether the week takes its content from an earlier week.
func (w Week) Repeats() bool { return w.RepeatFromWeek > 0 }

func (w Week) clone() Week {
	c := w
	if w.Days != nil {
		c.Days = make([]Day, len(w.Days))
		for i, d := range w.Days {
			c.Days[i] = d.clone()
		}
	}
	return c
}

func (w *Week) day(d Weekday) *Day {
	for i := range w.Days {
		if w.Days[i].Day == d {
			return &w.Days[i]
		}
	}
	return nil
}

// Schedule is the ordered list of weeks attached to a ledger.
type Schedule []Week

// Clone returns a deep copy of s.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	c := make(Schedule, len(s))
	for i, w := range s {
		c[i] = w.clone()
	}
	return c
}

// Week returns the week numbered n.
func (s Schedule) Week(n int) (Week, bool) {
	if i := s.index(n); i >= 0 {
		return s[i], true
	}
	return Week{}, false
}

// Day returns the own day slot (not the resolved content) of week n.
func (s Schedule) Day(week int, day Weekday) (Day, bool) {
	i := s.index(week)
	if i < 0 {
		return Day{}, false
	}
	d := s[i].day(day)
	if d == nil {
		return Day{}, false
	}
	return *d, true
}

func (s Schedule) index(n int) int {
	for i := range s {
		if s[i].Number == n {
			return i
		}
	}
	return -1
}
