package schedule

import (
	"cmp"
	"slices"
	"strings"
)

// Build validates weeks and returns a normalised schedule ready to attach to
// a new ledger. Weeks are sorted by number, blank item ids are dropped, a
// repeating week supplied without days gets seven empty slots, and the
// consumption flags are reset before being derived again.
func Build(weeks []Week) (Schedule, error) {
	if len(weeks) == 0 {
		return nil, nil
	}

	s := Schedule(weeks).Clone()
	for i := range s {
		w := &s[i]
		if w.Repeats() && len(w.Days) == 0 {
			w.Days = emptyDays()
		}
		for j := range w.Days {
			d := &w.Days[j]
			d.Meals = compactMeals(d.Meals)
			d.ConsumedMealTypes = nil
			d.IsConsumed = false
		}
		w.IsConsumed = false
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	slices.SortFunc(s, func(a, b Week) int { return cmp.Compare(a.Number, b.Number) })

	for i := range s {
		for j := range s[i].Days {
			d := &s[i].Days[j]
			content, _ := s.resolvedDay(i, d.Day)
			d.ConsumedMealTypes = make(map[MealType]bool, len(content.Meals))
			for _, m := range content.Scheduled() {
				d.ConsumedMealTypes[m] = false
			}
		}
	}
	s.Recompute()
	return s, nil
}

// Validate checks the structural rules of a schedule: unique week numbers
// starting at 1, seven distinct weekdays per week, known meal types, at most
// MaxItemsPerMeal non-blank items per meal type, and repeat references that
// point at an existing, strictly earlier week.
func (s Schedule) Validate() error {
	seen := make(map[int]bool, len(s))
	for _, w := range s {
		if w.Number < 1 {
			return invalid(w.Number, "", "week_number", "must be at least 1")
		}
		if seen[w.Number] {
			return invalid(w.Number, "", "week_number", "duplicate week number")
		}
		seen[w.Number] = true
	}

	for _, w := range s {
		if w.RepeatFromWeek != 0 {
			if w.RepeatFromWeek < 0 || w.RepeatFromWeek >= w.Number {
				return invalid(w.Number, "", "repeat_from_week", "must reference an earlier week, got %d", w.RepeatFromWeek)
			}
			if !seen[w.RepeatFromWeek] {
				return invalid(w.Number, "", "repeat_from_week", "week %d does not exist", w.RepeatFromWeek)
			}
		}
		if err := validateDays(w); err != nil {
			return err
		}
	}
	return nil
}

func validateDays(w Week) error {
	if len(w.Days) != DaysPerWeek {
		return invalid(w.Number, "", "days", "expected %d days, got %d", DaysPerWeek, len(w.Days))
	}

	seen := make(map[Weekday]bool, DaysPerWeek)
	for _, d := range w.Days {
		if !d.Day.Valid() {
			return invalid(w.Number, d.Day, "day", "unknown weekday %q", d.Day)
		}
		if seen[d.Day] {
			return invalid(w.Number, d.Day, "day", "weekday listed twice")
		}
		seen[d.Day] = true

		if w.Repeats() && len(d.Meals) > 0 {
			return invalid(w.Number, d.Day, "meals", "a repeating week takes its meals from week %d", w.RepeatFromWeek)
		}
		for m, items := range d.Meals {
			if err := validateItems(w.Number, d.Day, m, items); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateItems(week int, day Weekday, m MealType, items []string) error {
	field := "meals." + string(m)
	if !m.Valid() {
		return invalid(week, day, field, "unknown meal type %q", m)
	}
	if len(items) > MaxItemsPerMeal {
		return invalid(week, day, field, "at most %d items allowed, got %d", MaxItemsPerMeal, len(items))
	}
	for _, it := range items {
		if strings.TrimSpace(it) == "" {
			return invalid(week, day, field, "item id must not be blank")
		}
	}
	return nil
}

// ResolveDays returns the day content of week n, following RepeatFromWeek
// to the week that actually defines the meals. The returned days are copies.
func (s Schedule) ResolveDays(n int) ([]Day, error) {
	i := s.index(n)
	if i < 0 {
		return nil, &SlotError{Week: n, Err: ErrSlotNotFound}
	}
	src := s.source(i)
	days := make([]Day, len(s[src].Days))
	for j, d := range s[src].Days {
		days[j] = d.clone()
	}
	return days, nil
}

// ScheduledItems returns the resolved items for a meal slot.
func (s Schedule) ScheduledItems(week int, day Weekday, m MealType) []string {
	i := s.index(week)
	if i < 0 {
		return nil
	}
	content, ok := s.resolvedDay(i, day)
	if !ok {
		return nil
	}
	return append([]string(nil), content.Meals[m]...)
}

// Recompute re-derives IsConsumed for every day and week. A day is consumed
// when every meal type in its resolved content is marked eaten on the
// day's own slot, so a day with nothing scheduled is trivially consumed. A
// week is consumed when all seven of its days are and at least one of them
// had a meal to eat.
func (s Schedule) Recompute() {
	for i := range s {
		w := &s[i]
		content, _ := s.ResolveDays(w.Number) //nolint:errcheck // w is in s
		all := len(w.Days) == DaysPerWeek
		meals := false
		for j := range w.Days {
			d := &w.Days[j]
			c, _ := findDay(content, d.Day)
			d.IsConsumed = dayConsumed(c, *d)
			all = all && d.IsConsumed
			meals = meals || len(c.Scheduled()) > 0
		}
		w.IsConsumed = all && meals
	}
}

// CheckConsumable reports whether every meal type in types can be marked
// eaten on the given slot without changing anything.
func (s Schedule) CheckConsumable(week int, day Weekday, types []MealType) error {
	i := s.index(week)
	if i < 0 {
		return &SlotError{Week: week, Day: day, Err: ErrSlotNotFound}
	}
	own := s[i].day(day)
	if own == nil {
		return &SlotError{Week: week, Day: day, Err: ErrSlotNotFound}
	}
	content, _ := s.resolvedDay(i, day)

	for _, m := range types {
		if len(content.Meals[m]) == 0 {
			return &SlotError{Week: week, Day: day, MealType: m, Err: ErrMealNotScheduled}
		}
		if own.Consumed(m) {
			return &SlotError{Week: week, Day: day, MealType: m, Err: ErrAlreadyConsumed}
		}
	}
	return nil
}

// MarkConsumed flags the meal types as eaten on the week's own day slot and
// re-derives the consumed state. Nothing changes if any type fails
// CheckConsumable.
func (s Schedule) MarkConsumed(week int, day Weekday, types []MealType) error {
	if err := s.CheckConsumable(week, day, types); err != nil {
		return err
	}

	own := s[s.index(week)].day(day)
	if own.ConsumedMealTypes == nil {
		own.ConsumedMealTypes = make(map[MealType]bool, len(types))
	}
	for _, m := range types {
		own.ConsumedMealTypes[m] = true
	}
	s.Recompute()
	return nil
}

// SetItems replaces the items of one meal slot. An empty items slice removes
// the meal type from the day. Editing a repeating week first detaches it
// from its source by copying the resolved content into its own days.
//
// The edit is refused when the meal type is already eaten on the target day,
// or on the same day of any week that repeats from the target.
func (s Schedule) SetItems(week int, day Weekday, m MealType, items []string) (before, after []string, err error) {
	items = compactItems(items)
	if err := validateItems(week, day, m, items); err != nil {
		return nil, nil, err
	}

	i := s.index(week)
	if i < 0 || s[i].day(day) == nil {
		return nil, nil, &SlotError{Week: week, Day: day, Err: ErrSlotNotFound}
	}
	if s[i].day(day).Consumed(m) {
		return nil, nil, &SlotError{Week: week, Day: day, MealType: m, Err: ErrCannotEditConsumedSlot}
	}
	for j := range s {
		if j == i || !s.repeatsThrough(j, week) {
			continue
		}
		if d := s[j].day(day); d != nil && d.Consumed(m) {
			return nil, nil, &SlotError{Week: s[j].Number, Day: day, MealType: m, Err: ErrCannotEditConsumedSlot}
		}
	}

	content, _ := s.resolvedDay(i, day)
	before = append([]string(nil), content.Meals[m]...)

	if s[i].Repeats() {
		s.detach(i)
	}

	own := s[i].day(day)
	if len(items) == 0 {
		delete(own.Meals, m)
		delete(own.ConsumedMealTypes, m)
	} else {
		if own.Meals == nil {
			own.Meals = make(map[MealType][]string)
		}
		own.Meals[m] = items
		if own.ConsumedMealTypes == nil {
			own.ConsumedMealTypes = make(map[MealType]bool)
		}
		own.ConsumedMealTypes[m] = false
	}
	s.Recompute()

	return before, append([]string(nil), items...), nil
}

// detach copies the resolved content of week i into its own days.
func (s Schedule) detach(i int) {
	src := s.source(i)
	w := &s[i]
	for j := range w.Days {
		d := &w.Days[j]
		if sd := s[src].day(d.Day); sd != nil {
			d.Meals = sd.clone().Meals
		}
	}
	w.RepeatFromWeek = 0
}

// source returns the index of the week that defines the content of week i.
func (s Schedule) source(i int) int {
	for hops := 0; s[i].Repeats() && hops < len(s); hops++ {
		next := s.index(s[i].RepeatFromWeek)
		if next < 0 {
			break
		}
		i = next
	}
	return i
}

// repeatsThrough reports whether week i takes its content, directly or
// transitively, from week number target.
func (s Schedule) repeatsThrough(i, target int) bool {
	for hops := 0; s[i].Repeats() && hops < len(s); hops++ {
		if s[i].RepeatFromWeek == target {
			return true
		}
		next := s.index(s[i].RepeatFromWeek)
		if next < 0 {
			return false
		}
		i = next
	}
	return false
}

// resolvedDay returns the resolved content of one day of week i.
func (s Schedule) resolvedDay(i int, day Weekday) (Day, bool) {
	days, err := s.ResolveDays(s[i].Number)
	if err != nil {
		return Day{Day: day}, false
	}
	return findDay(days, day)
}

func findDay(days []Day, day Weekday) (Day, bool) {
	for _, d := range days {
		if d.Day == day {
			return d, true
		}
	}
	return Day{Day: day}, false
}

func dayConsumed(content, own Day) bool {
	for _, m := range content.Scheduled() {
		if !own.Consumed(m) {
			return false
		}
	}
	return true
}

func emptyDays() []Day {
	days := make([]Day, len(Weekdays))
	for i, d := range Weekdays {
		days[i] = Day{Day: d}
	}
	return days
}

func compactMeals(meals map[MealType][]string) map[MealType][]string {
	if len(meals) == 0 {
		return nil
	}
	out := make(map[MealType][]string, len(meals))
	for m, items := range meals {
		if items = compactItems(items); len(items) > 0 {
			out[m] = items
		}
	}
	return out
}

func compactItems(items []string) []string {
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
