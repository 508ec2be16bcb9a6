// Package checklist turns flat item definitions into navigable sections and
// tracks the progress of a single run through them.
package checklist

import (
	"fmt"
	"strings"
)

// DefaultSectionID and DefaultSectionTitle name the section holding items
// that appear before the first divider.
const (
	DefaultSectionID    = "default"
	DefaultSectionTitle = "ITEMS"
)

// Item is one checklist entry. Items flagged IsDivider start a new section.
type Item struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Subtext   string `json:"subtext,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Important bool   `json:"important,omitempty"`
	Warning   bool   `json:"warning,omitempty"`
	Indent    bool   `json:"indent,omitempty"`
	IsDivider bool   `json:"isDivider,omitempty"`
}

// Section is a titled run of items between dividers.
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Key identifies a checklist type.
type Key struct {
	Activity string
	ListType string
}

// NewKey normalises the key parts.
func NewKey(activity, listType string) Key {
	return Key{
		Activity: strings.ToLower(strings.TrimSpace(activity)),
		ListType: strings.ToLower(strings.TrimSpace(listType)),
	}
}

// Valid reports whether both parts are set.
func (k Key) Valid() bool {
	return k.Activity != "" && k.ListType != ""
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Activity, k.ListType)
}

// Partition splits items at dividers. Empty sections are dropped.
func Partition(items []Item) []Section {
	sections := make([]Section, 0)
	current := Section{ID: DefaultSectionID, Title: DefaultSectionTitle}

	flush := func() {
		if len(current.Items) > 0 {
			sections = append(sections, current)
		}
	}

	for _, item := range items {
		if item.IsDivider {
			flush()
			current = Section{ID: item.ID, Title: item.Text}
			continue
		}
		current.Items = append(current.Items, item)
	}
	flush()

	return sections
}

// Flatten re-inserts dividers in front of every section except a leading
// default section, so Partition(Flatten(s)) reproduces s.
func Flatten(sections []Section) []Item {
	items := make([]Item, 0)
	for i, section := range sections {
		if !(i == 0 && section.ID == DefaultSectionID && section.Title == DefaultSectionTitle) {
			items = append(items, Item{ID: section.ID, Text: section.Title, IsDivider: true})
		}
		items = append(items, section.Items...)
	}
	return items
}

// Checkable returns every non-divider item in order.
func Checkable(items []Item) []Item {
	result := make([]Item, 0, len(items))
	for _, item := range items {
		if !item.IsDivider {
			result = append(result, item)
		}
	}
	return result
}

// List is a loaded checklist definition with its derived sections.
type List struct {
	Key      Key
	Title    string
	Items    []Item
	Sections []Section
	known    map[string]struct{}
}

// NewList partitions items and indexes their ids.
func NewList(key Key, title string, items []Item) *List {
	list := &List{
		Key:      key,
		Title:    title,
		Items:    items,
		Sections: Partition(items),
		known:    make(map[string]struct{}, len(items)),
	}
	for _, item := range Checkable(items) {
		list.known[item.ID] = struct{}{}
	}
	return list
}

// Knows reports whether id is a checkable item of the list.
func (l *List) Knows(id string) bool {
	_, ok := l.known[id]
	return ok
}

// CheckableItems returns every item that can be checked.
func (l *List) CheckableItems() []Item {
	return Checkable(l.Items)
}

// Section returns the section at index, if any.
func (l *List) Section(index int) (Section, bool) {
	if index < 0 || index >= len(l.Sections) {
		return Section{}, false
	}
	return l.Sections[index], true
}
