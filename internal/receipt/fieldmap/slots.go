package fieldmap

import (
	"encoding/json"
	"fmt"
)

// MaxSlots is the number of numbered line-item positions a form offers.
const MaxSlots = 10

// SlotField is a numbered field pattern such as "LAB TEST %d".
type SlotField string

// Slot line items
const (
	ParticularsSlot       SlotField = "PARTICULARS %d"
	AmountSlot            SlotField = "AMOUNT %d"
	LabTestSlot           SlotField = "LAB TEST %d"
	ResultSlot            SlotField = "RESULT %d"
	NormalRangeSlot       SlotField = "NORMAL RANGE %d"
	ExternalTestSlot      SlotField = "VLAB TEST %d"
	ExternalAmountSlot    SlotField = "VLAB AMOUNT %d"
	MedicineSlot          SlotField = "MEDICINE %d"
	DosageSlot            SlotField = "DOSAGE %d"
	DurationSlot          SlotField = "DURATION %d"
	TimingSlot            SlotField = "TIMING %d"
	DischargeMedicineSlot SlotField = "DISCHARGE MEDICINE %d"
)

var slotSynonyms = map[SlotField][]string{
	ParticularsSlot:  {"PARTICULAR %d", "DESCRIPTION %d", "ITEM %d"},
	AmountSlot:       {"RATE %d", "PRICE %d"},
	LabTestSlot:      {"TEST %d", "TEST NAME %d"},
	ExternalTestSlot: {"EXTERNAL TEST %d", "V LAB TEST %d"},
	MedicineSlot:     {"MEDICINE NAME %d", "DRUG %d"},
	DosageSlot:       {"DOSE %d"},
}

// Field returns the logical field for slot n.
func (s SlotField) Field(n int) Field {
	return Field(fmt.Sprintf(string(s), n))
}

// keys lists the spellings tried for slot n.
func (s SlotField) keys(n int) []string {
	keys := variants(fmt.Sprintf(string(s), n))
	for _, pattern := range slotSynonyms[s] {
		for _, k := range variants(fmt.Sprintf(pattern, n)) {
			keys = appendUnique(keys, k)
		}
	}
	return keys
}

// SlotText resolves slot n of s as display text.
func SlotText(fields map[string]interface{}, s SlotField, n int) string {
	v, ok := lookupKeys(fields, s.keys(n))
	if !ok {
		return ""
	}
	return toText(v)
}

// SlotValue resolves slot n of s as a number, 0 when absent.
func SlotValue(fields map[string]interface{}, s SlotField, n int) float64 {
	v, ok := lookupKeys(fields, s.keys(n))
	if !ok {
		return 0
	}
	return toAmount(v)
}

// Slots is a fixed-capacity list of optional entries addressed by 1-based
// position. Empty positions stay empty so printed row numbers keep gaps.
type Slots[T any] struct {
	items [MaxSlots]*T
}

// Entry is a present slot and its 1-based position.
type Entry[T any] struct {
	Slot int `json:"slot"`
	Item T   `json:"item"`
}

// Set stores v at position n. It reports false when n is out of range.
func (s *Slots[T]) Set(n int, v T) bool {
	if n < 1 || n > MaxSlots {
		return false
	}
	s.items[n-1] = &v
	return true
}

// At returns the entry at position n.
func (s Slots[T]) At(n int) (T, bool) {
	var zero T
	if n < 1 || n > MaxSlots || s.items[n-1] == nil {
		return zero, false
	}
	return *s.items[n-1], true
}

// Present yields the filled positions in ascending order.
func (s Slots[T]) Present() []Entry[T] {
	var out []Entry[T]
	for i, item := range s.items {
		if item != nil {
			out = append(out, Entry[T]{Slot: i + 1, Item: *item})
		}
	}
	return out
}

// Len is the number of filled positions.
func (s Slots[T]) Len() int {
	n := 0
	for _, item := range s.items {
		if item != nil {
			n++
		}
	}
	return n
}

func (s Slots[T]) MarshalJSON() ([]byte, error) {
	present := s.Present()
	if present == nil {
		present = []Entry[T]{}
	}
	return json.Marshal(present)
}

// collectSlots walks positions 1..MaxSlots and builds an entry for every
// position whose primary field is non-empty.
func collectSlots[T any](fields map[string]interface{}, primary SlotField, build func(n int, name string) T) Slots[T] {
	var s Slots[T]
	for n := 1; n <= MaxSlots; n++ {
		name := SlotText(fields, primary, n)
		if name == "" {
			continue
		}
		s.Set(n, build(n, name))
	}
	return s
}
