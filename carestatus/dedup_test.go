package carestatus

import (
	"reflect"
	"testing"
)

func TestDedupFlags_SpecialAttentionKeepsFirst(t *testing.T) {
	flags := []DogFlag{
		{Type: FlagSpecialAttention, Value: "first", Description: "gentle handling"},
		{Type: FlagInHeat, Value: "day 3"},
		{Type: FlagSpecialAttention, Value: "second"},
		{Type: FlagSpecialAttention, Value: "third"},
	}

	got := DedupFlags(flags)

	want := []DogFlag{
		{Type: FlagSpecialAttention, Value: "first", Description: "gentle handling"},
		{Type: FlagInHeat, Value: "day 3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DedupFlags = %+v, want %+v", got, want)
	}
}

func TestDedupFlags_OtherTypesNeverCollapse(t *testing.T) {
	// The asymmetry is intentional: only special_attention collapses.
	flags := []DogFlag{
		{Type: FlagIncompatible, Value: "run A", IncompatibleWith: []string{"bella"}},
		{Type: FlagIncompatible, Value: "run B", IncompatibleWith: []string{"max"}},
		{Type: FlagInHeat, Value: "x"},
		{Type: FlagInHeat, Value: "y"},
		{Type: FlagPregnant, Value: "wk 4"},
		{Type: FlagPregnant, Value: "wk 4"},
		{Type: FlagOther, Value: "a"},
		{Type: FlagOther, Value: "a"},
	}

	got := DedupFlags(flags)

	if !reflect.DeepEqual(got, flags) {
		t.Errorf("non-special flags must survive in original relative order, got %+v", got)
	}
}

func TestDedupFlags_Idempotent(t *testing.T) {
	flags := []DogFlag{
		{Type: FlagSpecialAttention, Value: "first"},
		{Type: FlagSpecialAttention, Value: "second"},
		{Type: FlagOther, Value: "x"},
	}

	once := DedupFlags(flags)
	twice := DedupFlags(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedup must be idempotent: %+v vs %+v", once, twice)
	}
}

func TestDedupFlags_Empty(t *testing.T) {
	if got := DedupFlags(nil); got != nil {
		t.Errorf("DedupFlags(nil) = %+v, want nil", got)
	}
}
