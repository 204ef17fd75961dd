package eps

import (
	"errors"
	"reflect"
	"testing"
)

func TestSelectorResolve(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		sel  Selector
		n    int
		want []int
	}{
		{"all", All(), 4, []int{0, 1, 2, 3}},
		{"all empty", All(), 0, []int{}},
		{"single", At(2), 4, []int{2}},
		{"single negative", At(-1), 4, []int{3}},
		{"list", Pick(3, 0, 3), 4, []int{3, 0, 3}},
		{"list negative", Pick(-4, -1), 4, []int{0, 3}},
		{"range", Range(1, 3), 5, []int{1, 2}},
		{"range open stop", Range(2, End), 5, []int{2, 3, 4}},
		{"range open start", Range(End, 2), 5, []int{0, 1}},
		{"range clamps", Range(0, 100), 3, []int{0, 1, 2}},
		{"range negative bounds", Range(-3, -1), 5, []int{2, 3}},
		{"stride", RangeStep(0, End, 2), 5, []int{0, 2, 4}},
		{"reverse", RangeStep(End, End, -1), 4, []int{3, 2, 1, 0}},
		{"reverse bounded", RangeStep(3, 0, -2), 5, []int{3, 1}},
		{"empty forward", Range(3, 1), 5, []int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.sel.Resolve(tc.n)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestSelectorResolveErrors(t *testing.T) {
	t.Parallel()

	for name, sel := range map[string]Selector{
		"single out of range":   At(4),
		"negative out of range": At(-5),
		"list out of range":     Pick(0, 7),
		"zero step":             RangeStep(0, 4, 0),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := sel.Resolve(4); !errors.Is(err, ErrIndexOutOfRange) {
				t.Fatalf("want ErrIndexOutOfRange, got %v", err)
			}
		})
	}
}
