package paging

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func pages(t *testing.T, data map[string]Page[int]) (Fetch[int], *[]string) {
	var seen []string
	return func(ctx context.Context, offset string) (Page[int], error) {
		seen = append(seen, offset)
		p, ok := data[offset]
		if !ok {
			t.Fatalf("unexpected offset %q", offset)
		}
		return p, nil
	}, &seen
}

func TestIterator(t *testing.T) {
	fetch, seen := pages(t, map[string]Page[int]{
		"":   {Items: []int{1, 2}, NextOffset: "o1"},
		"o1": {Items: nil, NextOffset: "o2"},
		"o2": {Items: []int{3}},
	})

	var got []int
	it := New(fetch)
	for it.Next(context.Background()) {
		got = append(got, it.Item())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if expected := []int{1, 2, 3}; !reflect.DeepEqual(got, expected) {
		t.Errorf("items = %v, expected %v", got, expected)
	}
	if expected := []string{"", "o1", "o2"}; !reflect.DeepEqual(*seen, expected) {
		t.Errorf("offsets = %v, expected %v", *seen, expected)
	}
	if it.Next(context.Background()) {
		t.Error("Next() after exhaustion = true, expected false")
	}
}

func TestIteratorRepeatedCursor(t *testing.T) {
	fetch, seen := pages(t, map[string]Page[int]{
		"":  {Items: []int{1}, NextOffset: "a"},
		"a": {Items: []int{2}, NextOffset: "a"},
	})
	got, err := Collect(context.Background(), fetch, 0)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if expected := []int{1, 2}; !reflect.DeepEqual(got, expected) {
		t.Errorf("Collect() = %v, expected %v", got, expected)
	}
	if len(*seen) != 2 {
		t.Errorf("fetched %d pages, expected 2", len(*seen))
	}
}

func TestCollectLimit(t *testing.T) {
	fetch, seen := pages(t, map[string]Page[int]{
		"":   {Items: []int{1, 2}, NextOffset: "o1"},
		"o1": {Items: []int{3, 4}},
	})
	got, err := Collect(context.Background(), fetch, 2)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if expected := []int{1, 2}; !reflect.DeepEqual(got, expected) {
		t.Errorf("Collect() = %v, expected %v", got, expected)
	}
	if len(*seen) != 1 {
		t.Errorf("fetched %d pages, expected 1", len(*seen))
	}
}

func TestAllStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	fetch := func(ctx context.Context, offset string) (Page[string], error) {
		calls++
		if offset == "" {
			return Page[string]{Items: []string{"a"}, NextOffset: "next"}, nil
		}
		return Page[string]{}, boom
	}

	var items []string
	var last error
	for item, err := range All(context.Background(), fetch) {
		if err != nil {
			last = err
			break
		}
		items = append(items, item)
	}
	if !errors.Is(last, boom) {
		t.Errorf("error = %v, expected %v", last, boom)
	}
	if !reflect.DeepEqual(items, []string{"a"}) || calls != 2 {
		t.Errorf("items = %v after %d calls, expected [a] after 2", items, calls)
	}
}
