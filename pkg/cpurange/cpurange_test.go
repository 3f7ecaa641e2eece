/*
Copyright 2026 KubeNexus Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cpurange

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{name: "mixed ranges and singles", input: "1,3-5,7", want: []int{1, 3, 4, 5, 7}},
		{name: "empty input", input: "", want: []int{}},
		{name: "single-element range", input: "3-3", want: []int{3}},
		{name: "unsorted dedup", input: "5,1,3,1", want: []int{1, 3, 5}},
		{name: "inverted range is an error", input: "5-3", wantErr: true},
		{name: "garbage is an error", input: "a-b", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %v", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tc.input, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Parse(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseJoined(t *testing.T) {
	got, err := ParseJoined("2-7_10-15", "_")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{2, 3, 4, 5, 6, 7, 10, 11, 12, 13, 14, 15}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseJoined = %v, want %v", got, want)
	}
}

func TestParseJoinedEmpty(t *testing.T) {
	got, err := ParseJoined("", "_")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}

func TestParseIdempotentOnSortedOutput(t *testing.T) {
	first, err := Parse("1,3-5,7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Re-serializing sorted unique output and re-parsing must be stable.
	second, err := Parse("1,3,4,5,7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected stable parse, got %v vs %v", first, second)
	}
}
