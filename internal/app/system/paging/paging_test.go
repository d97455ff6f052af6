package paging

import "testing"

func TestTrimPage_Forward(t *testing.T) {
	rows := make([]int, PageSize+1)
	res := TrimPage(&rows, "", "")
	if len(rows) != PageSize {
		t.Errorf("len = %d, want %d", len(rows), PageSize)
	}
	if !res.HasNext || res.HasPrev {
		t.Errorf("got %+v, want HasNext only", res)
	}
}

func TestTrimPage_ForwardWithAfter(t *testing.T) {
	rows := make([]int, 10)
	res := TrimPage(&rows, "", "cursor")
	if len(rows) != 10 {
		t.Errorf("len = %d, want 10", len(rows))
	}
	if res.HasNext || !res.HasPrev {
		t.Errorf("got %+v, want HasPrev only", res)
	}
}

func TestTrimPage_Backward(t *testing.T) {
	rows := make([]int, PageSize+1)
	res := TrimPage(&rows, "cursor", "")
	if len(rows) != PageSize {
		t.Errorf("len = %d, want %d", len(rows), PageSize)
	}
	if !res.HasNext || !res.HasPrev {
		t.Errorf("got %+v, want both", res)
	}
}

func TestReverse(t *testing.T) {
	rows := []int{1, 2, 3, 4}
	Reverse(rows)
	want := []int{4, 3, 2, 1}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("got %v, want %v", rows, want)
		}
	}
}

func TestConfigureKeyset_Directions(t *testing.T) {
	if cfg := ConfigureKeyset("", ""); cfg.Direction != Forward || cfg.SortOrder != 1 || cfg.Cursor != nil {
		t.Errorf("empty cursors: got %+v", cfg)
	}
	if cfg := ConfigureKeyset("not-a-cursor", ""); cfg.Direction != Backward || cfg.SortOrder != -1 {
		t.Errorf("before set: got %+v", cfg)
	}
}
