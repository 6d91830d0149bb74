package notice

import "testing"

func TestBoard_SetReplacesByKey(t *testing.T) {
	b := NewBoard(10)
	b.Set("pipeline", LevelInfo, "loading")
	b.Set("credential", LevelWarning, "enter key")
	b.Set("pipeline", LevelSuccess, "loaded")

	got := b.List()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Key != "pipeline" || got[0].Level != LevelSuccess || got[0].Text != "loaded" {
		t.Errorf("pipeline notice = %+v", got[0])
	}
	if got[1].Key != "credential" {
		t.Errorf("order not preserved: %+v", got)
	}
}

func TestBoard_Clear(t *testing.T) {
	b := NewBoard(10)
	b.Set("a", LevelInfo, "x")
	b.Set("b", LevelInfo, "y")
	b.Clear("a")
	b.Clear("missing")

	got := b.List()
	if len(got) != 1 || got[0].Key != "b" {
		t.Fatalf("List() = %+v", got)
	}
}

func TestBoard_Trim(t *testing.T) {
	b := NewBoard(2)
	b.Set("a", LevelInfo, "1")
	b.Set("b", LevelInfo, "2")
	b.Set("c", LevelInfo, "3")

	got := b.List()
	if len(got) != 2 || got[0].Key != "b" || got[1].Key != "c" {
		t.Fatalf("List() = %+v", got)
	}
}

func TestBoard_NilIsNoop(t *testing.T) {
	var b *Board
	b.Set("a", LevelError, "ignored")
	b.Clear("a")
	if b.List() != nil {
		t.Error("nil board should list nothing")
	}
}

func TestBoard_ListIsCopy(t *testing.T) {
	b := NewBoard(5)
	b.Set("a", LevelInfo, "x")
	got := b.List()
	got[0].Text = "mutated"
	if b.List()[0].Text != "x" {
		t.Error("List must return a copy")
	}
}
