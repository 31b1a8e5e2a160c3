package proxyjump

import "testing"

func TestDialRejectsEmptyHopList(t *testing.T) {
	_, err := Dial(nil, nil)
	if err == nil {
		t.Fatal("expected error for empty hop list")
	}
}
