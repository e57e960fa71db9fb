package rand

import "testing"

func TestUint32NeverZero(t *testing.T) {
	for i := 0; i < 10000; i++ {
		if v := Uint32(); v == 0 {
			t.Fatalf("Uint32 returned reserved zero identifier")
		}
	}
}
