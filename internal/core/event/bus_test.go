package event

import "testing"

func TestBusDoubleBuffer(t *testing.T) {
	b := NewBus()
	var landed []BuffLanded
	var faded int
	Subscribe(b, func(e BuffLanded) { landed = append(landed, e) })
	Subscribe(b, func(BuffFaded) { faded++ })

	Emit(b, BuffLanded{Name: "Soandso", Slot: 3, SpellID: 278})
	b.DispatchAll()
	if len(landed) != 0 {
		t.Fatal("event delivered in the tick it was emitted")
	}

	b.SwapBuffers()
	b.DispatchAll()
	if len(landed) != 1 || landed[0].Slot != 3 {
		t.Fatalf("landed = %+v", landed)
	}

	Emit(b, BuffFaded{Slot: 3, SpellID: 278, Expired: true})
	b.SwapBuffers()
	b.DispatchAll()
	if len(landed) != 1 || faded != 1 {
		t.Errorf("landed %d faded %d after second tick", len(landed), faded)
	}
}

func TestBusPending(t *testing.T) {
	b := NewBus()
	Emit(b, BuffLanded{})
	Emit(b, BuffFaded{})
	if b.Pending() != 2 {
		t.Errorf("Pending = %d", b.Pending())
	}
	b.SwapBuffers()
	if b.Pending() != 0 {
		t.Errorf("Pending after swap = %d", b.Pending())
	}
}
