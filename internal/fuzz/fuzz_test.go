package fuzz

import (
	"bytes"
	"math"
	"testing"

	"github.com/Hazy142/Hytale-Lab/internal/packet"
	"github.com/Hazy142/Hytale-Lab/internal/schema"
	"github.com/Hazy142/Hytale-Lab/internal/wire"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(packet.NewCodec(schema.Builtin()))
}

func movementBase(t *testing.T) map[string]wire.Value {
	t.Helper()
	playerID, err := wire.IdentifierHex("deadbeef000000000000000000000001")
	if err != nil {
		t.Fatalf("identifier: %v", err)
	}
	return map[string]wire.Value{
		"player_id": playerID,
		"position":  wire.Vec3f(100.0, 64.0, 100.0),
		"tick":      wire.Uint(wire.TypeU32, 1000),
	}
}

func drain(t *testing.T, s *Sequence) ([][]byte, []Record) {
	t.Helper()
	var packets [][]byte
	var records []Record
	for {
		raw, rec, ok := s.Next()
		if !ok {
			return packets, records
		}
		packets = append(packets, raw)
		records = append(records, rec)
	}
}

func TestFuzzDeterminism(t *testing.T) {
	engine := testEngine(t)

	run := func() ([][]byte, []Record) {
		seq, err := engine.Fuzz(schema.IDMovement, movementBase(t), AllKinds)
		if err != nil {
			t.Fatalf("fuzz: %v", err)
		}
		return drain(t, seq)
	}

	p1, r1 := run()
	p2, r2 := run()

	if len(p1) != len(p2) {
		t.Fatalf("run lengths differ: %d vs %d", len(p1), len(p2))
	}
	for i := range p1 {
		if !bytes.Equal(p1[i], p2[i]) {
			t.Errorf("packet %d differs between runs", i)
		}
		if r1[i].Field != r2[i].Field || r1[i].Kind != r2[i].Kind {
			t.Errorf("record %d differs: (%s,%s) vs (%s,%s)",
				i, r1[i].Field, r1[i].Kind, r2[i].Field, r2[i].Kind)
		}
	}
}

func TestFuzzCoverage(t *testing.T) {
	engine := testEngine(t)
	ps, _ := engine.Codec().Registry().Lookup(schema.IDMovement)

	// Expected count follows the mutation table exactly: one mutation per
	// defined (type, kind) pair, undefined pairs skipped.
	want := 0
	for _, f := range ps.Fields {
		for _, k := range AllKinds {
			if _, ok := Mutate(f.Type, k); ok {
				want++
			}
		}
	}

	seq, err := engine.Fuzz(schema.IDMovement, nil, AllKinds)
	if err != nil {
		t.Fatalf("fuzz: %v", err)
	}
	if seq.Total() != want {
		t.Errorf("Total: got %d, want %d", seq.Total(), want)
	}

	packets, records := drain(t, seq)
	if len(packets) != want {
		t.Errorf("yielded: got %d, want %d", len(packets), want)
	}
	if want >= len(ps.Fields)*len(AllKinds) {
		t.Errorf("every pair defined is unexpected for movement: %d pairs", want)
	}

	// No (field, kind) pair yields twice.
	seen := map[string]bool{}
	for _, r := range records {
		key := r.Field + "/" + string(r.Kind)
		if seen[key] {
			t.Errorf("duplicate mutation %s", key)
		}
		seen[key] = true
	}
}

func TestFuzzReset(t *testing.T) {
	engine := testEngine(t)
	seq, err := engine.Fuzz(schema.IDChat, nil, []Kind{KindNull})
	if err != nil {
		t.Fatalf("fuzz: %v", err)
	}

	first, _ := drain(t, seq)
	seq.Reset()
	second, _ := drain(t, seq)

	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("reset: %d then %d packets", len(first), len(second))
	}
	for i := range first {
		if !bytes.Equal(first[i], second[i]) {
			t.Errorf("packet %d differs after reset", i)
		}
	}
}

func TestMutationTable(t *testing.T) {
	cases := []struct {
		t       wire.FieldType
		kind    Kind
		defined bool
		check   func(wire.Value) bool
	}{
		{wire.TypeU32, KindOverflow, true, func(v wire.Value) bool { return v.U == 1<<32 }},
		{wire.TypeU8, KindOverflow, true, func(v wire.Value) bool { return v.U == 256 }},
		{wire.TypeU32, KindUnderflow, true, func(v wire.Value) bool { return v.U == 0xFFFFFFFF }},
		{wire.TypeF32, KindEdgeCase, true, func(v wire.Value) bool { return math.IsNaN(v.F) }},
		{wire.TypeF32, KindOverflow, true, func(v wire.Value) bool { return math.IsInf(v.F, 1) }},
		{wire.TypeString, KindEdgeCase, true, func(v wire.Value) bool { return len(v.S) == longStringLength }},
		{wire.TypeString, KindNull, true, func(v wire.Value) bool { return v.S == "" }},
		{wire.TypeIdentifier16, KindNull, true, func(v wire.Value) bool { return v.ID == [16]byte{} }},
		{wire.TypeVarInt, KindOverflow, true, func(v wire.Value) bool { return v.U == 0xFFFFFFFF }},
		{wire.TypeIdentifier16, KindOverflow, false, nil},
		{wire.TypeIdentifier16, KindEdgeCase, false, nil},
		{wire.TypeVector3i, KindOverflow, false, nil},
		{wire.TypeVarInt, KindNull, false, nil},
	}

	for _, tc := range cases {
		v, ok := Mutate(tc.t, tc.kind)
		if ok != tc.defined {
			t.Errorf("Mutate(%s, %s): defined=%v, want %v", tc.t, tc.kind, ok, tc.defined)
			continue
		}
		if tc.defined {
			if v.Type != tc.t {
				t.Errorf("Mutate(%s, %s): value type %s", tc.t, tc.kind, v.Type)
			}
			if !tc.check(v) {
				t.Errorf("Mutate(%s, %s): unexpected value %s", tc.t, tc.kind, v)
			}
		}
	}
}

func TestFuzzRecordsOriginal(t *testing.T) {
	engine := testEngine(t)
	base := movementBase(t)
	seq, err := engine.Fuzz(schema.IDMovement, base, []Kind{KindOverflow})
	if err != nil {
		t.Fatalf("fuzz: %v", err)
	}

	for {
		raw, rec, ok := seq.Next()
		if !ok {
			break
		}
		if rec.Field == "tick" {
			if rec.Original.U != 1000 {
				t.Errorf("tick original: got %s", rec.Original)
			}
			if rec.Mutated.U != 1<<32 {
				t.Errorf("tick mutated: got %s", rec.Mutated)
			}
			// The wrapped u32 encodes as zero on the wire.
			decoded := engine.Codec().Decode(raw)
			tick, _ := decoded.Field("tick")
			if tick.U != 0 {
				t.Errorf("tick on wire: got %d, want 0 (wrapped)", tick.U)
			}
		}
	}

	// The base map itself is untouched.
	if base["tick"].U != 1000 {
		t.Errorf("base mutated: tick=%s", base["tick"])
	}
}

func TestFuzzUnknownPacket(t *testing.T) {
	if _, err := testEngine(t).Fuzz(0x7E, nil, nil); err == nil {
		t.Error("fuzz unknown id: want error")
	}
}

func TestAnalyze(t *testing.T) {
	engine := testEngine(t)

	raw, _, err := engine.Codec().Encode(schema.IDChat, map[string]wire.Value{
		"message": wire.Str("hello"),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	a := engine.Analyze(raw)
	if !a.Success {
		t.Errorf("analyze valid packet: %s", a.Error)
	}
	if a.PacketID != "0x03" {
		t.Errorf("packet id: got %s", a.PacketID)
	}

	bad := engine.Analyze([]byte{0xFF})
	if bad.Success {
		t.Error("analyze truncated packet: want failure")
	}
	if bad.Error == "" || bad.RawHex != "ff" {
		t.Errorf("analyze failure detail: err=%q hex=%q", bad.Error, bad.RawHex)
	}
}
