package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFeed(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp feed: %v", err)
	}
	return path
}

func TestDecoderRoundTripsAllRecordKinds(t *testing.T) {
	sym := NewSymbol("AAPL")
	var data []byte
	data = append(data, EncodeAdd(AddOrder{TsUs: 1, OrderID: 100, Symbol: sym, Side: Buy, PxNano: 150_000_000_000, Qty: 10})...)
	data = append(data, EncodeModify(ModifyOrder{TsUs: 2, OrderID: 100, NewPxNano: 150_500_000_000, NewQty: 20})...)
	data = append(data, EncodeExecute(ExecuteOrder{TsUs: 3, OrderID: 100, ExecQty: 5})...)
	data = append(data, EncodeDelete(DeleteOrder{TsUs: 4, OrderID: 100})...)

	path := writeTempFeed(t, data)
	d, err := NewDecoder(path)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer d.Close()

	ev := d.Next()
	if ev.Kind != KindAddOrder || ev.Add.OrderID != 100 || ev.Add.Symbol.String() != "AAPL" {
		t.Fatalf("unexpected add event: %+v", ev)
	}
	ev = d.Next()
	if ev.Kind != KindModifyOrder || ev.Modify.NewQty != 20 {
		t.Fatalf("unexpected modify event: %+v", ev)
	}
	ev = d.Next()
	if ev.Kind != KindExecuteOrder || ev.Execute.ExecQty != 5 {
		t.Fatalf("unexpected execute event: %+v", ev)
	}
	ev = d.Next()
	if ev.Kind != KindDeleteOrder || ev.Delete.OrderID != 100 {
		t.Fatalf("unexpected delete event: %+v", ev)
	}
	if d.HasNext() {
		t.Fatal("expected no more records")
	}
}

// P2 — decoding from the start twice produces the identical sequence.
func TestResetReplaysIdentically(t *testing.T) {
	sym := NewSymbol("MSFT")
	var data []byte
	data = append(data, EncodeAdd(AddOrder{OrderID: 1, Symbol: sym, Side: Sell, PxNano: 9_000_000_000, Qty: 1})...)
	data = append(data, EncodeAdd(AddOrder{OrderID: 2, Symbol: sym, Side: Buy, PxNano: 8_000_000_000, Qty: 2})...)

	path := writeTempFeed(t, data)
	d, err := NewDecoder(path)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer d.Close()

	var first []Event
	for d.HasNext() {
		first = append(first, d.Next())
	}

	d.Reset()
	var second []Event
	for d.HasNext() {
		second = append(second, d.Next())
	}

	if len(first) != len(second) {
		t.Fatalf("replay length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Kind != second[i].Kind || first[i].Add.OrderID != second[i].Add.OrderID {
			t.Fatalf("replay mismatch at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// An unrecognized leading tag byte resyncs by skipping exactly one
// byte rather than aborting the decode.
func TestUnknownTagResyncsByOneByte(t *testing.T) {
	data := []byte{'?'}
	data = append(data, EncodeDelete(DeleteOrder{OrderID: 7})...)

	path := writeTempFeed(t, data)
	d, err := NewDecoder(path)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer d.Close()

	ev := d.Next()
	if ev.Kind != KindInvalid {
		t.Fatalf("expected invalid event for unknown tag, got %+v", ev)
	}
	if d.Position() != 1 {
		t.Fatalf("expected cursor to advance by 1, got %d", d.Position())
	}

	ev = d.Next()
	if ev.Kind != KindDeleteOrder || ev.Delete.OrderID != 7 {
		t.Fatalf("expected to resync onto the delete record, got %+v", ev)
	}
}

// A truncated trailing record is reported as invalid without the
// cursor advancing past the end of the mapping.
func TestTruncatedTrailingRecordDoesNotAdvance(t *testing.T) {
	full := EncodeAdd(AddOrder{OrderID: 1, Side: Buy, PxNano: 1, Qty: 1})
	data := full[:len(full)-3]

	path := writeTempFeed(t, data)
	d, err := NewDecoder(path)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer d.Close()

	before := d.Position()
	ev := d.Next()
	if ev.Kind != KindInvalid {
		t.Fatalf("expected invalid event for truncated record, got %+v", ev)
	}
	if d.Position() != before {
		t.Fatalf("cursor should not advance past a truncated record: before=%d after=%d", before, d.Position())
	}
}

func TestZeroQuantityAddIsInvalid(t *testing.T) {
	data := EncodeAdd(AddOrder{OrderID: 1, Side: Buy, PxNano: 1, Qty: 0})
	path := writeTempFeed(t, data)
	d, err := NewDecoder(path)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer d.Close()

	ev := d.Next()
	if ev.Kind != KindInvalid {
		t.Fatalf("expected invalid event for zero-quantity add, got %+v", ev)
	}
}

func TestEmptyFileIsRejected(t *testing.T) {
	path := writeTempFeed(t, nil)
	if _, err := NewDecoder(path); err == nil {
		t.Fatal("expected NewDecoder to reject an empty file")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	data := EncodeDelete(DeleteOrder{OrderID: 1})
	path := writeTempFeed(t, data)
	d, err := NewDecoder(path)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got: %v", err)
	}
}
