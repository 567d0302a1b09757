package symtab_test

import (
	"testing"

	"github.com/pep9vm/pep9core/symtab"
)

func TestTable_InsertIdempotent(t *testing.T) {
	tbl := symtab.New()

	a := tbl.Insert("foo")
	b := tbl.Insert("foo")

	if a != b {
		t.Errorf("Insert should return the same *Symbol for an existing name")
	}
	if a.State != symtab.Undefined {
		t.Errorf("fresh insert should be Undefined, got %s", a.State)
	}
}

func TestTable_SetValue_UndefinedToSingle(t *testing.T) {
	tbl := symtab.New()

	sym, err := tbl.SetValue("total", symtab.LocationValue(0x8000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sym.State != symtab.Single {
		t.Errorf("expected Single after first definition, got %s", sym.State)
	}
	if sym.Value.Kind != symtab.Location || sym.Value.Loc != 0x8000 {
		t.Errorf("expected location 0x8000, got %+v", sym.Value)
	}
}

func TestTable_SetValue_RedefineGoesMultiple(t *testing.T) {
	tbl := symtab.New()

	tbl.SetValue("dup", symtab.NumericValue(1))
	sym, err := tbl.SetValue("dup", symtab.NumericValue(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sym.State != symtab.Multiple {
		t.Errorf("expected Multiple after second definition, got %s", sym.State)
	}
}

func TestTable_SetValue_NameTooLong(t *testing.T) {
	tbl := symtab.New()

	_, err := tbl.SetValue("waytoolongname", symtab.NumericValue(1))
	if err != symtab.ErrNameTooLong {
		t.Errorf("expected ErrNameTooLong, got %v", err)
	}
}

func TestTable_NumUndefined(t *testing.T) {
	tbl := symtab.New()

	tbl.Reference("never_defined")
	tbl.SetValue("defined", symtab.NumericValue(42))

	if got := tbl.NumUndefined(); got != 1 {
		t.Errorf("expected 1 undefined symbol, got %d", got)
	}
}

func TestTable_ApplyOffset_OnlyMovesLocations(t *testing.T) {
	tbl := symtab.New()

	tbl.SetValue("loc", symtab.LocationValue(0x1000))
	tbl.SetValue("num", symtab.NumericValue(0x1000))
	tbl.SetValue("ext", symtab.ExternalValue())

	tbl.ApplyOffset(0x10)

	loc, _ := tbl.Get("loc")
	num, _ := tbl.Get("num")
	ext, _ := tbl.Get("ext")

	if loc.Value.Loc != 0x1010 {
		t.Errorf("location value should shift by delta, got 0x%X", loc.Value.Loc)
	}
	if num.Value.Numeric != 0x1000 {
		t.Errorf("numeric value must not move, got 0x%X", num.Value.Numeric)
	}
	if ext.Value.Kind != symtab.External {
		t.Errorf("external value must not change kind")
	}
}

func TestTable_GetUnusedSymbols(t *testing.T) {
	tbl := symtab.New()

	tbl.SetValue("used", symtab.NumericValue(1))
	tbl.Reference("used")

	tbl.SetValue("unused", symtab.NumericValue(2))

	unused := tbl.GetUnusedSymbols()
	if len(unused) != 1 || unused[0].Name != "unused" {
		t.Errorf("expected exactly [unused], got %v", unused)
	}
}

func TestTable_DisplayOrderMatchesInsertion(t *testing.T) {
	tbl := symtab.New()

	names := []string{"third", "first", "second"}
	for _, n := range names {
		tbl.Insert(n)
	}

	all := tbl.All()
	if len(all) != len(names) {
		t.Fatalf("expected %d symbols, got %d", len(names), len(all))
	}
	for i, sym := range all {
		if sym.Name != names[i] {
			t.Errorf("position %d: expected %q, got %q", i, names[i], sym.Name)
		}
	}
}

func TestTable_SetMultiplyDefined(t *testing.T) {
	tbl := symtab.New()

	tbl.SetValue("x", symtab.NumericValue(1))
	tbl.SetMultiplyDefined("x")

	sym, _ := tbl.Get("x")
	if !sym.MultiplyDefined() {
		t.Errorf("expected symbol to be flagged Multiple")
	}
}
