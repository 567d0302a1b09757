package asm

import (
	"regexp"
	"strconv"

	"github.com/pep9vm/pep9core/isa"
	"github.com/pep9vm/pep9core/symtab"
	"github.com/pep9vm/pep9core/trace"
)

var formatTagRe = regexp.MustCompile(`^(1c|1d|2d|1h|2h)(\d+)?a?$`)
var symbolTagRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,7}$`)
var tagTokenRe = regexp.MustCompile(`#([A-Za-z0-9]+)`)

type parsedTag struct {
	isFormat bool
	format   trace.Format
	isArray  bool
	count    int
	name     string // symbol-tag text, meaningful when !isFormat
}

func scanTags(comment string) []parsedTag {
	matches := tagTokenRe.FindAllStringSubmatch(comment, -1)
	var out []parsedTag
	for _, m := range matches {
		tok := m[1]
		if fm := formatTagRe.FindStringSubmatch(tok); fm != nil {
			f, _ := trace.ParseFormat(fm[1])
			pt := parsedTag{isFormat: true, format: f}
			if fm[2] != "" {
				n, _ := strconv.Atoi(fm[2])
				pt.isArray = true
				pt.count = n
			}
			out = append(out, pt)
			continue
		}
		if symbolTagRe.MatchString(tok) {
			out = append(out, parsedTag{name: tok})
		}
	}
	return out
}

// asType converts one parsed format tag to its static trace.Type.
func (pt parsedTag) asType() trace.Type {
	if pt.isArray {
		return trace.Array(pt.format, pt.count)
	}
	return trace.Primitive(pt.format)
}

// postprocessTraceTags scans every eligible entry's comment for format
// and symbol tags and assembles a trace.TraceInfo. Errors here degrade
// to trace warnings: they never fail assembly, only flip
// StaticTraceError so downstream consumers know the trace is
// untrustworthy.
func postprocessTraceTags(entries []*CodeEntry, symbols *symtab.Table, errs *ErrorList) *trace.TraceInfo {
	info := trace.NewTraceInfo()

	pendingStruct := map[string][]parsedTag{}
	for _, e := range entries {
		tags := scanTags(e.Comment)
		if len(tags) == 0 {
			continue
		}
		info.HadTraceTags = true

		switch e.Kind {
		case KindDotByte, KindDotWord, KindDotBlock, KindDotEquate:
			assignAllocTag(e, tags, info, errs)
		case KindNonUnaryInstr:
			switch e.Mnemonic {
			case isa.CALL:
				if e.Argument.Kind == ArgSymbolRef && e.Argument.Symbol != nil && e.Argument.Symbol.Name == "malloc" {
					if len(tags) > 0 && tags[0].isFormat {
						info.InstrToSymList[uint16(e.MemoryAddress)] = []trace.TypedSlot{{Type: tags[0].asType()}}
					}
				}
			case isa.ADDSP, isa.SUBSP:
				info.InstrToSymList[uint16(e.MemoryAddress)] = tagsToSlots(tags, e.Mnemonic == isa.SUBSP)
			}
		}

		if e.Symbol != nil && allSymbolNames(tags) {
			pendingStruct[e.Symbol.Name] = tags
		}
	}

	resolveStructs(pendingStruct, info, errs)
	activateHeap(symbols, info)

	return info
}

func tagsToSlots(tags []parsedTag, reversed bool) []trace.TypedSlot {
	var out []trace.TypedSlot
	for _, t := range tags {
		if !t.isFormat {
			continue
		}
		ty := t.asType()
		ty.Reversed = reversed
		out = append(out, trace.TypedSlot{Type: ty})
	}
	return out
}

func allSymbolNames(tags []parsedTag) bool {
	if len(tags) == 0 {
		return false
	}
	for _, t := range tags {
		if t.isFormat {
			return false
		}
	}
	return true
}

func assignAllocTag(e *CodeEntry, tags []parsedTag, info *trace.TraceInfo, errs *ErrorList) {
	if e.Symbol == nil {
		errs.add(Position{Line: int(e.SourceLine)}, ErrorTraceWarning, "trace tag with no symbol")
		info.StaticTraceError = true
		return
	}
	var fmtTag *parsedTag
	for i := range tags {
		if tags[i].isFormat {
			fmtTag = &tags[i]
			break
		}
	}
	if fmtTag == nil {
		return
	}
	ty := fmtTag.asType()
	if ty.Size() != e.ByteLen() && e.Kind != KindDotEquate {
		errs.add(Position{Line: int(e.SourceLine)}, ErrorTraceWarning, "trace tag size does not match directive width")
		info.StaticTraceError = true
	}
	if e.Kind == KindDotBlock || e.Kind == KindDotByte || e.Kind == KindDotWord {
		info.StaticAllocSymbols[e.Symbol.Name] = ty
	} else {
		info.DynamicAllocSymbols[e.Symbol.Name] = ty
	}
}

// resolveStructs repeatedly attempts to build Struct types for symbols
// whose tag list names other symbols, retrying until no further
// progress is made; a non-empty remainder after a no-progress round
// means a recursive or otherwise unresolvable definition.
func resolveStructs(pending map[string][]parsedTag, info *trace.TraceInfo, errs *ErrorList) {
	for len(pending) > 0 {
		progressed := false
		for name, tags := range pending {
			fields := make([]trace.Type, 0, len(tags))
			ok := true
			for _, t := range tags {
				ft, found := info.StaticAllocSymbols[t.name]
				if !found {
					ft, found = info.DynamicAllocSymbols[t.name]
				}
				if !found {
					ok = false
					break
				}
				fields = append(fields, ft)
			}
			if ok {
				info.StaticAllocSymbols[name] = trace.Struct(fields)
				delete(pending, name)
				progressed = true
			}
		}
		if !progressed {
			for name := range pending {
				errs.add(Position{}, ErrorTraceWarning, "recursive or unresolvable struct trace tag for %q", name)
			}
			info.StaticTraceError = true
			return
		}
	}
}

func activateHeap(symbols *symtab.Table, info *trace.TraceInfo) {
	mallocSym, mallocOK := symbols.Get("malloc")
	heapSym, heapOK := symbols.Get("heap")
	if !mallocOK || !heapOK || !mallocSym.Defined() || !heapSym.Defined() {
		return
	}
	if mallocSym.Value.Kind != symtab.Location || heapSym.Value.Kind != symtab.Location {
		return
	}
	info.HasHeapMalloc = true
	info.MallocAddr = mallocSym.Value.Loc
	info.HeapPtr = heapSym.Value.Loc
}
