package module

import "bytes"

const (
	magic   uint32 = 0x6d736100
	version uint32 = 1

	sectionType     byte = 1
	sectionFunction byte = 3
	sectionMemory   byte = 5
	sectionGlobal   byte = 6
	sectionExport   byte = 7
	sectionCode     byte = 10

	kindFunc   byte = 0
	kindMemory byte = 2

	funcTypeByte byte = 0x60
)

// Func is one exported function.
type Func struct {
	Name    string
	Params  []ValType
	Results []ValType
	Locals  []ValType
	Body    *Code
}

// Global is a mutable i32 global with a constant initializer.
type Global struct {
	Init int32
}

// Module describes a core module with one memory exported as "memory".
type Module struct {
	Funcs        []Func
	Globals      []Global
	InitialPages uint32
}

type signature struct {
	params, results []ValType
}

func (s signature) equal(o signature) bool {
	return valTypesEqual(s.params, o.params) && valTypesEqual(s.results, o.results)
}

func valTypesEqual(a, b []ValType) bool {
	return bytes.Equal(valTypeBytes(a), valTypeBytes(b))
}

func valTypeBytes(ts []ValType) []byte {
	out := make([]byte, len(ts))
	for i, t := range ts {
		out[i] = byte(t)
	}
	return out
}

// Encode encodes the module to WebAssembly binary format.
func (m *Module) Encode() []byte {
	var w writer
	w.u32le(magic)
	w.u32le(version)

	// Type section, one entry per distinct signature
	var sigs []signature
	typeIdx := make([]uint32, len(m.Funcs))
	for i, f := range m.Funcs {
		s := signature{f.Params, f.Results}
		idx := -1
		for j, have := range sigs {
			if have.equal(s) {
				idx = j
				break
			}
		}
		if idx < 0 {
			idx = len(sigs)
			sigs = append(sigs, s)
		}
		typeIdx[i] = uint32(idx)
	}
	var sec writer
	sec.u32(uint32(len(sigs)))
	for _, s := range sigs {
		sec.put(funcTypeByte)
		writeValTypes(&sec, s.params)
		writeValTypes(&sec, s.results)
	}
	w.section(sectionType, &sec)

	sec = writer{}
	sec.u32(uint32(len(m.Funcs)))
	for _, idx := range typeIdx {
		sec.u32(idx)
	}
	w.section(sectionFunction, &sec)

	pages := m.InitialPages
	if pages == 0 {
		pages = 1
	}
	sec = writer{}
	sec.u32(1)
	sec.put(0x00) // limits: min only
	sec.u32(pages)
	w.section(sectionMemory, &sec)

	if len(m.Globals) > 0 {
		sec = writer{}
		sec.u32(uint32(len(m.Globals)))
		for _, g := range m.Globals {
			sec.put(byte(I32))
			sec.put(0x01) // mutable
			sec.put(opI32Const)
			sec.s64(int64(g.Init))
			sec.put(opEnd)
		}
		w.section(sectionGlobal, &sec)
	}

	sec = writer{}
	sec.u32(uint32(len(m.Funcs) + 1))
	sec.name("memory")
	sec.put(kindMemory)
	sec.u32(0)
	for i, f := range m.Funcs {
		sec.name(f.Name)
		sec.put(kindFunc)
		sec.u32(uint32(i))
	}
	w.section(sectionExport, &sec)

	sec = writer{}
	sec.u32(uint32(len(m.Funcs)))
	for _, f := range m.Funcs {
		var body writer
		body.u32(uint32(len(f.Locals)))
		for _, l := range f.Locals {
			body.u32(1)
			body.put(byte(l))
		}
		body.write(f.Body.Bytes())
		body.put(opEnd)
		sec.u32(uint32(body.buf.Len()))
		sec.write(body.data())
	}
	w.section(sectionCode, &sec)

	return w.data()
}

func writeValTypes(w *writer, types []ValType) {
	w.u32(uint32(len(types)))
	for _, t := range types {
		w.put(byte(t))
	}
}
