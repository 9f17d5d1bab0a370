package backend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/symbols"
	"github.com/veld-lang/veld/internal/token"
)

// Scratch memory map, below the interned strings:
//
//	0..15   iovec for fd_write
//	16..23  single-byte scratch (newline)
//	24..87  number formatting buffer, filled right to left
//	96..    interned string data, then the arena
const (
	iovecAddr   = 0
	byteScratch = 16
	numBufEnd   = 88
	stringBase  = 96
)

type generator struct {
	table   *symbols.Table
	diags   []*diagnostics.Diagnostic
	sources map[string]*funcSource

	funcs []string // emitted function texts, in order

	strOffsets map[string]int
	strOrder   []string
	strNext    int

	// monomorphization worklist for generic functions and methods
	instances map[string]*instance
	pending   []*instance
}

func newGenerator(table *symbols.Table) *generator {
	g := &generator{
		table:      table,
		strOffsets: make(map[string]int),
		strNext:    stringBase,
		instances:  make(map[string]*instance),
	}
	// The boolean printer needs these regardless of user code.
	g.internString("true")
	g.internString("false")
	return g
}

func (g *generator) errorAt(code diagnostics.Code, tok token.Token, format string, args ...interface{}) {
	g.diags = append(g.diags, diagnostics.NewErrorf(code, tok, format, args...))
}

// internString registers a literal in the data section and returns its
// address. Layout is a 4-byte little-endian length prefix plus raw bytes.
func (g *generator) internString(s string) int {
	if off, ok := g.strOffsets[s]; ok {
		return off
	}
	off := g.strNext
	g.strOffsets[s] = off
	g.strOrder = append(g.strOrder, s)
	g.strNext = align(off+4+len(s), 8)
	return off
}

func (g *generator) heapBase() int {
	return align(g.strNext, 16)
}

// assemble stitches the final module together once every function has been
// compiled and all string offsets are known.
func (g *generator) assemble() string {
	var b strings.Builder
	b.WriteString("(module\n")
	b.WriteString("  (import \"wasi_snapshot_preview1\" \"fd_write\" (func $fd_write (param i32 i32 i32 i32) (result i32)))\n")
	b.WriteString("  (import \"wasi_snapshot_preview1\" \"proc_exit\" (func $proc_exit (param i32)))\n")
	b.WriteString("  (memory (export \"memory\") 2)\n")
	fmt.Fprintf(&b, "  (global $veld.hp (mut i32) (i32.const %d))\n", g.heapBase())

	for _, s := range g.strOrder {
		fmt.Fprintf(&b, "  (data (i32.const %d) \"%s\")\n", g.strOffsets[s], encodeData(s))
	}
	b.WriteString("\n")
	b.WriteString(g.runtimeFuncs())
	for _, f := range g.funcs {
		b.WriteString(f)
	}
	b.WriteString("  (export \"_start\" (func $veld.main))\n")
	b.WriteString(")\n")
	return b.String()
}

// encodeData renders a string as a WAT data segment payload with its
// little-endian length prefix.
func encodeData(s string) string {
	var b strings.Builder
	n := len(s)
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&b, "\\%02x", (n>>(8*i))&0xff)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\%02x", c)
		}
	}
	return b.String()
}

// runtimeFuncs is the fixed support library: the bump allocator, fd_write
// plumbing and the number/string printers.
func (g *generator) runtimeFuncs() string {
	trueOff := g.strOffsets["true"]
	falseOff := g.strOffsets["false"]
	return fmt.Sprintf(`  (func $veld.alloc (param $n i32) (result i32)
    (local $p i32)
    global.get $veld.hp
    local.set $p
    local.get $p
    local.get $n
    i32.const 7
    i32.add
    i32.const -8
    i32.and
    i32.add
    global.set $veld.hp
    block
      global.get $veld.hp
      memory.size
      i32.const 16
      i32.shl
      i32.le_u
      br_if 0
      global.get $veld.hp
      i32.const 65535
      i32.add
      i32.const 16
      i32.shr_u
      memory.size
      i32.sub
      memory.grow
      drop
    end
    local.get $p)
  (func $veld.write (param $ptr i32) (param $len i32)
    i32.const %[1]d
    local.get $ptr
    i32.store
    i32.const %[1]d
    local.get $len
    i32.store offset=4
    i32.const 1
    i32.const %[1]d
    i32.const 1
    i32.const %[1]d
    call $fd_write
    drop)
  (func $veld.print_str (param $s i32)
    local.get $s
    i32.const 4
    i32.add
    local.get $s
    i32.load
    call $veld.write)
  (func $veld.nl
    i32.const %[2]d
    i32.const 10
    i32.store8
    i32.const %[2]d
    i32.const 1
    call $veld.write)
  (func $veld.fmt_i64 (param $n i64) (result i32)
    (local $p i32)
    (local $neg i32)
    i32.const %[3]d
    local.set $p
    local.get $n
    i64.const 0
    i64.lt_s
    if
      i32.const 1
      local.set $neg
      i64.const 0
      local.get $n
      i64.sub
      local.set $n
    end
    loop $digits
      local.get $p
      i32.const 1
      i32.sub
      local.set $p
      local.get $p
      local.get $n
      i64.const 10
      i64.rem_u
      i32.wrap_i64
      i32.const 48
      i32.add
      i32.store8
      local.get $n
      i64.const 10
      i64.div_u
      local.set $n
      local.get $n
      i64.const 0
      i64.ne
      br_if $digits
    end
    local.get $neg
    if
      local.get $p
      i32.const 1
      i32.sub
      local.set $p
      local.get $p
      i32.const 45
      i32.store8
    end
    local.get $p)
  (func $veld.print_i64 (param $n i64)
    (local $p i32)
    local.get $n
    call $veld.fmt_i64
    local.set $p
    local.get $p
    i32.const %[3]d
    local.get $p
    i32.sub
    call $veld.write)
  (func $veld.print_bool (param $b i32)
    local.get $b
    if
      i32.const %[4]d
      call $veld.print_str
    else
      i32.const %[5]d
      call $veld.print_str
    end)
  (func $veld.print_f64 (param $f f64)
    (local $whole i64)
    (local $frac i64)
    (local $div i64)
    local.get $f
    f64.const 0
    f64.lt
    if
      i32.const %[2]d
      i32.const 45
      i32.store8
      i32.const %[2]d
      i32.const 1
      call $veld.write
      local.get $f
      f64.neg
      local.set $f
    end
    local.get $f
    i64.trunc_f64_s
    local.set $whole
    local.get $whole
    call $veld.print_i64
    i32.const %[2]d
    i32.const 46
    i32.store8
    i32.const %[2]d
    i32.const 1
    call $veld.write
    local.get $f
    local.get $whole
    f64.convert_i64_s
    f64.sub
    f64.const 1000000
    f64.mul
    f64.nearest
    i64.trunc_f64_s
    local.set $frac
    i64.const 100000
    local.set $div
    loop $digits
      i32.const %[2]d
      local.get $frac
      local.get $div
      i64.div_u
      i64.const 10
      i64.rem_u
      i32.wrap_i64
      i32.const 48
      i32.add
      i32.store8
      i32.const %[2]d
      i32.const 1
      call $veld.write
      local.get $div
      i64.const 10
      i64.div_u
      local.set $div
      local.get $div
      i64.const 0
      i64.ne
      br_if $digits
    end)
  (func $veld.str_concat (param $a i32) (param $b i32) (result i32)
    (local $la i32)
    (local $lb i32)
    (local $p i32)
    local.get $a
    i32.load
    local.set $la
    local.get $b
    i32.load
    local.set $lb
    local.get $la
    local.get $lb
    i32.add
    i32.const 4
    i32.add
    call $veld.alloc
    local.set $p
    local.get $p
    local.get $la
    local.get $lb
    i32.add
    i32.store
    local.get $p
    i32.const 4
    i32.add
    local.get $a
    i32.const 4
    i32.add
    local.get $la
    memory.copy
    local.get $p
    i32.const 4
    i32.add
    local.get $la
    i32.add
    local.get $b
    i32.const 4
    i32.add
    local.get $lb
    memory.copy
    local.get $p)
  (func $veld.str_eq (param $a i32) (param $b i32) (result i32)
    (local $la i32)
    (local $i i32)
    local.get $a
    i32.load
    local.set $la
    local.get $la
    local.get $b
    i32.load
    i32.ne
    if
      i32.const 0
      return
    end
    block $done
      loop $cmp
        local.get $i
        local.get $la
        i32.ge_u
        br_if $done
        local.get $a
        i32.const 4
        i32.add
        local.get $i
        i32.add
        i32.load8_u
        local.get $b
        i32.const 4
        i32.add
        local.get $i
        i32.add
        i32.load8_u
        i32.ne
        if
          i32.const 0
          return
        end
        local.get $i
        i32.const 1
        i32.add
        local.set $i
        br $cmp
      end
    end
    i32.const 1)
  (func $veld.show_i64 (param $n i64) (result i32)
    (local $p i32)
    (local $len i32)
    (local $out i32)
    local.get $n
    call $veld.fmt_i64
    local.set $p
    i32.const %[3]d
    local.get $p
    i32.sub
    local.set $len
    local.get $len
    i32.const 4
    i32.add
    call $veld.alloc
    local.set $out
    local.get $out
    local.get $len
    i32.store
    local.get $out
    i32.const 4
    i32.add
    local.get $p
    local.get $len
    memory.copy
    local.get $out)
`, iovecAddr, byteScratch, numBufEnd, trueOff, falseOff)
}

// sortedInstanceSymbols is used by tests to assert deterministic output.
func (g *generator) sortedInstanceSymbols() []string {
	syms := make([]string, 0, len(g.instances))
	for s := range g.instances {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}
